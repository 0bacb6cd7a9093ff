// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ik5/splicebox"
	"github.com/ik5/splicebox/compose"
	"github.com/ik5/splicebox/config"
	"github.com/ik5/splicebox/editor"
	"github.com/ik5/splicebox/formats/wav"
	"github.com/ik5/splicebox/internal/cli"
	"github.com/ik5/splicebox/metrics"
	"github.com/ik5/splicebox/stretch"
)

var errTooLong = errors.New("sources exceed the maximum duration")

type environment struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *slog.Logger
	printer cli.Printer
	metrics *metrics.Metrics
}

func (e *environment) composer() *compose.Composer {
	return compose.New(splicebox.NewRegistry(), wav.CueReader{}, e.logger)
}

func (e *environment) session(stretcher editor.Stretcher) *editor.Session {
	return editor.New(e.composer(), stretcher,
		editor.WithLogger(e.logger),
		editor.WithUndoDepth(e.cfg.Sampler.UndoDepth),
		editor.WithMetrics(e.metrics),
	)
}

// limits resolves the truncation settings from flags over the config.
func (e *environment) limits(maxDuration float64, noTruncate bool) (float64, bool) {
	if maxDuration <= 0 {
		maxDuration = e.cfg.Sampler.MaxDuration
	}
	return maxDuration, e.cfg.Sampler.Truncate && !noTruncate
}

// checkLength rejects sources that would not fit without truncation,
// using container metadata only.
func (e *environment) checkLength(files []compose.File, maxDuration float64, truncate bool) error {
	if truncate {
		return nil
	}
	total, err := e.composer().ProbeDuration(e.ctx, files)
	if err != nil {
		return err
	}
	if total > maxDuration {
		return fmt.Errorf("%w: %s > %s", errTooLong, cli.FormatSeconds(total), cli.FormatSeconds(maxDuration))
	}
	return nil
}

type exportFlags struct {
	Output string `help:"Output WAV file." short:"o" required:"" type:"path"`
	Rate   int    `help:"Resample the output to this rate in Hz."`
	Mono   bool   `help:"Mix the output down to mono."`
}

func (f exportFlags) write(e *environment, st editor.State) error {
	opts := splicebox.ExportOptions{SampleRate: e.cfg.Export.SampleRate, Mono: e.cfg.Export.Mono || f.Mono}
	if f.Rate > 0 {
		opts.SampleRate = f.Rate
	}

	data, err := splicebox.Export(st.Buffer, st.Markers.All(), opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", f.Output, err)
	}

	e.printer.Success("Wrote " + f.Output)
	return nil
}

func report(p cli.Printer, st editor.State) {
	p.Section("Result")
	p.Info("Duration", cli.FormatSeconds(st.Duration))
	p.Info("Channels", fmt.Sprint(st.Buffer.Channels()))
	p.Info("Sample rate", fmt.Sprintf("%d Hz", st.Buffer.SampleRate()))
	p.Markers(st.Markers.Splice, st.Markers.Locked)
}

func readFiles(paths []string) ([]compose.File, error) {
	files := make([]compose.File, 0, len(paths))
	for _, path := range paths {
		f, err := compose.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

type joinCmd struct {
	Files      []string    `arg:"" help:"Audio files to join, in order." type:"existingfile"`
	Max        float64     `help:"Maximum duration in seconds. Defaults to the configured sampler limit."`
	NoTruncate bool        `help:"Fail instead of cutting audio beyond the maximum duration."`
	Export     exportFlags `embed:""`
}

func (c *joinCmd) Run(env *environment) error {
	files, err := readFiles(c.Files)
	if err != nil {
		return err
	}

	maxDuration, truncate := env.limits(c.Max, c.NoTruncate)
	if err := env.checkLength(files, maxDuration, truncate); err != nil {
		return err
	}

	st, err := env.session(nil).Load(env.ctx, files, truncate, maxDuration)
	if err != nil {
		return err
	}

	report(env.printer, st)
	return c.Export.write(env, st)
}

type appendCmd struct {
	Existing   string      `arg:"" help:"Sample to extend. Its cue points are kept." type:"existingfile"`
	Files      []string    `arg:"" help:"Audio files to append, in order." type:"existingfile"`
	Max        float64     `help:"Maximum duration in seconds. Defaults to the configured sampler limit."`
	NoTruncate bool        `help:"Fail instead of cutting audio beyond the maximum duration."`
	Export     exportFlags `embed:""`
}

func (c *appendCmd) Run(env *environment) error {
	existing, err := compose.ReadFile(c.Existing)
	if err != nil {
		return err
	}
	files, err := readFiles(c.Files)
	if err != nil {
		return err
	}

	maxDuration, truncate := env.limits(c.Max, c.NoTruncate)
	if err := env.checkLength(append([]compose.File{existing}, files...), maxDuration, truncate); err != nil {
		return err
	}

	session := env.session(nil)
	if _, err := session.Load(env.ctx, []compose.File{existing}, truncate, maxDuration); err != nil {
		return err
	}
	st, err := session.Append(env.ctx, files, truncate, maxDuration)
	if err != nil {
		return err
	}

	report(env.printer, st)
	return c.Export.write(env, st)
}

type stretchCmd struct {
	Input     string      `arg:"" help:"Sample to stretch. Its cue points are moved along." type:"existingfile"`
	Tempo     float64     `help:"Time ratio: 2 doubles the duration."`
	Speed     float64     `help:"Playback speed in percent, instead of --tempo."`
	Pitch     float64     `help:"Pitch scale: 2 is one octave up."`
	Semitones float64     `help:"Transposition in semitones, instead of --pitch."`
	Detector  string      `help:"Transient detector." enum:",compound,percussive,soft" default:""`
	Formants  bool        `help:"Preserve formants when shifting pitch."`
	Smoothing bool        `help:"Smooth the spectrum over time."`
	HQPitch   bool        `name:"hq-pitch" help:"Use the high quality pitch shifter."`
	HQTempo   bool        `name:"hq-tempo" help:"Use a longer analysis window."`
	Export    exportFlags `embed:""`
}

func (c *stretchCmd) options(base stretch.Options) (stretch.Options, error) {
	opts := base
	switch {
	case c.Speed > 0:
		opts.TempoRatio = stretch.TimeRatioForSpeed(c.Speed)
	case c.Tempo > 0:
		opts.TempoRatio = c.Tempo
	}
	switch {
	case c.Semitones != 0:
		opts.PitchScale = stretch.PitchScaleForSemitones(c.Semitones)
	case c.Pitch > 0:
		opts.PitchScale = c.Pitch
	}
	if c.Detector != "" {
		d, err := stretch.ParseDetector(c.Detector)
		if err != nil {
			return opts, err
		}
		opts.Detector = d
	}

	opts.PreserveFormants = opts.PreserveFormants || c.Formants
	opts.Smoothing = opts.Smoothing || c.Smoothing
	opts.HighQualityPitch = opts.HighQualityPitch || c.HQPitch
	opts.HighQualityTempo = opts.HighQualityTempo || c.HQTempo

	return opts, opts.Validate()
}

func (c *stretchCmd) Run(env *environment) error {
	opts, err := c.options(env.cfg.Stretch)
	if err != nil {
		return err
	}

	f, err := compose.ReadFile(c.Input)
	if err != nil {
		return err
	}

	pipeline, err := stretch.Open(env.ctx, stretch.NativeLoader(env.cfg.Engine.ArenaLimit), env.logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	session := env.session(pipeline)
	if _, err := session.Load(env.ctx, []compose.File{f}, false, 0); err != nil {
		return err
	}
	st, err := session.Stretch(env.ctx, opts)
	if err != nil {
		return err
	}

	env.printer.Info("Tempo ratio", fmt.Sprintf("%.4f", opts.TempoRatio))
	env.printer.Info("Pitch scale", fmt.Sprintf("%.4f", opts.PitchScale))
	report(env.printer, st)
	return c.Export.write(env, st)
}

type cuesCmd struct {
	Files []string `arg:"" help:"Audio files to inspect." type:"existingfile"`
}

func (c *cuesCmd) Run(env *environment) error {
	composer := env.composer()
	for _, path := range c.Files {
		f, err := compose.ReadFile(path)
		if err != nil {
			return err
		}

		duration, err := composer.ProbeDuration(env.ctx, []compose.File{f})
		if err != nil {
			return err
		}

		env.printer.Title(filepath.Base(path))
		env.printer.Info("Duration", cli.FormatSeconds(duration))
		if duration > env.cfg.Sampler.MaxDuration {
			env.printer.Warning(fmt.Sprintf("longer than the %s sampler limit", cli.FormatSeconds(env.cfg.Sampler.MaxDuration)))
		}
		env.printer.Markers(wav.ReadCuePoints(f.Data), nil)
	}
	return nil
}
