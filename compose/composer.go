// SPDX-License-Identifier: EPL-2.0

package compose

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/marker"
)

// File is an encoded source file. Name selects the decoder by extension.
type File struct {
	Name string
	Data []byte
}

// ReadFile loads a file from disk.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%w", err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// CueReader extracts cue points, in seconds, from an encoded file.
type CueReader interface {
	ReadCuePoints(data []byte) []float64
}

// Result is the outcome of one composition. It is never modified after
// being returned.
type Result struct {
	Buffer *audio.Buffer
	// Markers are every splice marker in the composed timeline, ascending.
	Markers []float64
	// Boundaries are the markers placed at joins between sources.
	Boundaries []float64
	// Duration equals Buffer.Len() / Buffer.SampleRate().
	Duration float64
	// Warnings holds soft failures, such as *SampleRateMismatchError.
	Warnings []error
}

// Composer joins decoded sources into one buffer and keeps their markers.
type Composer struct {
	registry *audio.Registry
	cues     CueReader
	logger   *slog.Logger
}

// New returns a Composer. cues may be nil when sources carry no cue points;
// a nil logger discards output.
func New(registry *audio.Registry, cues CueReader, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{registry: registry, cues: cues, logger: logger}
}

// segment is one source placed in the composed timeline.
type segment struct {
	name string
	buf  *audio.Buffer
	cues []float64
}

// Concatenate decodes files in order and joins them. A boundary marker is
// placed at every join. When truncate is set the result is cut to
// maxDuration and markers at or beyond it are dropped.
func (c *Composer) Concatenate(ctx context.Context, files []File, truncate bool, maxDuration float64) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrEmptyInput
	}
	if truncate && !validLimit(maxDuration) {
		return nil, ErrTruncationUnderrun
	}

	segments, err := c.decodeAll(ctx, files)
	if err != nil {
		return nil, err
	}

	return c.compose(segments, truncate, maxDuration), nil
}

// Append joins files after existing. existingMarkers are positions in the
// existing timeline; they are kept as they are instead of being read from
// the files. A boundary marker always marks where the new audio starts.
func (c *Composer) Append(ctx context.Context, existing *audio.Buffer, existingMarkers []float64, files []File, truncate bool, maxDuration float64) (*Result, error) {
	if len(files) == 0 || existing == nil {
		return nil, ErrEmptyInput
	}
	if truncate && !validLimit(maxDuration) {
		return nil, ErrTruncationUnderrun
	}

	decoded, err := c.decodeAll(ctx, files)
	if err != nil {
		return nil, err
	}

	segments := make([]segment, 0, len(decoded)+1)
	segments = append(segments, segment{
		name: "existing audio",
		buf:  existing,
		cues: marker.FilterWithinDuration(existingMarkers, existing.Duration()),
	})
	segments = append(segments, decoded...)

	return c.compose(segments, truncate, maxDuration), nil
}

// Truncate cuts result to maxDuration. Results already short enough are
// returned unchanged. Markers are kept when they are at most maxDuration.
func (c *Composer) Truncate(result *Result, maxDuration float64) (*Result, error) {
	if !validLimit(maxDuration) {
		return nil, ErrTruncationUnderrun
	}
	if result == nil || result.Buffer == nil {
		return nil, ErrEmptyInput
	}
	if result.Duration <= maxDuration {
		return result, nil
	}

	buf := result.Buffer.Prefix(prefixLen(result.Buffer.Len(), result.Buffer.SampleRate(), maxDuration))

	c.logger.Debug("truncated composition",
		slog.Float64("from", result.Duration),
		slog.Float64("to", buf.Duration()),
	)

	return &Result{
		Buffer:     buf,
		Markers:    marker.FilterUpTo(result.Markers, maxDuration),
		Boundaries: marker.FilterUpTo(result.Boundaries, maxDuration),
		Duration:   buf.Duration(),
		Warnings:   result.Warnings,
	}, nil
}

// ProbeDuration sums the container durations of files without decoding
// their audio.
func (c *Composer) ProbeDuration(ctx context.Context, files []File) (float64, error) {
	if len(files) == 0 {
		return 0, ErrEmptyInput
	}

	var total float64
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w", err)
		}

		dec, ok := c.registry.Lookup(f.Name)
		if !ok {
			return 0, &MetadataError{File: f.Name, Err: ErrUnsupportedFormat}
		}
		prober, ok := dec.(audio.Prober)
		if !ok {
			return 0, &MetadataError{File: f.Name, Err: ErrNoProber}
		}

		d, err := prober.ProbeDuration(bytes.NewReader(f.Data))
		if err != nil {
			return 0, &MetadataError{File: f.Name, Err: err}
		}
		total += d
	}

	return total, nil
}

func validLimit(maxDuration float64) bool {
	return maxDuration > 0 && !math.IsInf(maxDuration, 1)
}

// prefixLen is the number of frames of a length-frame buffer that fit in
// maxDuration seconds. maxDuration may exceed any int frame count.
func prefixLen(length, rate int, maxDuration float64) int {
	if limit := maxDuration * float64(rate); limit < float64(length) {
		return int(math.Floor(limit))
	}
	return length
}

func (c *Composer) decodeAll(ctx context.Context, files []File) ([]segment, error) {
	segments := make([]segment, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w", err)
		}

		seg, err := c.decode(f)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

func (c *Composer) decode(f File) (segment, error) {
	dec, ok := c.registry.Lookup(f.Name)
	if !ok {
		return segment{}, &DecodeError{File: f.Name, Err: ErrUnsupportedFormat}
	}

	src, err := dec.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return segment{}, &DecodeError{File: f.Name, Err: err}
	}
	defer src.Close()

	buf, err := audio.ReadBuffer(src)
	if err != nil {
		return segment{}, &DecodeError{File: f.Name, Err: err}
	}

	var cues []float64
	if c.cues != nil {
		// Cue points past the end of their own file are corrupt metadata.
		cues = marker.FilterWithinDuration(c.cues.ReadCuePoints(f.Data), buf.Duration())
	}

	c.logger.Debug("decoded source",
		slog.String("file", f.Name),
		slog.Int("sample_rate", buf.SampleRate()),
		slog.Int("channels", buf.Channels()),
		slog.Float64("duration", buf.Duration()),
		slog.Int("cue_points", len(cues)),
	)

	return segment{name: f.Name, buf: buf, cues: cues}, nil
}

// compose lays segments end to end. The first segment sets the sample rate;
// the widest sets the channel count.
func (c *Composer) compose(segments []segment, truncate bool, maxDuration float64) *Result {
	rate := segments[0].buf.SampleRate()

	var (
		markers    []float64
		boundaries []float64
		warnings   []error
		timeOffset float64
		length     int
		channels   int
	)

	for i, seg := range segments {
		if seg.buf.SampleRate() != rate {
			w := &SampleRateMismatchError{File: seg.name, Got: seg.buf.SampleRate(), Want: rate}
			c.logger.Warn("sample rate mismatch, copying samples verbatim",
				slog.String("file", seg.name),
				slog.Int("sample_rate", seg.buf.SampleRate()),
				slog.Int("target_rate", rate),
			)
			warnings = append(warnings, w)
		}

		markers = append(markers, marker.Offset(seg.cues, timeOffset)...)
		if i > 0 {
			markers = append(markers, timeOffset)
			boundaries = append(boundaries, timeOffset)
		}

		timeOffset += seg.buf.Duration()
		length += seg.buf.Len()
		channels = max(channels, seg.buf.Channels())
	}

	total := length
	if truncate {
		length = prefixLen(length, rate, maxDuration)
		markers = marker.FilterWithinDuration(markers, maxDuration)
		boundaries = marker.FilterWithinDuration(boundaries, maxDuration)
	}

	out := audio.NewBuffer(channels, length, rate)
	offset := 0
	for _, seg := range segments {
		if offset >= length {
			break
		}
		offset += audio.CopyInto(out, seg.buf, offset, 0, seg.buf.Len())
	}

	duration := out.Duration()
	result := &Result{
		Buffer:     out,
		Markers:    marker.DeduplicateAndSort(marker.FilterWithinDuration(markers, duration)),
		Boundaries: marker.DeduplicateAndSort(marker.FilterWithinDuration(boundaries, duration)),
		Duration:   duration,
		Warnings:   warnings,
	}

	c.logger.Info("composed audio",
		slog.Int("sources", len(segments)),
		slog.Float64("duration", duration),
		slog.Int("markers", len(result.Markers)),
		slog.Int("boundaries", len(result.Boundaries)),
		slog.Bool("truncated", length < total),
	)

	return result
}
