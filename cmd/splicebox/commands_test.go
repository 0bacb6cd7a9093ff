// SPDX-License-Identifier: EPL-2.0

package main

import (
	"math"
	"testing"

	"github.com/ik5/splicebox/config"
	"github.com/ik5/splicebox/stretch"
)

func TestStretchCmd_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cmd       stretchCmd
		base      stretch.Options
		wantTempo float64
		wantPitch float64
		wantErr   bool
	}{
		{"config values", stretchCmd{}, stretch.Options{TempoRatio: 1.5, PitchScale: 0.5}, 1.5, 0.5, false},
		{"tempo flag", stretchCmd{Tempo: 2}, stretch.DefaultOptions(), 2, 1, false},
		{"speed wins over tempo", stretchCmd{Tempo: 3, Speed: 200}, stretch.DefaultOptions(), 0.5, 1, false},
		{"pitch flag", stretchCmd{Pitch: 2}, stretch.DefaultOptions(), 1, 2, false},
		{"semitones win over pitch", stretchCmd{Pitch: 3, Semitones: -12}, stretch.DefaultOptions(), 1, 0.5, false},
		{"bad config", stretchCmd{}, stretch.Options{TempoRatio: 0, PitchScale: 1}, 0, 1, true},
		{"bad detector", stretchCmd{Detector: "crisp"}, stretch.DefaultOptions(), 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, err := tt.cmd.options(tt.base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("options() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if math.Abs(opts.TempoRatio-tt.wantTempo) > 1e-12 || math.Abs(opts.PitchScale-tt.wantPitch) > 1e-12 {
				t.Errorf("options() = tempo %v pitch %v, want tempo %v pitch %v",
					opts.TempoRatio, opts.PitchScale, tt.wantTempo, tt.wantPitch)
			}
		})
	}
}

func TestStretchCmd_OptionsMergesFlags(t *testing.T) {
	t.Parallel()

	base := stretch.DefaultOptions()
	base.Smoothing = true

	opts, err := (&stretchCmd{Detector: "soft", Formants: true, HQPitch: true}).options(base)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Detector != stretch.DetectorSoft || !opts.PreserveFormants || !opts.HighQualityPitch || !opts.Smoothing {
		t.Errorf("options() = %+v", opts)
	}
	if opts.HighQualityTempo {
		t.Error("options() turned on the long window")
	}
}

func TestEnvironment_Limits(t *testing.T) {
	t.Parallel()

	env := &environment{cfg: config.Default()}

	tests := []struct {
		name         string
		max          float64
		noTruncate   bool
		wantMax      float64
		wantTruncate bool
	}{
		{"config", 0, false, 174, true},
		{"flag", 20, false, 20, true},
		{"no truncate", 0, true, 174, false},
	}
	for _, tt := range tests {
		gotMax, gotTruncate := env.limits(tt.max, tt.noTruncate)
		if gotMax != tt.wantMax || gotTruncate != tt.wantTruncate {
			t.Errorf("%s: limits() = %v, %v, want %v, %v", tt.name, gotMax, gotTruncate, tt.wantMax, tt.wantTruncate)
		}
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(Globals{LogLevel: "debug", LogFormat: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Sampler.MaxDuration != 174 {
		t.Errorf("MaxDuration = %v, want the default", cfg.Sampler.MaxDuration)
	}
}
