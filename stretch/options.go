// SPDX-License-Identifier: EPL-2.0

package stretch

import (
	"fmt"
	"math"
	"strings"
)

// Detector chooses which onsets the engine treats as transients.
type Detector int

const (
	// DetectorCompound suits mixed material.
	DetectorCompound Detector = iota
	// DetectorPercussive reacts to weaker onsets, for drums.
	DetectorPercussive
	// DetectorSoft never resets phase, for pads and voice.
	DetectorSoft
)

func (d Detector) String() string {
	switch d {
	case DetectorCompound:
		return "compound"
	case DetectorPercussive:
		return "percussive"
	case DetectorSoft:
		return "soft"
	default:
		return fmt.Sprintf("Detector(%d)", int(d))
	}
}

// ParseDetector accepts the names returned by String, in any case.
func ParseDetector(s string) (Detector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compound":
		return DetectorCompound, nil
	case "percussive":
		return DetectorPercussive, nil
	case "soft":
		return DetectorSoft, nil
	default:
		return 0, fmt.Errorf("%w: unknown detector %q", ErrInvalidOptions, s)
	}
}

func (d Detector) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Detector) UnmarshalText(text []byte) error {
	v, err := ParseDetector(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Options controls a single stretch.
type Options struct {
	// TempoRatio multiplies the duration: 2 doubles it, 0.5 halves it.
	TempoRatio float64 `yaml:"tempo_ratio"`
	// PitchScale multiplies every frequency: 2 is one octave up.
	PitchScale float64 `yaml:"pitch_scale"`

	PreserveFormants bool     `yaml:"preserve_formants"`
	Detector         Detector `yaml:"detector"`
	Smoothing        bool     `yaml:"smoothing"`
	HighQualityPitch bool     `yaml:"high_quality_pitch"`
	HighQualityTempo bool     `yaml:"high_quality_tempo"`
}

// DefaultOptions leaves the audio unchanged.
func DefaultOptions() Options {
	return Options{TempoRatio: 1, PitchScale: 1}
}

func (o Options) Validate() error {
	if !(o.TempoRatio > 0) || math.IsInf(o.TempoRatio, 0) {
		return fmt.Errorf("%w: tempo ratio must be positive, got %v", ErrInvalidOptions, o.TempoRatio)
	}
	if !(o.PitchScale > 0) || math.IsInf(o.PitchScale, 0) {
		return fmt.Errorf("%w: pitch scale must be positive, got %v", ErrInvalidOptions, o.PitchScale)
	}
	if r := o.TempoRatio * o.PitchScale; !(r > 0) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: tempo ratio %v and pitch scale %v combine to %v",
			ErrInvalidOptions, o.TempoRatio, o.PitchScale, r)
	}
	switch o.Detector {
	case DetectorCompound, DetectorPercussive, DetectorSoft:
	default:
		return fmt.Errorf("%w: %v", ErrInvalidOptions, o.Detector)
	}
	return nil
}

// Flags assembles the engine option bits for o. Offline processing is
// always requested.
func (o Options) Flags() Flags {
	f := OptionProcessOffline

	switch o.Detector {
	case DetectorPercussive:
		f |= OptionDetectorPercussive
	case DetectorSoft:
		f |= OptionDetectorSoft
	default:
		f |= OptionDetectorCompound
	}

	if o.PreserveFormants {
		f |= OptionFormantPreserved
	}
	if o.HighQualityPitch {
		f |= OptionPitchHighQuality
	}
	if o.HighQualityTempo {
		f |= OptionWindowLong
	}
	if o.Smoothing {
		f |= OptionSmoothingOn
	}

	return f
}

// TimeRatioForSpeed converts a playback speed in percent to a time ratio:
// 130% speed is a ratio of 1/1.30.
func TimeRatioForSpeed(percent float64) float64 {
	return 100 / percent
}

// PitchScaleForSemitones converts a transposition in semitones to a pitch
// scale.
func PitchScaleForSemitones(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}
