// SPDX-License-Identifier: EPL-2.0

package splicebox

import (
	"fmt"

	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/formats/aiff"
	"github.com/ik5/splicebox/formats/flac"
	"github.com/ik5/splicebox/formats/mp3"
	"github.com/ik5/splicebox/formats/vorbis"
	"github.com/ik5/splicebox/formats/wav"
	"github.com/ik5/splicebox/marker"
)

// NewRegistry returns a registry with every supported format, keyed by
// file extension.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(wav.Decoder{}, "wav", "wave")
	r.Register(aiff.Decoder{}, "aif", "aiff")
	r.Register(mp3.Decoder{}, "mp3")
	r.Register(vorbis.Decoder{}, "ogg", "oga")
	r.Register(flac.Decoder{}, "flac")
	return r
}

// ExportOptions adapts audio to what a sampler accepts.
type ExportOptions struct {
	// SampleRate resamples the audio when non-zero.
	SampleRate int
	// Mono averages all channels into one.
	Mono bool
}

// Convert returns buf resampled and downmixed per opts. buf itself is
// returned when opts asks for nothing.
//
// The conversion is a streaming pipeline: the buffer is read as a Source,
// optionally resampled with cubic interpolation, optionally mixed to mono,
// and collected into a new buffer.
func Convert(buf *audio.Buffer, opts ExportOptions) (*audio.Buffer, error) {
	resample := opts.SampleRate > 0 && opts.SampleRate != buf.SampleRate()
	mono := opts.Mono && buf.Channels() > 1
	if !resample && !mono {
		return buf, nil
	}

	src := buf.Source()
	if resample {
		src = audio.NewResampler(src, opts.SampleRate)
	}
	if mono {
		src = audio.NewMonoMixer(src)
	}
	defer src.Close()

	out, err := audio.ReadBuffer(src)
	if err != nil {
		return nil, fmt.Errorf("converting audio: %w", err)
	}
	return out, nil
}

// Export converts buf and writes it as a WAV file with one cue point per
// marker. Markers keep their positions in seconds; any that fall outside
// the converted audio are dropped.
func Export(buf *audio.Buffer, markers []float64, opts ExportOptions) ([]byte, error) {
	out, err := Convert(buf, opts)
	if err != nil {
		return nil, err
	}

	data, err := wav.Serialize(out, marker.FilterWithinDuration(markers, out.Duration()))
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return data, nil
}
