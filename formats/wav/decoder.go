// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/internal/pcm"
)

const formatPCM = 1

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, ErrUnsupportedFormat
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("seeking to PCM data: %w", err)
	}

	return pcm.NewSource(dec, int(dec.BitDepth), true), nil
}

// ProbeDuration computes the duration from the fmt chunk and the size of
// the data chunk, without reading samples.
func (Decoder) ProbeDuration(r io.ReadSeeker) (float64, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return 0, ErrNotWavFile
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoDuration, err)
	}

	frameSize := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if frameSize == 0 || dec.SampleRate == 0 {
		return 0, ErrNoDuration
	}

	frames := dec.PCMLen() / frameSize
	return float64(frames) / float64(dec.SampleRate), nil
}

func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading wav data: %w", err)
	}
	return bytes.NewReader(data), nil
}
