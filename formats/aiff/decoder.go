// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/internal/pcm"
)

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := open(r)
	if err != nil {
		return nil, err
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	if dec.Format() == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	return pcm.NewSource(dec, int(dec.BitDepth), false), nil
}

// ProbeDuration reads the frame count and rate from the COMM chunk.
func (Decoder) ProbeDuration(r io.ReadSeeker) (float64, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return 0, ErrNotAiffFile
	}
	dec.ReadInfo()

	if dec.SampleRate <= 0 {
		return 0, ErrNoDuration
	}
	return float64(dec.NumSampleFrames) / float64(dec.SampleRate), nil
}

func open(r io.Reader) (*aiff.Decoder, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	return dec, nil
}
