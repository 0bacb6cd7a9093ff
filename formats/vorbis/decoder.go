// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/splicebox/audio"
	"github.com/jfreymuth/oggvorbis"
)

// ErrNoDuration is returned when the stream length is unknown.
var ErrNoDuration = errors.New("Ogg Vorbis stream has no readable duration")

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// ReadSamples reads whole frames; oggvorbis fills interleaved samples and
// reports the number of values written.
func (s *source) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / s.channels
	if frames == 0 {
		return 0, nil
	}

	return s.dec.Read(dst[:frames*s.channels])
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}

// ProbeDuration uses the granule position of the last page.
func (Decoder) ProbeDuration(r io.ReadSeeker) (float64, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}

	length := dec.Length()
	if length <= 0 || dec.SampleRate() <= 0 {
		return 0, ErrNoDuration
	}

	return float64(length) / float64(dec.SampleRate()), nil
}
