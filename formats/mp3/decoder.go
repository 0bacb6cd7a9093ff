// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/splicebox/audio"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const (
	channels  = 2
	frameSize = channels * 2
)

// ErrNoDuration is returned when the stream length cannot be determined,
// typically because the input is not seekable.
var ErrNoDuration = errors.New("MP3 stream has no readable duration")

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf)
	samples := n / 2
	for i := range samples {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}

	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}

// ProbeDuration derives the duration from the decoded stream length that
// go-mp3 computes by scanning frame headers.
func (Decoder) ProbeDuration(r io.ReadSeeker) (float64, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}

	length := dec.Length()
	if length <= 0 || dec.SampleRate() <= 0 {
		return 0, ErrNoDuration
	}

	return float64(length/frameSize) / float64(dec.SampleRate()), nil
}
