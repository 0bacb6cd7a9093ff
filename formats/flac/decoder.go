// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/splicebox/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// ErrNoDuration is returned when STREAMINFO does not record a sample count.
var ErrNoDuration = errors.New("FLAC stream has no readable duration")

// frameReader is an interface for flac.Stream to allow testing
type frameReader interface {
	ParseNext() (*frame.Frame, error)
}

type source struct {
	stream     frameReader
	closer     io.Closer
	sampleRate int
	channels   int

	// pending holds decoded interleaved samples not yet handed out.
	pending []float32
	eof     bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 * s.channels }

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	for len(s.pending) < len(dst) && !s.eof {
		f, err := s.stream.ParseNext()
		if err == io.EOF {
			s.eof = true
			break
		}
		if err != nil {
			return 0, fmt.Errorf("parsing FLAC frame: %w", err)
		}
		s.appendFrame(f)
	}

	n := copy(dst, s.pending)
	s.pending = s.pending[n:]

	if s.eof && len(s.pending) == 0 {
		return n, io.EOF
	}
	return n, nil
}

func (s *source) appendFrame(f *frame.Frame) {
	if len(f.Subframes) == 0 {
		return
	}

	scale := float32(int64(1) << (f.BitsPerSample - 1))
	count := len(f.Subframes[0].Samples)
	for i := range count {
		for c := range s.channels {
			var v float32
			if c < len(f.Subframes) {
				v = float32(f.Subframes[c].Samples[i]) / scale
			}
			s.pending = append(s.pending, v)
		}
	}
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		stream:     stream,
		closer:     stream,
		sampleRate: int(stream.Info.SampleRate),
		channels:   int(stream.Info.NChannels),
	}, nil
}

// ProbeDuration reads the sample count from the STREAMINFO block.
func (Decoder) ProbeDuration(r io.ReadSeeker) (float64, error) {
	stream, err := flac.New(r)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info.NSamples == 0 || info.SampleRate == 0 {
		return 0, ErrNoDuration
	}

	return float64(info.NSamples) / float64(info.SampleRate), nil
}
