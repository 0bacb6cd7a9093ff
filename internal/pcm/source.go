// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts the go-audio integer PCM decoders (WAV, AIFF) to
// audio.Source.
package pcm

import (
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/ik5/splicebox/audio"
)

// Reader is the subset of the go-audio wav and aiff decoders used here.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        Reader
	sampleRate int
	channels   int
	bitDepth   int
	unsigned   bool
	intBuf     *goaudio.IntBuffer
}

// NewSource wraps dec, normalizing its integer samples by bitDepth.
// unsigned8 marks 8-bit data stored with a +128 bias, as WAV does.
func NewSource(dec Reader, bitDepth int, unsigned8 bool) audio.Source {
	format := dec.Format()
	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
		unsigned:   unsigned8 && bitDepth == 8,
	}
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, err
		}
		return 0, io.EOF
	}

	var offset float32
	scale := float32(goaudio.IntMaxSignedValue(s.bitDepth))
	switch {
	case s.unsigned:
		offset = 128
		scale = 128
	case scale == 0:
		scale = 32768
	}
	for i := range n {
		dst[i] = (float32(s.intBuf.Data[i]) - offset) / scale
	}

	if n < len(dst) && err == nil {
		return n, io.EOF
	}

	return n, err
}
