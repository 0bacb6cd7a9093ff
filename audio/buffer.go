// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// maxEmptyReads bounds how many consecutive (0, nil) reads ReadBuffer
// tolerates before giving up on a source.
const maxEmptyReads = 64

// Buffer is a fully decoded, planar block of audio: one []float32 per
// channel, all of the same length, at a fixed sample rate.
//
// Operations that produce a Buffer hand it to the caller; nothing in this
// module writes to a Buffer after returning it.
type Buffer struct {
	sampleRate int
	data       [][]float32
}

// NewBuffer allocates a silent buffer.
func NewBuffer(channels, length, sampleRate int) *Buffer {
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, length)
	}

	return &Buffer{sampleRate: sampleRate, data: data}
}

// NewBufferFromChannels wraps planar channel data. Channels shorter than
// the longest one are zero-padded.
func NewBufferFromChannels(sampleRate int, channels [][]float32) *Buffer {
	length := 0
	for _, ch := range channels {
		length = max(length, len(ch))
	}

	data := make([][]float32, len(channels))
	for c, ch := range channels {
		if len(ch) == length {
			data[c] = ch
			continue
		}
		data[c] = make([]float32, length)
		copy(data[c], ch)
	}

	return &Buffer{sampleRate: sampleRate, data: data}
}

func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Channels() int   { return len(b.data) }

// Len is the number of sample frames per channel.
func (b *Buffer) Len() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0])
}

// Duration in seconds.
func (b *Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.sampleRate)
}

// Channel returns the samples of channel c. The slice is shared with the
// buffer and must be treated as read-only.
func (b *Buffer) Channel(c int) []float32 {
	return b.data[c]
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := NewBuffer(b.Channels(), b.Len(), b.sampleRate)
	CopyInto(out, b, 0, 0, b.Len())
	return out
}

// Prefix returns a copy of the first n frames.
func (b *Buffer) Prefix(n int) *Buffer {
	n = min(max(n, 0), b.Len())
	out := NewBuffer(b.Channels(), n, b.sampleRate)
	CopyInto(out, b, 0, 0, n)
	return out
}

// CopyInto copies n frames from src (starting at srcOffset) into dst
// (starting at dstOffset). Destination channel c receives source channel c
// when the source has it, and silence otherwise. Samples are assigned
// verbatim: no mixing and no resampling. The copy is clipped to what both
// buffers can hold; the number of frames copied is returned.
func CopyInto(dst, src *Buffer, dstOffset, srcOffset, n int) int {
	if dstOffset < 0 || srcOffset < 0 {
		return 0
	}
	n = min(n, dst.Len()-dstOffset, src.Len()-srcOffset)
	if n <= 0 {
		return 0
	}

	for c := range dst.data {
		out := dst.data[c][dstOffset : dstOffset+n]
		if c < len(src.data) {
			copy(out, src.data[c][srcOffset:srcOffset+n])
			continue
		}
		clear(out)
	}

	return n
}

// ReadBuffer drains src into a Buffer. It does not close src.
func ReadBuffer(src Source) (*Buffer, error) {
	channels := src.Channels()
	if channels <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidFormat
	}

	size := max(src.BufSize(), 4096)
	size -= size % channels
	chunk := make([]float32, size)

	var interleaved []float32
	empty := 0
	for {
		n, err := src.ReadSamples(chunk)
		if n > 0 {
			interleaved = append(interleaved, chunk[:n]...)
			empty = 0
		} else if err == nil {
			empty++
			if empty >= maxEmptyReads {
				return nil, ErrNoProgress
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
	}

	frames := len(interleaved) / channels
	buf := NewBuffer(channels, frames, src.SampleRate())
	for f := range frames {
		base := f * channels
		for c := range channels {
			buf.data[c][f] = interleaved[base+c]
		}
	}

	return buf, nil
}

// Source exposes the buffer as an interleaved Source, so it can feed the
// Resampler and MonoMixer.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf *Buffer
	pos int
}

func (s *bufferSource) SampleRate() int { return s.buf.sampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels() }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	channels := s.buf.Channels()
	if channels == 0 || s.pos >= s.buf.Len() {
		return 0, io.EOF
	}
	if len(dst)%channels != 0 {
		return 0, ErrInvalidDstSize
	}

	frames := min(len(dst)/channels, s.buf.Len()-s.pos)
	for f := range frames {
		for c := range channels {
			dst[f*channels+c] = s.buf.data[c][s.pos+f]
		}
	}
	s.pos += frames

	if s.pos >= s.buf.Len() {
		return frames * channels, io.EOF
	}
	return frames * channels, nil
}
