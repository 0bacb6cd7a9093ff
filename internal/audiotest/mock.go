// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"io"
	"math"
)

// Waveform gives the value of channel c at frame i.
type Waveform func(i, c int) float32

func Silence(int, int) float32 { return 0 }

func Constant(v float32) Waveform {
	return func(int, int) float32 { return v }
}

func Sine(sampleRate int, frequency float64) Waveform {
	return func(i, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * frequency * float64(i) / float64(sampleRate)))
	}
}

// Ramp rises by step per frame, offset by c per channel, so every sample
// tells where it came from.
func Ramp(step float32) Waveform {
	return func(i, c int) float32 { return float32(i)*step + float32(c) }
}

// MockSource generates interleaved audio. It satisfies audio.Source
// without importing it.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform

	// MaxFrames caps the frames returned per read when non-zero.
	MaxFrames int
}

func NewMockSource(sampleRate, channels, frames int, wave Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, Silence)
}

func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, Sine(sampleRate, frequency))
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, Constant(value))
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Close() error    { return nil }

// Reset rewinds to the first frame.
func (m *MockSource) Reset() { m.pos = 0 }

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.pos >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.pos)
	if m.MaxFrames > 0 {
		n = min(n, m.MaxFrames)
	}
	for f := range n {
		for c := range m.channels {
			dst[f*m.channels+c] = m.wave(m.pos+f, c)
		}
	}
	m.pos += n

	if m.pos >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}

// StallingSource never produces samples and never ends.
type StallingSource struct{}

func (StallingSource) SampleRate() int                    { return 8000 }
func (StallingSource) Channels() int                      { return 1 }
func (StallingSource) BufSize() int                       { return 16 }
func (StallingSource) Close() error                       { return nil }
func (StallingSource) ReadSamples([]float32) (int, error) { return 0, nil }
