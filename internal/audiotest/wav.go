// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV encodes frames of wave as 16-bit PCM. Each cue is a sample offset
// written to a "cue " chunk; no chunk is written without cues.
func WAV(tb testing.TB, sampleRate, channels, frames int, wave Waveform, cues ...uint32) []byte {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("creating fixture: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	data := make([]int, frames*channels)
	for i := range frames {
		for c := range channels {
			v := min(max(wave(i, c), -1), 1)
			data[i*channels+c] = int(v * 32767)
		}
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		tb.Fatalf("writing fixture samples: %v", err)
	}

	if len(cues) > 0 {
		if err := enc.AddLE(CueChunk(cues...)); err != nil {
			tb.Fatalf("writing fixture cues: %v", err)
		}
	}

	if err := enc.Close(); err != nil {
		tb.Fatalf("closing fixture encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		tb.Fatalf("closing fixture: %v", err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("reading fixture: %v", err)
	}
	return out
}

// SilentWAV is seconds of mono silence.
func SilentWAV(tb testing.TB, sampleRate int, seconds float64, cues ...uint32) []byte {
	tb.Helper()
	return WAV(tb, sampleRate, 1, int(seconds*float64(sampleRate)), Silence, cues...)
}

// CueChunk builds a raw "cue " chunk with one point per sample offset.
func CueChunk(offsets ...uint32) []byte {
	const pointSize = 24

	size := 4 + pointSize*len(offsets)
	chunk := make([]byte, 8+size)
	copy(chunk, "cue ")
	binary.LittleEndian.PutUint32(chunk[4:], uint32(size))
	binary.LittleEndian.PutUint32(chunk[8:], uint32(len(offsets)))

	for i, off := range offsets {
		p := chunk[12+i*pointSize:]
		binary.LittleEndian.PutUint32(p[0:], uint32(i+1))
		binary.LittleEndian.PutUint32(p[4:], off)
		copy(p[8:12], "data")
		binary.LittleEndian.PutUint32(p[20:], off)
	}

	return chunk
}
