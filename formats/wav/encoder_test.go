// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/internal/audiotest"
)

func ramp(channels, frames, rate int) *audio.Buffer {
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
		for i := range frames {
			data[c][i] = float32(i)/float32(frames) - 0.5*float32(c)
		}
	}
	return audio.NewBufferFromChannels(rate, data)
}

func TestSerialize_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		rate     int
		markers  []float64
		want     []float64
	}{
		{"mono markers", 1, 8000, []float64{1, 2}, []float64{1, 2}},
		{"stereo unsorted", 2, 44100, []float64{2.5, 0.25}, []float64{0.25, 2.5}},
		{"out of range skipped", 1, 8000, []float64{-1, 0.5, 3, 10}, []float64{0.5}},
		{"no markers", 1, 8000, nil, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := ramp(tt.channels, 3*tt.rate, tt.rate)
			data, err := Serialize(buf, tt.markers)
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}

			cues := ReadCuePoints(data)
			if len(cues) != len(tt.want) {
				t.Fatalf("cues = %v, want %v", cues, tt.want)
			}
			for i := range cues {
				if math.Abs(cues[i]-tt.want[i]) > 1/float64(tt.rate) {
					t.Errorf("cue %d = %v, want %v", i, cues[i], tt.want[i])
				}
			}

			src, err := Decoder{}.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			got, err := audio.ReadBuffer(src)
			if err != nil {
				t.Fatalf("ReadBuffer() error = %v", err)
			}
			if got.Len() != buf.Len() || got.Channels() != buf.Channels() || got.SampleRate() != buf.SampleRate() {
				t.Fatalf("decoded %dch x %d @ %d, want %dch x %d @ %d",
					got.Channels(), got.Len(), got.SampleRate(),
					buf.Channels(), buf.Len(), buf.SampleRate())
			}
			for c := range buf.Channels() {
				for i := 0; i < buf.Len(); i += 997 {
					if d := math.Abs(float64(got.Channel(c)[i] - buf.Channel(c)[i])); d > 1e-4 {
						t.Fatalf("channel %d frame %d off by %v", c, i, d)
					}
				}
			}
		})
	}
}

func TestSerialize_MatchesFixtureProbe(t *testing.T) {
	t.Parallel()

	data, err := Serialize(audio.NewBuffer(1, 12000, 8000), []float64{0.5})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	d, err := Decoder{}.ProbeDuration(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProbeDuration() error = %v", err)
	}
	if d != 1.5 {
		t.Errorf("ProbeDuration() = %v, want 1.5", d)
	}
}

func TestEncode_NoChannels(t *testing.T) {
	t.Parallel()

	if _, err := Serialize(audio.NewBuffer(0, 0, 8000), nil); !errors.Is(err, ErrNoChannels) {
		t.Errorf("Serialize() error = %v, want ErrNoChannels", err)
	}
}

func TestMemFile_Seek(t *testing.T) {
	t.Parallel()

	m := &memFile{}
	if _, err := m.Write([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Write([]byte("XY")); err != nil {
		t.Fatal(err)
	}
	if pos, _ := m.Seek(0, io.SeekCurrent); pos != 4 {
		t.Errorf("position = %d, want 4", pos)
	}
	if pos, _ := m.Seek(2, io.SeekEnd); pos != 8 {
		t.Errorf("SeekEnd position = %d, want 8", pos)
	}
	if _, err := m.Write([]byte("!")); err != nil {
		t.Fatal(err)
	}
	if got := string(m.data); got != "abXYef\x00\x00!" {
		t.Errorf("data = %q", got)
	}
	if _, err := m.Seek(-1, io.SeekStart); err == nil {
		t.Error("Seek(-1) succeeded, want error")
	}
}

func BenchmarkSerialize(b *testing.B) {
	buf := ramp(2, 44100, 44100)
	markers := []float64{0.25, 0.5, 0.75}
	for b.Loop() {
		if _, err := Serialize(buf, markers); err != nil {
			b.Fatal(err)
		}
	}
}

// Keep the fixture helpers honest: a file they build decodes here.
func TestFixture_Decodes(t *testing.T) {
	t.Parallel()

	data := audiotest.WAV(t, 8000, 2, 100, audiotest.Ramp(0.001), 50)
	if _, err := (Decoder{}).Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("Decode(fixture) error = %v", err)
	}
}
