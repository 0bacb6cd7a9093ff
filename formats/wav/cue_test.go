// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"slices"
	"testing"

	"github.com/ik5/splicebox/internal/audiotest"
)

func TestReadCuePoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data func(t *testing.T) []byte
		want []float64
	}{
		{
			name: "two cues",
			data: func(t *testing.T) []byte { return audiotest.SilentWAV(t, 8000, 3, 8000, 16000) },
			want: []float64{1, 2},
		},
		{
			name: "unsorted with duplicates",
			data: func(t *testing.T) []byte { return audiotest.SilentWAV(t, 8000, 3, 16000, 4000, 16000) },
			want: []float64{0.5, 2},
		},
		{
			name: "no cue chunk",
			data: func(t *testing.T) []byte { return audiotest.SilentWAV(t, 8000, 1) },
			want: []float64{},
		},
		{
			name: "not a wav file",
			data: func(*testing.T) []byte { return []byte("ID3\x03 definitely an mp3") },
			want: []float64{},
		},
		{
			name: "nil",
			data: func(*testing.T) []byte { return nil },
			want: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ReadCuePoints(tt.data(t))
			if got == nil {
				t.Fatal("ReadCuePoints() = nil, want a non-nil slice")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ReadCuePoints() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCueReader(t *testing.T) {
	t.Parallel()

	data := audiotest.SilentWAV(t, 16000, 1, 8000)
	if got := (CueReader{}).ReadCuePoints(data); !slices.Equal(got, []float64{0.5}) {
		t.Errorf("CueReader.ReadCuePoints() = %v, want [0.5]", got)
	}
}

func TestSampleOffsets(t *testing.T) {
	t.Parallel()

	got := sampleOffsets([]float64{2, 1.0 / 3, 0}, 8000)
	if want := []uint32{0, 2667, 16000}; !slices.Equal(got, want) {
		t.Errorf("sampleOffsets() = %v, want %v", got, want)
	}
}

func TestCueChunk_Layout(t *testing.T) {
	t.Parallel()

	chunk := cueChunk([]uint32{8000})
	if len(chunk) != 8+4+cuePointSize {
		t.Fatalf("len = %d, want %d", len(chunk), 8+4+cuePointSize)
	}
	if string(chunk[:4]) != "cue " || string(chunk[20:24]) != "data" {
		t.Errorf("chunk ids = %q / %q, want \"cue \" / \"data\"", chunk[:4], chunk[20:24])
	}
	if !slices.Equal(chunk, audiotest.CueChunk(8000)) {
		t.Errorf("cueChunk() differs from the fixture encoding")
	}
}
