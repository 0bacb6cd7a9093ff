// SPDX-License-Identifier: EPL-2.0

package vocoder

import (
	"errors"
	"math"
	"testing"
)

func sine(rate, frames int, freq float64) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return out
}

// run feeds in through s one block at a time and collects everything.
func run(t *testing.T, s *Stretcher, in [][]float32, study bool) [][]float32 {
	t.Helper()

	block := s.BlockSize()
	total := len(in[0])
	slice := func(off int) ([][]float32, bool) {
		n := min(block, total-off)
		part := make([][]float32, len(in))
		for c := range in {
			part[c] = in[c][off : off+n]
		}
		return part, off+n >= total
	}

	if study {
		for off := 0; ; off += block {
			part, final := slice(off)
			if err := s.Study(part, final); err != nil {
				t.Fatalf("Study() error = %v", err)
			}
			if final {
				break
			}
		}
	}

	out := make([][]float32, len(in))
	collect := func() {
		for s.Available() > 0 {
			chunk := make([][]float32, len(in))
			for c := range chunk {
				chunk[c] = make([]float32, block)
			}
			n := s.Retrieve(chunk)
			for c := range out {
				out[c] = append(out[c], chunk[c][:n]...)
			}
		}
	}

	for off := 0; ; off += block {
		part, final := slice(off)
		if err := s.Process(part, final); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		collect()
		if final {
			break
		}
	}

	if got := s.Available(); got != -1 {
		t.Errorf("Available() after draining = %d, want -1", got)
	}
	return out
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero rate", Config{Channels: 1, TimeRatio: 1, PitchScale: 1}},
		{"zero channels", Config{SampleRate: 8000, TimeRatio: 1, PitchScale: 1}},
		{"zero ratio", Config{SampleRate: 8000, Channels: 1, PitchScale: 1}},
		{"negative pitch", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1, PitchScale: -1}},
		{"infinite ratio", Config{SampleRate: 8000, Channels: 1, TimeRatio: math.Inf(1), PitchScale: 1}},
		{"nan pitch", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1, PitchScale: math.NaN()}},
		{"combined ratio overflows", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1e200, PitchScale: 1e200}},
		{"combined ratio underflows", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1e-200, PitchScale: 1e-200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStretcher_BlockSize(t *testing.T) {
	t.Parallel()

	s, _ := New(Config{SampleRate: 8000, Channels: 1, TimeRatio: 1, PitchScale: 1})
	long, _ := New(Config{SampleRate: 8000, Channels: 1, TimeRatio: 1, PitchScale: 1, LongWindow: true})

	if s.BlockSize() != frameSize/4 || long.BlockSize() != longFrameSize/4 {
		t.Errorf("BlockSize() = %d / %d, want %d / %d",
			s.BlockSize(), long.BlockSize(), frameSize/4, longFrameSize/4)
	}
}

func TestStretcher_OutputLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cfg   Config
		in    int
		study bool
	}{
		{"identity", Config{TimeRatio: 1, PitchScale: 1}, 10000, false},
		{"double", Config{TimeRatio: 2, PitchScale: 1}, 10000, true},
		{"half", Config{TimeRatio: 0.5, PitchScale: 1}, 10001, true},
		{"faster by 130 percent", Config{TimeRatio: 1 / 1.3, PitchScale: 1}, 7777, false},
		{"octave up", Config{TimeRatio: 1, PitchScale: 2, HighQualityPitch: true}, 9000, true},
		{"fifth down with formants", Config{TimeRatio: 1.5, PitchScale: 2.0 / 3, PreserveFormants: true}, 5000, false},
		{"long window smoothed", Config{TimeRatio: 1.25, PitchScale: 1, LongWindow: true, Smoothing: true}, 6000, true},
		{"shorter than a block", Config{TimeRatio: 2, PitchScale: 1}, 100, false},
		{"empty", Config{TimeRatio: 2, PitchScale: 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.SampleRate = 16000
			cfg.Channels = 2
			s, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			in := [][]float32{sine(16000, tt.in, 220), sine(16000, tt.in, 330)}
			out := run(t, s, in, tt.study)

			want := int(math.Round(float64(tt.in) * cfg.TimeRatio))
			for c := range out {
				if len(out[c]) != want {
					t.Errorf("channel %d: %d frames, want %d", c, len(out[c]), want)
				}
			}
		})
	}
}

func TestStretcher_IdentityReconstructs(t *testing.T) {
	t.Parallel()

	s, err := New(Config{SampleRate: 44100, Channels: 1, TimeRatio: 1, PitchScale: 1})
	if err != nil {
		t.Fatal(err)
	}

	in := sine(44100, 20000, 440)
	out := run(t, s, [][]float32{in}, true)

	for i := range in {
		if math.Abs(float64(out[0][i]-in[i])) > 1e-3 {
			t.Fatalf("out[%d] = %v, want ≈%v", i, out[0][i], in[i])
		}
	}
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func crossings(x []float32) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}

func TestStretcher_TimeStretchKeepsTone(t *testing.T) {
	t.Parallel()

	s, _ := New(Config{SampleRate: 16000, Channels: 1, TimeRatio: 2, PitchScale: 1, Detector: DetectorSoft})
	in := sine(16000, 16000, 500)
	out := run(t, s, [][]float32{in}, false)[0]

	mid := out[8000:24000]
	if r := rms(mid); r < 0.5 || r > 0.9 {
		t.Errorf("rms = %v, want close to %v", r, 1/math.Sqrt2)
	}
	// 500 Hz over one second crosses zero about 1000 times.
	if n := crossings(mid); n < 900 || n > 1100 {
		t.Errorf("zero crossings = %d, want about 1000", n)
	}
}

func TestStretcher_PitchShiftDoublesFrequency(t *testing.T) {
	t.Parallel()

	s, _ := New(Config{SampleRate: 16000, Channels: 1, TimeRatio: 1, PitchScale: 2, Detector: DetectorSoft})
	in := sine(16000, 32000, 300)
	out := run(t, s, [][]float32{in}, false)[0]

	mid := out[8000:24000]
	// 600 Hz over one second crosses zero about 1200 times.
	if n := crossings(mid); n < 1080 || n > 1320 {
		t.Errorf("zero crossings = %d, want about 1200", n)
	}
}

func TestStretcher_CallOrder(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 8000, Channels: 2, TimeRatio: 1, PitchScale: 1}
	block := [][]float32{make([]float32, 10), make([]float32, 10)}

	s, _ := New(cfg)
	if err := s.Study(block, false); err != nil {
		t.Fatal(err)
	}
	if err := s.Process(block, false); !errors.Is(err, ErrStudyIncomplete) {
		t.Errorf("Process() mid-study error = %v, want ErrStudyIncomplete", err)
	}

	s, _ = New(cfg)
	if err := s.Process(block, true); err != nil {
		t.Fatal(err)
	}
	if err := s.Process(block, true); !errors.Is(err, ErrFinished) {
		t.Errorf("Process() after final error = %v, want ErrFinished", err)
	}
	if err := s.Study(block, true); !errors.Is(err, ErrFinished) {
		t.Errorf("Study() after Process error = %v, want ErrFinished", err)
	}

	s, _ = New(cfg)
	if err := s.Process(block[:1], false); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("Process() with one channel error = %v, want ErrChannelMismatch", err)
	}
}

func TestStretcher_TooLong(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cfg   Config
		study bool
	}{
		{"huge time ratio", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1e20, PitchScale: 1}, false},
		{"huge pitch scale", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1, PitchScale: 1e20}, false},
		{"huge ratio while studying", Config{SampleRate: 8000, Channels: 1, TimeRatio: 1e20, PitchScale: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			block := [][]float32{make([]float32, 100)}

			if tt.study {
				err = s.Study(block, true)
			} else {
				err = s.Process(block, true)
			}
			if !errors.Is(err, ErrTooLong) {
				t.Errorf("error = %v, want ErrTooLong", err)
			}
		})
	}
}

func TestDetectOnsets(t *testing.T) {
	t.Parallel()

	const start = 12000
	mono := make([]float32, 24000)
	copy(mono[start:], sine(16000, 24000-start, 1000))

	for _, d := range []Detector{DetectorCompound, DetectorPercussive} {
		s, _ := New(Config{SampleRate: 16000, Channels: 1, TimeRatio: 1, PitchScale: 1, Detector: d})
		s.setLength(len(mono))
		onsets := s.detectOnsets(mono)

		found := false
		for k, on := range onsets {
			if !on {
				continue
			}
			if s.analysisPos(k)+s.half <= start {
				t.Errorf("detector %d: onset in silent frame %d", d, k)
			}
			found = true
		}
		if !found {
			t.Errorf("detector %d: no onset found", d)
		}
	}

	s, _ := New(Config{SampleRate: 16000, Channels: 1, TimeRatio: 1, PitchScale: 1, Detector: DetectorSoft})
	s.setLength(len(mono))
	if onsets := s.detectOnsets(mono); onsets != nil {
		t.Errorf("soft detector returned onsets")
	}
}

func TestPrincarg(t *testing.T) {
	t.Parallel()

	for _, x := range []float64{0, 1, -1, 3 * math.Pi, -7.5, 100} {
		got := princarg(x)
		if got < -math.Pi-1e-12 || got > math.Pi+1e-12 {
			t.Errorf("princarg(%v) = %v, outside [-pi, pi]", x, got)
		}
		if k := (x - got) / (2 * math.Pi); math.Abs(k-math.Round(k)) > 1e-9 {
			t.Errorf("princarg(%v) = %v, not a 2pi multiple away", x, got)
		}
	}
}
