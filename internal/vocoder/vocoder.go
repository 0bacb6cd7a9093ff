// SPDX-License-Identifier: EPL-2.0

package vocoder

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/argusdusty/gofft"
	"github.com/ik5/splicebox/utils"
)

// Detector selects how eagerly onsets reset the phase of the output.
type Detector int

const (
	DetectorCompound Detector = iota
	DetectorPercussive
	DetectorSoft
)

// MaxFrames bounds the length of both the output and the internal
// time-stretched signal.
const MaxFrames = 1 << 30

const (
	frameSize     = 2048
	longFrameSize = 4096

	// envelopeWidth is the half width, in bins, of the moving average used
	// as spectral envelope for formant preservation.
	envelopeWidth  = 8
	maxFormantGain = 8.0

	minNorm = 1e-6
)

// Config describes one stretch. TimeRatio scales duration; PitchScale
// scales frequency.
type Config struct {
	SampleRate int
	Channels   int
	TimeRatio  float64
	PitchScale float64

	Detector         Detector
	Smoothing        bool
	PreserveFormants bool
	HighQualityPitch bool
	// LongWindow doubles the analysis frame, trading transient sharpness
	// for smoother tonal output.
	LongWindow bool
}

func (c Config) validate() error {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidConfig, c.SampleRate, c.Channels)
	}
	if !positive(c.TimeRatio) || !positive(c.PitchScale) || !positive(c.TimeRatio*c.PitchScale) {
		return fmt.Errorf("%w: time ratio %v, pitch scale %v", ErrInvalidConfig, c.TimeRatio, c.PitchScale)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

type channel struct {
	input      []float32 // input[i] is input frame inBase+i
	prevPhase  []float64
	synthPhase []float64
	prevMag    []float64
	acc        []float64 // acc[i] is stretched frame accBase+i
	out        []float32 // resampled frames waiting for Retrieve
}

// Stretcher holds the state of one offline stretch. It is not safe for
// concurrent use.
type Stretcher struct {
	cfg    Config
	n      int
	half   int
	hs     int
	ratio  float64 // stretch applied before resampling
	ha     float64
	window []float64

	studying  bool
	studied   bool
	studyMono []float32
	onsets    []bool

	processing bool
	final      bool
	inLen      int
	inBase     int

	frame   int
	prevA   int
	norm    []float64
	accBase int

	stretchedLen int // -1 until known
	outLen       int // -1 until known
	produced     int

	chans []channel

	buf   []complex128
	mag   []float64
	phase []float64
	env   []float64
}

// New returns a Stretcher for cfg.
func New(cfg Config) (*Stretcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := frameSize
	if cfg.LongWindow {
		n = longFrameSize
	}
	hs := n / 4
	ratio := cfg.TimeRatio * cfg.PitchScale
	bins := n/2 + 1

	s := &Stretcher{
		cfg:          cfg,
		n:            n,
		half:         n / 2,
		hs:           hs,
		ratio:        ratio,
		ha:           float64(hs) / ratio,
		window:       hann(n),
		stretchedLen: -1,
		outLen:       -1,
		chans:        make([]channel, cfg.Channels),
		buf:          make([]complex128, n),
		mag:          make([]float64, bins),
		phase:        make([]float64, bins),
		env:          make([]float64, bins),
	}
	for c := range s.chans {
		s.chans[c] = channel{
			prevPhase:  make([]float64, bins),
			synthPhase: make([]float64, bins),
			prevMag:    make([]float64, bins),
		}
	}

	return s, nil
}

// BlockSize is the number of input frames the stretcher prefers per call.
func (s *Stretcher) BlockSize() int { return s.hs }

// Study feeds the whole input ahead of processing. Nothing is produced.
func (s *Stretcher) Study(in [][]float32, final bool) error {
	if s.processing || s.studied {
		return ErrFinished
	}
	frames, err := s.frames(in)
	if err != nil {
		return err
	}

	s.studying = true
	for i := range frames {
		var sum float32
		for _, ch := range in {
			sum += ch[i]
		}
		s.studyMono = append(s.studyMono, sum/float32(len(in)))
	}

	if final {
		if err := s.setLength(len(s.studyMono)); err != nil {
			return err
		}
		s.studied = true
		s.onsets = s.detectOnsets(s.studyMono)
		s.studyMono = nil
	}

	return nil
}

// Process feeds input and synthesizes every output frame it makes
// available.
func (s *Stretcher) Process(in [][]float32, final bool) error {
	if s.studying && !s.studied {
		return ErrStudyIncomplete
	}
	if s.final {
		return ErrFinished
	}
	frames, err := s.frames(in)
	if err != nil {
		return err
	}

	s.processing = true
	for c := range s.chans {
		s.chans[c].input = append(s.chans[c].input, in[c][:frames]...)
	}
	s.inLen += frames

	if final {
		if err := s.setLength(s.inLen); err != nil {
			return err
		}
		s.final = true
	}

	return s.advance()
}

// Available reports how many output frames can be retrieved, or -1 once
// everything has been produced and retrieved.
func (s *Stretcher) Available() int {
	avail := len(s.chans[0].out)
	if avail == 0 && s.final && s.produced >= s.outLen {
		return -1
	}
	return avail
}

// Retrieve moves up to len(out[0]) frames into out and returns how many
// were written.
func (s *Stretcher) Retrieve(out [][]float32) int {
	if len(out) == 0 {
		return 0
	}
	n := min(len(out[0]), len(s.chans[0].out))
	for c := range s.chans {
		if c < len(out) {
			copy(out[c], s.chans[c].out[:n])
		}
		s.chans[c].out = s.chans[c].out[n:]
	}
	return n
}

func (s *Stretcher) frames(in [][]float32) (int, error) {
	if len(in) != len(s.chans) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(in), len(s.chans))
	}
	frames := len(in[0])
	for _, ch := range in[1:] {
		frames = min(frames, len(ch))
	}
	return frames, nil
}

func (s *Stretcher) setLength(inLen int) error {
	stretched := math.Round(float64(inLen) * s.ratio)
	out := math.Round(float64(inLen) * s.cfg.TimeRatio)
	if !(stretched <= MaxFrames) || !(out <= MaxFrames) {
		return fmt.Errorf("%w: %d frames at time ratio %v, pitch scale %v",
			ErrTooLong, inLen, s.cfg.TimeRatio, s.cfg.PitchScale)
	}
	s.stretchedLen = int(stretched)
	s.outLen = int(out)
	return nil
}

// analysisPos is the centre, in input frames, of analysis frame k.
func (s *Stretcher) analysisPos(k int) int {
	return int(math.Round(float64(k) * s.ha))
}

func (s *Stretcher) advance() error {
	for {
		start := s.frame*s.hs - s.half
		if s.final && start >= s.stretchedLen {
			break
		}
		a := s.analysisPos(s.frame)
		if !s.final && a+s.half > s.inLen {
			break
		}

		if err := s.synthesize(a, start); err != nil {
			return err
		}
		s.prevA = a
		s.frame++
	}

	ready := max(s.frame*s.hs-s.half, 0)
	if s.final {
		ready = s.stretchedLen
	}
	s.resample(ready)

	// Input before the next analysis frame is never read again.
	s.discardInput(s.analysisPos(s.frame) - s.half)
	return nil
}

func (s *Stretcher) synthesize(a, start int) error {
	hop := a - s.prevA
	reset := s.frame == 0 || (s.frame < len(s.onsets) && s.onsets[s.frame])
	s.growAcc(start + s.n)

	for c := range s.chans {
		ch := &s.chans[c]

		for i := range s.n {
			idx := a - s.half + i - s.inBase
			var v float64
			if idx >= 0 && idx < len(ch.input) {
				v = float64(ch.input[idx])
			}
			s.buf[i] = complex(v*s.window[i], 0)
		}
		if err := gofft.FFT(s.buf); err != nil {
			return fmt.Errorf("forward fft: %w", err)
		}

		for b := range s.mag {
			m := cmplx.Abs(s.buf[b])
			s.phase[b] = cmplx.Phase(s.buf[b])
			if s.cfg.Smoothing && s.frame > 0 {
				s.mag[b] = 0.5 * (m + ch.prevMag[b])
			} else {
				s.mag[b] = m
			}
			ch.prevMag[b] = m
		}

		for b := range s.mag {
			if reset {
				ch.synthPhase[b] = s.phase[b]
			} else {
				omega := 2 * math.Pi * float64(b) / float64(s.n)
				freq := omega
				if hop > 0 {
					delta := princarg(s.phase[b] - ch.prevPhase[b] - omega*float64(hop))
					freq += delta / float64(hop)
				}
				ch.synthPhase[b] += freq * float64(s.hs)
			}
			ch.prevPhase[b] = s.phase[b]
		}

		if s.cfg.PreserveFormants && s.cfg.PitchScale != 1 {
			s.shiftEnvelope()
		}

		for b := range s.mag {
			s.buf[b] = cmplx.Rect(s.mag[b], ch.synthPhase[b])
		}
		s.buf[0] = complex(real(s.buf[0]), 0)
		s.buf[s.half] = complex(real(s.buf[s.half]), 0)
		for b := 1; b < s.half; b++ {
			s.buf[s.n-b] = cmplx.Conj(s.buf[b])
		}
		if err := gofft.IFFT(s.buf); err != nil {
			return fmt.Errorf("inverse fft: %w", err)
		}

		for i := range s.n {
			t := start + i - s.accBase
			if t < 0 {
				continue
			}
			ch.acc[t] += real(s.buf[i]) * s.window[i]
		}
	}

	for i := range s.n {
		t := start + i - s.accBase
		if t < 0 {
			continue
		}
		s.norm[t] += s.window[i] * s.window[i]
	}

	return nil
}

// shiftEnvelope rescales s.mag so that the spectral envelope lands back
// on its original frequencies after resampling by the pitch scale.
func (s *Stretcher) shiftEnvelope() {
	bins := len(s.mag)
	var sum float64
	lo, hi := 0, min(envelopeWidth, bins-1)
	for b := lo; b <= hi; b++ {
		sum += s.mag[b]
	}
	for b := range bins {
		s.env[b] = sum / float64(hi-lo+1)
		if next := b + envelopeWidth + 1; next < bins {
			sum += s.mag[next]
			hi = next
		}
		if b-envelopeWidth >= 0 {
			sum -= s.mag[b-envelopeWidth]
			lo = b - envelopeWidth + 1
		}
	}

	p := s.cfg.PitchScale
	for b := range bins {
		if s.env[b] < minNorm {
			continue
		}
		x := float64(b) * p
		i := int(x)
		var target float64
		if i+1 < bins {
			frac := x - float64(i)
			target = s.env[i]*(1-frac) + s.env[i+1]*frac
		} else if i < bins {
			target = s.env[i]
		}
		s.mag[b] *= min(target/s.env[b], maxFormantGain)
	}
}

// resample turns stretched frames below ready into output frames, reading
// the stretched signal at PitchScale frames per output frame.
func (s *Stretcher) resample(ready int) {
	p := s.cfg.PitchScale
	lookahead := 1
	if s.cfg.HighQualityPitch {
		lookahead = 2
	}

	for s.outLen < 0 || s.produced < s.outLen {
		x := float64(s.produced) * p
		i := int(math.Floor(x))
		frac := float32(x - float64(i))
		if !s.final && i+lookahead >= ready {
			break
		}

		for c := range s.chans {
			var v float32
			switch {
			case frac == 0:
				v = s.stretched(c, i, ready)
			case s.cfg.HighQualityPitch:
				v = utils.CubicInterpolate(
					s.stretched(c, i-1, ready),
					s.stretched(c, i, ready),
					s.stretched(c, i+1, ready),
					s.stretched(c, i+2, ready),
					frac,
				)
			default:
				y1 := s.stretched(c, i, ready)
				y2 := s.stretched(c, i+1, ready)
				v = y1 + (y2-y1)*frac
			}
			s.chans[c].out = append(s.chans[c].out, v)
		}
		s.produced++
	}

	s.discardAcc(int(math.Floor(float64(s.produced)*p)) - 1)
}

func (s *Stretcher) stretched(c, t, ready int) float32 {
	if t < 0 || t >= ready {
		return 0
	}
	i := t - s.accBase
	if i < 0 || i >= len(s.norm) {
		return 0
	}
	v := s.chans[c].acc[i]
	if n := s.norm[i]; n > minNorm {
		v /= n
	}
	return float32(v)
}

func (s *Stretcher) growAcc(end int) {
	size := end - s.accBase
	if size <= len(s.norm) {
		return
	}
	extra := size - len(s.norm)
	s.norm = append(s.norm, make([]float64, extra)...)
	for c := range s.chans {
		s.chans[c].acc = append(s.chans[c].acc, make([]float64, extra)...)
	}
}

func (s *Stretcher) discardAcc(upTo int) {
	drop := min(upTo-s.accBase, len(s.norm))
	if drop <= 0 {
		return
	}
	n := copy(s.norm, s.norm[drop:])
	s.norm = s.norm[:n]
	for c := range s.chans {
		ch := &s.chans[c]
		n := copy(ch.acc, ch.acc[drop:])
		ch.acc = ch.acc[:n]
	}
	s.accBase += drop
}

func (s *Stretcher) discardInput(upTo int) {
	drop := min(upTo-s.inBase, len(s.chans[0].input))
	if drop <= 0 {
		return
	}
	for c := range s.chans {
		ch := &s.chans[c]
		n := copy(ch.input, ch.input[drop:])
		ch.input = ch.input[:n]
	}
	s.inBase += drop
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// princarg wraps a phase into [-pi, pi].
func princarg(x float64) float64 {
	return x - 2*math.Pi*math.Round(x/(2*math.Pi))
}
