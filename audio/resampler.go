// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/splicebox/utils"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation. Works on interleaved samples; preserves channel count.
// When downsampling a one-pole low-pass runs over the input first.
type Resampler struct {
	src      Source
	srcRate  int
	dstRate  int
	channels int

	// window holds interleaved source frames starting at absolute frame base.
	window []float32
	base   int
	out    int64 // output frames produced

	chunk []float32
	eof   bool

	filter      bool
	filterState []float32
	primed      bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	return &Resampler{
		src:         src,
		srcRate:     src.SampleRate(),
		dstRate:     dstRate,
		channels:    channels,
		chunk:       make([]float32, 1024*channels),
		filter:      step > 1.0,
		filterState: make([]float32, channels),
	}
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (r *Resampler) frames() int { return len(r.window) / r.channels }

// fill reads from src until frame index last is buffered or src is drained.
func (r *Resampler) fill(last int) error {
	for !r.eof && r.base+r.frames() <= last {
		n, err := r.src.ReadSamples(r.chunk)
		n -= n % r.channels
		if n > 0 {
			in := r.chunk[:n]
			if r.filter {
				r.lowPass(in)
			}
			r.window = append(r.window, in...)
		}

		if err == io.EOF {
			r.eof = true
			break
		}
		if err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

func (r *Resampler) lowPass(in []float32) {
	const alpha = 0.5
	if !r.primed {
		copy(r.filterState, in[:r.channels])
		r.primed = true
	}
	for i := 0; i < len(in); i += r.channels {
		for c := range r.channels {
			v := alpha*in[i+c] + (1-alpha)*r.filterState[c]
			r.filterState[c] = v
			in[i+c] = v
		}
	}
}

// at returns channel c of absolute frame i, clamping to the buffered edges.
func (r *Resampler) at(i, c int) float32 {
	last := r.base + r.frames() - 1
	i = min(max(i, r.base), last)
	return r.window[(i-r.base)*r.channels+c]
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	written := 0
	for written < len(dst)/r.channels {
		// Exact rational position, so the output length does not drift.
		num := r.out * int64(r.srcRate)
		i := int(num / int64(r.dstRate))
		alpha := float32(num%int64(r.dstRate)) / float32(r.dstRate)
		if err := r.fill(i + 2); err != nil {
			return written * r.channels, err
		}
		if i >= r.base+r.frames() {
			return written * r.channels, io.EOF
		}

		for c := range r.channels {
			dst[written*r.channels+c] = utils.CubicInterpolate(
				r.at(i-1, c), r.at(i, c), r.at(i+1, c), r.at(i+2, c), alpha)
		}
		written++
		r.out++

		// Keep one frame of history behind the read position.
		next := int(r.out * int64(r.srcRate) / int64(r.dstRate))
		if drop := next - 1 - r.base; drop > 0 {
			drop = min(drop, r.frames()-1)
			r.window = r.window[drop*r.channels:]
			r.base += drop
		}
	}

	return written * r.channels, nil
}
