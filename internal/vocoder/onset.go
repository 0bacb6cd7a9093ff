// SPDX-License-Identifier: EPL-2.0

package vocoder

import (
	"math/cmplx"

	"github.com/argusdusty/gofft"
)

// Normalized spectral flux above which a frame counts as an onset.
const (
	compoundThreshold   = 0.35
	percussiveThreshold = 0.2

	// minOnsetEnergy keeps near-silent frames from triggering resets.
	minOnsetEnergy = 1e-3
)

// detectOnsets marks the analysis frames whose phase is reset to the
// analysed phase instead of being propagated.
func (s *Stretcher) detectOnsets(mono []float32) []bool {
	var threshold float64
	switch s.cfg.Detector {
	case DetectorCompound:
		threshold = compoundThreshold
	case DetectorPercussive:
		threshold = percussiveThreshold
	default:
		return nil
	}

	var (
		onsets   []bool
		prevMag  = make([]float64, len(s.mag))
		prevFlux float64
	)

	for k := 0; k*s.hs-s.half < s.stretchedLen; k++ {
		a := s.analysisPos(k)
		for i := range s.n {
			idx := a - s.half + i
			var v float64
			if idx >= 0 && idx < len(mono) {
				v = float64(mono[idx])
			}
			s.buf[i] = complex(v*s.window[i], 0)
		}
		if err := gofft.FFT(s.buf); err != nil {
			return nil
		}

		var rise, total float64
		for b := range prevMag {
			m := cmplx.Abs(s.buf[b])
			if d := m - prevMag[b]; d > 0 {
				rise += d
			}
			total += m
			prevMag[b] = m
		}

		var flux float64
		if total > minOnsetEnergy {
			flux = rise / total
		}

		onset := k > 0 && flux > threshold && flux > prevFlux
		if onset && k > 1 && onsets[k-1] {
			onset = false
		}
		onsets = append(onsets, onset)
		prevFlux = flux
	}

	return onsets
}
