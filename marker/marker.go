// SPDX-License-Identifier: EPL-2.0

package marker

import (
	"errors"
	"slices"
)

var (
	// ErrLocked is returned when removing a locked marker.
	ErrLocked = errors.New("marker is locked")

	// ErrNotFound is returned when a position holds no marker.
	ErrNotFound = errors.New("no marker at position")

	// ErrOutOfRange is returned for positions outside [0, duration).
	ErrOutOfRange = errors.New("marker position outside audio")
)

// DeduplicateAndSort returns the positions in ascending order with exact
// duplicates removed. The input is not modified.
func DeduplicateAndSort(positions []float64) []float64 {
	out := slices.Clone(positions)
	slices.Sort(out)
	return slices.Compact(out)
}

// FilterWithinDuration keeps positions p with 0 <= p < duration.
func FilterWithinDuration(positions []float64, duration float64) []float64 {
	out := make([]float64, 0, len(positions))
	for _, p := range positions {
		if p >= 0 && p < duration {
			out = append(out, p)
		}
	}
	return out
}

// FilterUpTo keeps positions p with 0 <= p <= limit. Unlike
// FilterWithinDuration the upper bound is inclusive.
func FilterUpTo(positions []float64, limit float64) []float64 {
	out := make([]float64, 0, len(positions))
	for _, p := range positions {
		if p >= 0 && p <= limit {
			out = append(out, p)
		}
	}
	return out
}

// Scale multiplies every position by ratio.
func Scale(positions []float64, ratio float64) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = p * ratio
	}
	return out
}

// Offset shifts every position by delta seconds.
func Offset(positions []float64, delta float64) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = p + delta
	}
	return out
}
