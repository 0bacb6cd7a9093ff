// SPDX-License-Identifier: EPL-2.0

// Package marker holds splice marker positions and the pure operations
// applied to them whenever the audio they point into changes length.
//
// Positions are seconds, derived from a sample index divided by the sample
// rate. Two positions are the same marker only when they are exactly equal:
// every position in this module is derived the same way, so exact equality
// never merges distinct markers that happen to sit close together.
//
// A valid marker satisfies 0 <= p < duration of the buffer it belongs to.
// After any operation that changes a buffer's length, filter the positions:
//
//	positions = marker.FilterWithinDuration(positions, buf.Duration())
//	positions = marker.DeduplicateAndSort(positions)
//
// Set keeps the user-editable and locked markers together:
//
//	set := marker.NewSet([]float64{0.5}, nil)
//	set = set.Lock(2.0)       // join point
//	set = set.Scaled(1.25)    // after a time stretch
//	set = set.Within(3.75)
package marker
