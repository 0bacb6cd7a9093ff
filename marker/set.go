// SPDX-License-Identifier: EPL-2.0

package marker

import "slices"

// Set is the full marker state of one audio buffer. Splice holds every
// marker; Locked holds the subset protected from removal. Both are kept
// ascending and free of duplicates. Methods return new sets.
type Set struct {
	Splice []float64
	Locked []float64
}

// NewSet builds a normalized set. Locked positions are also added to Splice.
func NewSet(splice, locked []float64) Set {
	locked = DeduplicateAndSort(locked)
	return Set{
		Splice: DeduplicateAndSort(append(slices.Clone(splice), locked...)),
		Locked: locked,
	}
}

// All is every marker position, ascending.
func (s Set) All() []float64 {
	return DeduplicateAndSort(append(slices.Clone(s.Splice), s.Locked...))
}

// IsLocked reports whether p is a locked marker.
func (s Set) IsLocked(p float64) bool {
	_, found := slices.BinarySearch(s.Locked, p)
	return found
}

// Lock adds positions to the locked subset. Previously locked markers are
// kept and locking an already locked marker changes nothing.
func (s Set) Lock(positions ...float64) Set {
	return NewSet(append(slices.Clone(s.Splice), positions...), append(slices.Clone(s.Locked), positions...))
}

// Unlock moves p from the locked subset back to the user-editable markers.
func (s Set) Unlock(p float64) (Set, error) {
	if !s.IsLocked(p) {
		return s, ErrNotFound
	}

	locked := slices.DeleteFunc(slices.Clone(s.Locked), func(v float64) bool { return v == p })
	return NewSet(s.Splice, locked), nil
}

// Add inserts an unlocked marker at p, which must lie in [0, duration).
func (s Set) Add(p, duration float64) (Set, error) {
	if p < 0 || p >= duration {
		return s, ErrOutOfRange
	}
	return NewSet(append(slices.Clone(s.Splice), p), s.Locked), nil
}

// Remove deletes the unlocked marker at p.
func (s Set) Remove(p float64) (Set, error) {
	if s.IsLocked(p) {
		return s, ErrLocked
	}
	if _, found := slices.BinarySearch(s.Splice, p); !found {
		return s, ErrNotFound
	}

	splice := slices.DeleteFunc(slices.Clone(s.Splice), func(v float64) bool { return v == p })
	return NewSet(splice, s.Locked), nil
}

// Within drops every marker outside [0, duration).
func (s Set) Within(duration float64) Set {
	return NewSet(FilterWithinDuration(s.Splice, duration), FilterWithinDuration(s.Locked, duration))
}

// Scaled multiplies every marker, locked or not, by ratio.
func (s Set) Scaled(ratio float64) Set {
	return NewSet(Scale(s.Splice, ratio), Scale(s.Locked, ratio))
}
