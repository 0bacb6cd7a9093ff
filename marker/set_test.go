// SPDX-License-Identifier: EPL-2.0

package marker

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestNewSet_LockedAreSpliceMarkers(t *testing.T) {
	t.Parallel()

	s := NewSet([]float64{2, 1, 2}, []float64{3, 1})

	if want := []float64{1, 2, 3}; !slices.Equal(s.Splice, want) {
		t.Errorf("Splice = %v, want %v", s.Splice, want)
	}
	if want := []float64{1, 3}; !slices.Equal(s.Locked, want) {
		t.Errorf("Locked = %v, want %v", s.Locked, want)
	}
	if !slices.Equal(s.All(), s.Splice) {
		t.Errorf("All() = %v, want %v", s.All(), s.Splice)
	}
}

func TestSet_Lock(t *testing.T) {
	t.Parallel()

	s := NewSet(nil, []float64{0.5}).Lock(2.0)
	if want := []float64{0.5, 2}; !slices.Equal(s.Locked, want) {
		t.Fatalf("Locked = %v, want %v", s.Locked, want)
	}

	again := s.Lock(2.0)
	if !slices.Equal(again.Locked, s.Locked) || !slices.Equal(again.Splice, s.Splice) {
		t.Errorf("locking twice changed the set: %+v -> %+v", s, again)
	}
}

func TestSet_AddRemove(t *testing.T) {
	t.Parallel()

	base := NewSet([]float64{1}, []float64{2})

	tests := []struct {
		name    string
		op      func(Set) (Set, error)
		wantErr error
		want    []float64
	}{
		{"add inside", func(s Set) (Set, error) { return s.Add(0.25, 3) }, nil, []float64{0.25, 1, 2}},
		{"add at zero", func(s Set) (Set, error) { return s.Add(0, 3) }, nil, []float64{0, 1, 2}},
		{"add at duration", func(s Set) (Set, error) { return s.Add(3, 3) }, ErrOutOfRange, []float64{1, 2}},
		{"add negative", func(s Set) (Set, error) { return s.Add(-0.1, 3) }, ErrOutOfRange, []float64{1, 2}},
		{"add existing", func(s Set) (Set, error) { return s.Add(1, 3) }, nil, []float64{1, 2}},
		{"remove unlocked", func(s Set) (Set, error) { return s.Remove(1) }, nil, []float64{2}},
		{"remove locked", func(s Set) (Set, error) { return s.Remove(2) }, ErrLocked, []float64{1, 2}},
		{"remove missing", func(s Set) (Set, error) { return s.Remove(1.5) }, ErrNotFound, []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.op(base)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(got.Splice, tt.want) {
				t.Errorf("Splice = %v, want %v", got.Splice, tt.want)
			}
			if !slices.Equal(got.Locked, []float64{2}) {
				t.Errorf("Locked = %v, want [2]", got.Locked)
			}
		})
	}

	if !slices.Equal(base.Splice, []float64{1, 2}) {
		t.Errorf("base set modified: %v", base.Splice)
	}
}

func TestSet_Unlock(t *testing.T) {
	t.Parallel()

	s, err := NewSet(nil, []float64{1, 2}).Unlock(1)
	if err != nil {
		t.Fatalf("Unlock(1) error = %v", err)
	}
	if !slices.Equal(s.Locked, []float64{2}) || !slices.Equal(s.Splice, []float64{1, 2}) {
		t.Errorf("Unlock(1) = %+v, want marker kept but unlocked", s)
	}

	if _, err := s.Unlock(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unlock of unlocked marker error = %v, want ErrNotFound", err)
	}
}

func TestSet_WithinAndScaled(t *testing.T) {
	t.Parallel()

	s := NewSet([]float64{0.5, 1.5}, []float64{1, 2})

	within := s.Within(2)
	if want := []float64{0.5, 1, 1.5}; !slices.Equal(within.Splice, want) {
		t.Errorf("Within(2).Splice = %v, want %v", within.Splice, want)
	}
	if want := []float64{1}; !slices.Equal(within.Locked, want) {
		t.Errorf("Within(2).Locked = %v, want %v", within.Locked, want)
	}

	scaled := s.Scaled(2)
	if want := []float64{1, 2, 3, 4}; !slices.Equal(scaled.Splice, want) {
		t.Errorf("Scaled(2).Splice = %v, want %v", scaled.Splice, want)
	}
	if want := []float64{2, 4}; !slices.Equal(scaled.Locked, want) {
		t.Errorf("Scaled(2).Locked = %v, want %v", scaled.Locked, want)
	}
}

func ExampleSet() {
	s := NewSet([]float64{0.75}, []float64{0.5})
	s = s.Lock(2.0)
	s, _ = s.Add(1.25, 3)

	fmt.Println(s.Splice, s.Locked)

	_, err := s.Remove(0.5)
	fmt.Println(err)
	// Output:
	// [0.5 0.75 1.25 2] [0.5 2]
	// marker is locked
}
