// SPDX-License-Identifier: EPL-2.0

package stretch

import (
	"errors"
	"slices"
	"testing"
)

func TestMemoryArena_AllocateAligned(t *testing.T) {
	t.Parallel()

	a := NewMemoryArena(1 << 10)

	p1, err := a.Allocate(3)
	if err != nil {
		t.Fatalf("Allocate(3) error = %v", err)
	}
	p2, err := a.Allocate(10)
	if err != nil {
		t.Fatalf("Allocate(10) error = %v", err)
	}

	if p1 == 0 || p2 == 0 {
		t.Fatalf("Allocate() returned the null pointer: %#x %#x", p1, p2)
	}
	if p1%arenaAlign != 0 || p2%arenaAlign != 0 {
		t.Errorf("pointers %#x %#x not %d-byte aligned", p1, p2, arenaAlign)
	}
	if p2 < p1+8 {
		t.Errorf("regions overlap: %#x then %#x", p1, p2)
	}
	if got := a.InUse(); got != 8+16 {
		t.Errorf("InUse() = %d, want 24", got)
	}
	if a.Live() != 2 {
		t.Errorf("Live() = %d, want 2", a.Live())
	}
}

func TestMemoryArena_FreeCoalescesAndReuses(t *testing.T) {
	t.Parallel()

	a := NewMemoryArena(1 << 10)
	p1, _ := a.Allocate(64)
	p2, _ := a.Allocate(64)
	p3, _ := a.Allocate(64)

	if err := a.Free(p1); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(p2); err != nil {
		t.Fatal(err)
	}

	// Both freed spans merge, so a 128 byte region fits where p1 was.
	p4, err := a.Allocate(128)
	if err != nil {
		t.Fatalf("Allocate(128) error = %v", err)
	}
	if p4 != p1 {
		t.Errorf("Allocate(128) = %#x, want reuse of %#x", p4, p1)
	}

	if err := a.Free(p3); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(p4); err != nil {
		t.Fatal(err)
	}
	if a.Live() != 0 || a.InUse() != 0 {
		t.Errorf("after freeing all: Live() = %d, InUse() = %d", a.Live(), a.InUse())
	}
	if a.Peak() != 192 {
		t.Errorf("Peak() = %d, want 192", a.Peak())
	}

	// Everything went back to the bump pointer.
	p5, _ := a.Allocate(8)
	if p5 != arenaBase {
		t.Errorf("Allocate after full free = %#x, want %#x", p5, arenaBase)
	}
}

func TestMemoryArena_Errors(t *testing.T) {
	t.Parallel()

	a := NewMemoryArena(128)

	if _, err := a.Allocate(0); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("Allocate(0) error = %v, want ErrInvalidPointer", err)
	}
	if _, err := a.Allocate(1 << 20); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Allocate(1MiB) error = %v, want ErrOutOfMemory", err)
	}

	p, _ := a.Allocate(16)
	if err := a.Write(p, make([]byte, 17)); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("Write past end error = %v, want ErrInvalidPointer", err)
	}
	if _, err := a.Read(p+8, 4); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("Read inside region error = %v, want ErrInvalidPointer", err)
	}
	if err := a.Free(p); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(p); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("double Free error = %v, want ErrInvalidPointer", err)
	}
	if _, err := a.Read(p, 4); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("Read after Free error = %v, want ErrInvalidPointer", err)
	}
}

func TestMemoryArena_AllocationsAreZeroed(t *testing.T) {
	t.Parallel()

	a := NewMemoryArena(256)
	p, _ := a.Allocate(8)
	if err := a.Write(p, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(p); err != nil {
		t.Fatal(err)
	}

	q, _ := a.Allocate(8)
	b, err := a.Read(q, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(b, make([]byte, 8)) {
		t.Errorf("reused region = %v, want zeros", b)
	}
}

func TestSamplesAndTables(t *testing.T) {
	t.Parallel()

	a := NewMemoryArena(1 << 10)
	samples := []float32{0, 0.5, -1, 1e-7, 3.25}

	p, _ := a.Allocate(4 * len(samples))
	if err := WriteSamples(a, p, samples); err != nil {
		t.Fatalf("WriteSamples() error = %v", err)
	}
	got, err := ReadSamples(a, p, len(samples))
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if !slices.Equal(got, samples) {
		t.Errorf("ReadSamples() = %v, want %v", got, samples)
	}

	table, _ := a.Allocate(12)
	ptrs := []Ptr{p, 0x40, 0x1000}
	if err := WriteTable(a, table, ptrs); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	back, err := ReadTable(a, table, 3)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if !slices.Equal(back, ptrs) {
		t.Errorf("ReadTable() = %v, want %v", back, ptrs)
	}

	if _, err := ReadSamples(a, p, len(samples)+2); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("ReadSamples past end error = %v, want ErrInvalidPointer", err)
	}
}
