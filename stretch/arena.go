// SPDX-License-Identifier: EPL-2.0

package stretch

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"sync"
)

// Ptr is an offset into an arena. Zero is never a valid allocation.
type Ptr uint32

// Arena is linear memory shared between the pipeline and a Module.
type Arena interface {
	Allocate(size int) (Ptr, error)
	Write(p Ptr, data []byte) error
	Read(p Ptr, n int) ([]byte, error)
	Free(p Ptr) error
}

const (
	arenaAlign = 8
	// arenaBase keeps the first allocation away from the null pointer.
	arenaBase = arenaAlign
)

type span struct {
	off, size int
}

// MemoryArena is a bounded Arena backed by a byte slice that grows on
// demand. Allocation is first fit with coalescing on free.
type MemoryArena struct {
	mu    sync.Mutex
	mem   []byte
	limit int
	top   int
	live  map[Ptr]int
	free  []span // sorted by offset
	peak  int
	inUse int
}

// NewMemoryArena returns an arena holding at most limit bytes.
func NewMemoryArena(limit int) *MemoryArena {
	return &MemoryArena{
		limit: limit,
		top:   arenaBase,
		live:  make(map[Ptr]int),
	}
}

func (a *MemoryArena) Allocate(size int) (Ptr, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w: allocation of %d bytes", ErrInvalidPointer, size)
	}
	size = (size + arenaAlign - 1) &^ (arenaAlign - 1)

	a.mu.Lock()
	defer a.mu.Unlock()

	off := -1
	for i, s := range a.free {
		if s.size < size {
			continue
		}
		off = s.off
		if s.size == size {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = span{off: s.off + size, size: s.size - size}
		}
		break
	}

	if off < 0 {
		if a.top+size > a.limit {
			return 0, fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, a.inUse, a.limit)
		}
		off = a.top
		a.top += size
		if a.top > len(a.mem) {
			a.mem = append(a.mem, make([]byte, a.top-len(a.mem))...)
		}
	}

	clear(a.mem[off : off+size])
	p := Ptr(off)
	a.live[p] = size
	a.inUse += size
	a.peak = max(a.peak, a.inUse)

	return p, nil
}

func (a *MemoryArena) Write(p Ptr, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	region, err := a.region(p, len(data))
	if err != nil {
		return err
	}
	copy(region, data)
	return nil
}

func (a *MemoryArena) Read(p Ptr, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	region, err := a.region(p, n)
	if err != nil {
		return nil, err
	}
	return slices.Clone(region), nil
}

func (a *MemoryArena) Free(p Ptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.live[p]
	if !ok {
		return fmt.Errorf("%w: free of %#x", ErrInvalidPointer, uint32(p))
	}
	delete(a.live, p)
	a.inUse -= size

	s := span{off: int(p), size: size}
	i, _ := slices.BinarySearchFunc(a.free, s.off, func(x span, off int) int { return x.off - off })
	a.free = slices.Insert(a.free, i, s)

	// Merge with the following and the preceding span.
	if i+1 < len(a.free) && a.free[i].off+a.free[i].size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = slices.Delete(a.free, i+1, i+2)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	}

	// Hand a trailing span back to the bump pointer.
	if last := a.free[len(a.free)-1]; last.off+last.size == a.top {
		a.top = last.off
		a.free = a.free[:len(a.free)-1]
	}

	return nil
}

// InUse reports the bytes held by live allocations.
func (a *MemoryArena) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}

// Live reports the number of live allocations.
func (a *MemoryArena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Peak reports the highest InUse seen.
func (a *MemoryArena) Peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}

func (a *MemoryArena) region(p Ptr, n int) ([]byte, error) {
	size, ok := a.live[p]
	if !ok || n < 0 || n > size {
		return nil, fmt.Errorf("%w: %d bytes at %#x", ErrInvalidPointer, n, uint32(p))
	}
	return a.mem[int(p) : int(p)+n], nil
}

// WriteSamples stores samples as little-endian float32 at p.
func WriteSamples(a Arena, p Ptr, samples []float32) error {
	b := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return a.Write(p, b)
}

// ReadSamples loads n little-endian float32 samples from p.
func ReadSamples(a Arena, p Ptr, n int) ([]float32, error) {
	b, err := a.Read(p, 4*n)
	if err != nil {
		return nil, err
	}
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return samples, nil
}

// WriteTable stores a channel table: one little-endian uint32 pointer per
// channel.
func WriteTable(a Arena, table Ptr, ptrs []Ptr) error {
	b := make([]byte, 4*len(ptrs))
	for i, p := range ptrs {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(p))
	}
	return a.Write(table, b)
}

// ReadTable loads a channel table of the given width.
func ReadTable(a Arena, table Ptr, channels int) ([]Ptr, error) {
	b, err := a.Read(table, 4*channels)
	if err != nil {
		return nil, err
	}
	ptrs := make([]Ptr, channels)
	for i := range ptrs {
		ptrs[i] = Ptr(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return ptrs, nil
}
