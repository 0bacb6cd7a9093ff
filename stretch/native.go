// SPDX-License-Identifier: EPL-2.0

package stretch

import (
	"context"
	"fmt"
	"sync"

	"github.com/ik5/splicebox/internal/vocoder"
)

// DefaultArenaLimit bounds the memory of a native module: enough for the
// staging regions of a few hundred channels at the largest block size.
const DefaultArenaLimit = 64 << 20

// NativeLoader returns a Loader for the in-process phase-vocoder engine.
// A limit of zero or less selects DefaultArenaLimit.
func NativeLoader(limit int) Loader {
	if limit <= 0 {
		limit = DefaultArenaLimit
	}
	return func(ctx context.Context) (Module, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		return NewNativeModule(NewMemoryArena(limit)), nil
	}
}

// NativeModule implements Module with internal/vocoder.
type NativeModule struct {
	*MemoryArena

	mu      sync.Mutex
	next    Handle
	handles map[Handle]*native
}

type native struct {
	stretcher *vocoder.Stretcher
	channels  int
}

func NewNativeModule(arena *MemoryArena) *NativeModule {
	return &NativeModule{
		MemoryArena: arena,
		handles:     make(map[Handle]*native),
	}
}

func (m *NativeModule) New(cfg Config) (Handle, error) {
	s, err := vocoder.New(vocoder.Config{
		SampleRate:       cfg.SampleRate,
		Channels:         cfg.Channels,
		TimeRatio:        cfg.TimeRatio,
		PitchScale:       cfg.PitchScale,
		Detector:         vocoder.Detector(cfg.Flags.Detector()),
		Smoothing:        cfg.Flags.Has(OptionSmoothingOn),
		PreserveFormants: cfg.Flags.Has(OptionFormantPreserved),
		HighQualityPitch: cfg.Flags.Has(OptionPitchHighQuality),
		LongWindow:       cfg.Flags.Has(OptionWindowLong),
	})
	if err != nil {
		return 0, fmt.Errorf("creating stretcher: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	m.handles[m.next] = &native{stretcher: s, channels: cfg.Channels}
	return m.next, nil
}

func (m *NativeModule) SamplesRequired(h Handle) (int, error) {
	n, err := m.get(h)
	if err != nil {
		return 0, err
	}
	return n.stretcher.BlockSize(), nil
}

func (m *NativeModule) Study(h Handle, table Ptr, n int, final bool) error {
	st, err := m.get(h)
	if err != nil {
		return err
	}
	in, err := m.load(table, st.channels, n)
	if err != nil {
		return err
	}
	if err := st.stretcher.Study(in, final); err != nil {
		return fmt.Errorf("study: %w", err)
	}
	return nil
}

func (m *NativeModule) Process(h Handle, table Ptr, n int, final bool) error {
	st, err := m.get(h)
	if err != nil {
		return err
	}
	in, err := m.load(table, st.channels, n)
	if err != nil {
		return err
	}
	if err := st.stretcher.Process(in, final); err != nil {
		return fmt.Errorf("process: %w", err)
	}
	return nil
}

func (m *NativeModule) Available(h Handle) (int, error) {
	st, err := m.get(h)
	if err != nil {
		return 0, err
	}
	return st.stretcher.Available(), nil
}

func (m *NativeModule) Retrieve(h Handle, table Ptr, n int) (int, error) {
	st, err := m.get(h)
	if err != nil {
		return 0, err
	}
	ptrs, err := ReadTable(m, table, st.channels)
	if err != nil {
		return 0, err
	}

	out := make([][]float32, st.channels)
	for c := range out {
		out[c] = make([]float32, n)
	}
	got := st.stretcher.Retrieve(out)

	for c, p := range ptrs {
		if err := WriteSamples(m, p, out[c][:got]); err != nil {
			return 0, err
		}
	}
	return got, nil
}

func (m *NativeModule) Delete(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.handles[h]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(m.handles, h)
	return nil
}

// Handles reports how many stretchers are alive.
func (m *NativeModule) Handles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

func (m *NativeModule) get(h Handle) (*native, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.handles[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return st, nil
}

func (m *NativeModule) load(table Ptr, channels, n int) ([][]float32, error) {
	ptrs, err := ReadTable(m, table, channels)
	if err != nil {
		return nil, err
	}
	in := make([][]float32, channels)
	for c, p := range ptrs {
		if in[c], err = ReadSamples(m, p, n); err != nil {
			return nil, err
		}
	}
	return in, nil
}
