// SPDX-License-Identifier: EPL-2.0

package stretch

import "context"

// Handle identifies one stretcher inside a Module.
type Handle uint32

// Config is what a Module needs to create a stretcher.
type Config struct {
	SampleRate int
	Channels   int
	Flags      Flags
	TimeRatio  float64
	PitchScale float64
}

// Module is an offline stretch engine working on arena memory.
//
// The table arguments point at a channel table (see WriteTable) whose
// entries point at float32 sample regions. A Handle must not be used by
// more than one goroutine at a time.
type Module interface {
	Arena

	New(cfg Config) (Handle, error)
	// SamplesRequired is the block size the engine wants per call.
	SamplesRequired(h Handle) (int, error)
	Study(h Handle, table Ptr, n int, final bool) error
	Process(h Handle, table Ptr, n int, final bool) error
	// Available returns the frames ready for Retrieve, or -1 once the
	// stretcher has nothing more to give.
	Available(h Handle) (int, error)
	Retrieve(h Handle, table Ptr, n int) (int, error)
	Delete(h Handle) error
}

// Loader produces a ready Module. Loading may be slow; the cost is paid
// once per Loader call, not per stretch.
type Loader func(ctx context.Context) (Module, error)
