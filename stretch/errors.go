// SPDX-License-Identifier: EPL-2.0

package stretch

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineNotInitialized is returned when Stretch runs before a
	// module has been loaded.
	ErrPipelineNotInitialized = errors.New("stretch pipeline not initialized")

	ErrInvalidOptions = errors.New("invalid stretch options")
	ErrEmptyBuffer    = errors.New("buffer has no channels")
	ErrUnknownHandle  = errors.New("unknown stretcher handle")

	// ErrOutOfMemory is returned when an arena cannot satisfy an allocation.
	ErrOutOfMemory = errors.New("arena out of memory")

	// ErrInvalidPointer is returned for pointers that do not refer to a live
	// allocation, or accesses past its end.
	ErrInvalidPointer = errors.New("invalid arena pointer")
)

// PipelineError reports the stage at which a stretch failed.
type PipelineError struct {
	Stage State
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("stretch pipeline failed while %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
