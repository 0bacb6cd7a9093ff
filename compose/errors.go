// SPDX-License-Identifier: EPL-2.0

package compose

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when there is nothing to compose.
	ErrEmptyInput = errors.New("no source files")

	// ErrTruncationUnderrun is returned for a maximum duration that is not
	// a positive finite number.
	ErrTruncationUnderrun = errors.New("maximum duration must be positive and finite")

	// ErrUnsupportedFormat is returned when no decoder is registered for a
	// file's extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoProber is returned when a format's decoder cannot probe durations.
	ErrNoProber = errors.New("format has no duration probe")
)

// DecodeError reports a source file that could not be decoded.
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MetadataError reports a source file whose duration could not be read.
type MetadataError struct {
	File string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("reading metadata of %s: %v", e.File, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// SampleRateMismatchError is a warning: the file's samples were copied
// verbatim at the composition's rate, which changes their pitch and length.
type SampleRateMismatchError struct {
	File string
	Got  int
	Want int
}

func (e *SampleRateMismatchError) Error() string {
	return fmt.Sprintf("%s: sample rate %d Hz differs from %d Hz", e.File, e.Got, e.Want)
}
