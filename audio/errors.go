// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrNoProgress is returned when a source keeps returning zero samples
	// without reporting io.EOF.
	ErrNoProgress = errors.New("source stopped producing samples")

	// ErrInvalidFormat is returned for buffers with no channels or a
	// non-positive sample rate.
	ErrInvalidFormat = errors.New("invalid buffer format")
)
