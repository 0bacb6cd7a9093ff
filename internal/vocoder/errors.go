// SPDX-License-Identifier: EPL-2.0

package vocoder

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid stretcher configuration")
	ErrChannelMismatch = errors.New("channel count does not match configuration")

	// ErrStudyIncomplete is returned by Process when a study pass was started
	// but never given its final block.
	ErrStudyIncomplete = errors.New("study pass not finished")

	// ErrFinished is returned when input arrives after the final block.
	ErrFinished = errors.New("stretcher already received its final block")

	// ErrTooLong is returned when the stretched signal would exceed MaxFrames.
	ErrTooLong = errors.New("stretched signal too long")
)
