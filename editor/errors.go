// SPDX-License-Identifier: EPL-2.0

package editor

import "errors"

var (
	// ErrBusy is returned when an operation starts while another one is
	// still running on the same Session.
	ErrBusy = errors.New("another operation is in progress")

	ErrNoAudio       = errors.New("no audio loaded")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNoStretcher   = errors.New("session has no stretch pipeline")
)
