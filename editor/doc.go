// SPDX-License-Identifier: EPL-2.0

// Package editor keeps the current audio of a sampler editor and applies
// composition, truncation, time stretching and marker edits to it.
//
// A Session runs one operation at a time; a second call made while one is
// running fails with ErrBusy instead of racing on the current state. Each
// operation either installs a complete new State or leaves the old one in
// place, and every installed State satisfies 0 <= marker < Duration.
//
//	s := editor.New(composer, pipeline, editor.WithListener(func(op string, st editor.State) {
//		fmt.Println(op, st.Duration, st.Markers.Splice)
//	}))
//	_, err := s.Load(ctx, files, true, 174)
//	_, err = s.Stretch(ctx, stretch.Options{TempoRatio: 2, PitchScale: 1})
//	// every marker moved to twice its position
//	_, err = s.Undo()
//
// Boundaries between joined files are locked and cannot be removed until
// unlocked.
package editor
