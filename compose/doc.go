// SPDX-License-Identifier: EPL-2.0

// Package compose joins audio files into one buffer for a sampler with a
// maximum sample length, keeping track of splice markers.
//
// Every source file is decoded through an audio.Registry and its cue points
// are read with a CueReader. Files are laid end to end: the first file sets
// the sample rate, the widest file sets the channel count, and narrower
// files are padded with silent channels. Sources at another rate are copied
// verbatim and reported in Result.Warnings.
//
// A boundary marker is placed at each join:
//
//	c := compose.New(registry, wav.CueReader{}, logger)
//	res, err := c.Concatenate(ctx, files, false, 0)
//	// three 1 s files: res.Markers == [1 2], res.Boundaries == [1 2]
//
// Append adds files after audio that is already loaded and always marks the
// junction, even for a single file:
//
//	res, err := c.Append(ctx, current, markers, files, true, 20)
//
// With truncation the result is cut to floor(maxDuration*rate) samples and
// only markers below maxDuration survive. Truncate on an existing Result
// keeps markers up to and including maxDuration.
//
// Every returned marker lies in [0, Duration), except that Truncate may
// keep a marker exactly at maxDuration.
package compose
