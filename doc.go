// SPDX-License-Identifier: EPL-2.0

// Package splicebox prepares samples for tape-style hardware samplers that
// take a limited length of audio and mark splice points with WAV cue
// points.
//
// The work is split over subpackages:
//   - audio: decoded buffers, streaming sources, resampling and downmixing
//   - marker: splice and locked marker sets
//   - compose: joining files under a maximum duration
//   - stretch: tempo and pitch changes through an offline stretch engine
//   - editor: a session with undo that ties the above together
//   - formats/...: WAV (with cue points), AIFF, MP3, Ogg Vorbis and FLAC
//
// # Quick Start
//
//	registry := splicebox.NewRegistry()
//	composer := compose.New(registry, wav.CueReader{}, logger)
//
//	res, err := composer.Concatenate(ctx, files, true, 174)
//	if err != nil {
//		return err
//	}
//
//	data, err := splicebox.Export(res.Buffer, res.Markers, splicebox.ExportOptions{
//		SampleRate: 44100,
//		Mono:       true,
//	})
//
// The exported file carries one cue point per marker at
// round(position * sampleRate).
package splicebox
