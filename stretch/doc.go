// SPDX-License-Identifier: EPL-2.0

// Package stretch changes the tempo and pitch of audio buffers through an
// offline stretch engine that works on shared linear memory.
//
// # Engines
//
// A Module couples an Arena with the study, process and retrieve entry
// points of a stretch engine. Modules come from a Loader, which may be
// slow; load once and reuse the Pipeline:
//
//	p, err := stretch.Open(ctx, stretch.NativeLoader(0), logger)
//	out, err := p.Stretch(ctx, buf, stretch.Options{TempoRatio: 1.5, PitchScale: 1})
//
// NativeLoader provides a phase vocoder running in process.
//
// # Lifecycle
//
// Each Stretch moves through the states Initialized, Studying, Processing,
// Finalized and Disposed, or ends in Failed. The whole input is studied
// first, then processed in blocks of the engine's preferred size while the
// output is drained. Every arena region and the engine handle are released
// whatever the outcome; failures come back as *PipelineError naming the
// stage.
//
// # Ratios
//
// TempoRatio is a time ratio: the output lasts about Len()*TempoRatio
// frames. A speed in percent has to be inverted first:
//
//	opts.TempoRatio = stretch.TimeRatioForSpeed(130) // 1/1.30
//	opts.PitchScale = stretch.PitchScaleForSemitones(-12) // 0.5
package stretch
