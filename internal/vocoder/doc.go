// SPDX-License-Identifier: EPL-2.0

// Package vocoder is an offline phase-vocoder time stretcher with
// independent pitch shifting.
//
// A Stretcher follows a study, process and retrieve protocol. Study
// receives the whole input once so onsets and the final length are known
// ahead of time; Process receives it again and produces output, which is
// drained with Available and Retrieve:
//
//	s, _ := vocoder.New(vocoder.Config{SampleRate: 44100, Channels: 1, TimeRatio: 2, PitchScale: 1})
//	_ = s.Study(in, true)
//	_ = s.Process(in, true)
//	out := [][]float32{make([]float32, s.Available())}
//	s.Retrieve(out)
//
// The output holds round(len(input) * TimeRatio) frames.
package vocoder
