// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes WAV files, including the cue points that
// hardware samplers use as splice markers.
//
// It is built on github.com/go-audio/wav.
//
// # Decoding
//
// Decoder handles integer PCM at 8, 16, 24 and 32 bits, any channel count
// and any sample rate:
//
//	src, err := wav.Decoder{}.Decode(file)
//	buf, err := audio.ReadBuffer(src)
//
// ProbeDuration reads only the headers:
//
//	seconds, err := wav.Decoder{}.ProbeDuration(file)
//
// # Cue Points
//
// ReadCuePoints returns the positions of the "cue " chunk in seconds.
// Files without one, or with a broken one, give an empty slice rather
// than an error:
//
//	positions := wav.ReadCuePoints(data) // e.g. [1.0 2.0]
//
// # Encoding
//
// Encode and Serialize write 16-bit PCM followed by a "cue " chunk with one
// point per marker, placed at round(position * sampleRate):
//
//	data, err := wav.Serialize(buf, []float64{1.0, 2.0})
//
// Reading the cue points of the result gives the markers back within one
// sample period.
package wav
