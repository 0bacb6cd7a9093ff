// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files.
// Integer PCM at 8, 16, 24 and 32 bits is supported, with any channel
// count and sample rate.
//
//	decoder := aiff.Decoder{}
//	source, err := decoder.Decode(file)
//
//	// Duration from the COMM chunk, without decoding
//	seconds, err := decoder.ProbeDuration(file)
//
// # Errors
//
//   - ErrNotAiffFile: the input is not an AIFF file
//   - ErrUnsupportedBitDepth: sample size other than 8/16/24/32 bits
//   - ErrNoDuration: the COMM chunk has no usable sample rate
package aiff
