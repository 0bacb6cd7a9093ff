// SPDX-License-Identifier: EPL-2.0

// Package flac provides a FLAC decoder.
//
// This package uses github.com/mewkiz/flac to parse FLAC streams. Every
// channel is kept; samples are normalized by the bit depth of each frame
// to float32 in [-1, 1].
//
//	src, err := flac.Decoder{}.Decode(file)
//	seconds, err := flac.Decoder{}.ProbeDuration(file)
package flac
