// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/jfreymuth/oggvorbis to decode Ogg Vorbis
// files. Samples come out interleaved as float32 in [-1, 1].
//
//	decoder := vorbis.Decoder{}
//	source, err := decoder.Decode(file)
//
// ProbeDuration needs a seekable input so the last page can be read.
package vorbis
