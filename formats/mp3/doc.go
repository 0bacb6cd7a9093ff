// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files.
// go-mp3 always produces 16-bit stereo, so every Source returned here has
// two channels, even for mono files.
//
//	decoder := mp3.Decoder{}
//	source, err := decoder.Decode(file)
//
// ProbeDuration needs a seekable input; go-mp3 scans the frame headers to
// find the stream length:
//
//	seconds, err := decoder.ProbeDuration(file)
package mp3
