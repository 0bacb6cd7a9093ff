// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"slices"

	"github.com/go-audio/wav"
	"github.com/ik5/splicebox/marker"
)

// cuePointSize is the size of one entry of a "cue " chunk.
const cuePointSize = 24

// CueReader reads cue points from WAV data. Input that is not a WAV file
// simply has no cue points.
type CueReader struct{}

func (CueReader) ReadCuePoints(data []byte) []float64 {
	return ReadCuePoints(data)
}

// ReadCuePoints returns the cue points embedded in a WAV file as seconds,
// ascending and deduplicated. A missing or malformed cue chunk yields an
// empty slice.
func ReadCuePoints(data []byte) []float64 {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() || dec.SampleRate == 0 {
		return []float64{}
	}

	dec.ReadMetadata()
	if dec.Err() != nil || dec.Metadata == nil {
		return []float64{}
	}

	rate := float64(dec.SampleRate)
	positions := make([]float64, 0, len(dec.Metadata.CuePoints))
	for _, cp := range dec.Metadata.CuePoints {
		if cp == nil {
			continue
		}
		offset := cp.SampleOffset
		if offset == 0 {
			offset = cp.Position
		}
		positions = append(positions, float64(offset)/rate)
	}

	return marker.DeduplicateAndSort(positions)
}

// sampleOffsets converts marker seconds to ascending sample offsets.
func sampleOffsets(markers []float64, sampleRate int) []uint32 {
	offsets := make([]uint32, 0, len(markers))
	for _, p := range markers {
		offsets = append(offsets, uint32(math.Round(p*float64(sampleRate))))
	}
	slices.Sort(offsets)
	return offsets
}

// cueChunk encodes a RIFF "cue " chunk, one point per offset.
func cueChunk(offsets []uint32) []byte {
	size := 4 + cuePointSize*len(offsets)
	chunk := make([]byte, 8+size)

	copy(chunk[0:4], "cue ")
	binary.LittleEndian.PutUint32(chunk[4:8], uint32(size))
	binary.LittleEndian.PutUint32(chunk[8:12], uint32(len(offsets)))

	for i, off := range offsets {
		p := chunk[12+i*cuePointSize:]
		binary.LittleEndian.PutUint32(p[0:4], uint32(i+1)) // ID
		binary.LittleEndian.PutUint32(p[4:8], off)         // play order position
		copy(p[8:12], "data")
		binary.LittleEndian.PutUint32(p[12:16], 0) // chunk start
		binary.LittleEndian.PutUint32(p[16:20], 0) // block start
		binary.LittleEndian.PutUint32(p[20:24], off)
	}

	return chunk
}
