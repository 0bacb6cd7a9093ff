// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/splicebox/audio"
	"github.com/ik5/splicebox/marker"
	"github.com/ik5/splicebox/utils"
)

// BitDepth of the files written by Encode.
const BitDepth = 16

// Encode writes buf as a 16-bit PCM WAV file followed by a "cue " chunk
// holding one cue point per marker, at round(position * sampleRate),
// ascending. Markers outside [0, duration) are skipped.
func Encode(w io.WriteSeeker, buf *audio.Buffer, markers []float64) error {
	channels := buf.Channels()
	if channels == 0 {
		return ErrNoChannels
	}

	enc := wav.NewEncoder(w, buf.SampleRate(), BitDepth, channels, formatPCM)

	frames := buf.Len()
	data := make([]int, frames*channels)
	for c := range channels {
		samples := buf.Channel(c)
		for f, v := range samples {
			data[f*channels+c] = utils.Float32ToPCM(v, BitDepth)
		}
	}

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  buf.SampleRate(),
		},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}

	valid := marker.FilterWithinDuration(markers, buf.Duration())
	if len(valid) > 0 {
		if err := enc.AddLE(cueChunk(sampleOffsets(valid, buf.SampleRate()))); err != nil {
			return fmt.Errorf("writing cue chunk: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}

// Serialize encodes buf and markers into an in-memory WAV file.
func Serialize(buf *audio.Buffer, markers []float64) ([]byte, error) {
	w := &memFile{}
	if err := Encode(w, buf, markers); err != nil {
		return nil, err
	}
	return w.data, nil
}

// memFile is a growable in-memory io.WriteSeeker.
type memFile struct {
	data []byte
	pos  int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}

	if pos < 0 {
		return 0, fmt.Errorf("negative position")
	}

	m.pos = pos
	return pos, nil
}
