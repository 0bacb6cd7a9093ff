// SPDX-License-Identifier: EPL-2.0

// Package audio holds the sample-level building blocks of the editor.
//
// # Sources
//
// A Source streams interleaved float32 samples in [-1, 1]. Decoders,
// the Resampler and the MonoMixer all implement it and chain freely:
//
//	src, _ := decoder.Decode(r)
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))
//
// ReadSamples returns io.EOF once the stream is drained, possibly together
// with the last samples.
//
// # Buffers
//
// A Buffer is decoded audio held in memory, planar, with one slice per
// channel. ReadBuffer drains a Source into one and Buffer.Source turns it
// back into a stream:
//
//	buf, err := audio.ReadBuffer(src)
//	out := audio.NewBuffer(buf.Channels(), 2*buf.Len(), buf.SampleRate())
//	audio.CopyInto(out, buf, 0, 0, buf.Len())
//	audio.CopyInto(out, buf, buf.Len(), 0, buf.Len())
//
// CopyInto copies verbatim and never mixes. A destination channel the
// source lacks is filled with silence.
//
// # Format Registry
//
// The registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register(wav.Decoder{}, "wav", "wave")
//	decoder, ok := registry.Lookup("kick.WAV")
//
// Keys are case insensitive. A decoder that can also report a stream
// duration from metadata alone implements Prober.
package audio
