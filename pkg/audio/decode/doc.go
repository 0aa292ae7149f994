// ABOUTME: Decoders for codecs handled by external libraries
// ABOUTME: Provides the Decoder interface and MP3, Vorbis, FLAC, Opus implementations
// Package decode wraps complete-stream codec libraries behind one pull
// interface so the engine can treat them like any other sample source.
//
// Supports: MPEG audio (go-mp3), Ogg Vorbis (oggvorbis), FLAC (mewkiz/flac)
// and length-prefixed Opus packets (libopus).
//
// All decoders produce interleaved int16 samples and report io.EOF once
// the stream is exhausted.
//
// Example:
//
//	dec, err := decode.New(audio.Format{Codec: "vorbis"}, file)
//	frames, err := dec.Decode(buf)
package decode
