// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides fundamental audio types and utilities shared by the
// decoders and front ends.
//
// This package defines core types used throughout loopdec:
//   - Format: Describes audio stream format (codec, sample rate, channels, bit depth)
//   - Buffer: A run of decoded interleaved 16-bit PCM with its stream position
//
// It also provides utilities for converting between different sample formats:
//   - 16-bit saturation (Clamp16) for ADPCM predictors
//   - 16-bit ↔ 24-bit and float conversions
//   - int32 ↔ packed byte conversions
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "pcm",
//	    SampleRate: 48000,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	// Saturate a predicted ADPCM sample
//	sample := audio.Clamp16(predicted)
package audio
