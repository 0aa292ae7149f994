// ABOUTME: Wire serialization of decoded PCM
// ABOUTME: Provides Encoder interface and the PCM implementation
// Package encode turns decoded samples into bytes for the network.
//
// Supports: little-endian PCM at 16 or 24 bits.
//
// Example:
//
//	encoder, err := encode.NewPCM(format)
//	data, err := encoder.Encode(samples)
package encode
