// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded PCM between sample rates for output devices
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates and keeps
// state between chunks, so a stream can be resampled in pieces.
//
// Example:
//
//	r := resample.New(22050, 48000, 2)
//	n := r.Resample(input, output)
package resample
