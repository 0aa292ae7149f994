// ABOUTME: Audio output package for playing decoded streams
// ABOUTME: Provides Output interface and the oto implementation
// Package output provides audio playback interfaces.
//
// The oto backend plays interleaved 16-bit PCM with software volume.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2)
//	err = out.Write(samples)
package output
