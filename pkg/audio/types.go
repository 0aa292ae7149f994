// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, decoded buffers and sample conversions
package audio

import "math"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// 16-bit audio range constants
	Max16Bit = math.MaxInt16
	Min16Bit = math.MinInt16
)

// Format describes a PCM stream or a delegated codec's input
type Format struct {
	Codec       string
	SampleRate  int
	Channels    int
	BitDepth    int
	CodecHeader []byte // For FLAC, Opus, etc.
}

// Buffer represents a run of decoded interleaved 16-bit PCM
type Buffer struct {
	Position int     // sample position of the first frame in the stream
	Samples  []int16 // interleaved samples, Channels per frame
	Format   Format
}

// Frames returns the number of sample frames in the buffer
func (b Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Clamp16 saturates a widened sample to the 16-bit range
func Clamp16(v int32) int16 {
	if v > Max16Bit {
		return Max16Bit
	}
	if v < Min16Bit {
		return Min16Bit
	}
	return int16(v)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromFloat32 converts a [-1, 1] float sample to int16, saturating
func SampleFromFloat32(sample float32) int16 {
	return Clamp16(int32(math.Round(float64(sample) * 32767)))
}

// SampleToFloat64 converts int16 to a [-1, 1) float sample
func SampleToFloat64(sample int16) float64 {
	return float64(sample) / 32768
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Downmix averages interleaved frames of from channels down to one channel
func Downmix(samples []int16, from int) []int16 {
	if from <= 1 {
		return samples
	}
	out := make([]int16, len(samples)/from)
	for i := range out {
		var sum int32
		for c := 0; c < from; c++ {
			sum += int32(samples[i*from+c])
		}
		out[i] = int16(sum / int32(from))
	}
	return out
}
