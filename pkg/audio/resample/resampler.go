// ABOUTME: Streaming linear resampler on interleaved int16 PCM
// ABOUTME: Carries the last input frame across chunks so joins are seamless
package resample

import "github.com/Sendspin/loopdec/pkg/audio"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position is measured in frames from prev, the last frame of the
	// previous chunk; input frame i sits at i+1
	position float64
	prev     []int16
	primed   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		prev:       make([]int16, channels),
	}
}

// Resample converts one chunk of interleaved input and returns the number
// of samples written to output. Size output with OutputSamplesNeeded plus
// one frame; input left over when output fills up is dropped.
func (r *Resampler) Resample(input []int16, output []int16) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	if !r.primed {
		copy(r.prev, input[:r.channels])
		r.position = 1
		r.primed = true
	}

	frame := func(i, ch int) int16 {
		if i == 0 {
			return r.prev[ch]
		}
		return input[(i-1)*r.channels+ch]
	}

	outputFrames := len(output) / r.channels
	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		if idx >= inputFrames {
			break
		}
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(frame(idx, ch))
			s2 := float64(frame(idx+1, ch))
			output[outIdx*r.channels+ch] = audio.Clamp16(int32(s1 + (s2-s1)*frac))
		}

		outIdx++
		r.position += r.ratio
	}

	r.position -= float64(inputFrames)
	if r.position < 0 {
		r.position = 0
	}
	copy(r.prev, input[(inputFrames-1)*r.channels:inputFrames*r.channels])

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
