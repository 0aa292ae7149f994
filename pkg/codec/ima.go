// ABOUTME: IMA ADPCM decoder for mono-interleaved game streams
// ABOUTME: Two samples per byte, low nibble first, state carried per channel
package codec

import "github.com/Sendspin/loopdec/pkg/diag"

var imaStepTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34,
	37, 41, 45, 50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143,
	157, 173, 190, 209, 230, 253, 279, 307, 337, 371, 408, 449, 494,
	544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411, 1552,
	1707, 1878, 2066, 2272, 2499, 2749, 3024, 3327, 3660, 4026,
	4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493, 10442,
	11487, 12635, 13899, 15289, 16818, 18500, 20350, 22385, 24623,
	27086, 29794, 32767,
}

var imaIndexTable = [16]int{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

// IMA decodes headerless IMA ADPCM, one byte holding two samples
type IMA struct {
	Reporter *diag.Reporter
}

// FrameSize implements Decoder
func (d *IMA) FrameSize() int { return 1 }

// SamplesPerFrame implements Decoder
func (d *IMA) SamplesPerFrame() int { return 2 }

// NewState implements Decoder
func (d *IMA) NewState() State { return &IMAState{} }

// Decode implements Decoder
func (d *IMA) Decode(ch *Channel, out []int16, stride, first, count int) {
	st := ch.State.(*IMAState)

	// bytes covering [first, first+count)
	data := make([]byte, (first+count+1)/2-first/2)
	readFrame(ch, data, ch.Offset+int64(first/2), d.Reporter)

	pos := 0
	for i := first; i < first+count; i++ {
		b := data[i/2-first/2]
		code := b & 0x0f
		if i&1 != 0 {
			code = b >> 4
		}

		out[pos] = st.step(code)
		pos += stride
	}
}

// step advances the predictor by one 4-bit code
func (s *IMAState) step(code byte) int16 {
	if s.StepIndex < 0 || s.StepIndex >= len(imaStepTable) {
		s.StepIndex = 0
	}
	step := imaStepTable[s.StepIndex]

	diff := step >> 3
	if code&1 != 0 {
		diff += step >> 2
	}
	if code&2 != 0 {
		diff += step >> 1
	}
	if code&4 != 0 {
		diff += step
	}
	if code&8 != 0 {
		diff = -diff
	}

	s.Predictor += diff
	if s.Predictor > 32767 {
		s.Predictor = 32767
	} else if s.Predictor < -32768 {
		s.Predictor = -32768
	}

	s.StepIndex += imaIndexTable[code]
	if s.StepIndex < 0 {
		s.StepIndex = 0
	} else if s.StepIndex > len(imaStepTable)-1 {
		s.StepIndex = len(imaStepTable) - 1
	}

	return int16(s.Predictor)
}
