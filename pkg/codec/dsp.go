// ABOUTME: Nintendo DSP ADPCM frame decoder
// ABOUTME: 8-byte frames of 14 samples with a per-channel coefficient table
package codec

import (
	"fmt"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

const (
	dspFrameSize       = 0x08
	dspSamplesPerFrame = (dspFrameSize - 1) * 2 // 14
	dspCoefCount       = 16
)

// DSP decodes Nintendo GameCube/Wii DSP ADPCM. Each channel carries its
// own 8-pair coefficient table in a *DSPState.
type DSP struct {
	Reporter *diag.Reporter
}

// FrameSize implements Decoder
func (d *DSP) FrameSize() int { return dspFrameSize }

// SamplesPerFrame implements Decoder
func (d *DSP) SamplesPerFrame() int { return dspSamplesPerFrame }

// NewState implements Decoder
func (d *DSP) NewState() State { return &DSPState{} }

// LoadDSPCoefs reads 16 signed 16-bit coefficients at offset into the state
func LoadDSPCoefs(src streamfile.Source, offset int64, bigEndian bool, state *DSPState) error {
	raw := make([]byte, dspCoefCount*2)
	if !streamfile.ReadExact(src, raw, offset) {
		return fmt.Errorf("failed to read DSP coefficients at 0x%x", offset)
	}

	for i := range state.Coefs {
		if bigEndian {
			state.Coefs[i] = int16(uint16(raw[i*2])<<8 | uint16(raw[i*2+1]))
		} else {
			state.Coefs[i] = int16(uint16(raw[i*2+1])<<8 | uint16(raw[i*2]))
		}
	}

	return nil
}

// Decode implements Decoder
func (d *DSP) Decode(ch *Channel, out []int16, stride, first, count int) {
	st := ch.State.(*DSPState)
	hist1, hist2 := st.Hist1, st.Hist2

	var frame [dspFrameSize]byte
	pos := 0
	for count > 0 {
		frameIndex := first / dspSamplesPerFrame
		inFrame := first % dspSamplesPerFrame
		frameOffset := ch.Offset + int64(frameIndex)*dspFrameSize

		readFrame(ch, frame[:], frameOffset, d.Reporter)

		scale := int32(1) << (frame[0] & 0x0f)
		coefIndex := int(frame[0]>>4) & 0x0f
		if coefIndex > 7 {
			d.Reporter.Once(diag.DSPBadCoefIndex, "DSP: incorrect coef index at %x", frameOffset)
			coefIndex = 0
		}
		coef1 := int32(st.Coefs[coefIndex*2])
		coef2 := int32(st.Coefs[coefIndex*2+1])

		n := dspSamplesPerFrame - inFrame
		if n > count {
			n = count
		}

		for i := inFrame; i < inFrame+n; i++ {
			b := frame[1+i/2]
			nibble := b >> 4 // high nibble first
			if i&1 != 0 {
				nibble = b & 0x0f
			}
			signed := int32(int8(nibble<<4)) >> 4

			sample := ((signed*scale)<<11 + 1024 + coef1*hist1 + coef2*hist2) >> 11
			sample = int32(audio.Clamp16(sample))

			out[pos] = int16(sample)
			pos += stride

			hist2 = hist1
			hist1 = sample
		}

		first += n
		count -= n
	}

	st.Hist1, st.Hist2 = hist1, hist2
}
