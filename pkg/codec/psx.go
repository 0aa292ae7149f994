// ABOUTME: PS-ADPCM frame decoders (fixed 16-byte frames and configurable frames)
// ABOUTME: Float coefficient math for fixed frames, integer math for configurable ones
package codec

import (
	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/Sendspin/loopdec/pkg/diag"
)

const (
	psxFrameSize       = 0x10
	psxSamplesPerFrame = (psxFrameSize - 2) * 2 // 28

	psxMaxCoefIndex = 5
	psxMaxShift     = 12
	psxSafeShift    = 9
	psxFlagMute     = 0x07
)

// psxCoefs is the filter table as rational numbers. Row 5 is all zero so
// the highest in-range index predicts nothing, like index 0.
var psxCoefs = [6][2]float64{
	{0.0, 0.0},
	{60.0 / 64.0, 0.0},
	{115.0 / 64.0, -52.0 / 64.0},
	{98.0 / 64.0, -55.0 / 64.0},
	{122.0 / 64.0, -60.0 / 64.0},
	{0.0, 0.0},
}

// psxCoefsInt is psxCoefs scaled by 64
var psxCoefsInt = [6][2]int32{
	{0, 0},
	{60, 0},
	{115, -52},
	{98, -55},
	{122, -60},
	{0, 0},
}

// PSX decodes standard PS-ADPCM: 16-byte frames of 28 samples with a
// coef/shift byte and a flag byte. Flag 7 mutes the frame.
type PSX struct {
	BadFlags bool // flags hold garbage and are ignored
	Reporter *diag.Reporter
}

// FrameSize implements Decoder
func (d *PSX) FrameSize() int { return psxFrameSize }

// SamplesPerFrame implements Decoder
func (d *PSX) SamplesPerFrame() int { return psxSamplesPerFrame }

// NewState implements Decoder
func (d *PSX) NewState() State { return &History{} }

// Decode implements Decoder
func (d *PSX) Decode(ch *Channel, out []int16, stride, first, count int) {
	hist := ch.State.(*History)
	hist1, hist2 := hist.Hist1, hist.Hist2

	var frame [psxFrameSize]byte
	pos := 0
	for count > 0 {
		frameIndex := first / psxSamplesPerFrame
		inFrame := first % psxSamplesPerFrame
		frameOffset := ch.Offset + int64(frameIndex)*psxFrameSize

		readFrame(ch, frame[:], frameOffset, d.Reporter)

		coefIndex, shift := psxHeader(frame[0], frameOffset, d.Reporter)
		flag := frame[1]
		if d.BadFlags {
			flag = 0
		}
		if flag > psxFlagMute {
			d.Reporter.Once(diag.PSXUnknownFlag, "PS-ADPCM: unknown flag at %x", frameOffset)
		}

		n := psxSamplesPerFrame - inFrame
		if n > count {
			n = count
		}

		coef := psxCoefs[coefIndex]
		for i := inFrame; i < inFrame+n; i++ {
			var sample int32
			if flag < psxFlagMute {
				scaled := psxNibble(frame[2+i/2], i) >> shift
				sample = int32(float64(scaled) + coef[0]*float64(hist1) + coef[1]*float64(hist2))
				sample = int32(audio.Clamp16(sample))
			}

			out[pos] = int16(sample)
			pos += stride

			hist2 = hist1
			hist1 = sample
		}

		first += n
		count -= n
	}

	hist.Hist1, hist.Hist2 = hist1, hist2
}

// PSXConfigurable decodes PS-ADPCM with a caller-chosen frame size, a
// one-byte header and no flag, using integer coefficient math.
type PSXConfigurable struct {
	Size     int
	Reporter *diag.Reporter
}

// FrameSize implements Decoder
func (d *PSXConfigurable) FrameSize() int { return d.Size }

// SamplesPerFrame implements Decoder
func (d *PSXConfigurable) SamplesPerFrame() int { return (d.Size - 1) * 2 }

// NewState implements Decoder
func (d *PSXConfigurable) NewState() State { return &History{} }

// Decode implements Decoder
func (d *PSXConfigurable) Decode(ch *Channel, out []int16, stride, first, count int) {
	hist := ch.State.(*History)
	hist1, hist2 := hist.Hist1, hist.Hist2

	spf := d.SamplesPerFrame()
	frame := make([]byte, d.Size)
	pos := 0
	for count > 0 {
		frameIndex := first / spf
		inFrame := first % spf
		frameOffset := ch.Offset + int64(frameIndex)*int64(d.Size)

		readFrame(ch, frame, frameOffset, d.Reporter)

		coefIndex, shift := psxHeader(frame[0], frameOffset, d.Reporter)

		n := spf - inFrame
		if n > count {
			n = count
		}

		coef := psxCoefsInt[coefIndex]
		for i := inFrame; i < inFrame+n; i++ {
			scaled := psxNibble(frame[1+i/2], i) >> shift
			sample := scaled + ((coef[0]*hist1 + coef[1]*hist2) >> 6)
			sample = int32(audio.Clamp16(sample))

			out[pos] = int16(sample)
			pos += stride

			hist2 = hist1
			hist1 = sample
		}

		first += n
		count -= n
	}

	hist.Hist1, hist.Hist2 = hist1, hist2
}

// psxHeader splits the coef/shift byte and clamps out-of-range values
func psxHeader(b byte, frameOffset int64, rep *diag.Reporter) (int, uint) {
	coefIndex := int(b>>4) & 0xf
	shift := uint(b) & 0xf

	if coefIndex > psxMaxCoefIndex || shift > psxMaxShift {
		rep.Once(diag.PSXBadCoefShift, "PS-ADPCM: incorrect coefs/shift at %x", frameOffset)
	}
	if coefIndex > psxMaxCoefIndex {
		coefIndex = 0
	}
	if shift > psxMaxShift {
		shift = psxSafeShift
	}

	return coefIndex, shift
}

// psxNibble returns sample i's nibble sign-extended into the top of a
// 16-bit value. Low nibble first.
func psxNibble(b byte, i int) int32 {
	nibble := b & 0x0f
	if i&1 != 0 {
		nibble = b >> 4
	}
	return int32(int16(uint16(nibble) << 12))
}

// readFrame fills frame from the channel's source, zeroing what could not be read
func readFrame(ch *Channel, frame []byte, offset int64, rep *diag.Reporter) {
	n := ch.Src.Read(frame, offset)
	if n < len(frame) {
		clear(frame[n:])
		rep.Once(diag.DecoderShortRead, "short frame read at %x (%d of %d bytes)", offset, n, len(frame))
	}
}
