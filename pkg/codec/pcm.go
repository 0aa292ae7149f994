// ABOUTME: Raw PCM frame decoders
// ABOUTME: 16-bit little/big endian and signed 8-bit samples
package codec

import "github.com/Sendspin/loopdec/pkg/diag"

// PCM16 decodes signed 16-bit samples
type PCM16 struct {
	BigEndian bool
	Reporter  *diag.Reporter
}

// FrameSize implements Decoder
func (d *PCM16) FrameSize() int { return 2 }

// SamplesPerFrame implements Decoder
func (d *PCM16) SamplesPerFrame() int { return 1 }

// NewState implements Decoder
func (d *PCM16) NewState() State { return nil }

// Decode implements Decoder
func (d *PCM16) Decode(ch *Channel, out []int16, stride, first, count int) {
	data := make([]byte, count*2)
	readFrame(ch, data, ch.Offset+int64(first)*2, d.Reporter)

	pos := 0
	for i := 0; i < count; i++ {
		lo, hi := data[i*2], data[i*2+1]
		if d.BigEndian {
			lo, hi = hi, lo
		}
		out[pos] = int16(uint16(hi)<<8 | uint16(lo))
		pos += stride
	}
}

// PCM8 decodes signed 8-bit samples
type PCM8 struct {
	Reporter *diag.Reporter
}

// FrameSize implements Decoder
func (d *PCM8) FrameSize() int { return 1 }

// SamplesPerFrame implements Decoder
func (d *PCM8) SamplesPerFrame() int { return 1 }

// NewState implements Decoder
func (d *PCM8) NewState() State { return nil }

// Decode implements Decoder
func (d *PCM8) Decode(ch *Channel, out []int16, stride, first, count int) {
	data := make([]byte, count)
	readFrame(ch, data, ch.Offset+int64(first), d.Reporter)

	pos := 0
	for _, b := range data {
		out[pos] = int16(int8(b)) << 8
		pos += stride
	}
}
