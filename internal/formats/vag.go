// ABOUTME: Sony VAG header parser
// ABOUTME: Mono PS-ADPCM with loop points taken from the frame flags
package formats

import (
	"errors"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

const (
	vagHeaderSize = 0x30
	vagSizeOffset = 0x0c
	vagRateOffset = 0x10
	vagNameOffset = 0x20
	vagNameSize   = 0x10
)

// ErrNotVAG is returned when the header magic does not match
var ErrNotVAG = errors.New("formats: not a VAG file")

// VAG is a parsed VAG header
type VAG struct {
	Name       string
	BigEndian  bool // false for the "pGAV" variant
	Descriptor engine.Descriptor
}

// ParseVAG reads a "VAGp" (or byte-swapped "pGAV") header and scans the
// frames for loop flags
func ParseVAG(src streamfile.Source, mode codec.LoopScanMode, rep *diag.Reporter) (VAG, error) {
	var v VAG

	magic := make([]byte, 4)
	if !streamfile.ReadExact(src, magic, 0) {
		return v, fmt.Errorf("%w: file too short", ErrNotVAG)
	}
	switch string(magic) {
	case "VAGp":
		v.BigEndian = true
	case "pGAV":
	default:
		return v, fmt.Errorf("%w: magic %q", ErrNotVAG, magic)
	}

	size := int64(streamfile.U32(src, vagSizeOffset, v.BigEndian))
	rate := int(streamfile.U32(src, vagRateOffset, v.BigEndian))

	if avail := src.Size() - vagHeaderSize; size > avail || size == 0 {
		rep.Once(diag.HeaderBadSize, "VAG data size %#x, file holds %#x", size, avail)
		size = avail
	}
	if size <= 0 {
		return v, fmt.Errorf("%w: no sample data", ErrNotVAG)
	}

	name := make([]byte, vagNameSize)
	streamfile.ReadExact(src, name, vagNameOffset)
	v.Name = cString(name)

	v.Descriptor = engine.Descriptor{
		SampleRate:     rate,
		Channels:       1,
		NumSamples:     codec.PSXBytesToSamples(size, 1),
		Coding:         codec.CodingPSX,
		Layout:         engine.LayoutFlat,
		ChannelOffsets: []int64{vagHeaderSize},
		DataOffset:     vagHeaderSize,
		DataSize:       size,
	}

	if loop, ok := codec.FindPSXLoops(src, vagHeaderSize, size, 1, 0, mode, rep); ok {
		v.Descriptor.Loop = true
		v.Descriptor.LoopStart = loop.Start
		v.Descriptor.LoopEnd = loop.End
	}
	return v, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
