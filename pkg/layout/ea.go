// ABOUTME: Block parser for EA SCxl streams (SCDl data, SCEl end)
// ABOUTME: Reads block size, sample count and per-channel data offsets
package layout

import (
	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// EA block ids
const (
	eaIDData    = 0x5343446C // "SCDl"
	eaIDDataEN  = 0x5344454E // "SDEN"
	eaIDDataFR  = 0x53444652 // "SDFR"
	eaIDEnd     = 0x5343456C // "SCEl"
	eaIDEndEN   = 0x5345454E // "SEEN"
	eaIDEndFR   = 0x53454652 // "SEFR"
	eaIDPadding = 0x00000000

	eaMaxLESize    = 0x00F00000 // larger little-endian sizes are really big-endian
	eaMaxBlockSize = 0xFFFFF
	eaMaxSamples   = 0xFFFF
	eaTableOffset  = 0x0c
)

// EABlocks parses EA audio blocks. Each data block holds an id, a size,
// a sample count and a table of per-channel data offsets relative to the
// end of the table. Other blocks are skipped.
type EABlocks struct {
	Src       streamfile.Source
	BigEndian bool // endianness of sample counts and offset tables
	History   bool // each channel's data starts with 16-bit hist1 and hist2
	Reporter  *diag.Reporter
}

// Parse implements BlockParser
func (p *EABlocks) Parse(offset int64, st *State, chs codec.Channels) {
	st.Offset = offset
	st.Samples = 0
	st.Size = 0

	if offset >= p.Src.Size() {
		st.End = true
		st.FullSize = 0
		st.Next = offset
		return
	}

	id := streamfile.U32BE(p.Src, offset)
	size := int64(streamfile.U32LE(p.Src, offset+4))
	if size > eaMaxLESize {
		size = int64(streamfile.U32BE(p.Src, offset+4))
	}

	switch id {
	case eaIDPadding:
		size = 4

	case eaIDEnd, eaIDEndEN, eaIDEndFR:
		st.End = true

	case eaIDData, eaIDDataEN, eaIDDataFR:
		st.Samples = int(streamfile.U32(p.Src, offset+8, p.BigEndian))
		table := offset + eaTableOffset
		dataStart := table + int64(len(chs))*4
		for i := range chs {
			chs[i].Offset = dataStart + int64(streamfile.U32(p.Src, table+int64(i)*4, p.BigEndian))
			if p.History {
				p.seed(&chs[i])
			}
		}
		st.Size = size - (dataStart - offset)
	}

	if size == 0 || size > eaMaxBlockSize || st.Samples > eaMaxSamples {
		p.Reporter.Once(diag.BlockBadSize, "EA: bad block size %x at %x", size, offset)
		size = 4
		st.Samples = 0
	}

	st.FullSize = size
	st.Next = offset + size
}

// seed loads the history stored before a channel's data and skips it
func (p *EABlocks) seed(ch *codec.Channel) {
	hist1 := int16(streamfile.U16(p.Src, ch.Offset, p.BigEndian))
	hist2 := int16(streamfile.U16(p.Src, ch.Offset+2, p.BigEndian))
	if s, ok := ch.State.(interface{ Seed(int32, int32) }); ok {
		s.Seed(int32(hist1), int32(hist2))
	}
	ch.Offset += 4
}

// Name implements BlockParser
func (p *EABlocks) Name() string { return "EA SCxl" }
