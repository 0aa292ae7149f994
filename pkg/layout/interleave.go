// ABOUTME: Interleaved layout with fixed per-channel blocks
// ABOUTME: Supports a smaller final block shared by all channels
package layout

import (
	"fmt"

	"github.com/Sendspin/loopdec/pkg/codec"
)

// Interleave lays channels out in alternating fixed-size blocks:
// ch0 block, ch1 block, ..., ch0 block, ...
type Interleave struct {
	Block      int64 // bytes per channel per block
	Last       int64 // bytes per channel in the final block, 0 if not smaller
	NumSamples int
	Frame      codec.Decoder // frame geometry for bytes-to-samples
}

// First implements Layout
func (l *Interleave) First(st *State, chs codec.Channels) {
	size := l.Block
	if l.inLast(st.Start) {
		size = l.Last
		// the whole stream is one short row
		for i := range chs {
			chs[i].Offset -= (l.Block - l.Last) * int64(i)
		}
	}
	l.fill(st, chs, size)
}

// Advance implements Layout
func (l *Interleave) Advance(st *State, chs codec.Channels) {
	if st.Start >= l.NumSamples {
		st.End = true
		return
	}

	n := int64(len(chs))
	size := l.Block
	if l.inLast(st.Start) {
		size = l.Last
		// skip the rest of the full row, then the short blocks of earlier channels
		for i := range chs {
			chs[i].Offset += l.Block*(n-int64(i)) + l.Last*int64(i)
		}
	} else {
		for i := range chs {
			chs[i].Offset += l.Block * n
		}
	}

	l.fill(st, chs, size)
}

// inLast reports whether a full block starting at start would overrun the stream
func (l *Interleave) inLast(start int) bool {
	return l.Last > 0 && start+codec.BytesToSamples(l.Frame, l.Block) > l.NumSamples
}

func (l *Interleave) fill(st *State, chs codec.Channels, size int64) {
	if len(chs) > 0 {
		st.Offset = chs[0].Offset
	}
	st.Size = size
	st.FullSize = size * int64(len(chs))
	st.Next = st.Offset + st.FullSize
	st.Samples = codec.BytesToSamples(l.Frame, size)
}

// Name implements Layout
func (l *Interleave) Name() string {
	if l.Last > 0 {
		return fmt.Sprintf("interleave (0x%x bytes, last block 0x%x)", l.Block, l.Last)
	}
	return fmt.Sprintf("interleave (0x%x bytes)", l.Block)
}
