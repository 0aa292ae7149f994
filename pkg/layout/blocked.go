// ABOUTME: Headered block layout driven by a container-specific parser
package layout

import "github.com/Sendspin/loopdec/pkg/codec"

// BlockParser reads the header of the block at offset. It fills the block
// geometry in st (Offset, Size, FullSize, Next, Samples, End) and points
// each channel at its data within the block.
type BlockParser interface {
	Parse(offset int64, st *State, chs codec.Channels)
	Name() string
}

// Blocked walks a chain of headered blocks starting at Offset
type Blocked struct {
	Offset int64
	Parser BlockParser
}

// First implements Layout
func (l *Blocked) First(st *State, chs codec.Channels) {
	l.Parser.Parse(l.Offset, st, chs)
}

// Advance implements Layout
func (l *Blocked) Advance(st *State, chs codec.Channels) {
	if st.End || st.Next <= st.Offset {
		st.End = true
		return
	}
	l.Parser.Parse(st.Next, st, chs)
}

// Name implements Layout
func (l *Blocked) Name() string {
	return "blocked (" + l.Parser.Name() + ")"
}
