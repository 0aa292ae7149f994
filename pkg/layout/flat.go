// ABOUTME: Flat layout: each channel's data is one contiguous run
package layout

import "github.com/Sendspin/loopdec/pkg/codec"

// Flat treats the whole stream as a single block
type Flat struct {
	NumSamples int
}

// First implements Layout
func (l *Flat) First(st *State, chs codec.Channels) {
	if len(chs) > 0 {
		st.Offset = chs[0].Start
	}
	st.Samples = l.NumSamples
}

// Advance implements Layout
func (l *Flat) Advance(st *State, chs codec.Channels) {
	st.End = true
}

// Name implements Layout
func (l *Flat) Name() string { return "flat" }
