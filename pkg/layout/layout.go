// ABOUTME: Block state, the Layout contract and the Engine driving it
// ABOUTME: Runs are capped to the current block; exhausted blocks advance
package layout

import (
	"github.com/Sendspin/loopdec/pkg/codec"
)

// maxEmptyBlocks bounds how many sample-less blocks are skipped in one advance
const maxEmptyBlocks = 1 << 16

// State is the current block. For blocked layouts Offset+FullSize == Next.
type State struct {
	Offset   int64 // physical offset of the block
	Size     int64 // usable data bytes per channel
	FullSize int64 // physical size including headers and all channels
	Next     int64 // physical offset of the following block
	Samples  int   // samples the block decodes to
	Start    int   // stream sample position of the block's first sample
	Into     int   // samples already decoded from the block
	End      bool  // no further blocks exist
}

// Left returns the samples remaining in the block
func (s State) Left() int {
	if s.End {
		return 0
	}
	return s.Samples - s.Into
}

// Layout positions channels within a container's blocks
type Layout interface {
	// First loads the first block and points every channel at its data
	First(st *State, chs codec.Channels)

	// Advance moves from an exhausted block to the following one. The
	// state's Start already holds the new block's first sample position.
	Advance(st *State, chs codec.Channels)

	// Name describes the layout
	Name() string
}

// Engine drives a Layout for one stream
type Engine struct {
	layout Layout
	state  State
}

// NewEngine creates an engine; call Reset before decoding
func NewEngine(l Layout) *Engine {
	return &Engine{layout: l}
}

// Reset rewinds the channels to their start offsets and loads the first block
func (e *Engine) Reset(chs codec.Channels) {
	for i := range chs {
		chs[i].Offset = chs[i].Start
	}
	e.state = State{}
	e.layout.First(&e.state, chs)
	e.skipEmpty(chs)
}

// Run caps a requested run to the samples left in the current block
func (e *Engine) Run(requested int) int {
	left := e.state.Left()
	if requested > left {
		return left
	}
	return requested
}

// First returns the block-relative index of the next sample to decode
func (e *Engine) First() int {
	return e.state.Into
}

// Consume records n decoded samples and advances past an exhausted block
func (e *Engine) Consume(chs codec.Channels, n int) {
	e.state.Into += n
	if e.state.Into < e.state.Samples || e.state.End {
		return
	}
	e.advance(chs)
	e.skipEmpty(chs)
}

func (e *Engine) advance(chs codec.Channels) {
	e.state.Start += e.state.Samples
	e.state.Into = 0
	e.layout.Advance(&e.state, chs)
}

// skipEmpty steps over blocks without samples
func (e *Engine) skipEmpty(chs codec.Channels) {
	for i := 0; i < maxEmptyBlocks && !e.state.End && e.state.Samples <= 0; i++ {
		e.advance(chs)
	}
	if e.state.Samples <= 0 {
		e.state.End = true
	}
}

// State returns a copy of the current block state
func (e *Engine) State() State {
	return e.state
}

// Restore replaces the current block state
func (e *Engine) Restore(st State) {
	e.state = st
}

// Name describes the layout
func (e *Engine) Name() string {
	return e.layout.Name()
}
