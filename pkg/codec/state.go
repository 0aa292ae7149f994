// ABOUTME: Per-channel decode state and its codec-specific variants
// ABOUTME: Snapshots are deep copies so restoring never aliases live state
package codec

import "github.com/Sendspin/loopdec/pkg/streamfile"

// State is the codec-specific part of a channel's decode state
type State interface {
	Clone() State
}

// History holds the two previous samples of a predictive ADPCM channel
type History struct {
	Hist1 int32
	Hist2 int32
}

// Clone implements State
func (h *History) Clone() State {
	c := *h
	return &c
}

// Seed replaces the history, for containers that store it per block
func (h *History) Seed(hist1, hist2 int32) {
	h.Hist1, h.Hist2 = hist1, hist2
}

// DSPState is the DSP ADPCM predictor history and coefficient table
type DSPState struct {
	History
	Coefs [16]int16
}

// Clone implements State
func (s *DSPState) Clone() State {
	c := *s
	return &c
}

// IMAState is the IMA ADPCM predictor and step index
type IMAState struct {
	Predictor int32
	StepIndex int
}

// Clone implements State
func (s *IMAState) Clone() State {
	c := *s
	return &c
}

// Channel is the decode state of one channel
type Channel struct {
	Src    streamfile.Source
	Start  int64 // physical offset of the channel's first frame
	Offset int64 // physical offset the decoder addresses samples from
	State  State
}

// NewChannel creates a channel positioned at start
func NewChannel(src streamfile.Source, start int64, dec Decoder) Channel {
	return Channel{
		Src:    src,
		Start:  start,
		Offset: start,
		State:  dec.NewState(),
	}
}

// Snapshot returns a deep copy of the channel
func (c Channel) Snapshot() Channel {
	if c.State != nil {
		c.State = c.State.Clone()
	}
	return c
}

// Channels is the decode state of every channel of a stream
type Channels []Channel

// Snapshot returns a deep copy of all channels
func (cs Channels) Snapshot() Channels {
	out := make(Channels, len(cs))
	for i, c := range cs {
		out[i] = c.Snapshot()
	}
	return out
}

// Restore overwrites cs with a deep copy of snap
func (cs Channels) Restore(snap Channels) {
	for i := range cs {
		cs[i] = snap[i].Snapshot()
	}
}
