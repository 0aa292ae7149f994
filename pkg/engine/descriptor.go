// ABOUTME: Stream descriptor: everything a container parser knows about a stream
// ABOUTME: Validates channel limits, layout geometry and per-channel offsets
package engine

import (
	"errors"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/codec"
)

// MaxChannels is the hard limit on channels per stream
const MaxChannels = 64

var (
	// ErrTooManyChannels is returned when a descriptor exceeds MaxChannels
	ErrTooManyChannels = errors.New("engine: too many channels")

	// ErrInvalidDescriptor is returned for descriptors that cannot be decoded
	ErrInvalidDescriptor = errors.New("engine: invalid descriptor")
)

// Layout selects how channel data is arranged in the source
type Layout int

const (
	// LayoutFlat stores each channel as one contiguous run
	LayoutFlat Layout = iota

	// LayoutInterleave alternates fixed-size blocks per channel
	LayoutInterleave

	// LayoutBlockedEA walks EA SCxl headered blocks
	LayoutBlockedEA
)

func (l Layout) String() string {
	switch l {
	case LayoutFlat:
		return "flat"
	case LayoutInterleave:
		return "interleave"
	case LayoutBlockedEA:
		return "blocked (EA SCxl)"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// ConfigBlockHistory is the CodecConfig bit marking blocked streams whose
// channel data starts with the ADPCM history
const ConfigBlockHistory = 1

// Descriptor describes one stream. It is not modified after Open.
type Descriptor struct {
	SampleRate int
	Channels   int
	NumSamples int // total samples per channel; may be 0 for delegated codings

	Loop      bool
	LoopStart int
	LoopEnd   int // exclusive

	Coding codec.Coding
	Layout Layout

	Interleave     int64 // bytes per channel per block
	InterleaveLast int64 // bytes per channel in a smaller final block

	// ChannelOffsets holds each channel's first byte. For interleaved data
	// it may be left empty to derive DataOffset + i*Interleave.
	ChannelOffsets []int64

	// CoefOffsets holds each channel's DSP coefficient table
	CoefOffsets []int64

	BigEndian bool

	// CodecConfig is coding specific: the frame size for configurable
	// PS-ADPCM, ConfigBlockHistory for blocked layouts.
	CodecConfig int

	// DataOffset and DataSize bound the data region. Delegated codings read
	// exactly this region; a zero size extends it to the end of the source.
	DataOffset int64
	DataSize   int64

	// BlockOffset is the first block of a blocked layout
	BlockOffset int64
}

// Validate checks the descriptor for structural problems
func (d *Descriptor) Validate() error {
	if d.Channels > MaxChannels {
		return fmt.Errorf("%w: %d > %d", ErrTooManyChannels, d.Channels, MaxChannels)
	}
	if d.Channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrInvalidDescriptor, d.Channels)
	}
	if d.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidDescriptor, d.SampleRate)
	}
	if d.NumSamples < 0 || (d.NumSamples == 0 && !d.Coding.Delegated()) {
		return fmt.Errorf("%w: %d samples", ErrInvalidDescriptor, d.NumSamples)
	}

	if d.Coding.Delegated() {
		if d.Layout != LayoutFlat {
			return fmt.Errorf("%w: coding %s needs the flat layout", ErrInvalidDescriptor, d.Coding)
		}
		if d.DataOffset < 0 || d.DataSize < 0 {
			return fmt.Errorf("%w: data region %d+%d", ErrInvalidDescriptor, d.DataOffset, d.DataSize)
		}
		return nil
	}

	switch d.Layout {
	case LayoutFlat:
		if len(d.ChannelOffsets) != d.Channels {
			return fmt.Errorf("%w: %d channel offsets for %d channels", ErrInvalidDescriptor, len(d.ChannelOffsets), d.Channels)
		}
	case LayoutInterleave:
		if d.Interleave <= 0 {
			return fmt.Errorf("%w: interleave %d", ErrInvalidDescriptor, d.Interleave)
		}
		if d.InterleaveLast < 0 || d.InterleaveLast > d.Interleave {
			return fmt.Errorf("%w: last interleave %d", ErrInvalidDescriptor, d.InterleaveLast)
		}
		if len(d.ChannelOffsets) != 0 && len(d.ChannelOffsets) != d.Channels {
			return fmt.Errorf("%w: %d channel offsets for %d channels", ErrInvalidDescriptor, len(d.ChannelOffsets), d.Channels)
		}
	case LayoutBlockedEA:
		if d.BlockOffset < 0 {
			return fmt.Errorf("%w: block offset %d", ErrInvalidDescriptor, d.BlockOffset)
		}
	default:
		return fmt.Errorf("%w: unknown layout %d", ErrInvalidDescriptor, int(d.Layout))
	}

	if d.Coding == codec.CodingNGCDSP && len(d.CoefOffsets) != d.Channels {
		return fmt.Errorf("%w: %d coefficient offsets for %d channels", ErrInvalidDescriptor, len(d.CoefOffsets), d.Channels)
	}
	return nil
}

// channelStart returns the physical start of channel i
func (d *Descriptor) channelStart(i int) int64 {
	switch {
	case d.Layout == LayoutBlockedEA:
		return d.BlockOffset
	case len(d.ChannelOffsets) > i:
		return d.ChannelOffsets[i]
	}
	return d.DataOffset + int64(i)*d.Interleave
}

// loopValid reports whether the loop region fits the stream
func (d *Descriptor) loopValid() bool {
	if d.LoopStart < 0 || d.LoopEnd <= d.LoopStart {
		return false
	}
	return d.NumSamples == 0 || d.LoopEnd <= d.NumSamples
}
