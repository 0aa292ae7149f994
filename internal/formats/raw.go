// ABOUTME: Descriptors for headerless data described on the command line
// ABOUTME: Optional layer selection through the deinterleave transform and loop scan
package formats

import (
	"errors"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// ErrRawConfig is returned for raw settings that cannot describe a stream
var ErrRawConfig = errors.New("formats: invalid raw config")

// RawConfig describes headerless audio data
type RawConfig struct {
	Coding      codec.Coding
	CodecConfig int
	Channels    int
	SampleRate  int
	Interleave  int64 // bytes per channel block; 0 places channels one after another
	Blocked     bool  // EA SCDl/SCEl blocks starting at Start
	BigEndian   bool

	Start int64 // data offset
	Size  int64 // data size; 0 runs to the end of the file

	NumSamples int // 0 derives the count from Size

	LoopStart int
	LoopEnd   int // > 0 enables the loop
	FindLoops bool
	FullLoops bool

	// Layers > 0 selects Layer (0-based) of a multi-layer blocked container at Start
	Layer  int
	Layers int

	// DSP coefficient tables: CoefOffset + i*CoefSpacing for channel i
	CoefOffset  int64
	CoefSpacing int64
}

// Descriptor builds the stream descriptor. The returned Source is the one to
// decode from; it differs from src when a layer is selected.
func (c RawConfig) Descriptor(src streamfile.Source, rep *diag.Reporter) (engine.Descriptor, streamfile.Source, error) {
	if c.Channels < 1 || c.SampleRate <= 0 {
		return engine.Descriptor{}, nil, fmt.Errorf("%w: %d channels at %d Hz", ErrRawConfig, c.Channels, c.SampleRate)
	}

	start, size := c.Start, c.Size
	if size <= 0 || start+size > src.Size() {
		size = src.Size() - start
	}
	if size <= 0 {
		return engine.Descriptor{}, nil, fmt.Errorf("%w: no data after offset %#x", ErrRawConfig, start)
	}

	if c.Layers > 0 {
		if c.Layer < 0 || c.Layer >= c.Layers {
			return engine.Descriptor{}, nil, fmt.Errorf("%w: layer %d of %d", ErrRawConfig, c.Layer, c.Layers)
		}
		layer, err := streamfile.NewDeinterleaveAuto(src, start, size, c.Layer, c.Layers, c.BigEndian, rep)
		if err != nil {
			return engine.Descriptor{}, nil, fmt.Errorf("failed to select layer %d: %w", c.Layer, err)
		}
		src, start, size = layer, 0, layer.Size()
	}

	desc := engine.Descriptor{
		SampleRate:  c.SampleRate,
		Channels:    c.Channels,
		NumSamples:  c.NumSamples,
		Coding:      c.Coding,
		CodecConfig: c.CodecConfig,
		BigEndian:   c.BigEndian,
		DataOffset:  start,
		DataSize:    size,
	}

	switch {
	case c.Coding.Delegated():
		desc.Layout = engine.LayoutFlat
	case c.Blocked:
		desc.Layout = engine.LayoutBlockedEA
		desc.BlockOffset = start
		if desc.NumSamples == 0 {
			return engine.Descriptor{}, nil, fmt.Errorf("%w: blocked data needs an explicit sample count", ErrRawConfig)
		}
	case c.Interleave > 0 && c.Channels > 1:
		desc.Layout = engine.LayoutInterleave
		desc.Interleave = c.Interleave
		desc.InterleaveLast = lastBlock(size, c.Interleave, c.Channels)
	default:
		desc.Layout = engine.LayoutFlat
		perChannel := size / int64(c.Channels)
		for i := 0; i < c.Channels; i++ {
			desc.ChannelOffsets = append(desc.ChannelOffsets, start+int64(i)*perChannel)
		}
	}

	if c.Coding == codec.CodingNGCDSP {
		for i := 0; i < c.Channels; i++ {
			desc.CoefOffsets = append(desc.CoefOffsets, c.CoefOffset+int64(i)*c.CoefSpacing)
		}
	}

	if desc.NumSamples == 0 && !c.Coding.Delegated() {
		n, err := bytesToSamples(c.Coding, c.CodecConfig, size, c.Channels)
		if err != nil {
			return engine.Descriptor{}, nil, err
		}
		desc.NumSamples = n
	}

	switch {
	case c.LoopEnd > 0:
		desc.Loop = true
		desc.LoopStart = c.LoopStart
		desc.LoopEnd = c.LoopEnd
	case c.FindLoops || c.FullLoops:
		if !isPSX(c.Coding) {
			return engine.Descriptor{}, nil, fmt.Errorf("%w: loop scan needs PS-ADPCM, not %s", ErrRawConfig, c.Coding)
		}
		mode := codec.LoopScanFlags
		if c.FullLoops {
			mode = codec.LoopScanFull
		}
		interleave, scan := desc.Interleave, size
		if desc.Layout == engine.LayoutFlat {
			// channel 0 only
			interleave, scan = 0, size/int64(c.Channels)
		}
		if loop, ok := codec.FindPSXLoops(src, start, scan, c.Channels, interleave, mode, rep); ok {
			desc.Loop = true
			desc.LoopStart = loop.Start
			desc.LoopEnd = loop.End
		}
	}

	return desc, src, nil
}

// lastBlock sizes the final, shorter interleave block; 0 means all blocks are full
func lastBlock(size, interleave int64, channels int) int64 {
	row := interleave * int64(channels)
	rest := size % row
	if rest == 0 {
		return 0
	}
	return rest / int64(channels)
}

func bytesToSamples(coding codec.Coding, config int, size int64, channels int) (int, error) {
	dec, err := codec.New(coding, config, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRawConfig, err)
	}
	return codec.BytesToSamples(dec, size/int64(channels)), nil
}

func isPSX(c codec.Coding) bool {
	return c == codec.CodingPSX || c == codec.CodingPSXBadFlags
}
