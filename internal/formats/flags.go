// ABOUTME: Command line flags describing raw data
// ABOUTME: Shared by the loopdec player and server front ends
package formats

import (
	"flag"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/codec"
)

// Flags holds the raw-data flags of a command line
type Flags struct {
	codec       string
	codecConfig int
	channels    int
	rate        int
	interleave  int64
	blocked     bool
	bigEndian   bool
	start       int64
	size        int64
	samples     int
	loopStart   int
	loopEnd     int
	findLoops   bool
	fullLoops   bool
	layer       int
	layers      int
	coefOffset  int64
	coefSpacing int64
}

// Register adds the raw-data flags to fs
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.codec, "codec", "", "Raw data codec (psx, psx-badflags, psx-cfg, dsp, ima, pcm16le, pcm16be, pcm8, mpeg, vorbis, flac, opus); empty detects the format")
	fs.IntVar(&f.codecConfig, "codec-config", 0, "Codec configuration value (psx-cfg frame size, EA block history bit)")
	fs.IntVar(&f.channels, "channels", 1, "Raw data channel count")
	fs.IntVar(&f.rate, "rate", 44100, "Raw data sample rate")
	fs.Int64Var(&f.interleave, "interleave", 0, "Bytes per channel block; 0 stores channels one after another")
	fs.BoolVar(&f.blocked, "blocked", false, "Raw data uses EA SCDl/SCEl blocks")
	fs.BoolVar(&f.bigEndian, "big-endian", false, "Raw headers and DSP coefficients are big endian")
	fs.Int64Var(&f.start, "start", 0, "Raw data start offset")
	fs.Int64Var(&f.size, "size", 0, "Raw data size; 0 runs to the end of the file")
	fs.IntVar(&f.samples, "samples", 0, "Raw sample count per channel; 0 derives it from the data size")
	fs.IntVar(&f.loopStart, "loop-start", 0, "Loop start sample")
	fs.IntVar(&f.loopEnd, "loop-end", 0, "Loop end sample (exclusive); 0 disables an explicit loop")
	fs.BoolVar(&f.findLoops, "find-loops", false, "Scan PS-ADPCM frame flags for loop points")
	fs.BoolVar(&f.fullLoops, "full-loops", false, "Also treat songs ending in a flag-1 frame as fully looping")
	fs.IntVar(&f.layer, "layer", 0, "Layer to play from a multi-layer container (0-based)")
	fs.IntVar(&f.layers, "layers", 0, "Layers in the container; 0 disables layer selection")
	fs.Int64Var(&f.coefOffset, "coef-offset", 0, "DSP coefficient table offset of the first channel")
	fs.Int64Var(&f.coefSpacing, "coef-spacing", 0x20, "DSP coefficient table distance between channels")
}

// LoopScanMode returns the scan mode chosen on the command line
func (f *Flags) LoopScanMode() codec.LoopScanMode {
	if f.fullLoops {
		return codec.LoopScanFull
	}
	return codec.LoopScanFlags
}

// Config returns the raw config, or nil when no codec was given
func (f *Flags) Config() (*RawConfig, error) {
	if f.codec == "" {
		return nil, nil
	}
	coding, err := codec.ParseCoding(f.codec)
	if err != nil {
		return nil, fmt.Errorf("invalid -codec: %w", err)
	}

	return &RawConfig{
		Coding:      coding,
		CodecConfig: f.codecConfig,
		Channels:    f.channels,
		SampleRate:  f.rate,
		Interleave:  f.interleave,
		Blocked:     f.blocked,
		BigEndian:   f.bigEndian,
		Start:       f.start,
		Size:        f.size,
		NumSamples:  f.samples,
		LoopStart:   f.loopStart,
		LoopEnd:     f.loopEnd,
		FindLoops:   f.findLoops,
		FullLoops:   f.fullLoops,
		Layer:       f.layer,
		Layers:      f.layers,
		CoefOffset:  f.coefOffset,
		CoefSpacing: f.coefSpacing,
	}, nil
}
