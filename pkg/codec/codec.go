// ABOUTME: Coding identities and the frame decoder contract
// ABOUTME: New builds the decoder for a coding and its config value
package codec

import (
	"errors"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/diag"
)

// Coding identifies a codec family
type Coding int

// Supported codings
const (
	CodingPSX Coding = iota
	CodingPSXBadFlags
	CodingPSXConfigurable
	CodingNGCDSP
	CodingIMA
	CodingPCM16LE
	CodingPCM16BE
	CodingPCM8

	// Delegated codings are decoded by pkg/audio/decode
	CodingMPEG
	CodingVorbis
	CodingFLAC
	CodingOpus
)

var codingNames = map[Coding]string{
	CodingPSX:             "psx",
	CodingPSXBadFlags:     "psx-badflags",
	CodingPSXConfigurable: "psx-cfg",
	CodingNGCDSP:          "dsp",
	CodingIMA:             "ima",
	CodingPCM16LE:         "pcm16le",
	CodingPCM16BE:         "pcm16be",
	CodingPCM8:            "pcm8",
	CodingMPEG:            "mpeg",
	CodingVorbis:          "vorbis",
	CodingFLAC:            "flac",
	CodingOpus:            "opus",
}

var codingDescriptions = map[Coding]string{
	CodingPSX:             "Playstation 4-bit ADPCM",
	CodingPSXBadFlags:     "Playstation 4-bit ADPCM (bad flags)",
	CodingPSXConfigurable: "Playstation 4-bit ADPCM (configurable)",
	CodingNGCDSP:          "Nintendo DSP 4-bit ADPCM",
	CodingIMA:             "IMA 4-bit ADPCM",
	CodingPCM16LE:         "Little Endian 16-bit PCM",
	CodingPCM16BE:         "Big Endian 16-bit PCM",
	CodingPCM8:            "8-bit PCM",
	CodingMPEG:            "MPEG Audio",
	CodingVorbis:          "Ogg Vorbis",
	CodingFLAC:            "FLAC",
	CodingOpus:            "Opus (length-prefixed packets)",
}

// ErrUnknownCoding is returned for names or values outside the supported set
var ErrUnknownCoding = errors.New("codec: unknown coding")

// String returns the short name used on the command line
func (c Coding) String() string {
	if name, ok := codingNames[c]; ok {
		return name
	}
	return fmt.Sprintf("coding(%d)", int(c))
}

// Description returns a human-readable codec name
func (c Coding) Description() string {
	if d, ok := codingDescriptions[c]; ok {
		return d
	}
	return c.String()
}

// Delegated reports whether the coding is decoded by an external library
func (c Coding) Delegated() bool {
	return c >= CodingMPEG && c <= CodingOpus
}

// ParseCoding maps a short name back to its Coding
func ParseCoding(name string) (Coding, error) {
	for c, n := range codingNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownCoding, name)
}

// Decoder decodes one channel's frames into 16-bit samples.
//
// Decode writes count samples into out, every stride elements, starting at
// out[0]. first is the index of the first sample relative to ch.Offset. The
// channel's State is updated; ch.Offset is not.
type Decoder interface {
	Decode(ch *Channel, out []int16, stride, first, count int)

	// FrameSize returns the bytes per frame for one channel
	FrameSize() int

	// SamplesPerFrame returns the samples one frame decodes to
	SamplesPerFrame() int

	// NewState returns a zeroed state variant for this codec, or nil
	NewState() State
}

// New creates the frame decoder for coding. config is the descriptor's
// codec configuration value; for CodingPSXConfigurable it is the frame size.
func New(coding Coding, config int, rep *diag.Reporter) (Decoder, error) {
	switch coding {
	case CodingPSX:
		return &PSX{Reporter: rep}, nil
	case CodingPSXBadFlags:
		return &PSX{BadFlags: true, Reporter: rep}, nil
	case CodingPSXConfigurable:
		if config < 2 {
			return nil, fmt.Errorf("invalid frame size for configurable PS-ADPCM: %d", config)
		}
		return &PSXConfigurable{Size: config, Reporter: rep}, nil
	case CodingNGCDSP:
		return &DSP{Reporter: rep}, nil
	case CodingIMA:
		return &IMA{Reporter: rep}, nil
	case CodingPCM16LE:
		return &PCM16{Reporter: rep}, nil
	case CodingPCM16BE:
		return &PCM16{BigEndian: true, Reporter: rep}, nil
	case CodingPCM8:
		return &PCM8{Reporter: rep}, nil
	}

	if coding.Delegated() {
		return nil, fmt.Errorf("coding %s has no frame decoder", coding)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCoding, int(coding))
}

// BytesToSamples converts a per-channel byte count to samples for dec
func BytesToSamples(dec Decoder, size int64) int {
	return int(size / int64(dec.FrameSize()) * int64(dec.SamplesPerFrame()))
}
