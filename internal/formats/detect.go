// ABOUTME: Container detection by magic bytes
// ABOUTME: Builds descriptors for VAG and for whole-file MP3, Ogg Vorbis and FLAC
package formats

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/Sendspin/loopdec/pkg/audio/decode"
	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// ErrUnknownFormat is returned when no known header matches
var ErrUnknownFormat = errors.New("formats: unknown format")

// Detect identifies src by its header and describes it
func Detect(src streamfile.Source, mode codec.LoopScanMode, rep *diag.Reporter) (engine.Descriptor, error) {
	head := make([]byte, 4)
	if !streamfile.ReadExact(src, head, 0) {
		return engine.Descriptor{}, fmt.Errorf("%w: file too short", ErrUnknownFormat)
	}

	switch {
	case bytes.Equal(head, []byte("VAGp")), bytes.Equal(head, []byte("pGAV")):
		vag, err := ParseVAG(src, mode, rep)
		if err != nil {
			return engine.Descriptor{}, err
		}
		return vag.Descriptor, nil
	case bytes.Equal(head, []byte("OggS")):
		return probe(src, codec.CodingVorbis)
	case bytes.Equal(head, []byte("fLaC")):
		return probe(src, codec.CodingFLAC)
	case bytes.Equal(head[:3], []byte("ID3")), head[0] == 0xff && head[1]&0xe0 == 0xe0:
		return probe(src, codec.CodingMPEG)
	}
	return engine.Descriptor{}, fmt.Errorf("%w: magic % x", ErrUnknownFormat, head)
}

// probe opens a throwaway decoder to read the stream's PCM format
func probe(src streamfile.Source, coding codec.Coding) (engine.Descriptor, error) {
	dec, err := decode.New(audio.Format{Codec: coding.String()}, streamfile.NewSection(src, 0, -1))
	if err != nil {
		return engine.Descriptor{}, fmt.Errorf("failed to probe %s: %w", coding, err)
	}
	defer dec.Close()

	format := dec.Format()
	return engine.Descriptor{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Coding:     coding,
		Layout:     engine.LayoutFlat,
	}, nil
}
