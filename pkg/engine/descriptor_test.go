// ABOUTME: Tests for descriptor validation and Open failures
package engine

import (
	"errors"
	"testing"

	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

func TestOpen_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *Descriptor)
		want   error
	}{
		{"too many channels", func(d *Descriptor) { d.Channels = MaxChannels + 1 }, ErrTooManyChannels},
		{"no channels", func(d *Descriptor) { d.Channels = 0 }, ErrInvalidDescriptor},
		{"no sample rate", func(d *Descriptor) { d.SampleRate = 0 }, ErrInvalidDescriptor},
		{"no samples", func(d *Descriptor) { d.NumSamples = 0 }, ErrInvalidDescriptor},
		{"no interleave", func(d *Descriptor) { d.Interleave = 0 }, ErrInvalidDescriptor},
		{"last block larger", func(d *Descriptor) { d.InterleaveLast = 0x20 }, ErrInvalidDescriptor},
		{"flat without offsets", func(d *Descriptor) { d.Layout = LayoutFlat }, ErrInvalidDescriptor},
		{"dsp without coefficients", func(d *Descriptor) { d.Coding = codec.CodingNGCDSP }, ErrInvalidDescriptor},
		{"delegated interleave", func(d *Descriptor) { d.Coding = codec.CodingVorbis }, ErrInvalidDescriptor},
		{"unknown layout", func(d *Descriptor) { d.Layout = Layout(9) }, ErrInvalidDescriptor},
		{"bad frame size", func(d *Descriptor) {
			d.Coding = codec.CodingPSXConfigurable
			d.CodecConfig = 1
		}, ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := psxDescriptor(2)
			tt.modify(&desc)

			st, err := Open(desc, streamfile.NewMemory(psxData(2)))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if st != nil {
				t.Error("expected no stream on failure")
			}
		})
	}
}

func TestOpen_DSPCoefficientFailure(t *testing.T) {
	desc := Descriptor{
		SampleRate:     32000,
		Channels:       1,
		NumSamples:     14,
		Coding:         codec.CodingNGCDSP,
		Layout:         LayoutFlat,
		ChannelOffsets: []int64{0},
		CoefOffsets:    []int64{0x100},
		BigEndian:      true,
	}

	if _, err := Open(desc, streamfile.NewMemory(make([]byte, 0x40))); err == nil {
		t.Fatal("expected coefficient read failure")
	}
}

func TestDescriptor_ChannelStart(t *testing.T) {
	d := Descriptor{Layout: LayoutInterleave, DataOffset: 0x800, Interleave: 0x100}
	if got := d.channelStart(1); got != 0x900 {
		t.Errorf("expected derived start 0x900, got %#x", got)
	}

	d.ChannelOffsets = []int64{0x10, 0x20}
	if got := d.channelStart(1); got != 0x20 {
		t.Errorf("expected explicit start 0x20, got %#x", got)
	}

	d = Descriptor{Layout: LayoutBlockedEA, BlockOffset: 0x40}
	if got := d.channelStart(3); got != 0x40 {
		t.Errorf("expected block offset 0x40, got %#x", got)
	}
}

func TestLayoutString(t *testing.T) {
	if LayoutInterleave.String() != "interleave" {
		t.Errorf("unexpected name %q", LayoutInterleave.String())
	}
	if Layout(7).String() != "layout(7)" {
		t.Errorf("unexpected name %q", Layout(7).String())
	}
}
