// ABOUTME: Tests for decoder construction and buffering helpers
// ABOUTME: Covers codec dispatch, codec validation and pending sample draining
package decode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Sendspin/loopdec/pkg/audio"
)

func TestNew_UnsupportedCodec(t *testing.T) {
	_, err := New(audio.Format{Codec: "pcm"}, bytes.NewReader(nil))
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Fatalf("expected ErrUnsupportedCodec, got %v", err)
	}
}

func TestNew_EmptyInput(t *testing.T) {
	tests := []string{"mp3", "mpeg", "vorbis", "flac"}

	for _, codec := range tests {
		t.Run(codec, func(t *testing.T) {
			dec, err := New(audio.Format{Codec: codec}, bytes.NewReader(nil))
			if err == nil {
				t.Fatal("expected error for empty input, got nil")
			}
			if dec != nil {
				t.Fatal("expected decoder to be nil")
			}
		})
	}
}

func TestNew_InvalidCodec(t *testing.T) {
	tests := []struct {
		name     string
		create   func(audio.Format) (Decoder, error)
		codec    string
		expected string
	}{
		{"mp3", func(f audio.Format) (Decoder, error) { return NewMP3(f, bytes.NewReader(nil)) }, "opus", "invalid codec for MP3 decoder: opus"},
		{"vorbis", func(f audio.Format) (Decoder, error) { return NewVorbis(f, bytes.NewReader(nil)) }, "flac", "invalid codec for Vorbis decoder: flac"},
		{"flac", func(f audio.Format) (Decoder, error) { return NewFLAC(f, bytes.NewReader(nil)) }, "opus", "invalid codec for FLAC decoder: opus"},
		{"opus", func(f audio.Format) (Decoder, error) { return NewOpus(f, bytes.NewReader(nil)) }, "pcm", "invalid codec for Opus decoder: pcm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := tt.create(audio.Format{Codec: tt.codec, SampleRate: 48000, Channels: 2})
			if err == nil {
				t.Fatal("expected error for invalid codec, got nil")
			}
			if dec != nil {
				t.Fatal("expected decoder to be nil for invalid codec")
			}
			if err.Error() != tt.expected {
				t.Errorf("expected error %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestPendingDrain(t *testing.T) {
	p := pending{buf: []int16{1, 2, 3, 4, 5, 6}, channels: 2}

	out := make([]int16, 5)
	if n := p.drain(out); n != 2 {
		t.Fatalf("expected 2 frames, got %d", n)
	}
	if out[0] != 1 || out[3] != 4 {
		t.Errorf("unexpected samples %v", out[:4])
	}

	if n := p.drain(out); n != 1 {
		t.Fatalf("expected 1 frame, got %d", n)
	}
	if out[0] != 5 || out[1] != 6 {
		t.Errorf("unexpected samples %v", out[:2])
	}

	if n := p.drain(out); n != 0 {
		t.Errorf("expected empty drain, got %d", n)
	}
}
