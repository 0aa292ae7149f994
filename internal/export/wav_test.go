// ABOUTME: Tests for WAV export
// ABOUTME: Writes files into a temp dir and reads them back with the WAV decoder
package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Sendspin/loopdec/pkg/audio/output"
	"github.com/go-audio/wav"
)

func TestWAVImplementsOutput(t *testing.T) {
	var _ output.Output = NewWAV("unused.wav")
}

func TestWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	out := NewWAV(path)

	if err := out.Open(22050, 2); err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	chunks := [][]int16{
		{0, 1, -1, 2},
		{32767, -32768},
	}
	for _, c := range chunks {
		if err := out.Write(c); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
	}
	if out.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", out.Frames())
	}
	if err := out.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("expected a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("unexpected header: %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	want := []int{0, 1, -1, 2, 32767, -32768}
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], buf.Data[i])
		}
	}
}

func TestWAV_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		run  func(w *WAV) error
	}{
		{"write before open", func(w *WAV) error { return w.Write([]int16{1}) }},
		{"zero rate", func(w *WAV) error { return w.Open(0, 1) }},
		{"zero channels", func(w *WAV) error { return w.Open(44100, 0) }},
		{"open twice", func(w *WAV) error {
			if err := w.Open(44100, 1); err != nil {
				return nil
			}
			defer w.Close()
			return w.Open(44100, 1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWAV(filepath.Join(dir, tt.name+".wav"))
			if err := tt.run(w); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if err := NewWAV(filepath.Join(dir, "never.wav")).Close(); err != nil {
		t.Errorf("close without open should succeed, got %v", err)
	}
}

func TestWAV_BadPath(t *testing.T) {
	w := NewWAV(filepath.Join(t.TempDir(), "missing", "out.wav"))
	if err := w.Open(44100, 2); err == nil {
		t.Error("expected create failure for a missing directory")
	}
}
