// ABOUTME: Tests for the oto output that need no audio device
// ABOUTME: Covers the unopened contract, volume state and PCM packing
package output

import (
	"encoding/binary"
	"testing"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestOtoUnopened(t *testing.T) {
	out := NewOto()
	if err := out.Write([]int16{1, 2}); err == nil {
		t.Error("expected error writing to unopened output")
	}
	if err := out.Close(); err != nil {
		t.Errorf("expected closing an unopened output to succeed, got %v", err)
	}
}

func TestOtoVolume(t *testing.T) {
	out := NewOto().(*Oto)

	if volume, muted := out.Level(); volume != 100 || muted {
		t.Errorf("expected full unmuted volume, got %d muted=%v", volume, muted)
	}

	tests := []struct {
		set  int
		want int
	}{
		{50, 50},
		{-10, 0},
		{150, 100},
	}

	for _, tt := range tests {
		out.SetVolume(tt.set)
		if volume, _ := out.Level(); volume != tt.want {
			t.Errorf("SetVolume(%d): expected %d, got %d", tt.set, tt.want, volume)
		}
	}

	out.SetMuted(true)
	if volume, muted := out.Level(); !muted || volume != 100 {
		t.Errorf("expected muted at volume 100, got %d muted=%v", volume, muted)
	}
}

func TestAppendPCM(t *testing.T) {
	samples := []int16{1000, -1000, 32767, -32768}

	tests := []struct {
		name   string
		volume int
		muted  bool
		want   []int16
	}{
		{"full volume", 100, false, []int16{1000, -1000, 32767, -32768}},
		{"half volume", 50, false, []int16{500, -500, 16383, -16384}},
		{"silent", 0, false, []int16{0, 0, 0, 0}},
		{"muted", 100, true, []int16{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix := []byte{0xaa}
			got := appendPCM(prefix, samples, tt.volume, tt.muted)
			if len(got) != 1+len(samples)*2 || got[0] != 0xaa {
				t.Fatalf("expected %d bytes after the prefix, got %d", len(samples)*2, len(got)-1)
			}
			for i, want := range tt.want {
				if s := int16(binary.LittleEndian.Uint16(got[1+i*2:])); s != want {
					t.Errorf("sample %d: expected %d, got %d", i, want, s)
				}
			}
		})
	}
}
