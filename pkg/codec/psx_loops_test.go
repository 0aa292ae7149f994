// ABOUTME: Tests for PS-ADPCM loop flag scanning
// ABOUTME: Explicit flags, mono noise suppression, interleave skipping and full loops
package codec

import (
	"testing"

	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// flaggedFrames builds mono frames carrying the given flags
func flaggedFrames(flags ...byte) []byte {
	var data []byte
	for _, f := range flags {
		data = append(data, psxFrame(0x12, f, 0x11)...)
	}
	return data
}

func scan(data []byte, channels int, interleave int64, mode LoopScanMode) (LoopPoints, bool, *diag.Recorder) {
	rec := &diag.Recorder{}
	loop, ok := FindPSXLoops(streamfile.NewMemory(data), 0, int64(len(data)), channels, interleave, mode, diag.NewReporter(rec))
	return loop, ok, rec
}

func TestFindPSXLoopsExplicitFlags(t *testing.T) {
	data := flaggedFrames(0, 0, 6, 0, 3, 0)

	loop, ok, rec := scan(data, 1, 0, LoopScanFlags)
	if !ok {
		t.Fatal("expected loop to be found")
	}
	if loop.Start != 2*28 || loop.End != 5*28 {
		t.Errorf("expected loop 56-140, got %d-%d", loop.Start, loop.End)
	}
	if len(rec.Conditions) != 0 {
		t.Errorf("expected no diagnostics, got %v", rec.Conditions)
	}
}

func TestFindPSXLoopsStartWithoutEnd(t *testing.T) {
	_, ok, rec := scan(flaggedFrames(0, 6, 0, 0), 1, 0, LoopScanFlags)
	if ok {
		t.Error("expected no loop")
	}
	if !rec.Has(diag.LoopStartWithoutEnd) {
		t.Error("expected start-without-end diagnostic")
	}
}

func TestFindPSXLoopsEndWithoutStart(t *testing.T) {
	_, ok, rec := scan(flaggedFrames(0, 0, 3, 0), 1, 0, LoopScanFlags)
	if ok {
		t.Error("expected no loop")
	}
	if !rec.Has(diag.LoopEndWithoutStart) {
		t.Error("expected end-without-start diagnostic")
	}
}

func TestFindPSXLoopsMonoNoiseSuppressed(t *testing.T) {
	// the first end is immediately followed by a start and is discarded
	data := flaggedFrames(0, 6, 0, 3, 6, 0, 3, 0)

	loop, ok, rec := scan(data, 1, 0, LoopScanFlags)
	if !ok {
		t.Fatal("expected loop to be found")
	}
	if loop.Start != 28 || loop.End != 7*28 {
		t.Errorf("expected loop 28-196, got %d-%d", loop.Start, loop.End)
	}
	if !rec.Has(diag.LoopMultipleStarts) {
		t.Error("expected multiple starts diagnostic")
	}

	// with two channels the same pattern is trusted
	loop, ok, _ = scan(data, 2, 0, LoopScanFlags)
	if !ok || loop.End != 4*28 {
		t.Errorf("expected stereo loop end 112, got %d (found %v)", loop.End, ok)
	}
}

func TestFindPSXLoopsSkipsOtherChannels(t *testing.T) {
	// L/R frames alternate every 0x10 bytes; only L flags count
	left := []byte{0, 6, 0, 3}
	right := []byte{3, 3, 6, 1}

	var data []byte
	for i := range left {
		data = append(data, psxFrame(0x12, left[i])...)
		data = append(data, psxFrame(0x12, right[i])...)
	}

	loop, ok, _ := scan(data, 2, 0x10, LoopScanFlags)
	if !ok {
		t.Fatal("expected loop to be found")
	}
	if loop.Start != 28 || loop.End != 112 {
		t.Errorf("expected loop 28-112, got %d-%d", loop.Start, loop.End)
	}
}

func TestFindPSXLoopsFullMode(t *testing.T) {
	body := flaggedFrames(0, 0, 0, 0, 1)

	tests := []struct {
		name  string
		next  []byte
		mode  LoopScanMode
		found bool
	}{
		{"data after end flag", psxFrame(0x22, 0x00, 0x31), LoopScanFull, true},
		{"flags mode ignores heuristic", psxFrame(0x22, 0x00, 0x31), LoopScanFlags, false},
		{"canonical eof", psxEOF1, LoopScanFull, false},
		{"silent eof", psxEOF2, LoopScanFull, false},
		{"padding", psxFrame(0x00, 0x00, 0x31), LoopScanFull, false},
		{"known title marker", psxFrame(0x3c, 0x00, 0x31), LoopScanFull, false},
		{"nothing after", nil, LoopScanFull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte{}, body...), tt.next...)
			loop, ok, _ := scan(data, 1, 0, tt.mode)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if ok && (loop.Start != 28 || loop.End != 5*28) {
				t.Errorf("expected full loop 28-140, got %d-%d", loop.Start, loop.End)
			}
		})
	}
}

func TestPSXBytesToSamples(t *testing.T) {
	if got := PSXBytesToSamples(0x100, 2); got != 224 {
		t.Errorf("expected 224 samples, got %d", got)
	}
	if got := PSXBytesToSamples(0x100, 0); got != 0 {
		t.Errorf("expected 0 samples without channels, got %d", got)
	}
}
