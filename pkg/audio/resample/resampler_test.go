// ABOUTME: Tests for audio resampler
// ABOUTME: Tests linear interpolation and continuity across chunks
package resample

import (
	"testing"
)

func TestNew(t *testing.T) {
	r := New(44100, 48000, 2)

	if r.inputRate != 44100 {
		t.Errorf("expected inputRate 44100, got %d", r.inputRate)
	}
	if r.outputRate != 48000 {
		t.Errorf("expected outputRate 48000, got %d", r.outputRate)
	}
	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}
}

func TestResampleUpsamplingAcrossChunks(t *testing.T) {
	r := New(24000, 48000, 1)
	output := make([]int16, 16)

	n := r.Resample([]int16{0, 100, 200, 300}, output)
	expected := []int16{0, 50, 100, 150, 200, 250}
	if n != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), n)
	}
	for i := range expected {
		if output[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], output[i])
		}
	}

	// the join between chunks interpolates from the previous chunk's last frame
	n = r.Resample([]int16{400}, output)
	if n != 2 || output[0] != 300 || output[1] != 350 {
		t.Errorf("expected [300 350], got %v", output[:n])
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	r := New(44100, 44100, 2)

	var input, got []int16
	for chunk := 0; chunk < 3; chunk++ {
		in := make([]int16, 20)
		for i := range in {
			in[i] = int16(chunk*1000 + i*10)
		}
		input = append(input, in...)

		out := make([]int16, 40)
		n := r.Resample(in, out)
		got = append(got, out[:n]...)
	}

	// one frame is held back until the next chunk arrives
	if len(got) != len(input)-2 {
		t.Fatalf("expected %d samples, got %d", len(input)-2, len(got))
	}
	for i := range got {
		if got[i] != input[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, input[i], got[i])
		}
	}
}

func TestResampleDownsampling(t *testing.T) {
	r := New(48000, 24000, 2)

	input := make([]int16, 200)
	for i := range input {
		input[i] = int16(i * 100)
	}
	output := make([]int16, r.OutputSamplesNeeded(len(input))+2)

	n := r.Resample(input, output)
	if n != 100 {
		t.Errorf("expected 100 samples, got %d", n)
	}
	if output[2] != input[4] || output[3] != input[5] {
		t.Errorf("expected every other frame, got %v", output[:4])
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(44100, 48000, 2)
	if n := r.Resample(nil, make([]int16, 10)); n != 0 {
		t.Errorf("expected 0 samples, got %d", n)
	}
}

func TestResampleReset(t *testing.T) {
	r := New(24000, 48000, 1)
	out := make([]int16, 16)
	r.Resample([]int16{0, 100, 200}, out)

	r.Reset()
	n := r.Resample([]int16{1000, 1100}, out)
	if n != 2 || out[0] != 1000 || out[1] != 1050 {
		t.Errorf("expected a fresh start [1000 1050], got %v", out[:n])
	}
}

func TestSamplesNeeded(t *testing.T) {
	r := New(24000, 48000, 2)

	if got := r.OutputSamplesNeeded(200); got != 400 {
		t.Errorf("expected 400 output samples, got %d", got)
	}
	if got := r.InputSamplesNeeded(400); got != 200 {
		t.Errorf("expected 200 input samples, got %d", got)
	}
}
