// ABOUTME: Tests for the IMA ADPCM decoder
// ABOUTME: Known steps and resumable decoding
package codec

import (
	"testing"

	"github.com/Sendspin/loopdec/pkg/streamfile"
)

func TestIMAKnownValues(t *testing.T) {
	dec := &IMA{}
	ch := NewChannel(streamfile.NewMemory([]byte{0xc4}), 0, dec)

	out := make([]int16, 2)
	dec.Decode(&ch, out, 1, 0, 2)

	// code 4: +7, index 2; code 12: -(1+9), index 4
	if out[0] != 7 || out[1] != -3 {
		t.Errorf("expected [7 -3], got %v", out)
	}

	st := ch.State.(*IMAState)
	if st.Predictor != -3 || st.StepIndex != 4 {
		t.Errorf("expected predictor -3 index 4, got %d %d", st.Predictor, st.StepIndex)
	}
}

func TestIMAResumable(t *testing.T) {
	data := []byte{0x77, 0x7f, 0x08, 0x91, 0xa5, 0x3c}

	dec := &IMA{}
	whole := NewChannel(streamfile.NewMemory(data), 0, dec)
	want := make([]int16, 12)
	dec.Decode(&whole, want, 1, 0, 12)

	parts := NewChannel(streamfile.NewMemory(data), 0, dec)
	got := make([]int16, 12)
	dec.Decode(&parts, got[0:3], 1, 0, 3)
	dec.Decode(&parts, got[3:8], 1, 3, 5)
	dec.Decode(&parts, got[8:12], 1, 8, 4)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestIMASaturates(t *testing.T) {
	st := &IMAState{Predictor: 32000, StepIndex: 88}
	if s := st.step(0x7); s != 32767 {
		t.Errorf("expected saturation at 32767, got %d", s)
	}
	if st.StepIndex != 88 {
		t.Errorf("expected step index to stay at 88, got %d", st.StepIndex)
	}
}
