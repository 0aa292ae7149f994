// ABOUTME: Tests for the block layout engine
// ABOUTME: Flat, interleaved with a short last block, and EA headered blocks
package layout

import (
	"encoding/binary"
	"testing"

	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

func psxChannels(src streamfile.Source, starts ...int64) (codec.Channels, codec.Decoder) {
	dec := &codec.PSX{}
	chs := make(codec.Channels, len(starts))
	for i, s := range starts {
		chs[i] = codec.NewChannel(src, s, dec)
	}
	return chs, dec
}

func TestFlatEngine(t *testing.T) {
	chs, _ := psxChannels(streamfile.NewMemory(nil), 0x30, 0x130)
	e := NewEngine(&Flat{NumSamples: 100})
	e.Reset(chs)

	if got := e.Run(150); got != 100 {
		t.Errorf("expected run of 100, got %d", got)
	}
	if got := e.Run(40); got != 40 {
		t.Errorf("expected run of 40, got %d", got)
	}

	e.Consume(chs, 40)
	if e.First() != 40 {
		t.Errorf("expected first sample 40, got %d", e.First())
	}
	if chs[1].Offset != 0x130 {
		t.Errorf("flat layout moved channel offset to 0x%x", chs[1].Offset)
	}

	e.Consume(chs, 60)
	if !e.State().End || e.Run(10) != 0 {
		t.Error("expected end of stream after all samples")
	}
}

func TestInterleaveEngine(t *testing.T) {
	chs, dec := psxChannels(streamfile.NewMemory(nil), 0x00, 0x20)
	l := &Interleave{Block: 0x20, Last: 0x10, NumSamples: 56*2 + 28, Frame: dec}
	e := NewEngine(l)
	e.Reset(chs)

	type step struct {
		samples      int
		start        int
		ch0, ch1     int64
		size, offset int64
	}
	steps := []step{
		{56, 0, 0x00, 0x20, 0x20, 0x00},
		{56, 56, 0x40, 0x60, 0x20, 0x40},
		{28, 112, 0x80, 0x90, 0x10, 0x80},
	}

	for i, s := range steps {
		st := e.State()
		if st.Samples != s.samples || st.Start != s.start {
			t.Fatalf("block %d: expected %d samples at %d, got %d at %d", i, s.samples, s.start, st.Samples, st.Start)
		}
		if chs[0].Offset != s.ch0 || chs[1].Offset != s.ch1 {
			t.Fatalf("block %d: expected offsets 0x%x/0x%x, got 0x%x/0x%x", i, s.ch0, s.ch1, chs[0].Offset, chs[1].Offset)
		}
		if st.Size != s.size || st.Offset != s.offset {
			t.Errorf("block %d: expected size 0x%x at 0x%x, got 0x%x at 0x%x", i, s.size, s.offset, st.Size, st.Offset)
		}
		if st.Offset+st.FullSize != st.Next {
			t.Errorf("block %d: offset+full size 0x%x != next 0x%x", i, st.Offset+st.FullSize, st.Next)
		}

		// consume in two runs to exercise partial blocks
		first := e.Run(10)
		e.Consume(chs, first)
		e.Consume(chs, e.Run(1000))
	}

	if !e.State().End {
		t.Error("expected end after the last block")
	}
}

func TestInterleaveShortStream(t *testing.T) {
	chs, dec := psxChannels(streamfile.NewMemory(nil), 0x00, 0x100, 0x200)
	e := NewEngine(&Interleave{Block: 0x100, Last: 0x10, NumSamples: 28, Frame: dec})

	// reset twice: offsets come from the channel starts each time
	for i := 0; i < 2; i++ {
		e.Reset(chs)

		st := e.State()
		if st.Samples != 28 || st.Size != 0x10 {
			t.Fatalf("expected one 0x10 block of 28 samples, got 0x%x with %d", st.Size, st.Samples)
		}
		for c, want := range []int64{0x00, 0x10, 0x20} {
			if chs[c].Offset != want {
				t.Errorf("channel %d: expected offset 0x%x, got 0x%x", c, want, chs[c].Offset)
			}
		}
		if st.Next != 0x30 {
			t.Errorf("expected next block at 0x30, got 0x%x", st.Next)
		}
	}

	e.Consume(chs, e.Run(100))
	if !e.State().End {
		t.Error("expected end after the only block")
	}
}

func TestEngineSnapshotRestore(t *testing.T) {
	chs, dec := psxChannels(streamfile.NewMemory(nil), 0x00, 0x10)
	e := NewEngine(&Interleave{Block: 0x10, NumSamples: 28 * 4, Frame: dec})
	e.Reset(chs)

	e.Consume(chs, 28)
	e.Consume(chs, 5)
	saved := e.State()
	savedChs := chs.Snapshot()

	e.Consume(chs, 23)
	e.Consume(chs, 28)

	e.Restore(saved)
	chs.Restore(savedChs)

	if e.First() != 5 || e.State().Start != 28 {
		t.Errorf("expected restore to block at 28 with 5 consumed, got %d at %d", e.First(), e.State().Start)
	}
	if chs[0].Offset != 0x20 {
		t.Errorf("expected channel 0 at 0x20, got 0x%x", chs[0].Offset)
	}
}

// eaBlock builds one EA block with little-endian fields
func eaBlock(id string, samples uint32, channelData ...[]byte) []byte {
	var data []byte
	table := make([]byte, 4*len(channelData))
	pos := uint32(0)
	for i, d := range channelData {
		binary.LittleEndian.PutUint32(table[i*4:], pos)
		data = append(data, d...)
		pos += uint32(len(d))
	}

	block := []byte(id)
	block = binary.LittleEndian.AppendUint32(block, 0)
	if len(channelData) > 0 {
		block = binary.LittleEndian.AppendUint32(block, samples)
		block = append(block, table...)
		block = append(block, data...)
	}
	binary.LittleEndian.PutUint32(block[4:], uint32(len(block)))
	return block
}

func TestEABlocks(t *testing.T) {
	chData := func(h1, h2 int16, b byte) []byte {
		d := make([]byte, 4+16)
		binary.LittleEndian.PutUint16(d[0:], uint16(h1))
		binary.LittleEndian.PutUint16(d[2:], uint16(h2))
		d[4] = b
		return d
	}

	var file []byte
	file = append(file, eaBlock("SCHl", 0)...)
	file = append(file, eaBlock("SCCl", 0)...)
	first := int64(len(file))
	file = append(file, eaBlock("SCDl", 28, chData(100, 50, 0x01), chData(-7, -8, 0x02))...)
	second := int64(len(file))
	file = append(file, eaBlock("SCDl", 28, chData(1, 2, 0x03), chData(3, 4, 0x04))...)
	file = append(file, eaBlock("SCEl", 0)...)

	src := streamfile.NewMemory(file)
	chs, _ := psxChannels(src, 0, 0)
	e := NewEngine(&Blocked{Parser: &EABlocks{Src: src, History: true}})
	e.Reset(chs)

	st := e.State()
	if st.Offset != first || st.Samples != 28 {
		t.Fatalf("expected first data block at 0x%x with 28 samples, got 0x%x with %d", first, st.Offset, st.Samples)
	}
	if st.Offset+st.FullSize != st.Next || st.Next != second {
		t.Errorf("expected next block at 0x%x, got 0x%x", second, st.Next)
	}

	dataStart := first + 0x0c + 8
	if chs[0].Offset != dataStart+4 || chs[1].Offset != dataStart+20+4 {
		t.Errorf("unexpected channel offsets 0x%x 0x%x", chs[0].Offset, chs[1].Offset)
	}
	if h := chs[1].State.(*codec.History); h.Hist1 != -7 || h.Hist2 != -8 {
		t.Errorf("expected seeded history (-7, -8), got (%d, %d)", h.Hist1, h.Hist2)
	}

	e.Consume(chs, 28)
	if e.State().Offset != second || e.State().Start != 28 {
		t.Errorf("expected second block at sample 28, got 0x%x at %d", e.State().Offset, e.State().Start)
	}
	if h := chs[0].State.(*codec.History); h.Hist1 != 1 || h.Hist2 != 2 {
		t.Errorf("expected seeded history (1, 2), got (%d, %d)", h.Hist1, h.Hist2)
	}

	e.Consume(chs, 28)
	if !e.State().End || e.Run(28) != 0 {
		t.Error("expected end block to stop the stream")
	}
}

func TestEABlockSizes(t *testing.T) {
	tests := []struct {
		name     string
		size     []byte
		wantSize int64
		bad      bool
	}{
		{"little endian", []byte{0x20, 0, 0, 0}, 0x20, false},
		{"big endian fallback", []byte{0, 0, 0, 0x20}, 0x20, false},
		{"too large", []byte{0, 0, 0x20, 0}, 4, true},
		{"zero", []byte{0, 0, 0, 0}, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := append([]byte("SCCl"), tt.size...)
			block = append(block, make([]byte, 0x20)...)

			rec := &diag.Recorder{}
			p := &EABlocks{Src: streamfile.NewMemory(block), Reporter: diag.NewReporter(rec)}

			var st State
			p.Parse(0, &st, nil)

			if st.FullSize != tt.wantSize || st.Next != tt.wantSize {
				t.Errorf("expected size 0x%x, got 0x%x (next 0x%x)", tt.wantSize, st.FullSize, st.Next)
			}
			if rec.Has(diag.BlockBadSize) != tt.bad {
				t.Errorf("expected bad size diagnostic=%v", tt.bad)
			}
		})
	}
}
