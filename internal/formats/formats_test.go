// ABOUTME: Tests for VAG parsing, raw descriptors and format detection
// ABOUTME: Builds small containers in memory and opens them with the engine
package formats

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// psxFrames builds mono PS-ADPCM frames carrying the given flags
func psxFrames(flags ...byte) []byte {
	data := make([]byte, 0, len(flags)*16)
	for i, f := range flags {
		frame := make([]byte, 16)
		frame[0] = 0x12
		frame[1] = f
		for j := 2; j < 16; j++ {
			frame[j] = byte(i*16 + j)
		}
		data = append(data, frame...)
	}
	return data
}

func vagFile(magic string, bigEndian bool, rate, size uint32, data []byte) []byte {
	header := make([]byte, vagHeaderSize)
	copy(header, magic)
	order := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}
	order.PutUint32(header[vagSizeOffset:], size)
	order.PutUint32(header[vagRateOffset:], rate)
	copy(header[vagNameOffset:], "bgm_title")
	return append(header, data...)
}

func TestParseVAG(t *testing.T) {
	data := psxFrames(0, 6, 0, 3)

	tests := []struct {
		name      string
		magic     string
		bigEndian bool
	}{
		{"VAGp", "VAGp", true},
		{"pGAV", "pGAV", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := vagFile(tt.magic, tt.bigEndian, 22050, uint32(len(data)), data)
			vag, err := ParseVAG(streamfile.NewMemory(file), codec.LoopScanFlags, nil)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}

			d := vag.Descriptor
			if vag.Name != "bgm_title" {
				t.Errorf("expected name bgm_title, got %q", vag.Name)
			}
			if vag.BigEndian != tt.bigEndian {
				t.Errorf("expected big endian %v", tt.bigEndian)
			}
			if d.SampleRate != 22050 || d.Channels != 1 || d.NumSamples != 112 {
				t.Errorf("unexpected format: %d Hz, %d ch, %d samples", d.SampleRate, d.Channels, d.NumSamples)
			}
			if !d.Loop || d.LoopStart != 28 || d.LoopEnd != 112 {
				t.Errorf("expected loop 28-112, got %v %d-%d", d.Loop, d.LoopStart, d.LoopEnd)
			}
		})
	}
}

func TestParseVAG_Opens(t *testing.T) {
	data := psxFrames(0, 6, 0, 3)
	src := streamfile.NewMemory(vagFile("VAGp", true, 44100, uint32(len(data)), data))

	vag, err := ParseVAG(src, codec.LoopScanFlags, nil)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	st, err := engine.Open(vag.Descriptor, src, engine.WithLoopTarget(2))
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer st.Close()

	if got := st.PlaySamples(2, 0, 0); got != 28+84*2 {
		t.Errorf("expected %d play samples, got %d", 28+84*2, got)
	}
}

func TestParseVAG_Errors(t *testing.T) {
	rec := &diag.Recorder{}
	data := psxFrames(0, 0)

	// a size past the end of the file is clamped and reported
	vag, err := ParseVAG(streamfile.NewMemory(vagFile("VAGp", true, 8000, 0x1000, data)), codec.LoopScanFlags, diag.NewReporter(rec))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if vag.Descriptor.NumSamples != 56 {
		t.Errorf("expected 56 samples after clamping, got %d", vag.Descriptor.NumSamples)
	}
	if !rec.Has(diag.HeaderBadSize) {
		t.Error("expected bad size diagnostic")
	}
	if vag.Descriptor.Loop {
		t.Error("expected no loop without flags")
	}

	tests := []struct {
		name string
		file []byte
	}{
		{"short", []byte("VA")},
		{"bad magic", vagFile("RIFF", true, 8000, 32, data)},
		{"no data", vagFile("VAGp", true, 8000, 0, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVAG(streamfile.NewMemory(tt.file), codec.LoopScanFlags, nil)
			if !errors.Is(err, ErrNotVAG) {
				t.Errorf("expected ErrNotVAG, got %v", err)
			}
		})
	}
}

func pcm16(values ...int16) []byte {
	data := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return data
}

func decodeAll(t *testing.T, desc engine.Descriptor, src streamfile.Source) []int16 {
	t.Helper()
	st, err := engine.Open(desc, src)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	defer st.Close()

	buf := make([]int16, desc.NumSamples*desc.Channels)
	n := st.Decode(buf, desc.NumSamples)
	return buf[:n*desc.Channels]
}

func TestRawConfig_Flat(t *testing.T) {
	src := streamfile.NewMemory(append([]byte{0xee, 0xee}, pcm16(1, 2, 3, 10, 20, 30)...))
	cfg := RawConfig{
		Coding:     codec.CodingPCM16LE,
		Channels:   2,
		SampleRate: 8000,
		Start:      2,
	}

	desc, out, err := cfg.Descriptor(src, nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if out != streamfile.Source(src) {
		t.Error("expected the original source without layers")
	}
	if desc.Layout != engine.LayoutFlat || desc.NumSamples != 3 {
		t.Errorf("unexpected layout %s with %d samples", desc.Layout, desc.NumSamples)
	}
	if len(desc.ChannelOffsets) != 2 || desc.ChannelOffsets[0] != 2 || desc.ChannelOffsets[1] != 8 {
		t.Errorf("unexpected channel offsets %v", desc.ChannelOffsets)
	}

	got := decodeAll(t, desc, out)
	want := []int16{1, 10, 2, 20, 3, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRawConfig_InterleaveLastBlock(t *testing.T) {
	// two full 0x20 rows then a short 0x10 block per channel
	src := streamfile.NewMemory(make([]byte, 0x20*2+0x10*2))
	cfg := RawConfig{
		Coding:     codec.CodingPSX,
		Channels:   2,
		SampleRate: 22050,
		Interleave: 0x20,
	}

	desc, _, err := cfg.Descriptor(src, nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if desc.Layout != engine.LayoutInterleave || desc.Interleave != 0x20 || desc.InterleaveLast != 0x10 {
		t.Errorf("unexpected interleave: %s 0x%x last 0x%x", desc.Layout, desc.Interleave, desc.InterleaveLast)
	}
	if desc.NumSamples != 84 {
		t.Errorf("expected 84 samples, got %d", desc.NumSamples)
	}
}

func TestRawConfig_InterleaveShortStream(t *testing.T) {
	// one frame per channel, shorter than a single interleave block
	data := psxFrames(0, 0)
	cfg := RawConfig{
		Coding:     codec.CodingPSX,
		Channels:   2,
		SampleRate: 22050,
		Interleave: 0x100,
	}

	desc, out, err := cfg.Descriptor(streamfile.NewMemory(data), nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if desc.InterleaveLast != 0x10 || desc.NumSamples != 28 {
		t.Fatalf("expected last block 0x10 with 28 samples, got 0x%x with %d", desc.InterleaveLast, desc.NumSamples)
	}

	mono := RawConfig{Coding: codec.CodingPSX, Channels: 1, SampleRate: 22050}
	ch1Src := streamfile.NewMemory(data[0x10:])
	ch1Desc, _, err := mono.Descriptor(ch1Src, nil)
	if err != nil {
		t.Fatalf("failed to describe channel 1: %v", err)
	}
	want := decodeAll(t, ch1Desc, ch1Src)

	got := decodeAll(t, desc, out)
	nonzero := 0
	for i, w := range want {
		if got[i*2+1] != w {
			t.Fatalf("channel 1 sample %d: expected %d, got %d", i, w, got[i*2+1])
		}
		if w != 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Error("expected channel 1 to carry audio")
	}
}

func TestRawConfig_FlatLoopScanFirstChannel(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		loop       bool
		start, end int
	}{
		{"flags in channel 0", append(psxFrames(0, 6, 3, 0), psxFrames(0, 0, 0, 0)...), true, 28, 84},
		{"flags in channel 1", append(psxFrames(0, 0, 0, 0), psxFrames(0, 6, 3, 0)...), false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RawConfig{Coding: codec.CodingPSX, Channels: 2, SampleRate: 22050, FindLoops: true}
			desc, _, err := cfg.Descriptor(streamfile.NewMemory(tt.data), nil)
			if err != nil {
				t.Fatalf("failed to describe: %v", err)
			}
			if desc.Loop != tt.loop || desc.LoopStart != tt.start || desc.LoopEnd != tt.end {
				t.Errorf("expected loop %v %d-%d, got %v %d-%d", tt.loop, tt.start, tt.end, desc.Loop, desc.LoopStart, desc.LoopEnd)
			}
		})
	}
}

func TestRawConfig_Loops(t *testing.T) {
	src := streamfile.NewMemory(psxFrames(0, 6, 0, 3, 0))

	tests := []struct {
		name       string
		cfg        RawConfig
		loop       bool
		start, end int
	}{
		{"explicit", RawConfig{LoopStart: 10, LoopEnd: 100}, true, 10, 100},
		{"flags", RawConfig{FindLoops: true}, true, 28, 112},
		{"none", RawConfig{}, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Coding = codec.CodingPSX
			cfg.Channels = 1
			cfg.SampleRate = 22050

			desc, _, err := cfg.Descriptor(src, nil)
			if err != nil {
				t.Fatalf("failed to describe: %v", err)
			}
			if desc.Loop != tt.loop || desc.LoopStart != tt.start || desc.LoopEnd != tt.end {
				t.Errorf("expected loop %v %d-%d, got %v %d-%d", tt.loop, tt.start, tt.end, desc.Loop, desc.LoopStart, desc.LoopEnd)
			}
		})
	}
}

func TestRawConfig_FullLoops(t *testing.T) {
	// final frame flagged 1 followed by a frame that is not padding
	src := streamfile.NewMemory(psxFrames(0, 0, 0, 1, 0))

	cfg := RawConfig{Coding: codec.CodingPSX, Channels: 1, SampleRate: 22050}
	desc, _, err := cfg.Descriptor(src, nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if desc.Loop {
		t.Error("expected no loop without a scan")
	}

	cfg.FullLoops = true
	desc, _, err = cfg.Descriptor(src, nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if !desc.Loop || desc.LoopStart != 28 || desc.LoopEnd != 112 {
		t.Errorf("expected full loop 28-112, got %v %d-%d", desc.Loop, desc.LoopStart, desc.LoopEnd)
	}
}

func TestRawConfig_DSPCoefOffsets(t *testing.T) {
	cfg := RawConfig{
		Coding:      codec.CodingNGCDSP,
		Channels:    2,
		SampleRate:  32000,
		Start:       0x60,
		Interleave:  0x08,
		CoefOffset:  0x1c,
		CoefSpacing: 0x20,
	}
	desc, _, err := cfg.Descriptor(streamfile.NewMemory(make([]byte, 0x60+0x40)), nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if len(desc.CoefOffsets) != 2 || desc.CoefOffsets[0] != 0x1c || desc.CoefOffsets[1] != 0x3c {
		t.Errorf("unexpected coefficient offsets %v", desc.CoefOffsets)
	}
	if desc.NumSamples != 56 {
		t.Errorf("expected 56 samples, got %d", desc.NumSamples)
	}
}

func TestRawConfig_Errors(t *testing.T) {
	src := streamfile.NewMemory(make([]byte, 64))

	tests := []struct {
		name string
		cfg  RawConfig
	}{
		{"no channels", RawConfig{Coding: codec.CodingPSX, SampleRate: 8000}},
		{"no rate", RawConfig{Coding: codec.CodingPSX, Channels: 1}},
		{"start past end", RawConfig{Coding: codec.CodingPSX, Channels: 1, SampleRate: 8000, Start: 64}},
		{"blocked without samples", RawConfig{Coding: codec.CodingPSX, Channels: 1, SampleRate: 8000, Blocked: true}},
		{"scan on pcm", RawConfig{Coding: codec.CodingPCM16LE, Channels: 1, SampleRate: 8000, FindLoops: true}},
		{"layer out of range", RawConfig{Coding: codec.CodingPCM16LE, Channels: 1, SampleRate: 8000, Layer: 2, Layers: 2}},
		{"unknown layer version", RawConfig{Coding: codec.CodingPCM16LE, Channels: 1, SampleRate: 8000, Layers: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.cfg.Descriptor(src, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// layered builds a version 2 container: fixed 0x18-byte blocks, two layers
// of two PCM16 samples each per block
func layered() []byte {
	header := make([]byte, 0x18)
	binary.LittleEndian.PutUint32(header[0x00:], streamfile.LayerVersion2)
	binary.LittleEndian.PutUint32(header[0x04:], 2)
	binary.LittleEndian.PutUint32(header[0x10:], 0x18)

	out := header
	for b := 0; b < 2; b++ {
		block := make([]byte, 0x10)
		binary.LittleEndian.PutUint32(block[0x00:], uint32(b))
		binary.LittleEndian.PutUint32(block[0x08:], 4)
		binary.LittleEndian.PutUint32(block[0x0c:], 4)
		block = append(block, pcm16(int16(b*2), int16(b*2+1))...)
		block = append(block, pcm16(int16(10+b*2), int16(11+b*2))...)
		out = append(out, block...)
	}
	return out
}

func TestRawConfig_Layer(t *testing.T) {
	cfg := RawConfig{
		Coding:     codec.CodingPCM16LE,
		Channels:   1,
		SampleRate: 8000,
		Layer:      1,
		Layers:     2,
	}

	desc, src, err := cfg.Descriptor(streamfile.NewMemory(layered()), nil)
	if err != nil {
		t.Fatalf("failed to describe: %v", err)
	}
	if desc.NumSamples != 4 {
		t.Fatalf("expected 4 samples in the layer, got %d", desc.NumSamples)
	}

	got := decodeAll(t, desc, src)
	want := []int16{10, 11, 12, 13}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDetect(t *testing.T) {
	data := psxFrames(0, 6, 0, 3)

	desc, err := Detect(streamfile.NewMemory(vagFile("VAGp", true, 48000, uint32(len(data)), data)), codec.LoopScanFlags, nil)
	if err != nil {
		t.Fatalf("failed to detect VAG: %v", err)
	}
	if desc.Coding != codec.CodingPSX || desc.SampleRate != 48000 || !desc.Loop {
		t.Errorf("unexpected descriptor %+v", desc)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{1, 2}},
		{"unknown", []byte("RIFF....WAVE")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Detect(streamfile.NewMemory(tt.data), codec.LoopScanFlags, nil)
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("expected ErrUnknownFormat, got %v", err)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	data := psxFrames(0, 6, 0, 3)

	vagPath := filepath.Join(dir, "bgm.vag")
	if err := os.WriteFile(vagPath, vagFile("VAGp", true, 22050, uint32(len(data)), data), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	rawPath := filepath.Join(dir, "bgm.raw")
	if err := os.WriteFile(rawPath, pcm16(5, 6, 7), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	st, err := OpenFile(vagPath, nil, codec.LoopScanFlags, diag.Discard{}, engine.WithLoopTarget(1))
	if err != nil {
		t.Fatalf("failed to open VAG: %v", err)
	}
	if !st.Looping() || st.SampleRate() != 22050 {
		t.Errorf("expected a looping 22050 Hz stream, got looping=%v rate=%d", st.Looping(), st.SampleRate())
	}
	st.Close()

	raw := &RawConfig{Coding: codec.CodingPCM16LE, Channels: 1, SampleRate: 8000}
	st, err = OpenFile(rawPath, raw, codec.LoopScanFlags, diag.Discard{})
	if err != nil {
		t.Fatalf("failed to open raw file: %v", err)
	}
	if st.NumSamples() != 3 {
		t.Errorf("expected 3 samples, got %d", st.NumSamples())
	}
	st.Close()

	if _, err := OpenFile(rawPath, nil, codec.LoopScanFlags, diag.Discard{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat for headerless data, got %v", err)
	}
	if _, err := OpenFile(filepath.Join(dir, "missing.vag"), nil, codec.LoopScanFlags, diag.Discard{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}
