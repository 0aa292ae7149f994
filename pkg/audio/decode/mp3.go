// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MPEG audio streams to int16 samples via go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// mp3 output is always stereo 16-bit little endian
const mp3BytesPerFrame = 4

// MP3Decoder decodes MPEG audio
type MP3Decoder struct {
	decoder *mp3.Decoder
	format  audio.Format
	raw     []byte
}

// NewMP3 creates a new MP3 decoder. format.Channels selects 1 (downmixed)
// or 2 output channels.
func NewMP3(format audio.Format, r io.ReadSeeker) (Decoder, error) {
	if format.Codec != "mp3" && format.Codec != "mpeg" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}

	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	channels := format.Channels
	if channels != 1 {
		channels = 2
	}

	return &MP3Decoder{
		decoder: decoder,
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: decoder.SampleRate(),
			Channels:   channels,
			BitDepth:   16,
		},
	}, nil
}

// Decode implements Decoder
func (d *MP3Decoder) Decode(out []int16) (int, error) {
	frames := len(out) / d.format.Channels
	if frames == 0 {
		return 0, nil
	}

	need := frames * mp3BytesPerFrame
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	buf := d.raw[:need]

	n, err := io.ReadFull(d.decoder, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	got := n / mp3BytesPerFrame
	if got == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	for i := 0; i < got; i++ {
		left := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		right := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		if d.format.Channels == 1 {
			out[i] = int16((int32(left) + int32(right)) / 2)
		} else {
			out[i*2] = left
			out[i*2+1] = right
		}
	}

	return got, nil
}

// Seek implements Decoder
func (d *MP3Decoder) Seek(frame int) error {
	if _, err := d.decoder.Seek(int64(frame)*mp3BytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("mp3 seek failed: %w", err)
	}
	return nil
}

// Format implements Decoder
func (d *MP3Decoder) Format() audio.Format { return d.format }

// Length returns the stream length in sample frames
func (d *MP3Decoder) Length() int {
	return int(d.decoder.Length() / mp3BytesPerFrame)
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}
