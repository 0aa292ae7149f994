// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Vorbis streams to int16 samples via jfreymuth/oggvorbis
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder decodes Ogg Vorbis
type VorbisDecoder struct {
	reader *oggvorbis.Reader
	format audio.Format
	floats []float32
}

// NewVorbis creates a new Vorbis decoder
func NewVorbis(format audio.Format, r io.ReadSeeker) (Decoder, error) {
	if format.Codec != "vorbis" {
		return nil, fmt.Errorf("invalid codec for Vorbis decoder: %s", format.Codec)
	}

	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create vorbis decoder: %w", err)
	}

	return &VorbisDecoder{
		reader: reader,
		format: audio.Format{
			Codec:      "vorbis",
			SampleRate: reader.SampleRate(),
			Channels:   reader.Channels(),
			BitDepth:   16,
		},
	}, nil
}

// Decode implements Decoder
func (d *VorbisDecoder) Decode(out []int16) (int, error) {
	channels := d.format.Channels
	want := len(out) - len(out)%channels
	if want == 0 {
		return 0, nil
	}
	if cap(d.floats) < want {
		d.floats = make([]float32, want)
	}
	buf := d.floats[:want]

	total := 0
	for total < want {
		n, err := d.reader.Read(buf[total:])
		total += n
		if err != nil {
			if err == io.EOF && total > 0 {
				break
			}
			return 0, err
		}
		if n == 0 {
			break
		}
	}

	for i := 0; i < total; i++ {
		out[i] = audio.SampleFromFloat32(buf[i])
	}

	return total / channels, nil
}

// Seek implements Decoder
func (d *VorbisDecoder) Seek(frame int) error {
	if err := d.reader.SetPosition(int64(frame)); err != nil {
		return fmt.Errorf("vorbis seek failed: %w", err)
	}
	return nil
}

// Format implements Decoder
func (d *VorbisDecoder) Format() audio.Format { return d.format }

// Length returns the stream length in sample frames
func (d *VorbisDecoder) Length() int {
	return int(d.reader.Length())
}

// Close releases decoder resources
func (d *VorbisDecoder) Close() error {
	return nil
}
