// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC streams frame by frame to int16 samples via mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC
type FLACDecoder struct {
	r        io.ReadSeeker
	stream   *flac.Stream
	format   audio.Format
	bitDepth int
	pending  pending
}

// NewFLAC creates a new FLAC decoder
func NewFLAC(format audio.Format, r io.ReadSeeker) (Decoder, error) {
	if format.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", format.Codec)
	}

	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create flac decoder: %w", err)
	}

	info := stream.Info
	return &FLACDecoder{
		r:        r,
		stream:   stream,
		bitDepth: int(info.BitsPerSample),
		format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   int(info.NChannels),
			BitDepth:   16,
		},
		pending: pending{channels: int(info.NChannels)},
	}, nil
}

// Decode implements Decoder
func (d *FLACDecoder) Decode(out []int16) (int, error) {
	frames := d.pending.drain(out)
	if frames > 0 {
		return frames, nil
	}

	if err := d.parseFrame(); err != nil {
		return 0, err
	}
	return d.pending.drain(out), nil
}

// parseFrame decodes the next FLAC frame into the pending buffer
func (d *FLACDecoder) parseFrame() error {
	frame, err := d.stream.ParseNext()
	if err != nil {
		return err
	}

	channels := d.format.Channels
	block := int(frame.BlockSize)
	d.pending.reset()
	for i := 0; i < block; i++ {
		for ch := 0; ch < channels; ch++ {
			d.pending.buf = append(d.pending.buf, d.to16(frame.Subframes[ch].Samples[i]))
		}
	}
	return nil
}

// to16 scales a sample of the stream's bit depth to 16 bits
func (d *FLACDecoder) to16(sample int32) int16 {
	shift := d.bitDepth - 16
	if shift > 0 {
		return audio.Clamp16(sample >> shift)
	}
	return audio.Clamp16(sample << -shift)
}

// Seek implements Decoder by reopening the stream and skipping frames
func (d *FLACDecoder) Seek(frame int) error {
	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("flac seek failed: %w", err)
	}
	stream, err := flac.New(d.r)
	if err != nil {
		return fmt.Errorf("flac seek failed: %w", err)
	}
	d.stream = stream
	d.pending.reset()

	skipped := 0
	for skipped < frame {
		if err := d.parseFrame(); err != nil {
			return fmt.Errorf("flac seek failed: %w", err)
		}
		block := len(d.pending.buf) / d.format.Channels
		if skipped+block > frame {
			d.pending.buf = d.pending.buf[(frame-skipped)*d.format.Channels:]
			return nil
		}
		skipped += block
		d.pending.reset()
	}
	return nil
}

// Format implements Decoder
func (d *FLACDecoder) Format() audio.Format { return d.format }

// Length returns the stream length in sample frames, 0 if unknown
func (d *FLACDecoder) Length() int {
	return int(d.stream.Info.NSamples)
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}
