// ABOUTME: Opus audio decoder
// ABOUTME: Decodes length-prefixed Opus packets to int16 samples via libopus
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sendspin/loopdec/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	// opusPacketHeader is a big-endian packet size and a final range value
	opusPacketHeader = 8

	// opusMaxFrame is the largest frame per channel (120 ms at 48 kHz)
	opusMaxFrame = 5760

	opusMaxPacket = 0x10000
)

// OpusDecoder decodes a stream of raw Opus packets, each prefixed by its
// 32-bit big-endian size and a 32-bit range value.
type OpusDecoder struct {
	r       io.ReadSeeker
	decoder *opus.Decoder
	format  audio.Format
	pcm     []int16
	packet  []byte
	pending pending
}

// NewOpus creates a new Opus decoder. A zero sample rate decodes at 48 kHz.
func NewOpus(format audio.Format, r io.ReadSeeker) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}
	if format.SampleRate == 0 {
		format.SampleRate = 48000
	}
	if format.Channels == 0 {
		format.Channels = 2
	}
	format.BitDepth = 16

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		r:       r,
		decoder: dec,
		format:  format,
		pcm:     make([]int16, opusMaxFrame*format.Channels),
		pending: pending{channels: format.Channels},
	}, nil
}

// Decode implements Decoder
func (d *OpusDecoder) Decode(out []int16) (int, error) {
	frames := d.pending.drain(out)
	if frames > 0 {
		return frames, nil
	}

	if err := d.decodePacket(); err != nil {
		return 0, err
	}
	return d.pending.drain(out), nil
}

// decodePacket reads and decodes the next packet into the pending buffer
func (d *OpusDecoder) decodePacket() error {
	var header [opusPacketHeader]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return err
	}

	size := binary.BigEndian.Uint32(header[:4])
	if size == 0 || size > opusMaxPacket {
		return fmt.Errorf("bad opus packet size %d", size)
	}
	if cap(d.packet) < int(size) {
		d.packet = make([]byte, size)
	}
	packet := d.packet[:size]
	if _, err := io.ReadFull(d.r, packet); err != nil {
		return io.EOF
	}

	n, err := d.decoder.Decode(packet, d.pcm)
	if err != nil {
		return fmt.Errorf("opus decode failed: %w", err)
	}

	d.pending.buf = append(d.pending.buf[:0], d.pcm[:n*d.format.Channels]...)
	return nil
}

// Seek implements Decoder by restarting the stream and skipping packets
func (d *OpusDecoder) Seek(frame int) error {
	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("opus seek failed: %w", err)
	}
	dec, err := opus.NewDecoder(d.format.SampleRate, d.format.Channels)
	if err != nil {
		return fmt.Errorf("opus seek failed: %w", err)
	}
	d.decoder = dec
	d.pending.reset()

	skipped := 0
	for skipped < frame {
		if err := d.decodePacket(); err != nil {
			return fmt.Errorf("opus seek failed: %w", err)
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
func (d *OpusDecoder) Format() audio.Format { return d.format }

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
