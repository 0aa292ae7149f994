// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for codecs delegated to external libraries
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/loopdec/pkg/audio"
)

// ErrUnsupportedCodec is returned by New for codec names it cannot decode
var ErrUnsupportedCodec = errors.New("decode: unsupported codec")

// Decoder decodes a complete codec stream to interleaved 16-bit PCM
type Decoder interface {
	// Decode fills out with interleaved samples and returns the number of
	// sample frames written. It returns io.EOF once the stream is exhausted.
	Decode(out []int16) (int, error)

	// Seek positions the decoder so the next Decode starts at frame
	Seek(frame int) error

	// Format returns the decoded PCM format
	Format() audio.Format

	// Close releases decoder resources
	Close() error
}

// New creates the decoder for format.Codec over r
func New(format audio.Format, r io.ReadSeeker) (Decoder, error) {
	switch format.Codec {
	case "mp3", "mpeg":
		return NewMP3(format, r)
	case "vorbis":
		return NewVorbis(format, r)
	case "flac":
		return NewFLAC(format, r)
	case "opus":
		return NewOpus(format, r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, format.Codec)
}

// pending holds decoded samples not yet handed to the caller
type pending struct {
	buf      []int16
	channels int
}

// drain copies buffered frames into out and returns the frames copied
func (p *pending) drain(out []int16) int {
	if p.channels == 0 || len(p.buf) == 0 {
		return 0
	}
	n := copy(out[:len(out)-len(out)%p.channels], p.buf)
	p.buf = p.buf[n:]
	return n / p.channels
}

func (p *pending) reset() {
	p.buf = p.buf[:0]
}
