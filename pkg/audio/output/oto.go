// ABOUTME: Live playback through oto
// ABOUTME: Feeds int16 frames to a process-wide oto player with software volume
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// drainTimeout bounds how long Close waits for queued audio to play out
const drainTimeout = 2 * time.Second

var (
	errNotOpen = errors.New("output: not open")

	// ErrFormatChange is returned when Open asks for a format other than the
	// one the process-wide oto context was created with
	ErrFormatChange = errors.New("output: oto context already open with another format")
)

// Oto plays audio through the system device. oto allows one context per
// process, so reopening is only possible with the first format.
type Oto struct {
	otoCtx   *oto.Context
	player   *oto.Player
	pipe     *io.PipeWriter
	rate     int
	channels int
	buf      []byte

	mu     sync.Mutex
	volume int
	muted  bool
}

// NewOto creates an unopened oto output at full volume
func NewOto() Output {
	return &Oto{volume: 100}
}

// Open implements Output
func (o *Oto) Open(sampleRate, channels int) error {
	if o.otoCtx != nil && (o.rate != sampleRate || o.channels != channels) {
		return fmt.Errorf("%w: %d Hz %dch, asked for %d Hz %dch",
			ErrFormatChange, o.rate, o.channels, sampleRate, channels)
	}
	if o.player != nil {
		return nil
	}

	if o.otoCtx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-ready
		o.otoCtx = ctx
		o.rate = sampleRate
		o.channels = channels
	}

	r, w := io.Pipe()
	o.pipe = w
	o.player = o.otoCtx.NewPlayer(r)
	o.player.Play()

	log.Printf("Playing through oto: %d Hz, %d channels", sampleRate, channels)
	return nil
}

// Write implements Output. It blocks until the player has taken the data.
func (o *Oto) Write(samples []int16) error {
	if o.pipe == nil {
		return errNotOpen
	}

	volume, muted := o.Level()
	o.buf = appendPCM(o.buf[:0], samples, volume, muted)
	if _, err := o.pipe.Write(o.buf); err != nil {
		return fmt.Errorf("oto write failed: %w", err)
	}
	return nil
}

// Close lets queued audio finish, then releases the player. The oto
// context stays alive for a later Open with the same format.
func (o *Oto) Close() error {
	if o.player == nil {
		return nil
	}

	o.pipe.Close()
	deadline := time.Now().Add(drainTimeout)
	for o.player.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	err := o.player.Close()
	o.player = nil
	o.pipe = nil
	return err
}

// SetVolume sets the software volume, clamped to 0-100
func (o *Oto) SetVolume(volume int) {
	volume = max(0, min(volume, 100))

	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
}

// SetMuted silences output without touching the volume
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// Level returns the volume and mute state
func (o *Oto) Level() (volume int, muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume, o.muted
}

// appendPCM scales samples and appends them as 16-bit little-endian
func appendPCM(dst []byte, samples []int16, volume int, muted bool) []byte {
	for _, s := range samples {
		switch {
		case muted:
			s = 0
		case volume < 100:
			s = int16(int32(s) * int32(volume) / 100)
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
