// ABOUTME: Stream: the playback driver filling caller buffers with PCM
// ABOUTME: Runs are bounded by block and loop boundaries; the tail is zero-filled
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/Sendspin/loopdec/pkg/audio/decode"
	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/layout"
	"github.com/Sendspin/loopdec/pkg/loop"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// ErrClosed is returned by Read after Close
var ErrClosed = errors.New("engine: stream closed")

// discardFrames is the scratch size used when decoding to reposition
const discardFrames = 1024

// Stream decodes one described stream. It is not safe for concurrent use;
// independent Streams over the same file are.
type Stream struct {
	desc Descriptor
	src  streamfile.Source
	rep  *diag.Reporter

	// frame codings
	dec    codec.Decoder
	blocks *layout.Engine
	chs    codec.Channels
	start  codec.Channels // state at sample 0

	// delegated codings
	delegated decode.Decoder

	ctl       *loop.Controller
	loopChs   codec.Channels // state at the loop start, nil until taken
	loopBlock layout.State

	current int
	scratch []int16 // discarded samples while seeking
	readBuf []int16
	closed  bool
}

// Open validates desc and prepares a Stream reading from src. The Stream
// owns src and closes it on Close.
func Open(desc Descriptor, src streamfile.Source, opts ...Option) (*Stream, error) {
	o := options{bufferSize: streamfile.DefaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reporter == nil {
		o.reporter = diag.NewReporter(nil)
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}

	s := &Stream{
		desc: desc,
		src:  src,
		rep:  o.reporter,
	}

	var err error
	if desc.Coding.Delegated() {
		err = s.openDelegated()
	} else {
		err = s.openFrames(o.bufferSize)
	}
	if err != nil {
		return nil, err
	}

	loopOn := desc.Loop
	if loopOn && !s.desc.loopValid() {
		s.rep.Always(diag.LoopOutOfRange, "loop %d-%d outside %d samples, not looping",
			desc.LoopStart, desc.LoopEnd, s.desc.NumSamples)
		loopOn = false
	}
	s.ctl = loop.New(loopOn, desc.LoopStart, desc.LoopEnd)
	s.ctl.SetTarget(o.loopTarget)

	return s, nil
}

func (s *Stream) openFrames(bufferSize int) error {
	dec, err := codec.New(s.desc.Coding, s.desc.CodecConfig, s.rep)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	s.dec = dec

	s.chs = make(codec.Channels, s.desc.Channels)
	for i := range s.chs {
		var chSrc streamfile.Source = streamfile.NopCloser(s.src)
		if bufferSize >= 0 {
			chSrc = streamfile.NewBuffered(chSrc, bufferSize)
		}
		s.chs[i] = codec.NewChannel(chSrc, s.desc.channelStart(i), dec)

		if dsp, ok := s.chs[i].State.(*codec.DSPState); ok {
			if err := codec.LoadDSPCoefs(s.src, s.desc.CoefOffsets[i], s.desc.BigEndian, dsp); err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
		}
	}
	s.start = s.chs.Snapshot()

	switch s.desc.Layout {
	case LayoutFlat:
		s.blocks = layout.NewEngine(&layout.Flat{NumSamples: s.desc.NumSamples})
	case LayoutInterleave:
		s.blocks = layout.NewEngine(&layout.Interleave{
			Block:      s.desc.Interleave,
			Last:       s.desc.InterleaveLast,
			NumSamples: s.desc.NumSamples,
			Frame:      dec,
		})
	case LayoutBlockedEA:
		s.blocks = layout.NewEngine(&layout.Blocked{
			Offset: s.desc.BlockOffset,
			Parser: &layout.EABlocks{
				Src:       s.src,
				BigEndian: s.desc.BigEndian,
				History:   s.desc.CodecConfig&ConfigBlockHistory != 0,
				Reporter:  s.rep,
			},
		})
	}
	s.blocks.Reset(s.chs)
	return nil
}

func (s *Stream) openDelegated() error {
	format := audio.Format{
		Codec:      s.desc.Coding.String(),
		SampleRate: s.desc.SampleRate,
		Channels:   s.desc.Channels,
		BitDepth:   16,
	}
	size := s.desc.DataSize
	if size == 0 {
		size = -1
	}

	dec, err := decode.New(format, streamfile.NewSection(s.src, s.desc.DataOffset, size))
	if err != nil {
		return fmt.Errorf("failed to open %s decoder: %w", s.desc.Coding, err)
	}
	if got := dec.Format().Channels; got != s.desc.Channels {
		dec.Close()
		return fmt.Errorf("%w: %s data has %d channels, descriptor says %d",
			ErrInvalidDescriptor, s.desc.Coding, got, s.desc.Channels)
	}

	if s.desc.NumSamples == 0 {
		if l, ok := dec.(interface{ Length() int }); ok {
			s.desc.NumSamples = l.Length()
		}
	}
	if s.desc.NumSamples <= 0 {
		dec.Close()
		return fmt.Errorf("%w: %s stream length unknown", ErrInvalidDescriptor, s.desc.Coding)
	}

	s.delegated = dec
	return nil
}

// Decode fills buf with up to samples interleaved sample frames and returns
// how many were decoded. Frames past the end of the stream are zero-filled.
func (s *Stream) Decode(buf []int16, samples int) int {
	channels := s.desc.Channels
	if samples*channels > len(buf) {
		samples = len(buf) / channels
	}
	if samples <= 0 {
		return 0
	}
	if s.closed {
		clear(buf[:samples*channels])
		return 0
	}

	done := 0
	for done < samples {
		switch s.ctl.Step(s.current) {
		case loop.ActionSnapshot:
			s.snapshot()
		case loop.ActionRestore:
			s.restore()
		}

		run := samples - done
		if left := s.desc.NumSamples - s.current; run > left {
			run = left
		}
		run = s.ctl.Cap(s.current, run)
		if run <= 0 {
			break
		}

		n := s.decodeRun(buf[done*channels:], run)
		if n <= 0 {
			break
		}
		done += n
		s.current += n
	}

	clear(buf[done*channels : samples*channels])
	return done
}

// decodeRun decodes at most run frames at the current position into out
func (s *Stream) decodeRun(out []int16, run int) int {
	channels := s.desc.Channels

	if s.delegated != nil {
		n, err := s.delegated.Decode(out[:run*channels])
		if err != nil && err != io.EOF {
			s.rep.Once(diag.DecoderShortRead, "%s decode failed at sample %d: %v", s.desc.Coding, s.current, err)
		}
		return n
	}

	run = s.blocks.Run(run)
	if run <= 0 {
		return 0
	}
	first := s.blocks.First()
	for i := range s.chs {
		s.dec.Decode(&s.chs[i], out[i:], channels, first, run)
	}
	s.blocks.Consume(s.chs, run)
	return run
}

// snapshot stores the decode state at the loop start
func (s *Stream) snapshot() {
	if s.delegated != nil {
		return
	}
	s.loopChs = s.chs.Snapshot()
	s.loopBlock = s.blocks.State()
}

// restore jumps back to the loop start
func (s *Stream) restore() {
	start := s.ctl.Start()
	switch {
	case s.delegated != nil:
		if err := s.delegated.Seek(start); err != nil {
			s.rep.Once(diag.DecoderShortRead, "%s seek to %d failed: %v", s.desc.Coding, start, err)
		}
		s.current = start
	case s.loopChs != nil:
		s.chs.Restore(s.loopChs)
		s.blocks.Restore(s.loopBlock)
		s.current = start
	default:
		s.seek(start)
	}
}

// rewind puts the decode state back at sample 0
func (s *Stream) rewind() {
	s.current = 0
	if s.delegated != nil {
		if err := s.delegated.Seek(0); err != nil {
			s.rep.Once(diag.DecoderShortRead, "%s rewind failed: %v", s.desc.Coding, err)
		}
		return
	}
	s.chs.Restore(s.start)
	s.blocks.Reset(s.chs)
}

// seek repositions to sample by decoding from the start, taking the loop
// snapshot when passing the loop start. The loop end is not honored.
func (s *Stream) seek(sample int) {
	if s.delegated != nil {
		if err := s.delegated.Seek(sample); err != nil {
			s.rep.Once(diag.DecoderShortRead, "%s seek to %d failed: %v", s.desc.Coding, sample, err)
		}
		s.current = sample
		return
	}

	s.rewind()
	if cap(s.scratch) < discardFrames*s.desc.Channels {
		s.scratch = make([]int16, discardFrames*s.desc.Channels)
	}
	for s.current < sample {
		if s.ctl.Enabled() && !s.ctl.Hit() && s.current == s.ctl.Start() {
			s.ctl.Step(s.current)
			s.snapshot()
		}

		run := sample - s.current
		if run > discardFrames {
			run = discardFrames
		}
		if s.ctl.Enabled() && !s.ctl.Hit() && s.current < s.ctl.Start() && s.current+run > s.ctl.Start() {
			run = s.ctl.Start() - s.current
		}

		n := s.decodeRun(s.scratch, run)
		if n <= 0 {
			break
		}
		s.current += n
	}
}

// Reset rewinds to the first sample and forgets completed loops
func (s *Stream) Reset() {
	s.ctl.Reset()
	s.loopChs = nil
	s.rewind()
}

// ForceLoop replaces the loop region. The current position is kept; when it
// is already past the new loop start, the loop start state is rebuilt.
func (s *Stream) ForceLoop(enabled bool, start, end int) error {
	if enabled && (start < 0 || end <= start || end > s.desc.NumSamples) {
		return fmt.Errorf("%w: loop %d-%d outside %d samples", ErrInvalidDescriptor, start, end, s.desc.NumSamples)
	}

	s.desc.Loop = enabled
	s.desc.LoopStart = start
	s.desc.LoopEnd = end
	s.ctl.Set(enabled, start, end)
	s.loopChs = nil

	if enabled && s.current > start && s.delegated == nil {
		s.seek(s.current)
	}
	return nil
}

// SetLoopTarget sets how many times the loop repeats; 0 loops forever
func (s *Stream) SetLoopTarget(n int) {
	s.ctl.SetTarget(n)
}

// CurrentSample returns the position of the next sample to decode
func (s *Stream) CurrentSample() int { return s.current }

// NumSamples returns the stream length without looping
func (s *Stream) NumSamples() int { return s.desc.NumSamples }

// Channels returns the channel count
func (s *Stream) Channels() int { return s.desc.Channels }

// SampleRate returns the sample rate in Hz
func (s *Stream) SampleRate() int { return s.desc.SampleRate }

// Looping reports whether the stream will still jump back at the loop end
func (s *Stream) Looping() bool { return s.ctl.Looping() }

// LoopCount returns the number of completed loops
func (s *Stream) LoopCount() int { return s.ctl.Count() }

// Descriptor returns the stream's descriptor
func (s *Stream) Descriptor() Descriptor { return s.desc }

// PlaySamples returns a play length: the intro, loopTimes passes through
// the loop region, then fadeDelay and fade seconds. Streams without a
// loop play their full length.
func (s *Stream) PlaySamples(loopTimes, fadeSeconds, fadeDelaySeconds float64) int {
	if !s.ctl.Enabled() {
		return s.desc.NumSamples
	}
	region := float64(s.ctl.End() - s.ctl.Start())
	tail := (fadeDelaySeconds + fadeSeconds) * float64(s.desc.SampleRate)
	return s.ctl.Start() + int(region*loopTimes+tail)
}

// Read implements the 24-bit AudioSource contract used by the server and
// player: it fills samples with interleaved values and returns io.EOF once
// the stream has ended.
func (s *Stream) Read(samples []int32) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	channels := s.desc.Channels
	frames := len(samples) / channels
	if frames == 0 {
		return 0, nil
	}
	if cap(s.readBuf) < frames*channels {
		s.readBuf = make([]int16, frames*channels)
	}
	buf := s.readBuf[:frames*channels]

	n := s.Decode(buf, frames)
	if n == 0 {
		return 0, io.EOF
	}
	for i := 0; i < n*channels; i++ {
		samples[i] = audio.SampleFromInt16(buf[i])
	}
	return n * channels, nil
}

// Close releases the decoder and the source
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.delegated != nil {
		errs = append(errs, s.delegated.Close())
	}
	for i := range s.chs {
		errs = append(errs, s.chs[i].Src.Close())
	}
	errs = append(errs, s.src.Close())
	return errors.Join(errs...)
}
