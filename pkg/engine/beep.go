// ABOUTME: beep.Streamer adapter so a Stream can feed gopxl/beep pipelines
// ABOUTME: Mono is duplicated to both sides; extra channels are dropped
package engine

import (
	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/gopxl/beep/v2"
)

// Format returns the beep format the Streamer produces
func (s *Stream) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.desc.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}

// Streamer returns a beep.Streamer reading from the stream
func (s *Stream) Streamer() beep.Streamer {
	return &streamer{s: s}
}

type streamer struct {
	s   *Stream
	buf []int16
}

// Stream implements beep.Streamer
func (st *streamer) Stream(samples [][2]float64) (int, bool) {
	channels := st.s.Channels()
	if cap(st.buf) < len(samples)*channels {
		st.buf = make([]int16, len(samples)*channels)
	}
	buf := st.buf[:len(samples)*channels]

	n := st.s.Decode(buf, len(samples))
	for i := 0; i < n; i++ {
		left := audio.SampleToFloat64(buf[i*channels])
		right := left
		if channels > 1 {
			right = audio.SampleToFloat64(buf[i*channels+1])
		}
		samples[i] = [2]float64{left, right}
	}
	return n, n > 0
}

// Err implements beep.Streamer
func (st *streamer) Err() error { return nil }
