// ABOUTME: Human-readable stream description for CLI info output and the TUI
package engine

import (
	"fmt"
	"strings"
)

// Describe returns a multi-line summary of the stream
func (s *Stream) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "sample rate: %d Hz\n", s.desc.SampleRate)
	fmt.Fprintf(&b, "channels: %d\n", s.desc.Channels)
	if s.ctl.Enabled() {
		fmt.Fprintf(&b, "loop start: %d samples (%s seconds)\n", s.ctl.Start(), s.clock(s.ctl.Start()))
		fmt.Fprintf(&b, "loop end: %d samples (%s seconds)\n", s.ctl.End(), s.clock(s.ctl.End()))
	}
	fmt.Fprintf(&b, "stream total samples: %d (%s seconds)\n", s.desc.NumSamples, s.clock(s.desc.NumSamples))
	fmt.Fprintf(&b, "encoding: %s\n", s.desc.Coding.Description())

	if s.blocks != nil {
		fmt.Fprintf(&b, "layout: %s\n", s.blocks.Name())
	} else {
		fmt.Fprintf(&b, "layout: %s\n", s.desc.Layout)
	}
	return b.String()
}

// clock formats a sample position as m:ss.mmm
func (s *Stream) clock(sample int) string {
	ms := int64(sample) * 1000 / int64(s.desc.SampleRate)
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
