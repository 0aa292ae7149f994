// ABOUTME: Diagnostic sink interface and deduplicating reporter
// ABOUTME: Conditions are keyed by stable IDs and reported once per stream
package diag

import (
	"fmt"
	"log"
)

// Condition identifies a class of non-fatal problem
type Condition string

// Known conditions
const (
	PSXBadCoefShift     Condition = "psx.bad-coef-shift"
	PSXUnknownFlag      Condition = "psx.unknown-flag"
	DSPBadCoefIndex     Condition = "dsp.bad-coef-index"
	LoopMultipleStarts  Condition = "loop.multiple-starts"
	LoopStartWithoutEnd Condition = "loop.start-without-end"
	LoopEndWithoutStart Condition = "loop.end-without-start"
	LoopOutOfRange      Condition = "loop.out-of-range"
	LayerCountMismatch  Condition = "layer.count-mismatch"
	BlockBadSize        Condition = "block.bad-size"
	DecoderShortRead    Condition = "decoder.short-read"
	HeaderBadSize       Condition = "header.bad-size"
)

// Sink receives diagnostic messages
type Sink interface {
	Report(cond Condition, msg string)
}

// LogSink writes diagnostics with the standard logger
type LogSink struct {
	Prefix string
}

// Report implements Sink
func (s LogSink) Report(cond Condition, msg string) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "[loopdec]"
	}
	log.Printf("%s %s: %s", prefix, cond, msg)
}

// Discard drops every diagnostic
type Discard struct{}

// Report implements Sink
func (Discard) Report(Condition, string) {}

// Reporter deduplicates conditions before forwarding to a Sink.
// A Reporter is owned by one stream and is not safe for concurrent use.
type Reporter struct {
	sink Sink
	seen map[Condition]int
}

// NewReporter creates a reporter; a nil sink logs with LogSink
func NewReporter(sink Sink) *Reporter {
	if sink == nil {
		sink = LogSink{}
	}
	return &Reporter{
		sink: sink,
		seen: make(map[Condition]int),
	}
}

// Once reports cond the first time it is seen and counts later occurrences
func (r *Reporter) Once(cond Condition, format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.seen[cond]++
	if r.seen[cond] > 1 {
		return
	}
	r.sink.Report(cond, fmt.Sprintf(format, args...))
}

// Always reports cond every time
func (r *Reporter) Always(cond Condition, format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.seen[cond]++
	r.sink.Report(cond, fmt.Sprintf(format, args...))
}

// Count returns how many times cond occurred, reported or not
func (r *Reporter) Count(cond Condition) int {
	if r == nil {
		return 0
	}
	return r.seen[cond]
}

// Reset clears the dedup table
func (r *Reporter) Reset() {
	if r == nil {
		return
	}
	r.seen = make(map[Condition]int)
}

// Recorder is a Sink that keeps messages in memory
type Recorder struct {
	Conditions []Condition
	Messages   []string
}

// Report implements Sink
func (r *Recorder) Report(cond Condition, msg string) {
	r.Conditions = append(r.Conditions, cond)
	r.Messages = append(r.Messages, msg)
}

// Has reports whether cond was recorded
func (r *Recorder) Has(cond Condition) bool {
	for _, c := range r.Conditions {
		if c == cond {
			return true
		}
	}
	return false
}
