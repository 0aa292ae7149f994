// ABOUTME: Functional options for opening a Stream
// ABOUTME: Diagnostics destination, loop target and per-channel read cache
package engine

import "github.com/Sendspin/loopdec/pkg/diag"

type options struct {
	reporter   *diag.Reporter
	loopTarget int
	bufferSize int
}

// Option configures Open
type Option func(*options)

// WithSink sends the stream's diagnostics to sink, deduplicated per condition
func WithSink(sink diag.Sink) Option {
	return func(o *options) {
		o.reporter = diag.NewReporter(sink)
	}
}

// WithReporter shares an existing reporter, for instance with a header parser
func WithReporter(rep *diag.Reporter) Option {
	return func(o *options) {
		o.reporter = rep
	}
}

// WithLoopTarget sets how many times the loop region repeats; 0 loops forever
func WithLoopTarget(n int) Option {
	return func(o *options) {
		o.loopTarget = n
	}
}

// WithBufferSize sets each channel's read cache in bytes; negative disables it
func WithBufferSize(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}
