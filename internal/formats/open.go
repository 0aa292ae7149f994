// ABOUTME: Opens a file on disk as a ready-to-decode stream
// ABOUTME: Shared by the command line player and the stream server
package formats

import (
	"github.com/Sendspin/loopdec/pkg/codec"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// OpenFile opens path and wraps it in a Stream. A nil raw detects the format
// from its header; mode applies to PS-ADPCM loop scans of detected files.
// Header and decode diagnostics share one reporter writing to sink.
func OpenFile(path string, raw *RawConfig, mode codec.LoopScanMode, sink diag.Sink, opts ...engine.Option) (*engine.Stream, error) {
	file, err := streamfile.Open(path)
	if err != nil {
		return nil, err
	}

	rep := diag.NewReporter(sink)

	var (
		desc engine.Descriptor
		src  streamfile.Source = file
	)
	if raw != nil {
		desc, src, err = raw.Descriptor(file, rep)
	} else {
		desc, err = Detect(file, mode, rep)
	}
	if err != nil {
		file.Close()
		return nil, err
	}

	st, err := engine.Open(desc, src, append(opts, engine.WithReporter(rep))...)
	if err != nil {
		src.Close()
		return nil, err
	}
	return st, nil
}
