// ABOUTME: Diagnostic reporting package for suspect input data
// ABOUTME: Provides a caller-supplied Sink and a per-stream dedup Reporter
// Package diag reports non-fatal conditions found while decoding.
//
// Decoders tolerate malformed data (bad coefficients, unknown flags,
// inconsistent loop markers) and keep going. Each such condition is
// reported through a Sink so tooling can flag suspect files. A Reporter
// owns a small dedup table keyed by condition ID, so heavily corrupted
// input produces one line per distinct condition instead of one per frame.
//
// Example:
//
//	rep := diag.NewReporter(diag.LogSink{})
//	rep.Once(diag.PSXBadCoefShift, "bad coef/shift at 0x%x", offset)
package diag
