// Package formats turns files into stream descriptors.
//
// It holds the few header parsers the command line needs (Sony VAG) plus
// RawConfig for headerless data, and Detect, which picks by magic bytes.
// Everything here only reads headers; decoding is pkg/engine's job.
package formats
