// ABOUTME: Byte source package for random-access container reads
// ABOUTME: Provides the Source contract plus file, memory, section and layer views
// Package streamfile provides random-access byte sources for decoders.
//
// A Source reads N bytes at an absolute position and never fails with an
// error code: a request wholly or partly past the end returns fewer bytes.
// Sources may wrap other sources:
//   - FileSource: positional reads from an *os.File
//   - MemorySource: an in-memory byte slice
//   - Buffered: a read-through cache in front of a slow Source
//   - Deinterleave: a logical per-layer view over headered multi-layer blocks
//
// Section adapts a byte range of any Source to io.ReadSeeker and
// io.ReaderAt for decoders delegated to external libraries.
//
// Example:
//
//	src, err := streamfile.Open("music.vag")
//	hdr := make([]byte, 0x30)
//	n := src.Read(hdr, 0)
package streamfile
