// ABOUTME: io.ReadSeeker view over a byte range of a Source
// ABOUTME: Feeds decoders delegated to external libraries
package streamfile

import (
	"errors"
	"io"
)

var errNegativePosition = errors.New("streamfile: negative position")

// Section exposes [start, start+size) of a Source as an io.ReadSeeker and
// io.ReaderAt. The cursor is per-Section and not safe for concurrent use.
type Section struct {
	src   Source
	start int64
	size  int64
	pos   int64
}

// NewSection creates a view; size < 0 extends to the end of src
func NewSection(src Source, start, size int64) *Section {
	if size < 0 || start+size > src.Size() {
		size = src.Size() - start
	}
	if size < 0 {
		size = 0
	}
	return &Section{src: src, start: start, size: size}
}

// Read implements io.Reader
func (s *Section) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt
func (s *Section) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativePosition
	}
	if off >= s.size {
		return 0, io.EOF
	}
	want := p
	if rem := s.size - off; int64(len(want)) > rem {
		want = want[:rem]
	}
	n := s.src.Read(want, s.start+off)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker
func (s *Section) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.size + offset
	default:
		return s.pos, errors.New("streamfile: invalid whence")
	}
	if pos < 0 {
		return s.pos, errNegativePosition
	}
	s.pos = pos
	return pos, nil
}

// Size returns the section length
func (s *Section) Size() int64 { return s.size }
