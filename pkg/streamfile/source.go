// ABOUTME: Source contract and basic implementations
// ABOUTME: File and memory sources with short-read semantics
package streamfile

import (
	"fmt"
	"os"
)

// Source is a random-access byte source.
// Read returns the number of bytes copied into dest; fewer than len(dest)
// means the request ran past the end or the position is unreadable.
type Source interface {
	Read(dest []byte, offset int64) int
	Size() int64
	Close() error
}

// FileSource reads from a file using positional reads, so independent
// streams may share the same file.
type FileSource struct {
	file *os.File
	size int64
	name string
}

// Open opens a file as a Source
func Open(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}

	return &FileSource{
		file: f,
		size: info.Size(),
		name: path,
	}, nil
}

// Read implements Source
func (s *FileSource) Read(dest []byte, offset int64) int {
	if offset < 0 || offset >= s.size || len(dest) == 0 {
		return 0
	}
	// a short read reports io.EOF; the count already says so
	n, _ := s.file.ReadAt(dest, offset)
	return n
}

// Size implements Source
func (s *FileSource) Size() int64 { return s.size }

// Name returns the path the source was opened from
func (s *FileSource) Name() string { return s.name }

// Close implements Source
func (s *FileSource) Close() error {
	return s.file.Close()
}

// MemorySource serves bytes from memory
type MemorySource struct {
	data []byte
}

// NewMemory creates a Source over data; data is not copied
func NewMemory(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

// Read implements Source
func (s *MemorySource) Read(dest []byte, offset int64) int {
	if offset < 0 || offset >= int64(len(s.data)) {
		return 0
	}
	return copy(dest, s.data[offset:])
}

// Size implements Source
func (s *MemorySource) Size() int64 { return int64(len(s.data)) }

// Close implements Source
func (s *MemorySource) Close() error { return nil }

// NopCloser wraps a Source so that Close does not close the wrapped source.
// Useful when several views share one backing source.
func NopCloser(src Source) Source {
	return nopCloser{src}
}

type nopCloser struct {
	Source
}

func (nopCloser) Close() error { return nil }
