// ABOUTME: Read-through cache over another Source
// ABOUTME: Small sequential reads are served from one cached window
package streamfile

// DefaultBufferSize is the cache window used when none is given
const DefaultBufferSize = 0x8000

// Buffered caches one window of an underlying Source. Transform sources
// such as Deinterleave are expensive per call, and codecs read a few
// bytes at a time, so they are normally wrapped in a Buffered.
type Buffered struct {
	src    Source
	buf    []byte
	offset int64
	valid  int
}

// NewBuffered wraps src with a cache of size bytes (DefaultBufferSize if <= 0)
func NewBuffered(src Source, size int) *Buffered {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffered{
		src:    src,
		buf:    make([]byte, size),
		offset: -1,
	}
}

// Read implements Source
func (b *Buffered) Read(dest []byte, offset int64) int {
	total := 0
	for len(dest) > 0 {
		if b.offset < 0 || offset < b.offset || offset >= b.offset+int64(b.valid) {
			b.offset = offset
			b.valid = b.src.Read(b.buf, offset)
			if b.valid == 0 {
				b.offset = -1
				break
			}
		}
		n := copy(dest, b.buf[offset-b.offset:b.valid])
		total += n
		dest = dest[n:]
		offset += int64(n)
		if b.valid < len(b.buf) && offset >= b.offset+int64(b.valid) {
			break
		}
	}
	return total
}

// Size implements Source
func (b *Buffered) Size() int64 { return b.src.Size() }

// Close implements Source and closes the wrapped source
func (b *Buffered) Close() error {
	return b.src.Close()
}
