// ABOUTME: Endian-aware fixed-size reads from a Source
// ABOUTME: Short reads yield zero values, matching container parser needs
package streamfile

import "encoding/binary"

// U8 reads one byte; 0 when unreadable
func U8(src Source, offset int64) uint8 {
	var b [1]byte
	if src.Read(b[:], offset) != 1 {
		return 0
	}
	return b[0]
}

// U16LE reads a little-endian uint16; 0 when unreadable
func U16LE(src Source, offset int64) uint16 {
	var b [2]byte
	if src.Read(b[:], offset) != 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b[:])
}

// U16BE reads a big-endian uint16; 0 when unreadable
func U16BE(src Source, offset int64) uint16 {
	var b [2]byte
	if src.Read(b[:], offset) != 2 {
		return 0
	}
	return binary.BigEndian.Uint16(b[:])
}

// U32LE reads a little-endian uint32; 0 when unreadable
func U32LE(src Source, offset int64) uint32 {
	var b [4]byte
	if src.Read(b[:], offset) != 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

// U32BE reads a big-endian uint32; 0 when unreadable
func U32BE(src Source, offset int64) uint32 {
	var b [4]byte
	if src.Read(b[:], offset) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b[:])
}

// U16 reads a uint16 with the given endianness
func U16(src Source, offset int64, bigEndian bool) uint16 {
	if bigEndian {
		return U16BE(src, offset)
	}
	return U16LE(src, offset)
}

// U32 reads a uint32 with the given endianness
func U32(src Source, offset int64, bigEndian bool) uint32 {
	if bigEndian {
		return U32BE(src, offset)
	}
	return U32LE(src, offset)
}

// ReadExact reads len(dest) bytes and reports whether all were read
func ReadExact(src Source, dest []byte, offset int64) bool {
	return src.Read(dest, offset) == len(dest)
}
