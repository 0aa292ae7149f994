// ABOUTME: Virtual deinterleave transform for headered multi-layer blocks
// ABOUTME: Maps one layer of a blocked container to a contiguous logical stream
package streamfile

import (
	"errors"
	"fmt"

	"github.com/Sendspin/loopdec/pkg/diag"
)

const (
	// noMoreBlocks is the block size sentinel that ends a scan
	noMoreBlocks = 0xFFFFFFFF

	// probeOffset is a logical offset past any real stream, used to
	// measure the logical size
	probeOffset = 0x7FFFFFFF
)

var (
	// ErrBadLayerConfig is returned when the layer geometry is unusable
	ErrBadLayerConfig = errors.New("streamfile: bad layer config")

	// ErrUnknownLayerVersion is returned for unrecognized layer header versions
	ErrUnknownLayerVersion = errors.New("streamfile: unknown layer header version")
)

// LayerLayout locates the fields of a multi-layer container. All offsets
// are relative to the start of the header block or of each data block.
type LayerLayout struct {
	HeaderNext  int64 // header field holding the size of the first block
	HeaderSizes int64 // header per-layer size table, 0 when the header has no layer data
	HeaderData  int64 // start of header layer data
	BlockNext   int64 // block field holding the next block size, 0 for fixed-size blocks
	BlockSizes  int64 // block per-layer size table
	BlockData   int64 // start of block layer data
}

// LayerConfig selects one layer of a multi-layer stream
type LayerConfig struct {
	StreamOffset int64 // physical start of the layered stream
	StreamSize   int64 // physical size of the layered stream
	Layer        int   // selected layer, 0-based
	LayerCount   int   // layers the caller expects
	LayerMax     int   // layers the blocks actually carry
	BigEndian    bool
	Layout       LayerLayout
}

// Deinterleave is a Source exposing one layer of a headered, blocked,
// multi-layer container as a contiguous byte stream.
//
// Physical and logical offsets can only be related by replaying block
// headers, so a read behind the current logical cursor restarts the scan
// from the stream start. Playback is overwhelmingly forward, which keeps
// the amortized cost low. Not safe for concurrent use.
type Deinterleave struct {
	src        Source
	cfg        LayerConfig
	headerSize int64

	started       bool
	logical       int64 // logical offset of the current block's layer data
	physical      int64 // physical offset of the current block
	blockSize     int64
	nextBlockSize int64
	skipSize      int64 // bytes from block start to the selected layer's data
	dataSize      int64 // selected layer's usable bytes in this block

	logicalSize int64 // cached, -1 until measured
}

// NewDeinterleave creates a transform with an explicit layout
func NewDeinterleave(src Source, cfg LayerConfig) (*Deinterleave, error) {
	if cfg.StreamOffset < 0 || cfg.StreamSize <= 0 || cfg.StreamOffset+cfg.StreamSize > src.Size() {
		return nil, fmt.Errorf("%w: stream 0x%x+0x%x exceeds source size 0x%x",
			ErrBadLayerConfig, cfg.StreamOffset, cfg.StreamSize, src.Size())
	}
	if cfg.LayerMax <= 0 {
		return nil, fmt.Errorf("%w: layer max %d", ErrBadLayerConfig, cfg.LayerMax)
	}
	if cfg.LayerCount > cfg.LayerMax {
		return nil, fmt.Errorf("%w: layer count %d bigger than layer max %d",
			ErrBadLayerConfig, cfg.LayerCount, cfg.LayerMax)
	}
	if cfg.Layer < 0 || cfg.Layer >= cfg.LayerMax {
		return nil, fmt.Errorf("%w: layer %d out of range", ErrBadLayerConfig, cfg.Layer)
	}

	d := &Deinterleave{
		src:         src,
		cfg:         cfg,
		logicalSize: -1,
	}

	d.headerSize = cfg.Layout.HeaderData
	if cfg.Layout.HeaderSizes != 0 {
		for i := 0; i < cfg.LayerMax; i++ {
			d.headerSize += d.u32(cfg.StreamOffset + cfg.Layout.HeaderSizes + int64(i)*4)
		}
	}

	return d, nil
}

// NewDeinterleaveAuto reads the layer header version at streamOffset and
// configures the matching known layout.
func NewDeinterleaveAuto(src Source, streamOffset, streamSize int64, layer, layerCount int, bigEndian bool, rep *diag.Reporter) (*Deinterleave, error) {
	version := U32(src, streamOffset, bigEndian)

	layout, maxOffset, err := LayerLayoutForVersion(version)
	if err != nil {
		return nil, err
	}

	layerMax := int(U32(src, streamOffset+maxOffset, bigEndian))
	layout = layout.withLayerMax(layerMax)

	if layerCount != layerMax {
		rep.Once(diag.LayerCountMismatch, "layer count %d does not match layer max %d", layerCount, layerMax)
	}

	return NewDeinterleave(src, LayerConfig{
		StreamOffset: streamOffset,
		StreamSize:   streamSize,
		Layer:        layer,
		LayerCount:   layerCount,
		LayerMax:     layerMax,
		BigEndian:    bigEndian,
		Layout:       layout,
	})
}

// Read implements Source
func (d *Deinterleave) Read(dest []byte, offset int64) int {
	total := 0
	length := int64(len(dest))

	if !d.started || offset < d.logical {
		d.restart()
	}

	end := d.cfg.StreamOffset + d.cfg.StreamSize
	for length > 0 {
		if offset < 0 || d.physical >= end {
			break
		}

		if d.dataSize == 0 {
			d.enterBlock()
		}

		if offset >= d.logical+d.dataSize {
			if d.blockSize == 0 || d.blockSize == noMoreBlocks {
				break
			}
			d.physical += d.blockSize
			d.logical += d.dataSize
			d.dataSize = 0
			continue
		}

		consumed := offset - d.logical
		toRead := d.dataSize - consumed
		if toRead > length {
			toRead = length
		}

		n := d.src.Read(dest[total:total+int(toRead)], d.physical+d.skipSize+consumed)
		total += n
		offset += int64(n)
		length -= int64(n)

		if int64(n) != toRead || n == 0 {
			break
		}
	}

	return total
}

// restart rewinds to the header block
func (d *Deinterleave) restart() {
	lay := d.cfg.Layout

	d.started = true
	d.physical = d.cfg.StreamOffset
	d.logical = 0
	d.dataSize = 0

	d.blockSize = d.headerSize
	d.nextBlockSize = d.u32(d.physical + lay.HeaderNext)

	if lay.HeaderSizes != 0 {
		d.skipSize = lay.HeaderData
		for i := 0; i < d.cfg.Layer; i++ {
			d.skipSize += d.u32(d.physical + lay.HeaderSizes + int64(i)*4)
		}
		d.dataSize = d.u32(d.physical + lay.HeaderSizes + int64(d.cfg.Layer)*4)
	}

	if d.dataSize == 0 {
		d.physical += d.blockSize
	}
}

// enterBlock reads the geometry of the block at the physical cursor
func (d *Deinterleave) enterBlock() {
	lay := d.cfg.Layout

	d.blockSize = d.nextBlockSize
	if lay.BlockNext != 0 {
		d.nextBlockSize = d.u32(d.physical + lay.BlockNext)
	}

	d.skipSize = lay.BlockData
	for i := 0; i < d.cfg.Layer; i++ {
		d.skipSize += d.u32(d.physical + lay.BlockSizes + int64(i)*4)
	}
	d.dataSize = d.u32(d.physical + lay.BlockSizes + int64(d.cfg.Layer)*4)
}

// Size implements Source. The first call walks every block with a probe
// read; the cursor it leaves behind is abandoned, since the next real read
// restarts from the stream start anyway.
func (d *Deinterleave) Size() int64 {
	if d.logicalSize >= 0 {
		return d.logicalSize
	}

	var b [1]byte
	d.Read(b[:], probeOffset)
	d.logicalSize = d.logical

	return d.logicalSize
}

// Close implements Source and closes the wrapped source
func (d *Deinterleave) Close() error {
	return d.src.Close()
}

func (d *Deinterleave) u32(offset int64) int64 {
	return int64(U32(d.src, offset, d.cfg.BigEndian))
}
