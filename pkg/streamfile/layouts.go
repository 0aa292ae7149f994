// ABOUTME: Known header-table layouts for multi-layer block containers
// ABOUTME: Selected by the layer header version word
package streamfile

import "fmt"

// Known layer header versions
const (
	LayerVersion2  = 0x00000002
	LayerVersion4  = 0x00000004
	LayerVersion7  = 0x00000007
	LayerVersion8a = 0x00040008
	LayerVersion8b = 0x000B0008
	LayerVersion8c = 0x000C0008
	LayerVersion8d = 0x00100008
	LayerVersion9  = 0x00100009
)

// LayerLayoutForVersion returns the layout for a header version and the
// header offset of its layer max field. Offsets that depend on the layer
// max are filled in by withLayerMax.
func LayerLayoutForVersion(version uint32) (LayerLayout, int64, error) {
	switch version {
	case LayerVersion2:
		// fixed blocks: number, offset, sizes, data; header has no layer data
		return LayerLayout{
			HeaderNext: 0x10,
			HeaderData: 0x18,
			BlockSizes: 0x08,
		}, 0x04, nil

	case LayerVersion4:
		return LayerLayout{
			HeaderNext:  0x14,
			HeaderSizes: 0x20,
			BlockSizes:  0x0c,
		}, 0x04, nil

	case LayerVersion7:
		return LayerLayout{
			HeaderNext:  0x18,
			HeaderSizes: 0x40,
			BlockSizes:  0x0c,
		}, 0x08, nil

	case LayerVersion8a, LayerVersion8b, LayerVersion8c, LayerVersion8d:
		// variable blocks, next block size at 0x04
		return LayerLayout{
			HeaderNext:  0x18,
			HeaderSizes: 0x1c,
			BlockNext:   0x04,
			BlockSizes:  0x08,
		}, 0x08, nil

	case LayerVersion9:
		return LayerLayout{
			HeaderNext:  0x18,
			HeaderSizes: 0x5c,
			BlockNext:   0x04,
			BlockSizes:  0x08,
		}, 0x08, nil
	}

	return LayerLayout{}, 0, fmt.Errorf("%w: %08x", ErrUnknownLayerVersion, version)
}

// withLayerMax fills the data offsets that follow the per-layer tables
func (l LayerLayout) withLayerMax(layerMax int) LayerLayout {
	table := int64(layerMax) * 4
	if l.HeaderSizes != 0 {
		l.HeaderData = l.HeaderSizes + table
	}
	l.BlockData = l.BlockSizes + table
	return l
}
