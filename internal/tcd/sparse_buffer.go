package tcd

import (
	"fmt"

	"github.com/mrjoshuak/go-jpeg2000/internal/jerr"
)

// SparseBuffer is a hash-mapped grid of fixed-size sub-tiles, used only
// for region decoding (spec.md §4.3). Alloc(rect) materializes every
// sub-tile overlapping rect; reads/writes outside a materialized sub-tile
// return/discard the zero value rather than panicking, since region
// decode only ever touches sub-tiles it has allocated.
type SparseBuffer struct {
	log2TileW, log2TileH uint8
	tileW, tileH         int32
	tiles                map[int64][]int32
}

// NewSparseBuffer creates a sparse buffer whose sub-tiles are
// 2^log2TileW x 2^log2TileH samples.
func NewSparseBuffer(log2TileW, log2TileH uint8) *SparseBuffer {
	return &SparseBuffer{
		log2TileW: log2TileW,
		log2TileH: log2TileH,
		tileW:     int32(1) << log2TileW,
		tileH:     int32(1) << log2TileH,
		tiles:     make(map[int64][]int32),
	}
}

func (s *SparseBuffer) key(tx, ty int32) int64 {
	return int64(ty)<<32 | int64(uint32(tx))
}

// Alloc ensures every sub-tile overlapping rect is materialized.
func (s *SparseBuffer) Alloc(rect Rect) error {
	if rect.Empty() {
		return nil
	}
	txStart := rect.X0 >> s.log2TileW
	txEnd := (rect.X1 - 1) >> s.log2TileW
	tyStart := rect.Y0 >> s.log2TileH
	tyEnd := (rect.Y1 - 1) >> s.log2TileH

	area := int64(txEnd-txStart+1) * int64(tyEnd-tyStart+1)
	if area <= 0 || area > 1<<24 {
		return jerr.Wrap(jerr.AllocationFailed, fmt.Sprintf("sparse-buffer allocation: %d sub-tiles", area))
	}

	for ty := tyStart; ty <= tyEnd; ty++ {
		for tx := txStart; tx <= txEnd; tx++ {
			k := s.key(tx, ty)
			if _, ok := s.tiles[k]; !ok {
				s.tiles[k] = make([]int32, s.tileW*s.tileH)
			}
		}
	}
	return nil
}

// Get returns the sample at (x,y), or 0 if its sub-tile was never
// allocated.
func (s *SparseBuffer) Get(x, y int32) int32 {
	tx, ty := x>>s.log2TileW, y>>s.log2TileH
	tile, ok := s.tiles[s.key(tx, ty)]
	if !ok {
		return 0
	}
	lx, ly := x-(tx<<s.log2TileW), y-(ty<<s.log2TileH)
	return tile[ly*s.tileW+lx]
}

// Set stores v at (x,y); it is a no-op if the sub-tile was never
// allocated.
func (s *SparseBuffer) Set(x, y int32, v int32) {
	tx, ty := x>>s.log2TileW, y>>s.log2TileH
	tile, ok := s.tiles[s.key(tx, ty)]
	if !ok {
		return
	}
	lx, ly := x-(tx<<s.log2TileW), y-(ty<<s.log2TileH)
	tile[ly*s.tileW+lx] = v
}

// CopyToWindow gathers every sample of rect (intersected with w's bounds)
// from the sparse store into a contiguous WindowBuffer — the "region
// decode final copy" node of spec.md §4.6.
func (s *SparseBuffer) CopyToWindow(w *WindowBuffer, rect Rect) {
	target := w.Bounds().Intersection(rect)
	for y := target.Y0; y < target.Y1; y++ {
		for x := target.X0; x < target.X1; x++ {
			w.Set(x, y, s.Get(x, y))
		}
	}
}

// MaterializedSubTiles reports how many sub-tiles have been allocated,
// for tests.
func (s *SparseBuffer) MaterializedSubTiles() int {
	return len(s.tiles)
}
