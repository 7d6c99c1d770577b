// Package tcd implements the tile-component spatial model: the precinct /
// code-block lattice (C1), the resolution/band/precinct hierarchy that
// hangs off a TileComponent (C2), and the window/sparse sample buffers
// that hold decoded coefficients (C3).
package tcd

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-jpeg2000/internal/jerr"
)

// Rect is a half-open axis-aligned rectangle [X0,X1) x [Y0,Y1) in some
// coordinate system (canvas, tile-component, resolution, or code-block
// grid, depending on context).
type Rect struct {
	X0, Y0, X1, Y1 int32
}

// Width returns X1-X0, or 0 if the rectangle is empty.
func (r Rect) Width() int32 {
	if r.X1 <= r.X0 {
		return 0
	}
	return r.X1 - r.X0
}

// Height returns Y1-Y0, or 0 if the rectangle is empty.
func (r Rect) Height() int32 {
	if r.Y1 <= r.Y0 {
		return 0
	}
	return r.Y1 - r.Y0
}

// Area returns Width()*Height() as an int64 to avoid overflow.
func (r Rect) Area() int64 {
	return int64(r.Width()) * int64(r.Height())
}

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Intersection returns the overlap of r and o; the result is Empty if
// they do not overlap.
func (r Rect) Intersection(o Rect) Rect {
	out := Rect{
		X0: max32(r.X0, o.X0),
		Y0: max32(r.Y0, o.Y0),
		X1: min32(r.X1, o.X1),
		Y1: min32(r.Y1, o.Y1),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// NonEmptyIntersection reports whether r and o overlap.
func (r Rect) NonEmptyIntersection(o Rect) bool {
	return !r.Intersection(o).Empty()
}

// Contains reports whether o is a subset of r (the P ⊆ B invariant of
// spec.md §8 is checked with this).
func (r Rect) Contains(o Rect) bool {
	if o.Empty() {
		return true
	}
	return o.X0 >= r.X0 && o.Y0 >= r.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// ceilDivPow2 computes ceil(a / 2^n) for a >= 0.
func ceilDivPow2(a int32, n uint8) int32 {
	return int32((int64(a) + (1 << n) - 1) >> n)
}

// floorDivPow2 computes floor(a / 2^n), including for negative a.
func floorDivPow2(a int32, n uint8) int32 {
	return int32(int64(a) >> n)
}

// ceilDiv computes ceil(a/b) for positive b.
func ceilDiv(a, b int32) int32 {
	return (a + b - 1) / b
}

// checkFits32 returns a GeometryOverflow error if v does not fit in an
// int32, per spec.md's "resolution dimension too large" failure mode.
func checkFits32(v int64, what string) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, jerr.Wrap(jerr.GeometryOverflow, fmt.Sprintf("%s overflows 32 bits: %d", what, v))
	}
	return int32(v), nil
}
