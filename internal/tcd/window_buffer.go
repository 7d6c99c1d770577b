package tcd

// WindowBuffer maps tile-component-local coordinates to a contiguous
// sample array for the final, highest-resolution view spec.md §4.3
// describes. The MCT/DC-shift stage's only contract with it is
// HighestREL.
type WindowBuffer struct {
	bounds Rect // tile-component-local rectangle this buffer covers
	data   []int32
}

// NewWindowBuffer allocates a window buffer covering bounds (already in
// tile-component-local coordinates, i.e. relative to the tile
// component's own origin).
func NewWindowBuffer(bounds Rect) *WindowBuffer {
	n := bounds.Area()
	return &WindowBuffer{bounds: bounds, data: make([]int32, n)}
}

// Bounds returns the rectangle this buffer covers.
func (w *WindowBuffer) Bounds() Rect { return w.bounds }

// HighestREL returns the buffer, width, height and stride of the
// reassembled highest-resolution view, the single contract the MCT/DC
// shift stage needs (spec.md §4.3).
func (w *WindowBuffer) HighestREL() (buf []int32, width, height, stride int32) {
	return w.data, w.bounds.Width(), w.bounds.Height(), w.bounds.Width()
}

// At returns the sample at tile-component-local (x,y).
func (w *WindowBuffer) At(x, y int32) int32 {
	idx := (y-w.bounds.Y0)*w.bounds.Width() + (x - w.bounds.X0)
	return w.data[idx]
}

// Set stores the sample at tile-component-local (x,y).
func (w *WindowBuffer) Set(x, y int32, v int32) {
	idx := (y-w.bounds.Y0)*w.bounds.Width() + (x - w.bounds.X0)
	w.data[idx] = v
}
