package tcd

import "fmt"

// CodingParams carries the per-component coding parameters a
// TileComponent needs to build its resolution/band/precinct lattice.
// Grounded on the teacher's codestream.CodingStyle plus the precinct and
// region-decode parameters the teacher never modeled.
type CodingParams struct {
	NumResolutions int

	// Nominal code-block size exponents (cblkw/cblkh in the original).
	CblkExpnW, CblkExpnH uint8

	// Precinct partition size exponents (pdx, pdy) per resolution. Must
	// have length NumResolutions, or be nil to request the maximum
	// precinct size (a single precinct per band).
	PrecinctExpnX, PrecinctExpnY []uint8

	// Irreversible selects the 9/7 float wavelet + ICT/DC-shift path;
	// false selects 5/3 integer + RCT.
	Irreversible bool

	// DCLevelShift is the coding parameter of the same name (spec.md §3),
	// already sign-flipped by the caller when used for compression.
	DCLevelShift int32

	ROIShift uint8
}

func (cp CodingParams) precinctExpn(res int) (uint8, uint8) {
	if cp.PrecinctExpnX == nil || res >= len(cp.PrecinctExpnX) {
		return 15, 15 // PPx/PPy == 15 is the standard's "one precinct" sentinel
	}
	return cp.PrecinctExpnX[res], cp.PrecinctExpnY[res]
}

// BandWindow is one LL/HL/LH/HH sub-band of a Resolution (spec.md §3).
type BandWindow struct {
	Orientation Orientation
	Rect        // band bounds, tile-component-local
	NumBps      int
	StepSize    float64
	Precincts   []*Precinct

	// PaddedWindow is the region-decode-padded window of spec.md §4.2;
	// equal to Rect for whole-tile decoding.
	PaddedWindow Rect
}

// Resolution is one dyadic level of the wavelet pyramid (spec.md §3).
type Resolution struct {
	Index int
	Rect  // resolution bounds, tile-component-local
	Bands []*BandWindow

	PrecinctsX, PrecinctsY int32
}

// TileComponent owns the resolution pyramid, the window/sparse sample
// buffers, and the region-decode machinery of spec.md §3–§4.2. All
// internal geometry (resolutions, bands, precincts, code blocks) is
// computed in a coordinate frame local to the tile component (its own
// Bounds translated to the origin); Bounds/Region are kept in the
// caller's original (unreduced, possibly non-zero-origin) coordinates for
// the public surface.
type TileComponent struct {
	Index     int
	IsEncoder bool
	WholeTile bool

	// Bounds and Region are as the caller supplied them (unreduced
	// tile-component rectangle and unreduced decode-window rectangle).
	Bounds, Region Rect

	Precision int
	Signed    bool
	Params    CodingParams
	Shift     ShiftInfo

	Resolutions                   []*Resolution
	HighestResolutionDecompressed int

	// Coeffs is the single flat buffer backing every resolution's LL/HL/
	// LH/HH samples, sized to the finest decoded resolution and indexed
	// in tile-component-local coordinates. See bandOffset for the
	// subband-quadrant layout within it.
	Coeffs  []int32
	CoeffsF []float64 // scratch for the 9/7 irreversible path

	Window *WindowBuffer
	Sparse *SparseBuffer
}

// NewTileComponent builds the resolution/band/precinct lattice for a
// tile component. unreducedRect and region are in the same (canvas or
// tile, caller's choice) coordinate system; only their relative
// geometry matters.
func NewTileComponent(isEncoder, wholeTile bool, unreducedRect, region Rect, precision int, signed bool, cp CodingParams) (*TileComponent, error) {
	if cp.NumResolutions < 1 {
		return nil, fmt.Errorf("tcd: numResolutions must be >= 1, got %d", cp.NumResolutions)
	}
	w, err := checkFits32(int64(unreducedRect.X1)-int64(unreducedRect.X0), "tile-component width")
	if err != nil {
		return nil, err
	}
	h, err := checkFits32(int64(unreducedRect.Y1)-int64(unreducedRect.Y0), "tile-component height")
	if err != nil {
		return nil, err
	}

	tc := &TileComponent{
		Index:     0,
		IsEncoder: isEncoder,
		WholeTile: wholeTile,
		Bounds:    unreducedRect,
		Region:    region,
		Precision: precision,
		Signed:    signed,
		Params:    cp,
		Shift:     NewShiftInfo(precision, signed, cp.DCLevelShift),
	}

	localFull := Rect{0, 0, w, h}
	localRegion := tc.toLocal(region)
	if wholeTile {
		localRegion = localFull
	}

	tc.Resolutions = make([]*Resolution, cp.NumResolutions)
	for r := 0; r < cp.NumResolutions; r++ {
		res, err := tc.buildResolution(localFull, localRegion, r)
		if err != nil {
			return nil, err
		}
		tc.Resolutions[r] = res
	}
	tc.HighestResolutionDecompressed = cp.NumResolutions - 1

	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	tc.Coeffs = make([]int32, finest.Area())

	if wholeTile {
		tc.Window = NewWindowBuffer(finest)
	} else {
		windowBounds := finest.Intersection(localRegion)
		tc.Window = NewWindowBuffer(windowBounds)
		tc.Sparse = NewSparseBuffer(6, 6) // 64x64 sub-tiles
	}

	return tc, nil
}

// toLocal translates an unreduced rectangle into this tile component's
// local coordinate frame (relative to Bounds.X0,Y0).
func (tc *TileComponent) toLocal(r Rect) Rect {
	inter := r.Intersection(tc.Bounds)
	if inter.Empty() {
		return Rect{}
	}
	return Rect{
		X0: inter.X0 - tc.Bounds.X0,
		Y0: inter.Y0 - tc.Bounds.Y0,
		X1: inter.X1 - tc.Bounds.X0,
		Y1: inter.Y1 - tc.Bounds.Y0,
	}
}

func (tc *TileComponent) buildResolution(localFull, localRegion Rect, r int) (*Resolution, error) {
	scale := uint8(tc.Params.NumResolutions - 1 - r)
	rect := Rect{
		X0: floorDivPow2(localFull.X0, scale),
		Y0: floorDivPow2(localFull.Y0, scale),
		X1: ceilDivPow2(localFull.X1, scale),
		Y1: ceilDivPow2(localFull.Y1, scale),
	}
	res := &Resolution{Index: r, Rect: rect}

	var orientations []Orientation
	if r == 0 {
		orientations = []Orientation{BandLL}
	} else {
		orientations = []Orientation{BandHL, BandLH, BandHH}
	}

	pdx, pdy := tc.Params.precinctExpn(r)
	bandPdx, bandPdy := pdx, pdy
	if r > 0 {
		if bandPdx > 0 {
			bandPdx--
		}
		if bandPdy > 0 {
			bandPdy--
		}
	}

	var prevRes Rect
	if r > 0 {
		prevRes = tc.Resolutions[r-1].Rect
	}

	for _, o := range orientations {
		band, err := tc.buildBand(res, o, prevRes, bandPdx, bandPdy)
		if err != nil {
			return nil, err
		}
		res.Bands = append(res.Bands, band)
	}

	for _, band := range res.Bands {
		band.PaddedWindow = tc.paddedBandWindow(res, band, localRegion)
	}

	return res, nil
}

func (tc *TileComponent) buildBand(res *Resolution, o Orientation, prevRes Rect, bandPdx, bandPdy uint8) (*BandWindow, error) {
	var rect Rect
	switch o {
	case BandLL:
		rect = res.Rect
	case BandHL:
		rect = Rect{res.Rect.X0 + prevRes.Width(), res.Rect.Y0, res.Rect.X1, res.Rect.Y0 + prevRes.Height()}
	case BandLH:
		rect = Rect{res.Rect.X0, res.Rect.Y0 + prevRes.Height(), res.Rect.X0 + prevRes.Width(), res.Rect.Y1}
	case BandHH:
		rect = Rect{res.Rect.X0 + prevRes.Width(), res.Rect.Y0 + prevRes.Height(), res.Rect.X1, res.Rect.Y1}
	}

	band := &BandWindow{Orientation: o, Rect: rect, NumBps: 0, StepSize: 1.0}

	cbgw := int32(1) << bandPdx
	cbgh := int32(1) << bandPdy
	if rect.Empty() || cbgw == 0 || cbgh == 0 {
		return band, nil
	}

	gridX0 := floorDivPow2(rect.X0, bandPdx)
	gridY0 := floorDivPow2(rect.Y0, bandPdy)
	gridX1 := ceilDivPow2(rect.X1, bandPdx)
	gridY1 := ceilDivPow2(rect.Y1, bandPdy)
	pw := gridX1 - gridX0
	ph := gridY1 - gridY0
	res.PrecinctsX, res.PrecinctsY = pw, ph

	effCblkExpnX := minU8(tc.Params.CblkExpnW, bandPdx)
	effCblkExpnY := minU8(tc.Params.CblkExpnH, bandPdy)

	band.Precincts = make([]*Precinct, 0, pw*ph)
	idx := 0
	for py := int32(0); py < ph; py++ {
		for px := int32(0); px < pw; px++ {
			x0 := (gridX0 + px) * cbgw
			y0 := (gridY0 + py) * cbgh
			nominal := Rect{x0, y0, x0 + cbgw, y0 + cbgh}
			prect := nominal.Intersection(rect)
			p := NewPrecinct(prect, tc.IsEncoder, effCblkExpnX, effCblkExpnY)
			p.Index = idx
			band.Precincts = append(band.Precincts, p)
			idx++
		}
	}
	return band, nil
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// paddedBandWindow derives the region-decode-padded window of spec.md
// §4.2: the intersection of the region with the tile component, mapped
// through the remaining decompositions (ITU-T.801 eq. B-15), then grown
// by the wavelet filter margin.
func (tc *TileComponent) paddedBandWindow(res *Resolution, band *BandWindow, localRegion Rect) Rect {
	if tc.WholeTile {
		return band.Rect
	}
	levelNo := uint8(tc.Params.NumResolutions - 1 - res.Index)
	x0b := band.Orientation.x0b()
	y0b := band.Orientation.y0b()

	rx0 := floorDivPow2(localRegion.X0-(x0b<<levelNo), levelNo+1)
	ry0 := floorDivPow2(localRegion.Y0-(y0b<<levelNo), levelNo+1)
	rx1 := ceilDivPow2(localRegion.X1-(x0b<<levelNo), levelNo+1)
	ry1 := ceilDivPow2(localRegion.Y1-(y0b<<levelNo), levelNo+1)

	margin := int32(2)
	if tc.Params.Irreversible {
		margin = 3
	}
	return Rect{rx0 - margin, ry0 - margin, rx1 + margin, ry1 + margin}
}

// DepositBlock writes a decoded code block's coefficients into tc.Coeffs
// at its band-relative position, then releases the block's own transient
// plane (spec.md §3 lifecycle note).
func (tc *TileComponent) DepositBlock(r int, o Orientation, cb *DecompressCodeblock) {
	if cb.Coeffs == nil {
		return
	}
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride := finest.Width()
	bw := cb.Rect.Width()
	bh := cb.Rect.Height()
	for y := int32(0); y < bh; y++ {
		srcRow := cb.Coeffs[y*bw : y*bw+bw]
		dstY := cb.Rect.Y0 - finest.Y0 + y
		dstBase := dstY*stride + (cb.Rect.X0 - finest.X0)
		copy(tc.Coeffs[dstBase:dstBase+bw], srcRow)
	}
	cb.ReleaseCoeffs()
}

// CoeffsWindow returns the sub-slice of tc.Coeffs (plus its stride)
// covering rect, a band-local or resolution-local rectangle already
// expressed in the coefficient buffer's coordinate frame.
func (tc *TileComponent) CoeffsWindow(rect Rect) (data []int32, stride int32) {
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride = finest.Width()
	base := (rect.Y0-finest.Y0)*stride + (rect.X0 - finest.X0)
	return tc.Coeffs[base:], stride
}

// EnsureCoeffsF allocates the float64 coefficient plane used by the 9/7
// irreversible path, sized identically to tc.Coeffs.
func (tc *TileComponent) EnsureCoeffsF() {
	if tc.CoeffsF == nil {
		tc.CoeffsF = make([]float64, len(tc.Coeffs))
	}
}

// DepositBlockFloat is DepositBlock's irreversible counterpart: the
// caller supplies the block's dequantized float samples (spec.md §4.5's
// quantization step size is a T2-adjacent, out-of-scope concern; the
// scheduler dequantizes with the band's StepSize before calling this).
func (tc *TileComponent) DepositBlockFloat(cb *DecompressCodeblock, samples []float64) {
	tc.EnsureCoeffsF()
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride := finest.Width()
	bw := cb.Rect.Width()
	bh := cb.Rect.Height()
	for y := int32(0); y < bh; y++ {
		srcRow := samples[y*bw : y*bw+bw]
		dstY := cb.Rect.Y0 - finest.Y0 + y
		dstBase := dstY*stride + (cb.Rect.X0 - finest.X0)
		copy(tc.CoeffsF[dstBase:dstBase+bw], srcRow)
	}
}

// CoeffsFWindow is CoeffsWindow's float64 counterpart.
func (tc *TileComponent) CoeffsFWindow(rect Rect) (data []float64, stride int32) {
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride = finest.Width()
	base := (rect.Y0-finest.Y0)*stride + (rect.X0 - finest.X0)
	return tc.CoeffsF[base:], stride
}

// SeedSamples copies the component's full-resolution, already
// DC-shifted/MCT'd spatial samples into tc.Coeffs, ready for the
// compress scheduler's finest-to-coarsest forward wavelet passes
// (spec.md §4.8). samples must be exactly len(tc.Coeffs) long, in the
// finest resolution's row-major tile-component-local order.
func (tc *TileComponent) SeedSamples(samples []int32) {
	copy(tc.Coeffs, samples)
}

// SeedSamplesFloat is SeedSamples's irreversible counterpart.
func (tc *TileComponent) SeedSamplesFloat(samples []float64) {
	tc.EnsureCoeffsF()
	copy(tc.CoeffsF, samples)
}

// ExtractBlock reads a compress-side code block's window back out of
// tc.Coeffs, the mirror image of DepositBlock's write. Called once the
// forward wavelet pass that produced cb's band has run.
func (tc *TileComponent) ExtractBlock(cb *CompressCodeblock) []int32 {
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride := finest.Width()
	bw := cb.Rect.Width()
	bh := cb.Rect.Height()
	out := make([]int32, bw*bh)
	for y := int32(0); y < bh; y++ {
		srcY := cb.Rect.Y0 - finest.Y0 + y
		srcBase := srcY*stride + (cb.Rect.X0 - finest.X0)
		copy(out[y*bw:y*bw+bw], tc.Coeffs[srcBase:srcBase+bw])
	}
	return out
}

// ExtractBlockFloat is ExtractBlock's irreversible counterpart,
// returning undequantized transform coefficients; the caller quantizes
// with the band's StepSize before T1 encoding.
func (tc *TileComponent) ExtractBlockFloat(cb *CompressCodeblock) []float64 {
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride := finest.Width()
	bw := cb.Rect.Width()
	bh := cb.Rect.Height()
	out := make([]float64, bw*bh)
	for y := int32(0); y < bh; y++ {
		srcY := cb.Rect.Y0 - finest.Y0 + y
		srcBase := srcY*stride + (cb.Rect.X0 - finest.X0)
		copy(out[y*bw:y*bw+bw], tc.CoeffsF[srcBase:srcBase+bw])
	}
	return out
}
