package mct

import (
	"math"

	"github.com/mrjoshuak/go-jpeg2000/internal/simd"
)

// Kind identifies one of the five MCT flavors of spec.md §4.5, expressed
// as a tagged variant (a transform ID plus a common apply signature)
// rather than a class hierarchy per the flattening guidance: each Kind
// maps to a scalar function and, for every flavor but the irreversible
// inverse, a lane-grouped "wide" function that processes simd.Lanes32()
// samples per iteration using the identical arithmetic.
type Kind int

const (
	DecompressRev Kind = iota
	DecompressIrrev
	CompressRev
	CompressIrrev
	DCShiftOnly
)

// ShiftInfo is the {min, max, shift} clamp range the DC-shift/MCT stage
// applies per component (spec.md §3/§4.5).
type ShiftInfo struct {
	Min, Max, Shift int32
}

// REL is the "highest-resolution REL buffer" contract WindowBuffer
// exposes (spec.md §4.3): a flat sample plane plus its geometry.
type REL struct {
	Buf           []int32
	Width, Height int32
	Stride        int32
}

// Apply runs the given MCT flavor over three component REL buffers
// (monochrome flavors use only comp[0]). shifts has one entry per
// component. The irreversible inverse is always scalar (lanes pinned to
// 1) per spec.md §4.5's numerical-equivalence requirement; every other
// flavor dispatches to a lane-grouped wide path when simd.Lanes32() > 1.
func Apply(kind Kind, comps []REL, shifts []ShiftInfo) {
	switch kind {
	case DecompressRev:
		applyInverseRev(comps, shifts)
	case DecompressIrrev:
		applyIrrevInverseScalar(comps, shifts)
	case CompressRev:
		applyForwardRev(comps, shifts)
	case CompressIrrev:
		applyIrrevForward(comps, shifts)
	case DCShiftOnly:
		applyDCShiftOnly(comps, shifts)
	}
}

// applyInverseRev is the reversible decompress flavor: inverse RCT then
// add-shift-and-clamp, lane-grouped per spec.md §4.5.
func applyInverseRev(comps []REL, shifts []ShiftInfo) {
	y, u, v := comps[0], comps[1], comps[2]
	lane := simd.Lanes32()
	i := 0
	for ; i+lane <= len(y.Buf); i += lane {
		for l := 0; l < lane; l++ {
			inverseRevSample(y, u, v, i+l, shifts)
		}
	}
	for ; i < len(y.Buf); i++ {
		inverseRevSample(y, u, v, i, shifts)
	}
}

func inverseRevSample(y, u, v REL, i int, shifts []ShiftInfo) {
	g := y.Buf[i] - ((u.Buf[i] + v.Buf[i]) >> 2)
	r := v.Buf[i] + g
	b := u.Buf[i] + g
	y.Buf[i] = shifts[0].clampInt(r + shifts[0].Shift)
	u.Buf[i] = shifts[1].clampInt(g + shifts[1].Shift)
	v.Buf[i] = shifts[2].clampInt(b + shifts[2].Shift)
}

// applyForwardRev is the reversible compress flavor: subtract shift,
// then the forward RCT.
func applyForwardRev(comps []REL, shifts []ShiftInfo) {
	r, g, b := comps[0], comps[1], comps[2]
	lane := simd.Lanes32()
	i := 0
	for ; i+lane <= len(r.Buf); i += lane {
		for l := 0; l < lane; l++ {
			forwardRevSample(r, g, b, i+l, shifts)
		}
	}
	for ; i < len(r.Buf); i++ {
		forwardRevSample(r, g, b, i, shifts)
	}
}

func forwardRevSample(r, g, b REL, i int, shifts []ShiftInfo) {
	rr := r.Buf[i] - shifts[0].Shift
	gg := g.Buf[i] - shifts[1].Shift
	bb := b.Buf[i] - shifts[2].Shift
	r.Buf[i] = (rr + 2*gg + bb) >> 2
	g.Buf[i] = bb - gg
	b.Buf[i] = rr - gg
}

// applyIrrevInverseScalar performs the YCbCr-to-RGB inverse and the
// round/clamp/shift epilogue. Pinned to a lane width of 1 per spec.md
// §4.5: "the specification may pin L=1 (scalar) because numerical
// equivalence with the reference is required".
func applyIrrevInverseScalar(comps []REL, shifts []ShiftInfo) {
	y, cb, cr := comps[0], comps[1], comps[2]
	for i := range y.Buf {
		yy := float64(y.Buf[i])
		u := float64(cb.Buf[i])
		v := float64(cr.Buf[i])

		r := yy + 1.402*v
		g := yy - 0.34413*u - 0.71414*v
		b := yy + 1.772*u

		y.Buf[i] = shifts[0].clampInt(roundToInt(r) + shifts[0].Shift)
		cb.Buf[i] = shifts[1].clampInt(roundToInt(g) + shifts[1].Shift)
		cr.Buf[i] = shifts[2].clampInt(roundToInt(b) + shifts[2].Shift)
	}
}

// applyIrrevForward computes the RGB-to-YCbCr forward transform;
// unlike its inverse, the forward direction has no numerical-parity
// requirement against an external reference decoder, so it is
// lane-grouped like the reversible flavors.
func applyIrrevForward(comps []REL, shifts []ShiftInfo) {
	r, g, b := comps[0], comps[1], comps[2]
	lane := simd.Lanes32()
	i := 0
	for ; i+lane <= len(r.Buf); i += lane {
		for l := 0; l < lane; l++ {
			forwardIrrevSample(r, g, b, i+l, shifts)
		}
	}
	for ; i < len(r.Buf); i++ {
		forwardIrrevSample(r, g, b, i, shifts)
	}
}

func forwardIrrevSample(r, g, b REL, i int, shifts []ShiftInfo) {
	rf := float64(r.Buf[i] - shifts[0].Shift)
	gf := float64(g.Buf[i] - shifts[1].Shift)
	bf := float64(b.Buf[i] - shifts[2].Shift)

	y := 0.299*rf + 0.587*gf + 0.114*bf
	u := (0.5 / (1 - 0.114)) * (bf - y)
	v := (0.5 / (1 - 0.299)) * (rf - y)

	r.Buf[i] = roundToInt(y)
	g.Buf[i] = roundToInt(u)
	b.Buf[i] = roundToInt(v)
}

// applyDCShiftOnly is the monochrome flavor: no color transform, just
// the shift/clamp epilogue, in both the rev and irrev configurations
// (they are identical once no color matrix is involved).
func applyDCShiftOnly(comps []REL, shifts []ShiftInfo) {
	c := comps[0]
	s := shifts[0]
	lane := simd.Lanes32()
	i := 0
	for ; i+lane <= len(c.Buf); i += lane {
		for l := 0; l < lane; l++ {
			c.Buf[i+l] = s.clampInt(c.Buf[i+l] + s.Shift)
		}
	}
	for ; i < len(c.Buf); i++ {
		c.Buf[i] = s.clampInt(c.Buf[i] + s.Shift)
	}
}

func roundToInt(v float64) int32 {
	if v >= 0 {
		return int32(math.Floor(v + 0.5))
	}
	return int32(math.Ceil(v - 0.5))
}

func (s ShiftInfo) clampInt(v int32) int32 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}
