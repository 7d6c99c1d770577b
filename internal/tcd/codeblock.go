package tcd

// Orientation identifies a sub-band within a resolution.
type Orientation int

const (
	BandLL Orientation = iota
	BandHL
	BandLH
	BandHH
)

func (o Orientation) String() string {
	switch o {
	case BandLL:
		return "LL"
	case BandHL:
		return "HL"
	case BandLH:
		return "LH"
	case BandHH:
		return "HH"
	default:
		return "?"
	}
}

// x0b/y0b parity offsets per orientation, used both for subband geometry
// and for the ITU-T.801 eq. B-15 padded-window mapping.
func (o Orientation) x0b() int32 {
	if o == BandHL || o == BandHH {
		return 1
	}
	return 0
}

func (o Orientation) y0b() int32 {
	if o == BandLH || o == BandHH {
		return 1
	}
	return 0
}

// GainB is the per-orientation gain table used to derive a code block's
// R_b (bit-depth for distortion estimation), carried through the scheduler
// even though T1 itself is out of scope. Grounded on
// original_source/src/lib/jp2/scheduling/DecompressScheduler.cpp's
// `gain_b` table.
var GainB = [4]uint8{0, 1, 1, 2}

// DecompressCodeblock is the decompress-side variant of spec.md §3's
// Codeblock: a rectangle, significant-bit-plane count, compressed payload,
// and a transient decoded-coefficient plane allocated on first decode.
type DecompressCodeblock struct {
	Rect
	NumBps int

	// Data is the compressed payload deposited by the (external) T2
	// packet parser.
	Data []byte

	// Coeffs is allocated on first decode; released after the color
	// transform writes results to the window buffer (spec.md §3
	// lifecycle note).
	Coeffs []int32

	// ROIShift and RB are not filled in by the scheduler, which keeps its
	// own per-block roiShift and R_b values in its block-exec records;
	// these fields stay zero unless a caller sets them.
	ROIShift uint8
	RB       uint8

	// IncludedInLayer is the quality layer this block was first included
	// in, per spec.md §4.1's packet-header inclusion tag tree; maxInt
	// until a packet decode sets it.
	IncludedInLayer int
}

func (c *DecompressCodeblock) nonEmpty() bool {
	return !c.Rect.Empty() || c.Data != nil || c.Coeffs != nil
}

func (c *DecompressCodeblock) setRect(r Rect) {
	c.Rect = r
}

// ReleaseCoeffs drops the decoded-coefficient plane once it has been
// consumed by the wavelet/MCT stages.
func (c *DecompressCodeblock) ReleaseCoeffs() {
	c.Coeffs = nil
}

// CompressCodeblock is the compress-side variant.
type CompressCodeblock struct {
	Rect
	NumBps int
	Data   []byte
	Coeffs []int32

	IncludedInLayer int
}

func (c *CompressCodeblock) nonEmpty() bool {
	return !c.Rect.Empty() || c.Data != nil || c.Coeffs != nil
}

func (c *CompressCodeblock) setRect(r Rect) {
	c.Rect = r
}
