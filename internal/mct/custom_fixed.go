package mct

// fixedFracBits is the number of fractional bits a CustomMCTFixed matrix
// entry carries (spec.md §4.5: "K×K fixed-point matrix (reversible, 13
// fractional bits)").
const fixedFracBits = 13

// CustomMCTFixed is the reversible counterpart of CustomMCT: an arbitrary
// K×K matrix with entries expressed in Q(32-13).13 fixed point, premultiplied
// per sample with round-half-up shifting rather than floating point, so
// results are exactly reproducible across platforms.
type CustomMCTFixed struct {
	Forward       []int64 // row-major, each entry scaled by 1<<fixedFracBits
	Inverse       []int64
	NumComponents int
}

// NewCustomMCTFixed builds a fixed-point custom MCT from a float forward
// matrix, quantizing each entry to fixedFracBits fractional bits and
// computing the inverse in floating point before quantizing it too (the
// inverse itself need not be exact, only its application).
func NewCustomMCTFixed(forward []float64, numComponents int) *CustomMCTFixed {
	float := NewCustomMCT(forward, numComponents)
	return &CustomMCTFixed{
		Forward:       quantize(float.Forward),
		Inverse:       quantize(float.Inverse),
		NumComponents: numComponents,
	}
}

func quantize(m []float64) []int64 {
	out := make([]int64, len(m))
	scale := float64(int64(1) << fixedFracBits)
	for i, v := range m {
		if v >= 0 {
			out[i] = int64(v*scale + 0.5)
		} else {
			out[i] = int64(v*scale - 0.5)
		}
	}
	return out
}

// Apply runs the forward fixed-point transform over one sample per call;
// per-worker scratch (spec.md §4.5's "one scratch K-vector + one
// transformed K-vector per worker") is the caller's responsibility via
// the scratch/out parameters so no allocation happens per sample.
func (m *CustomMCTFixed) Apply(scratch, out []int32) {
	m.apply(m.Forward, scratch, out)
}

// ApplyInverse runs the inverse fixed-point transform.
func (m *CustomMCTFixed) ApplyInverse(scratch, out []int32) {
	m.apply(m.Inverse, scratch, out)
}

func (m *CustomMCTFixed) apply(matrix []int64, scratch, out []int32) {
	n := m.NumComponents
	half := int64(1) << (fixedFracBits - 1)
	for i := 0; i < n; i++ {
		var sum int64
		for j := 0; j < n; j++ {
			sum += matrix[i*n+j] * int64(scratch[j])
		}
		out[i] = int32((sum + half) >> fixedFracBits)
	}
}
