package entropy

import "github.com/mrjoshuak/go-jpeg2000/internal/simd"

// clearFlagsFast zeroes a T1Flags slice, unrolled to the CPU's detected
// lane width the same way internal/dwt and internal/mct dispatch their
// kernels, rather than via unlinkable per-arch assembly stubs.
func clearFlagsFast(flags []T1Flags) {
	lane := simd.Lanes32()
	i := 0
	for ; i+lane <= len(flags); i += lane {
		for l := 0; l < lane; l++ {
			flags[i+l] = 0
		}
	}
	for ; i < len(flags); i++ {
		flags[i] = 0
	}
}

// useSIMD reports whether the wide-kernel path is in use for entropy
// coding's bookkeeping arrays.
var useSIMD = simd.Lanes32() > 1
