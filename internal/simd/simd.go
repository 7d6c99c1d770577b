// Package simd selects a lane width for the multi-target kernels used by
// internal/dwt and internal/mct, based on the widest vector ISA the cpuid
// package reports for the running CPU.
//
// There is no hand-written assembly here: the "vector" backends are plain
// Go loops unrolled to the detected lane width. They exist to give the
// scheduler a real dispatch decision (scalar vs. wide) to make at runtime,
// the way spec.md §4.5 describes, without depending on unlinkable
// go:noescape stubs.
package simd

import (
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Lanes32 is the number of int32/float32 lanes the wide kernels should
// process together. It is computed once, lazily, and cached.
var (
	lanesOnce sync.Once
	lanes32   int
)

// Lanes32 returns the detected lane width for 32-bit element kernels.
// It is always >= 1 (1 means "no usable vector ISA, use the scalar path").
func Lanes32() int {
	lanesOnce.Do(func() {
		lanes32 = detectLanes32()
	})
	return lanes32
}

func detectLanes32() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return 16
	case cpuid.CPU.Supports(cpuid.AVX2):
		return 8
	case cpuid.CPU.Supports(cpuid.AVX):
		return 8
	case cpuid.CPU.Supports(cpuid.SSE2):
		return 4
	case cpuid.CPU.Supports(cpuid.ASIMD):
		return 4
	default:
		return 1
	}
}

// ResetForTest forces re-detection on the next Lanes32 call. Test-only.
func ResetForTest() {
	lanesOnce = sync.Once{}
}
