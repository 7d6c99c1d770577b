package simd

import "testing"

func TestLanes32IsPowerOfTwoAndStable(t *testing.T) {
	ResetForTest()
	a := Lanes32()
	b := Lanes32()
	if a != b {
		t.Fatalf("Lanes32 not stable across calls: %d != %d", a, b)
	}
	if a < 1 {
		t.Fatalf("Lanes32 = %d, want >= 1", a)
	}
	if a&(a-1) != 0 {
		t.Fatalf("Lanes32 = %d, want a power of two", a)
	}
}
