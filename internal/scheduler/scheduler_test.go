package scheduler

import (
	"context"
	"testing"

	"github.com/mrjoshuak/go-jpeg2000/internal/entropy"
	"github.com/mrjoshuak/go-jpeg2000/internal/tcd"
)

func newT1(width, height int) T1 {
	return entropy.NewT1(width, height)
}

func testParams(numRes int) tcd.CodingParams {
	return tcd.CodingParams{
		NumResolutions: numRes,
		CblkExpnW:      6,
		CblkExpnH:      6,
	}
}

// transportPackets copies every compress-side code block's Data/NumBps
// into the matching decompress-side code block, standing in for a
// t2 packet round trip so this test can exercise the scheduler in
// isolation from the packet codec.
func transportPackets(enc, dec *tcd.TileComponent) {
	for r, res := range enc.Resolutions {
		dres := dec.Resolutions[r]
		for b, band := range res.Bands {
			dband := dres.Bands[b]
			for p, prec := range band.Precincts {
				dprec := dband.Precincts[p]
				for cblkno := int64(0); cblkno < prec.NumCblks(); cblkno++ {
					src := prec.CompressedBlock(cblkno)
					dst := dprec.DecompressedBlock(cblkno)
					dst.Data = src.Data
					dst.NumBps = src.NumBps
				}
			}
		}
	}
}

func TestCompressDecompressRoundTripLossless(t *testing.T) {
	rect := tcd.Rect{X0: 0, Y0: 0, X1: 16, Y1: 16}
	cp := testParams(2)

	enc, err := tcd.NewTileComponent(true, true, rect, rect, 8, true, cp)
	if err != nil {
		t.Fatalf("NewTileComponent(encoder): %v", err)
	}

	want := make([]int32, 16*16)
	for i := range want {
		want[i] = int32(i%64) - 32
	}
	enc.SeedSamples(append([]int32(nil), want...))

	ctx := context.Background()
	sched := &Scheduler{NewT1: newT1}
	if err := sched.Compress(ctx, enc, 8); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	var sawData bool
	for _, res := range enc.Resolutions {
		for _, band := range res.Bands {
			for _, p := range band.Precincts {
				for cblkno := int64(0); cblkno < p.NumCblks(); cblkno++ {
					if p.CompressedBlock(cblkno).Data != nil {
						sawData = true
					}
				}
			}
		}
	}
	if !sawData {
		t.Fatal("Compress left every code block's Data nil")
	}

	dec, err := tcd.NewTileComponent(false, true, rect, rect, 8, true, cp)
	if err != nil {
		t.Fatalf("NewTileComponent(decoder): %v", err)
	}
	transportPackets(enc, dec)

	if err := sched.Decompress(ctx, dec, 8); err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	for i, w := range want {
		if dec.Coeffs[i] != w {
			t.Fatalf("sample %d: got %d, want %d", i, dec.Coeffs[i], w)
		}
	}
}

// TestCompressDecompressDeterministic runs the same tile component twice
// and checks the encoded code-block payloads are byte-identical, since
// nothing about Compress should depend on goroutine scheduling order.
func TestCompressDecompressDeterministic(t *testing.T) {
	rect := tcd.Rect{X0: 0, Y0: 0, X1: 32, Y1: 32}
	cp := testParams(3)
	samples := make([]int32, 32*32)
	for i := range samples {
		samples[i] = int32((i*37)%101) - 50
	}

	encodeOnce := func() [][]byte {
		tc, err := tcd.NewTileComponent(true, true, rect, rect, 8, true, cp)
		if err != nil {
			t.Fatalf("NewTileComponent: %v", err)
		}
		tc.SeedSamples(append([]int32(nil), samples...))
		sched := &Scheduler{Workers: 4, NewT1: newT1}
		if err := sched.Compress(context.Background(), tc, 8); err != nil {
			t.Fatalf("Compress: %v", err)
		}
		var payloads [][]byte
		for _, res := range tc.Resolutions {
			for _, band := range res.Bands {
				for _, p := range band.Precincts {
					for cblkno := int64(0); cblkno < p.NumCblks(); cblkno++ {
						payloads = append(payloads, p.CompressedBlock(cblkno).Data)
					}
				}
			}
		}
		return payloads
	}

	first := encodeOnce()
	second := encodeOnce()
	if len(first) != len(second) {
		t.Fatalf("code block count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Fatalf("block %d: payload length changed between runs: %d vs %d", i, len(first[i]), len(second[i]))
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("block %d byte %d: %x vs %x", i, j, first[i][j], second[i][j])
			}
		}
	}
}
