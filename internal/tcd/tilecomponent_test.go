package tcd

import "testing"

func baseParams(numRes int) CodingParams {
	return CodingParams{
		NumResolutions: numRes,
		CblkExpnW:      6,
		CblkExpnH:      6,
		DCLevelShift:   128,
	}
}

func TestTileComponentPrecinctSubsetOfBand(t *testing.T) {
	rect := Rect{0, 0, 257, 193}
	tc, err := NewTileComponent(false, true, rect, rect, 8, false, baseParams(4))
	if err != nil {
		t.Fatalf("NewTileComponent: %v", err)
	}
	for _, res := range tc.Resolutions {
		for _, band := range res.Bands {
			for _, p := range band.Precincts {
				if !band.Rect.Contains(p.Rect) {
					t.Fatalf("res %d band %s: precinct %+v not contained in band %+v", res.Index, band.Orientation, p.Rect, band.Rect)
				}
			}
		}
	}
}

func TestTileComponentCodeBlockCountMatchesGrid(t *testing.T) {
	rect := Rect{0, 0, 130, 130}
	tc, err := NewTileComponent(false, true, rect, rect, 8, false, baseParams(2))
	if err != nil {
		t.Fatalf("NewTileComponent: %v", err)
	}
	for _, res := range tc.Resolutions {
		for _, band := range res.Bands {
			for _, p := range band.Precincts {
				want := p.CblkGridWidth() * p.CblkGridHeight()
				if int64(want) != p.NumCblks() {
					t.Fatalf("band %s precinct %d: grid %dx%d != NumCblks %d", band.Orientation, p.Index, p.CblkGridWidth(), p.CblkGridHeight(), p.NumCblks())
				}
				for i := int64(0); i < p.NumCblks(); i++ {
					cb := p.CodeBlockBounds(i)
					if !p.Rect.Contains(cb) {
						t.Fatalf("band %s precinct %d block %d: %+v not contained in precinct %+v", band.Orientation, p.Index, i, cb, p.Rect)
					}
				}
			}
		}
	}
}

func TestPaddedWindowIsSupersetOfBandRegion(t *testing.T) {
	rect := Rect{0, 0, 512, 512}
	region := Rect{100, 100, 300, 300}
	tc, err := NewTileComponent(false, false, rect, region, 8, false, baseParams(5))
	if err != nil {
		t.Fatalf("NewTileComponent: %v", err)
	}
	for _, res := range tc.Resolutions {
		for _, band := range res.Bands {
			if band.PaddedWindow.Width() < 0 || band.PaddedWindow.Height() < 0 {
				t.Fatalf("res %d band %s: negative padded window %+v", res.Index, band.Orientation, band.PaddedWindow)
			}
		}
	}
}

func TestWholeTileWindowCoversFinestResolution(t *testing.T) {
	rect := Rect{0, 0, 64, 64}
	tc, err := NewTileComponent(false, true, rect, rect, 8, false, baseParams(3))
	if err != nil {
		t.Fatalf("NewTileComponent: %v", err)
	}
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	if tc.Window.Bounds() != finest {
		t.Fatalf("window bounds %+v != finest resolution rect %+v", tc.Window.Bounds(), finest)
	}
}

func TestDepositBlockWritesIntoCoeffs(t *testing.T) {
	rect := Rect{0, 0, 32, 32}
	tc, err := NewTileComponent(false, true, rect, rect, 8, false, baseParams(1))
	if err != nil {
		t.Fatalf("NewTileComponent: %v", err)
	}
	res := tc.Resolutions[0]
	band := res.Bands[0]
	if len(band.Precincts) == 0 {
		t.Fatal("expected at least one precinct")
	}
	p := band.Precincts[0]
	cb := p.DecompressedBlock(0)
	bw := cb.Rect.Width()
	bh := cb.Rect.Height()
	cb.Coeffs = make([]int32, bw*bh)
	for i := range cb.Coeffs {
		cb.Coeffs[i] = int32(i + 1)
	}
	tc.DepositBlock(0, BandLL, cb)
	if cb.Coeffs != nil {
		t.Fatal("expected DepositBlock to release the block's coefficient plane")
	}
	data, stride := tc.CoeffsWindow(cb.Rect)
	if data[0] != 1 || (bw > 1 && data[1] != 2) {
		n := 4
		if len(data) < n {
			n = len(data)
		}
		t.Fatalf("coefficients not deposited at expected offsets, stride=%d data[:4]=%v", stride, data[:n])
	}
}
