package tcd

// Precinct is a rectangular grouping of code blocks within a band, with
// two tag trees (inclusion, insignificant-MSB) and a lazily materialized
// code-block array. Grounded on
// original_source/src/lib/jp2/t1/Precinct.h's Precinct/PrecinctImpl.
type Precinct struct {
	Rect
	Index int

	cblkExpnX, cblkExpnY uint8
	cblkGrid             Rect // in code-block-grid coordinates, not pixels

	InclTree *TagTree
	ImsbTree *TagTree

	isCompressor bool
	dec          *ChunkedArray[DecompressCodeblock]
	enc          *ChunkedArray[CompressCodeblock]
}

// NewPrecinct builds a precinct over bounds with code-block grid derived
// from the effective code-block exponents (cblkExpnX, cblkExpnY).
func NewPrecinct(bounds Rect, isCompressor bool, cblkExpnX, cblkExpnY uint8) *Precinct {
	grid := Rect{
		X0: floorDivPow2(bounds.X0, cblkExpnX),
		Y0: floorDivPow2(bounds.Y0, cblkExpnY),
		X1: ceilDivPow2(bounds.X1, cblkExpnX),
		Y1: ceilDivPow2(bounds.Y1, cblkExpnY),
	}
	return &Precinct{
		Rect:         bounds,
		isCompressor: isCompressor,
		cblkExpnX:    cblkExpnX,
		cblkExpnY:    cblkExpnY,
		cblkGrid:     grid,
	}
}

// CblkGridWidth/CblkGridHeight expose the code-block grid dimensions
// (pw, ph in spec.md §3's terms for a Resolution, cw/ch for a Precinct).
func (p *Precinct) CblkGridWidth() int32  { return p.cblkGrid.Width() }
func (p *Precinct) CblkGridHeight() int32 { return p.cblkGrid.Height() }

// NumCblks returns the number of code blocks in the precinct
// (cw*ch, spec.md §3's Precinct invariant).
func (p *Precinct) NumCblks() int64 { return p.cblkGrid.Area() }

// CodeBlockBounds returns the rectangle of code block cblkno: the
// intersection of its nominal 1<<expn square with the precinct, per
// spec.md §3's Precinct invariant.
func (p *Precinct) CodeBlockBounds(cblkno int64) Rect {
	w := p.cblkGrid.Width()
	if w == 0 {
		return Rect{}
	}
	gx := p.cblkGrid.X0 + int32(cblkno%int64(w))
	gy := p.cblkGrid.Y0 + int32(cblkno/int64(w))
	startX := gx << p.cblkExpnX
	startY := gy << p.cblkExpnY
	nominal := Rect{
		X0: startX,
		Y0: startY,
		X1: startX + (1 << p.cblkExpnX),
		Y1: startY + (1 << p.cblkExpnY),
	}
	return nominal.Intersection(p.Rect)
}

func (p *Precinct) initTagTrees() {
	gw, gh := int(p.cblkGrid.Width()), int(p.cblkGrid.Height())
	if gw <= 0 || gh <= 0 {
		return
	}
	if p.InclTree == nil {
		if t, err := NewTagTree(gw, gh); err == nil {
			p.InclTree = t
		}
	} else {
		p.InclTree.Init(gw, gh)
	}
	if p.ImsbTree == nil {
		if t, err := NewTagTree(gw, gh); err == nil {
			p.ImsbTree = t
		}
	} else {
		p.ImsbTree.Init(gw, gh)
	}
}

// DeleteTagTrees drops both tag trees, e.g. when a tile component is
// being torn down.
func (p *Precinct) DeleteTagTrees() {
	p.InclTree = nil
	p.ImsbTree = nil
}

func (p *Precinct) ensureDecompressArray() {
	if p.dec != nil {
		return
	}
	n := p.NumCblks()
	if n == 0 {
		return
	}
	p.dec = NewChunkedArray[DecompressCodeblock](uint64(n), func(cb *DecompressCodeblock, idx uint64) {
		cb.setRect(p.CodeBlockBounds(int64(idx)))
		cb.IncludedInLayer = maxInt
	})
	p.initTagTrees()
}

func (p *Precinct) ensureCompressArray() {
	if p.enc != nil {
		return
	}
	n := p.NumCblks()
	if n == 0 {
		return
	}
	p.enc = NewChunkedArray[CompressCodeblock](uint64(n), func(cb *CompressCodeblock, idx uint64) {
		cb.setRect(p.CodeBlockBounds(int64(idx)))
		cb.IncludedInLayer = maxInt
	})
	p.initTagTrees()
}

// DecompressedBlock returns (materializing on first access) the
// decompress code block at cblkno.
func (p *Precinct) DecompressedBlock(cblkno int64) *DecompressCodeblock {
	p.ensureDecompressArray()
	return p.dec.Get(uint64(cblkno))
}

// CompressedBlock returns (materializing on first access) the compress
// code block at cblkno.
func (p *Precinct) CompressedBlock(cblkno int64) *CompressCodeblock {
	p.ensureCompressArray()
	return p.enc.Get(uint64(cblkno))
}

// MaterializedBlockCount reports how many code blocks have actually been
// touched; used to verify lazy-materialization behavior in tests.
func (p *Precinct) MaterializedBlockCount() int {
	if p.isCompressor {
		if p.enc == nil {
			return 0
		}
		return p.enc.MaterializedCount()
	}
	if p.dec == nil {
		return 0
	}
	return p.dec.MaterializedCount()
}
