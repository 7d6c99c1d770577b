// Package scheduler is the central orchestrator of spec.md §4.7/§4.8:
// it enumerates code blocks, groups them by resolution, builds the
// per-component task-graph DAG (internal/flow), and dispatches T1 decode/
// encode and wavelet tasks over a bounded worker pool. Grounded on
// original_source/src/lib/jp2/scheduling/DecompressScheduler.cpp.
package scheduler

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mrjoshuak/go-jpeg2000/internal/dwt"
	"github.com/mrjoshuak/go-jpeg2000/internal/flow"
	"github.com/mrjoshuak/go-jpeg2000/internal/jerr"
	"github.com/mrjoshuak/go-jpeg2000/internal/mct"
	"github.com/mrjoshuak/go-jpeg2000/internal/taskgraph"
	"github.com/mrjoshuak/go-jpeg2000/internal/tcd"
)

// T1 is the pluggable entropy coder contract the scheduler depends on;
// internal/entropy's T1 satisfies it. Kept minimal and decoupled from
// entropy's pooling/flag internals, since T1 itself is out of scope for
// this package.
type T1 interface {
	Resize(width, height int)
	SetData(data []int32)
	Decode(data []byte, numBPS int, bandType int) []int32
	Encode(bandType int) []byte
}

// T1Factory builds a worker-local T1 implementation sized for the
// nominal code-block dimensions, per spec.md §4.7 step 4 ("one per
// worker thread... from a factory parameterized by code-block width/
// height").
type T1Factory func(width, height int) T1

// gainB is the per-orientation gain table used to derive R_b, carried
// through from original_source/DecompressScheduler.cpp's gain_b.
var gainB = tcd.GainB

// decompressBlockExec mirrors the original's DecompressBlockExec
// descriptor (spec.md §4.7 step 1).
type decompressBlockExec struct {
	resNo           int
	bandIndex       int
	bandOrientation tcd.Orientation
	bandNumBps      int
	precinct        *tcd.Precinct
	cblkno          int64
	roiShift        uint8
	stepSize        float64
	rB              uint8
}

type resGroup struct {
	resNo          int // the resolution this group's wavelet step reconstructs into (0 if no wavelet)
	blocks         []decompressBlockExec
	waveletEnabled bool
}

// Scheduler runs the decompress or compress DAG for one tile component
// at a time; Workers bounds concurrent code-block tasks (spec.md §5's
// "fixed number of threads W").
type Scheduler struct {
	Workers int
	NewT1   T1Factory
}

func (s *Scheduler) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Decompress runs the full decompress pipeline for one tile component:
// block enumeration, T1 decode, inverse wavelet, per spec.md §4.7. precision
// is the component's bit depth, used to derive R_b per code block.
func (s *Scheduler) Decompress(ctx context.Context, tc *tcd.TileComponent, precision int) error {
	groups := enumerateDecompressGroups(tc, precision)
	if len(groups) == 0 {
		return nil
	}

	icf := flow.NewImageComponentFlow(tc.HighestResolutionDecompressed + 1)
	if !tc.WholeTile {
		icf.SetRegionDecompression(func(ctx context.Context) error {
			regionLocal := tc.Window.Bounds()
			tc.Sparse.CopyToWindow(tc.Window, regionLocal)
			return nil
		})
	}

	sem := semaphore.NewWeighted(int64(s.workers()))

	for i, group := range groups {
		rf := icf.ResFlowAt(i)
		if rf == nil {
			continue
		}
		grp := group
		rf.SetBlocks(func(ctx context.Context) error {
			return s.runDecompressBlocks(ctx, tc, grp, sem)
		})
		rf.SetWaveletHoriz(func(ctx context.Context) error { return nil })
		rf.SetWaveletVert(func(ctx context.Context) error {
			if !grp.waveletEnabled {
				return nil
			}
			return s.runInverseWavelet(tc, grp.resNo)
		})
	}

	g := taskgraph.NewGraph()
	icf.Build(g)
	if err := g.Run(ctx); err != nil {
		return err
	}
	if !g.Success() {
		return jerr.Wrap(jerr.T1DecodeFailed, "tile component decompress")
	}
	return nil
}

// enumerateDecompressGroups walks resolutions/bands/precincts/blocks in
// the order of spec.md §4.7 step 1, skipping anything disjoint from the
// padded band window during region decoding, and groups them per step 2
// (lowest two resolutions combined, every subsequent resolution alone) —
// exactly original_source/DecompressScheduler.cpp's scheduleBlocks loop.
func enumerateDecompressGroups(tc *tcd.TileComponent, precision int) []resGroup {
	var groups []resGroup
	var current resGroup
	current.waveletEnabled = true

	for resno := 0; resno <= tc.HighestResolutionDecompressed; resno++ {
		res := tc.Resolutions[resno]
		for bandIndex, band := range res.Bands {
			for _, p := range band.Precincts {
				if !tc.WholeTile && !band.PaddedWindow.NonEmptyIntersection(p.Rect) {
					continue
				}
				for cblkno := int64(0); cblkno < p.NumCblks(); cblkno++ {
					bounds := p.CodeBlockBounds(cblkno)
					if !tc.WholeTile && !band.PaddedWindow.NonEmptyIntersection(bounds) {
						continue
					}
					cb := p.DecompressedBlock(cblkno)
					if cb.Data == nil {
						continue
					}
					current.blocks = append(current.blocks, decompressBlockExec{
						resNo:           resno,
						bandIndex:       bandIndex,
						bandOrientation: band.Orientation,
						bandNumBps:      band.NumBps,
						precinct:        p,
						cblkno:          cblkno,
						roiShift:        tc.Params.ROIShift,
						stepSize:        band.StepSize,
						rB:              uint8(precision) + gainB[band.Orientation],
					})
				}
			}
		}
		if len(current.blocks) > 0 && resno > 0 {
			current.resNo = resno
			groups = append(groups, current)
			current = resGroup{waveletEnabled: true}
		}
	}
	if len(current.blocks) > 0 {
		current.resNo = 0
		current.waveletEnabled = false
		groups = append(groups, current)
	}
	return groups
}

// runDecompressBlocks decodes every block in a group concurrently,
// bounded by sem, depositing results into tc. Any T1 failure clears the
// outcome for the whole group (spec.md §4.7's shared success flag, scoped
// here to the group's errgroup rather than a process-wide flag, since
// taskgraph.Graph already owns the cross-group flag).
func (s *Scheduler) runDecompressBlocks(ctx context.Context, tc *tcd.TileComponent, grp resGroup, sem *semaphore.Weighted) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, blk := range grp.blocks {
		blk := blk
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		eg.Go(func() error {
			defer sem.Release(1)
			return s.decompressBlock(tc, blk)
		})
	}
	return eg.Wait()
}

func (s *Scheduler) decompressBlock(tc *tcd.TileComponent, blk decompressBlockExec) error {
	cb := blk.precinct.DecompressedBlock(blk.cblkno)
	width := int(cb.Rect.Width())
	height := int(cb.Rect.Height())
	if width == 0 || height == 0 {
		return nil
	}

	t1 := s.NewT1(width, height)
	coeffs := t1.Decode(cb.Data, cb.NumBps, int(blk.bandOrientation))
	if coeffs == nil {
		return jerr.Wrap(jerr.T1DecodeFailed, "code block decode returned no coefficients")
	}
	cb.Coeffs = coeffs

	if tc.Params.Irreversible {
		dequant := dwt.Dequantize(coeffs, blk.stepSize)
		tc.DepositBlockFloat(cb, dequant)
		cb.ReleaseCoeffs()
		return nil
	}
	tc.DepositBlock(blk.resNo, blk.bandOrientation, cb)
	return nil
}

// runInverseWavelet reconstructs resolution resNo from resNo-1's LL plane
// plus resNo's HL/LH/HH bands, already deposited into tc's flat
// coefficient plane (spec.md §4.4).
func (s *Scheduler) runInverseWavelet(tc *tcd.TileComponent, resNo int) error {
	res := tc.Resolutions[resNo]
	w := int(res.Rect.Width())
	h := int(res.Rect.Height())
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride := int(finest.Width())

	if tc.Params.Irreversible {
		tc.EnsureCoeffsF()
		dwt.Inverse2D97Strided(tc.CoeffsF, w, h, stride)
		if resNo == tc.HighestResolutionDecompressed {
			mct.ConvertFloat64ToInt32(tc.CoeffsF, tc.Coeffs)
		}
		return nil
	}
	dwt.Inverse2D53Strided(tc.Coeffs, w, h, stride)
	return nil
}

// compressBlockExec mirrors decompressBlockExec for the compress side
// (spec.md §4.8); ROIShift/RB are carried through even though T1 doesn't
// yet consume them, for the same reason decompressBlockExec carries them.
type compressBlockExec struct {
	resNo           int
	bandIndex       int
	bandOrientation tcd.Orientation
	precinct        *tcd.Precinct
	cblkno          int64
	roiShift        uint8
	stepSize        float64
	rB              uint8
}

// compressGroup is resGroup's compress-side counterpart: the blocks whose
// bands were just produced by the forward wavelet pass at resNo (or, for
// the resNo-0 group, the LL band that needs no transform at all).
type compressGroup struct {
	resNo          int
	blocks         []compressBlockExec
	waveletEnabled bool
}

// Compress runs the full compress pipeline for one tile component: seed
// the finest-resolution samples (via SeedSamples/SeedSamplesFloat before
// calling this), forward wavelet, T1 encode, per spec.md §4.8. It is the
// mirror image of Decompress: where Decompress reconstructs coarse-to-
// fine (wavelet after blocks, lowest resolution group first), Compress
// decomposes fine-to-coarse (wavelet before blocks, finest resolution
// group first), so the per-resolution work is swapped onto ResFlow's two
// node slots -- Blocks carries the forward wavelet step and WaveletVert
// carries the block encode step -- while reusing the same
// flow.ImageComponentFlow chain topology.
func (s *Scheduler) Compress(ctx context.Context, tc *tcd.TileComponent, precision int) error {
	groups := enumerateCompressGroups(tc, precision)
	if len(groups) == 0 {
		return nil
	}

	icf := flow.NewImageComponentFlow(tc.HighestResolutionDecompressed + 1)
	sem := semaphore.NewWeighted(int64(s.workers()))

	for i, group := range groups {
		rf := icf.ResFlowAt(i)
		if rf == nil {
			continue
		}
		grp := group
		rf.SetBlocks(func(ctx context.Context) error {
			if !grp.waveletEnabled {
				return nil
			}
			return s.runForwardWavelet(tc, grp.resNo)
		})
		rf.SetWaveletHoriz(func(ctx context.Context) error { return nil })
		rf.SetWaveletVert(func(ctx context.Context) error {
			return s.runCompressBlocks(ctx, tc, grp, sem)
		})
	}

	g := taskgraph.NewGraph()
	icf.Build(g)
	if err := g.Run(ctx); err != nil {
		return err
	}
	if !g.Success() {
		return jerr.Wrap(jerr.T1EncodeFailed, "tile component compress")
	}
	return nil
}

// enumerateCompressGroups walks resolutions/bands/precincts/blocks in the
// same order and grouping as enumerateDecompressGroups (lowest two
// resolutions combined, every subsequent resolution alone), then reverses
// the result: Compress must transform and encode the finest resolution
// first, since its LL quadrant becomes the next-coarser resolution's
// entire plane (internal/tcd.buildBand's quadrant layout), the reverse of
// Decompress's coarse-to-fine reconstruction order.
func enumerateCompressGroups(tc *tcd.TileComponent, precision int) []compressGroup {
	var groups []compressGroup
	var current compressGroup
	current.waveletEnabled = true

	for resno := 0; resno <= tc.HighestResolutionDecompressed; resno++ {
		res := tc.Resolutions[resno]
		for bandIndex, band := range res.Bands {
			for _, p := range band.Precincts {
				for cblkno := int64(0); cblkno < p.NumCblks(); cblkno++ {
					current.blocks = append(current.blocks, compressBlockExec{
						resNo:           resno,
						bandIndex:       bandIndex,
						bandOrientation: band.Orientation,
						precinct:        p,
						cblkno:          cblkno,
						roiShift:        tc.Params.ROIShift,
						stepSize:        band.StepSize,
						rB:              uint8(precision) + gainB[band.Orientation],
					})
				}
			}
		}
		if len(current.blocks) > 0 && resno > 0 {
			current.resNo = resno
			groups = append(groups, current)
			current = compressGroup{waveletEnabled: true}
		}
	}
	if len(current.blocks) > 0 {
		current.resNo = 0
		current.waveletEnabled = false
		groups = append(groups, current)
	}

	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return groups
}

// runCompressBlocks encodes every block in a group concurrently, bounded
// by sem, mirroring runDecompressBlocks.
func (s *Scheduler) runCompressBlocks(ctx context.Context, tc *tcd.TileComponent, grp compressGroup, sem *semaphore.Weighted) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, blk := range grp.blocks {
		blk := blk
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		eg.Go(func() error {
			defer sem.Release(1)
			return s.compressBlock(tc, blk)
		})
	}
	return eg.Wait()
}

func (s *Scheduler) compressBlock(tc *tcd.TileComponent, blk compressBlockExec) error {
	cb := blk.precinct.CompressedBlock(blk.cblkno)
	width := int(cb.Rect.Width())
	height := int(cb.Rect.Height())
	if width == 0 || height == 0 {
		return nil
	}

	var coeffs []int32
	if tc.Params.Irreversible {
		samples := tc.ExtractBlockFloat(cb)
		coeffs = dwt.Quantize(samples, blk.stepSize)
	} else {
		coeffs = tc.ExtractBlock(cb)
	}
	cb.Coeffs = coeffs
	cb.NumBps = significantBitPlanes(coeffs)

	t1 := s.NewT1(width, height)
	t1.SetData(coeffs)
	encoded := t1.Encode(int(blk.bandOrientation))
	if encoded == nil && cb.NumBps > 0 {
		return jerr.Wrap(jerr.T1EncodeFailed, "code block encode returned no data")
	}
	cb.Data = encoded
	return nil
}

// significantBitPlanes computes ceil(log2(maxAbs+1)) over a block's
// coefficients, the same derivation entropy.T1.Encode performs
// internally to set its own (unexported) bit-plane count; computed here
// independently so the scheduler can populate CompressCodeblock.NumBps
// for the packet header's zero-bit-plane bookkeeping without T1 exposing
// an accessor for a value the T1 interface otherwise has no need to
// surface.
func significantBitPlanes(coeffs []int32) int {
	var maxAbs int32
	for _, v := range coeffs {
		av := v
		if av < 0 {
			av = -av
		}
		if av > maxAbs {
			maxAbs = av
		}
	}
	if maxAbs == 0 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(maxAbs + 1))))
}

// runForwardWavelet transforms resolution resNo's full square in place:
// resNo-1's LL plane (if resNo > 0) plus resNo's HL/LH/HH bands, the
// mirror image of runInverseWavelet.
func (s *Scheduler) runForwardWavelet(tc *tcd.TileComponent, resNo int) error {
	res := tc.Resolutions[resNo]
	w := int(res.Rect.Width())
	h := int(res.Rect.Height())
	finest := tc.Resolutions[tc.HighestResolutionDecompressed].Rect
	stride := int(finest.Width())

	if tc.Params.Irreversible {
		if resNo == tc.HighestResolutionDecompressed {
			tc.EnsureCoeffsF()
			mct.ConvertInt32ToFloat64(tc.Coeffs, tc.CoeffsF)
		}
		dwt.Forward2D97Strided(tc.CoeffsF, w, h, stride)
		return nil
	}
	dwt.Forward2D53Strided(tc.Coeffs, w, h, stride)
	return nil
}
