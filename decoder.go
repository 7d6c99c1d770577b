package jpeg2000

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/mrjoshuak/go-jpeg2000/internal/box"
	"github.com/mrjoshuak/go-jpeg2000/internal/codestream"
	"github.com/mrjoshuak/go-jpeg2000/internal/entropy"
	"github.com/mrjoshuak/go-jpeg2000/internal/mct"
	"github.com/mrjoshuak/go-jpeg2000/internal/scheduler"
	"github.com/mrjoshuak/go-jpeg2000/internal/t2"
	"github.com/mrjoshuak/go-jpeg2000/internal/tcd"
)

// decoder handles JPEG 2000 decoding.
type decoder struct {
	r          *bufio.Reader
	format     Format
	header     *codestream.Header
	parser     *codestream.Parser
	jp2Header  *box.JP2Header
	codestream []byte
}

// newDecoder creates a new decoder.
func newDecoder(r io.Reader) *decoder {
	return &decoder{
		r: bufio.NewReader(r),
	}
}

// decode decodes the image.
func (d *decoder) decode(cfg *Config) (image.Image, error) {
	// Detect format and read headers
	if err := d.readFormat(); err != nil {
		return nil, fmt.Errorf("reading format: %w", err)
	}

	// Parse codestream header
	if err := d.parseCodestream(); err != nil {
		return nil, fmt.Errorf("parsing codestream: %w", err)
	}

	// Decode tiles
	img, err := d.decodeTiles(cfg)
	if err != nil {
		return nil, fmt.Errorf("decoding tiles: %w", err)
	}

	return img, nil
}

// readMetadata reads only the metadata without decoding.
func (d *decoder) readMetadata() (*Metadata, error) {
	if err := d.readFormat(); err != nil {
		return nil, err
	}

	if err := d.parseCodestream(); err != nil {
		return nil, err
	}

	h := d.header
	m := &Metadata{
		Format:           d.format,
		Width:            int(h.ImageWidth - h.ImageXOffset),
		Height:           int(h.ImageHeight - h.ImageYOffset),
		NumComponents:    int(h.NumComponents),
		BitsPerComponent: make([]int, h.NumComponents),
		Signed:           make([]bool, h.NumComponents),
		Profile:          Profile(h.Profile),
		NumResolutions:   int(h.CodingStyle.NumDecompositions) + 1,
		NumQualityLayers: int(h.CodingStyle.NumLayers),
		TileWidth:        int(h.TileWidth),
		TileHeight:       int(h.TileHeight),
		NumTilesX:        int(h.NumTilesX),
		NumTilesY:        int(h.NumTilesY),
		Comment:          h.Comment,
		ColorSpace:       ColorSpaceUnspecified, // Default for J2K without JP2 container
	}

	for i, c := range h.ComponentInfo {
		m.BitsPerComponent[i] = c.Precision()
		m.Signed[i] = c.IsSigned()
	}

	// Get color space from JP2 header if available
	if d.jp2Header != nil && d.jp2Header.ColorSpec != nil {
		switch d.jp2Header.ColorSpec.EnumeratedColorspace {
		case box.CSBilevel1, box.CSBilevel2:
			m.ColorSpace = ColorSpaceBilevel
		case box.CSGray:
			m.ColorSpace = ColorSpaceGray
		case box.CSSRGB:
			m.ColorSpace = ColorSpaceSRGB
		case box.CSYCbCr1, box.CSsYCC:
			m.ColorSpace = ColorSpaceSYCC
		case box.CSYCbCr2:
			m.ColorSpace = ColorSpaceYCbCr2
		case box.CSYCbCr3:
			m.ColorSpace = ColorSpaceYCbCr3
		case box.CSPhotoYCC:
			m.ColorSpace = ColorSpacePhotoYCC
		case box.CSCMY:
			m.ColorSpace = ColorSpaceCMY
		case box.CSCMYK:
			m.ColorSpace = ColorSpaceCMYK
		case box.CSYCCK:
			m.ColorSpace = ColorSpaceYCCK
		case box.CSCIELab:
			m.ColorSpace = ColorSpaceCIELab
		case box.CSCIEJab:
			m.ColorSpace = ColorSpaceCIEJab
		case box.CSeSRGB:
			m.ColorSpace = ColorSpaceESRGB
		case box.CSROMMRGB:
			m.ColorSpace = ColorSpaceROMMRGB
		case box.CSYPbPr1125:
			m.ColorSpace = ColorSpaceYPbPr60
		case box.CSYPbPr1250:
			m.ColorSpace = ColorSpaceYPbPr50
		case box.CSeSYCC:
			m.ColorSpace = ColorSpaceEYCC
		default:
			// Unknown enumcs value - not supported
			m.ColorSpace = ColorSpaceUnknown
		}
		m.ICCProfile = d.jp2Header.ColorSpec.ICCProfile
	}

	return m, nil
}

// readFormat detects the file format and reads file-level structures.
func (d *decoder) readFormat() error {
	// Peek at first bytes to detect format
	magic, err := d.r.Peek(12)
	if err != nil {
		return err
	}

	// Check for JP2 signature
	if len(magic) >= 12 &&
		magic[0] == 0x00 && magic[1] == 0x00 && magic[2] == 0x00 && magic[3] == 0x0C &&
		magic[4] == 'j' && magic[5] == 'P' && magic[6] == ' ' && magic[7] == ' ' {
		d.format = FormatJP2
		return d.readJP2()
	}

	// Check for J2K codestream (SOC marker)
	if len(magic) >= 2 && magic[0] == 0xFF && magic[1] == 0x4F {
		d.format = FormatJ2K
		return d.readJ2K()
	}

	return fmt.Errorf("unrecognized file format")
}

// readJP2 reads a JP2 file.
func (d *decoder) readJP2() error {
	boxReader := box.NewReader(d.r)

	for {
		b, err := boxReader.ReadBox()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch b.Type {
		case box.TypeJP2Signature:
			// Verify signature
			if len(b.Contents) < 4 ||
				b.Contents[0] != 0x0D || b.Contents[1] != 0x0A ||
				b.Contents[2] != 0x87 || b.Contents[3] != 0x0A {
				return fmt.Errorf("invalid JP2 signature")
			}

		case box.TypeFileType:
			// Parse file type box
			ftyp := &box.FileTypeBox{}
			if err := ftyp.Parse(b.Contents); err != nil {
				return err
			}

		case box.TypeJP2Header:
			// Parse JP2 header
			var err error
			d.jp2Header, err = box.ParseJP2Header(b.Contents)
			if err != nil {
				return err
			}

		case box.TypeContCodestream:
			// Store codestream for later parsing
			d.codestream = b.Contents
			return nil
		}
	}

	if d.codestream == nil {
		return fmt.Errorf("no codestream found in JP2 file")
	}
	return nil
}

// readJ2K reads a raw J2K codestream.
func (d *decoder) readJ2K() error {
	// Read entire codestream
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	d.codestream = data
	return nil
}

// parseCodestream parses the codestream header.
func (d *decoder) parseCodestream() error {
	if d.codestream == nil {
		return fmt.Errorf("no codestream available")
	}

	parser := codestream.NewParser(&byteReader{data: d.codestream})
	header, err := parser.ReadHeader()
	if err != nil {
		return err
	}
	d.header = header
	d.parser = parser
	return nil
}

// readTileBodies walks every tile-part following the main header, via
// Parser.Pos/ReadTilePartHeader/ReadRawBytes/NextMarker, and returns each
// tile's packet bytes keyed by tile index (concatenated, in the rare case a
// tile spans more than one tile-part).
func (d *decoder) readTileBodies() (map[int][]byte, error) {
	bodies := make(map[int][]byte)
	for {
		tilePartStart := d.parser.Pos() - 2
		tph, err := d.parser.ReadTilePartHeader()
		if err != nil {
			return nil, fmt.Errorf("reading tile-part header: %w", err)
		}

		bodyLen := int(tph.TilePartLength) - (d.parser.Pos() - tilePartStart)
		if bodyLen < 0 {
			bodyLen = 0
		}
		body, err := d.parser.ReadRawBytes(bodyLen)
		if err != nil {
			return nil, fmt.Errorf("reading tile-part body: %w", err)
		}
		bodies[int(tph.TileIndex)] = append(bodies[int(tph.TileIndex)], body...)

		marker, err := d.parser.NextMarker()
		if err != nil || marker == codestream.EOC {
			break
		}
	}
	return bodies, nil
}

// depositTilePackets walks this tile's packets in the header's configured
// progression order via internal/t2.PacketIterator/PacketDecoder, copying
// each included code block's compressed bytes into its
// tcd.DecompressCodeblock.Data -- the payload internal/scheduler's
// Decompress needs to do real entropy decoding instead of skipping every
// block as absent.
func depositTilePackets(tcs []*tcd.TileComponent, h *codestream.Header, body []byte) error {
	if len(tcs) == 0 || len(body) == 0 {
		return nil
	}
	numRes := len(tcs[0].Resolutions)
	numLayers := int(h.CodingStyle.NumLayers)
	if numLayers < 1 {
		numLayers = 1
	}

	precinctCounts := make([][][]int, len(tcs))
	for c, tc := range tcs {
		precinctCounts[c] = make([][]int, numRes)
		for r := 0; r < numRes && r < len(tc.Resolutions); r++ {
			count := 0
			if len(tc.Resolutions[r].Bands) > 0 {
				count = len(tc.Resolutions[r].Bands[0].Precincts)
			}
			precinctCounts[c][r] = []int{count}
		}
	}

	sop := h.CodingStyle.CodingStyle&codestream.CodingStyleSOP != 0
	eph := h.CodingStyle.CodingStyle&codestream.CodingStyleEPH != 0
	order := codestream.ProgressionOrder(h.CodingStyle.ProgressionOrder)

	dec := t2.NewPacketDecoder(body)
	pi := t2.NewPacketIterator(len(tcs), numRes, numLayers, precinctCounts, order)
	for {
		pkt, ok := pi.Next()
		if !ok {
			break
		}
		tc := tcs[pkt.Component]
		if pkt.Resolution >= len(tc.Resolutions) {
			continue
		}
		res := tc.Resolutions[pkt.Resolution]

		var precincts []*tcd.Precinct
		var bandNumBps []int
		for _, band := range res.Bands {
			if pkt.Precinct >= len(band.Precincts) {
				continue
			}
			precincts = append(precincts, band.Precincts[pkt.Precinct])
			bandNumBps = append(bandNumBps, band.NumBps)
		}
		if len(precincts) == 0 {
			continue
		}
		if err := dec.DecodePacket(precincts, bandNumBps, pkt.Layer, sop, eph); err != nil {
			return fmt.Errorf("resolution %d component %d: %w", pkt.Resolution, pkt.Component, err)
		}
	}
	return nil
}

// decodeTiles decodes all tiles and assembles the output image.
func (d *decoder) decodeTiles(cfg *Config) (image.Image, error) {
	h := d.header

	// Calculate output dimensions
	width := int(h.ImageWidth - h.ImageXOffset)
	height := int(h.ImageHeight - h.ImageYOffset)

	if cfg != nil && cfg.ReduceResolution > 0 {
		// Reduce resolution
		for i := 0; i < cfg.ReduceResolution; i++ {
			width = (width + 1) / 2
			height = (height + 1) / 2
		}
	}

	// Create output image based on number of components
	numComp := int(h.NumComponents)
	if numComp == 0 || len(h.ComponentInfo) == 0 {
		return nil, fmt.Errorf("invalid image: no components")
	}
	precision := h.ComponentInfo[0].Precision()
	signed := h.ComponentInfo[0].IsSigned()

	// Allocate component data
	componentData := make([][]int32, numComp)
	for c := 0; c < numComp; c++ {
		componentData[c] = make([]int32, width*height)
	}

	// Decode each tile
	sched := &scheduler.Scheduler{NewT1: newT1Worker}
	numTiles := int(h.NumTilesX * h.NumTilesY)

	tileBodies, err := d.readTileBodies()
	if err != nil {
		return nil, fmt.Errorf("reading tile parts: %w", err)
	}

	for tileIdx := 0; tileIdx < numTiles; tileIdx++ {
		if err := d.decodeTile(sched, tileIdx, tileBodies[tileIdx], componentData, width, height, cfg); err != nil {
			return nil, fmt.Errorf("decoding tile %d: %w", tileIdx, err)
		}
	}

	// Apply inverse MCT if needed
	if cfg != nil && len(cfg.CustomMCTMatrix) > 0 && len(cfg.CustomMCTMatrix) == numComp {
		applyInverseCustomMCT(componentData, cfg.CustomMCTMatrix)
	} else if h.CodingStyle.MultipleComponentXf != 0 && numComp >= 3 {
		if h.CodingStyle.IsReversible() {
			mct.InverseRCT(componentData[0], componentData[1], componentData[2])
		} else {
			// Convert to float for ICT
			compFloat := make([][]float64, 3)
			for c := 0; c < 3; c++ {
				compFloat[c] = make([]float64, len(componentData[c]))
				for i, v := range componentData[c] {
					compFloat[c][i] = float64(v)
				}
			}
			mct.InverseICT(compFloat[0], compFloat[1], compFloat[2])
			for c := 0; c < 3; c++ {
				for i, v := range compFloat[c] {
					componentData[c][i] = int32(v + 0.5)
				}
			}
		}
	}

	// Apply DC level shift
	for c := 0; c < numComp; c++ {
		if !h.ComponentInfo[c].IsSigned() {
			mct.DCLevelShiftInverse(componentData[c], h.ComponentInfo[c].Precision())
		}
	}

	// Create output image
	return d.createImage(componentData, width, height, numComp, precision, signed)
}

// decodeTile decodes a single tile: it builds every component's
// resolution/band/precinct lattice, deposits this tile-part's packet
// payloads into each code block (internal/t2 via depositTilePackets), then
// runs the scheduler (code-block decode + inverse wavelet) and copies the
// reconstructed samples into the image-sized component buffers.
func (d *decoder) decodeTile(
	sched *scheduler.Scheduler,
	tileIdx int,
	body []byte,
	componentData [][]int32,
	imgWidth, imgHeight int,
	cfg *Config,
) error {
	h := d.header

	tileX := tileIdx % int(h.NumTilesX)
	tileY := tileIdx / int(h.NumTilesX)
	tx0 := max(int(h.TileXOffset)+tileX*int(h.TileWidth), int(h.ImageXOffset))
	ty0 := max(int(h.TileYOffset)+tileY*int(h.TileHeight), int(h.ImageYOffset))
	tx1 := min(int(h.TileXOffset)+(tileX+1)*int(h.TileWidth), int(h.ImageWidth))
	ty1 := min(int(h.TileYOffset)+(tileY+1)*int(h.TileHeight), int(h.ImageHeight))

	numComp := int(h.NumComponents)
	if numComp > len(componentData) {
		numComp = len(componentData)
	}
	tcs := make([]*tcd.TileComponent, numComp)
	rects := make([]tcd.Rect, numComp)

	for c := 0; c < numComp; c++ {
		comp := h.ComponentInfo[c]
		cx0 := ceilDivInt(tx0, int(comp.SubsamplingX))
		cy0 := ceilDivInt(ty0, int(comp.SubsamplingY))
		cx1 := ceilDivInt(tx1, int(comp.SubsamplingX))
		cy1 := ceilDivInt(ty1, int(comp.SubsamplingY))
		rect := tcd.Rect{X0: int32(cx0), Y0: int32(cy0), X1: int32(cx1), Y1: int32(cy1)}
		rects[c] = rect

		cp := codingParamsFor(h, c)
		tc, err := tcd.NewTileComponent(false, true, rect, rect, comp.Precision(), comp.IsSigned(), cp)
		if err != nil {
			return fmt.Errorf("component %d: %w", c, err)
		}
		tc.Index = c
		applyQuantization(tc, h, c)
		tcs[c] = tc
	}

	if err := depositTilePackets(tcs, h, body); err != nil {
		return fmt.Errorf("depositing packets: %w", err)
	}

	for c := 0; c < numComp; c++ {
		tc := tcs[c]
		comp := h.ComponentInfo[c]
		if err := sched.Decompress(context.Background(), tc, comp.Precision()); err != nil {
			return fmt.Errorf("component %d: %w", c, err)
		}

		rect := rects[c]
		cx0, cy0 := int(rect.X0), int(rect.Y0)
		cx1, cy1 := int(rect.X1), int(rect.Y1)
		width := int(rect.Width())
		for y := cy0; y < cy1 && y-int(h.ImageYOffset) < imgHeight; y++ {
			for x := cx0; x < cx1 && x-int(h.ImageXOffset) < imgWidth; x++ {
				srcIdx := (y-cy0)*width + (x - cx0)
				dstX := x - int(h.ImageXOffset)
				dstY := y - int(h.ImageYOffset)
				if dstX >= 0 && dstY >= 0 && dstX < imgWidth && dstY < imgHeight && srcIdx < len(tc.Coeffs) {
					componentData[c][dstY*imgWidth+dstX] = tc.Coeffs[srcIdx]
				}
			}
		}
	}

	return nil
}

// newT1Worker is the scheduler.T1Factory backing real decode: each task
// gets its own entropy.T1 sized to its code block (spec.md §4.7 step 4).
func newT1Worker(width, height int) scheduler.T1 {
	return entropy.NewT1(width, height)
}

// applyInverseCustomMCT runs the inverse of encoder.applyCustomMCT's K×K
// fixed-point transform, one sample vector at a time.
func applyInverseCustomMCT(componentData [][]int32, matrix [][]float64) {
	k := len(matrix)
	flat := make([]float64, 0, k*k)
	for _, row := range matrix {
		flat = append(flat, row...)
	}
	m := mct.NewCustomMCTFixed(flat, k)

	n := len(componentData[0])
	scratch := make([]int32, k)
	out := make([]int32, k)
	for s := 0; s < n; s++ {
		for c := 0; c < k; c++ {
			scratch[c] = componentData[c][s]
		}
		m.ApplyInverse(scratch, out)
		for c := 0; c < k; c++ {
			componentData[c][s] = out[c]
		}
	}
}

// codingParamsFor derives a tile component's CodingParams from the main
// header, honoring a per-component COC override when present.
func codingParamsFor(h *codestream.Header, comp int) tcd.CodingParams {
	cs := h.CodingStyle
	if coc, ok := h.ComponentCodingStyles[uint16(comp)]; ok {
		return tcd.CodingParams{
			NumResolutions: int(coc.NumDecompositions) + 1,
			CblkExpnW:      coc.CodeBlockWidthExp + 2,
			CblkExpnH:      coc.CodeBlockHeightExp + 2,
			Irreversible:   coc.WaveletTransform != 1,
		}
	}
	return tcd.CodingParams{
		NumResolutions: int(cs.NumDecompositions) + 1,
		CblkExpnW:      cs.CodeBlockWidthExp + 2,
		CblkExpnH:      cs.CodeBlockHeightExp + 2,
		Irreversible:   cs.WaveletTransform != 1,
	}
}

// applyQuantization fills each band's StepSize/NumBps from the QCD/QCC
// step-size table, in the standard's LL-then-(HL,LH,HH)-per-level order.
func applyQuantization(tc *tcd.TileComponent, h *codestream.Header, comp int) {
	q := h.Quantization
	guard := q.GuardBits()
	steps := q.StepSizes
	if qcc, ok := h.ComponentQuantization[uint16(comp)]; ok {
		guard = int(qcc.NumGuardBits >> 5)
		steps = qcc.StepSizes
	}
	if len(steps) == 0 {
		return
	}

	idx := 0
	next := func() codestream.StepSize {
		if idx >= len(steps) {
			return steps[len(steps)-1]
		}
		s := steps[idx]
		idx++
		return s
	}
	for r, res := range tc.Resolutions {
		for _, band := range res.Bands {
			s := next()
			band.StepSize = s.Value()
			bps := guard + int(s.Exponent) - 1
			if bps < 0 {
				bps = 0
			}
			band.NumBps = bps
		}
		_ = r
	}
}

func ceilDivInt(a, b int) int {
	return (a + b - 1) / b
}

// createImage creates the output image from component data.
func (d *decoder) createImage(
	componentData [][]int32,
	width, height int,
	numComp int,
	precision int,
	signed bool,
) (image.Image, error) {
	// Determine scaling factor
	maxVal := int32((1 << precision) - 1)

	switch numComp {
	case 1:
		// Grayscale
		if precision <= 8 {
			img := image.NewGray(image.Rect(0, 0, width, height))
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					idx := y*width + x
					v := componentData[0][idx]
					if v < 0 {
						v = 0
					}
					if v > maxVal {
						v = maxVal
					}
					// Scale to 8-bit
					if precision != 8 {
						v = v * 255 / maxVal
					}
					img.SetGray(x, y, color.Gray{Y: uint8(v)})
				}
			}
			return img, nil
		}
		// 16-bit grayscale
		img := image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				v := componentData[0][idx]
				if v < 0 {
					v = 0
				}
				if v > maxVal {
					v = maxVal
				}
				// Scale to 16-bit
				v = v * 65535 / maxVal
				img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
			}
		}
		return img, nil

	case 3:
		// RGB
		if precision <= 8 {
			img := image.NewRGBA(image.Rect(0, 0, width, height))
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					idx := y*width + x
					r := componentData[0][idx]
					g := componentData[1][idx]
					b := componentData[2][idx]

					// Clamp values
					r = clampInt32(r, 0, maxVal)
					g = clampInt32(g, 0, maxVal)
					b = clampInt32(b, 0, maxVal)

					// Scale to 8-bit
					if precision != 8 {
						r = r * 255 / maxVal
						g = g * 255 / maxVal
						b = b * 255 / maxVal
					}

					img.SetRGBA(x, y, color.RGBA{
						R: uint8(r),
						G: uint8(g),
						B: uint8(b),
						A: 255,
					})
				}
			}
			return img, nil
		}
		// 16-bit RGB
		img := image.NewRGBA64(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				r := componentData[0][idx]
				g := componentData[1][idx]
				b := componentData[2][idx]

				r = clampInt32(r, 0, maxVal)
				g = clampInt32(g, 0, maxVal)
				b = clampInt32(b, 0, maxVal)

				// Scale to 16-bit
				r = r * 65535 / maxVal
				g = g * 65535 / maxVal
				b = b * 65535 / maxVal

				img.SetRGBA64(x, y, color.RGBA64{
					R: uint16(r),
					G: uint16(g),
					B: uint16(b),
					A: 65535,
				})
			}
		}
		return img, nil

	case 4:
		// RGBA
		if precision <= 8 {
			img := image.NewRGBA(image.Rect(0, 0, width, height))
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					idx := y*width + x
					r := clampInt32(componentData[0][idx], 0, maxVal)
					g := clampInt32(componentData[1][idx], 0, maxVal)
					b := clampInt32(componentData[2][idx], 0, maxVal)
					a := clampInt32(componentData[3][idx], 0, maxVal)

					if precision != 8 {
						r = r * 255 / maxVal
						g = g * 255 / maxVal
						b = b * 255 / maxVal
						a = a * 255 / maxVal
					}

					img.SetRGBA(x, y, color.RGBA{
						R: uint8(r),
						G: uint8(g),
						B: uint8(b),
						A: uint8(a),
					})
				}
			}
			return img, nil
		}
		// 16-bit RGBA
		img := image.NewRGBA64(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				r := clampInt32(componentData[0][idx], 0, maxVal)
				g := clampInt32(componentData[1][idx], 0, maxVal)
				b := clampInt32(componentData[2][idx], 0, maxVal)
				a := clampInt32(componentData[3][idx], 0, maxVal)

				r = r * 65535 / maxVal
				g = g * 65535 / maxVal
				b = b * 65535 / maxVal
				a = a * 65535 / maxVal

				img.SetRGBA64(x, y, color.RGBA64{
					R: uint16(r),
					G: uint16(g),
					B: uint16(b),
					A: uint16(a),
				})
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("unsupported number of components: %d", numComp)
	}
}

// clampInt32 clamps output samples to their valid range during image
// reconstruction; internal/mct owns the same clamp for MCT's own
// precision bookkeeping, reused here so the two call sites agree.
func clampInt32(v, min, max int32) int32 {
	return mct.ClampInt32(v, min, max)
}

// byteReader wraps a byte slice as an io.Reader.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
