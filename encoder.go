package jpeg2000

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"runtime"

	"github.com/mrjoshuak/go-jpeg2000/internal/box"
	"github.com/mrjoshuak/go-jpeg2000/internal/codestream"
	"github.com/mrjoshuak/go-jpeg2000/internal/mct"
	"github.com/mrjoshuak/go-jpeg2000/internal/scheduler"
	"github.com/mrjoshuak/go-jpeg2000/internal/t2"
	"github.com/mrjoshuak/go-jpeg2000/internal/tcd"
)

// encoder handles JPEG 2000 encoding.
type encoder struct {
	w       io.Writer
	img     image.Image
	options *Options

	// Image parameters
	width         int
	height        int
	numComponents int
	precision     int
	signed        bool

	// Component data
	componentData [][]int32
}

// newEncoder creates a new encoder.
func newEncoder(w io.Writer, img image.Image, options *Options) *encoder {
	bounds := img.Bounds()
	return &encoder{
		w:       w,
		img:     img,
		options: options,
		width:   bounds.Dx(),
		height:  bounds.Dy(),
	}
}

// encode encodes the image.
func (e *encoder) encode() error {
	// Extract image data
	if err := e.extractImageData(); err != nil {
		return fmt.Errorf("extracting image data: %w", err)
	}

	// Apply preprocessing
	if err := e.preprocess(); err != nil {
		return fmt.Errorf("preprocessing: %w", err)
	}

	// Generate codestream
	codestream, err := e.generateCodestream()
	if err != nil {
		return fmt.Errorf("generating codestream: %w", err)
	}

	// Write output based on format
	switch e.options.Format {
	case FormatJP2:
		return e.writeJP2(codestream)
	case FormatJ2K:
		_, err := e.w.Write(codestream)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", e.options.Format)
	}
}

// extractImageData extracts pixel data from the source image.
func (e *encoder) extractImageData() error {
	bounds := e.img.Bounds()

	// Determine image properties based on type
	switch img := e.img.(type) {
	case *image.Gray:
		e.numComponents = 1
		e.precision = 8
		e.componentData = make([][]int32, 1)
		e.componentData[0] = make([]int32, e.width*e.height)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				e.componentData[0][idx] = int32(img.GrayAt(x, y).Y)
			}
		}

	case *image.Gray16:
		e.numComponents = 1
		e.precision = 16
		e.componentData = make([][]int32, 1)
		e.componentData[0] = make([]int32, e.width*e.height)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				e.componentData[0][idx] = int32(img.Gray16At(x, y).Y)
			}
		}

	case *image.RGBA:
		e.numComponents = 3 // We'll ignore alpha for now
		e.precision = 8
		e.componentData = make([][]int32, 3)
		for c := 0; c < 3; c++ {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.RGBAAt(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
			}
		}

	case *image.RGBA64:
		e.numComponents = 3
		e.precision = 16
		e.componentData = make([][]int32, 3)
		for c := 0; c < 3; c++ {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.RGBA64At(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
			}
		}

	case *image.NRGBA:
		e.numComponents = 4
		e.precision = 8
		e.componentData = make([][]int32, 4)
		for c := 0; c < 4; c++ {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.NRGBAAt(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
				e.componentData[3][idx] = int32(c.A)
			}
		}

	case *image.NRGBA64:
		e.numComponents = 4
		e.precision = 16
		e.componentData = make([][]int32, 4)
		for c := 0; c < 4; c++ {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.NRGBA64At(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
				e.componentData[3][idx] = int32(c.A)
			}
		}

	default:
		// Generic fallback - convert to RGBA
		e.numComponents = 3
		e.precision = 8
		e.componentData = make([][]int32, 3)
		for c := 0; c < 3; c++ {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				r, g, b, _ := e.img.At(x, y).RGBA()
				e.componentData[0][idx] = int32(r >> 8)
				e.componentData[1][idx] = int32(g >> 8)
				e.componentData[2][idx] = int32(b >> 8)
			}
		}
	}

	// Apply precision override if specified
	if e.options.Precision > 0 && e.options.Precision <= 16 && e.options.Precision != e.precision {
		targetPrecision := e.options.Precision
		srcMax := int32((1 << e.precision) - 1)
		dstMax := int32((1 << targetPrecision) - 1)

		for c := 0; c < e.numComponents; c++ {
			for i := range e.componentData[c] {
				// Scale from source precision to target precision
				e.componentData[c][i] = e.componentData[c][i] * dstMax / srcMax
			}
		}
		e.precision = targetPrecision
	}

	return nil
}

// preprocess applies preprocessing transforms.
func (e *encoder) preprocess() error {
	// Apply DC level shift
	for c := 0; c < e.numComponents; c++ {
		mct.DCLevelShiftForward(e.componentData[c], e.precision)
	}

	// Apply MCT if we have 3+ components
	if k := len(e.options.CustomMCTMatrix); k > 0 && k == e.numComponents {
		e.applyCustomMCT()
	} else if e.numComponents >= 3 {
		if e.options.Lossless {
			mct.ForwardRCT(e.componentData[0], e.componentData[1], e.componentData[2])
		} else {
			// Convert to float for ICT
			compFloat := make([][]float64, 3)
			for c := 0; c < 3; c++ {
				compFloat[c] = make([]float64, len(e.componentData[c]))
				for i, v := range e.componentData[c] {
					compFloat[c][i] = float64(v)
				}
			}
			mct.ForwardICT(compFloat[0], compFloat[1], compFloat[2])
			for c := 0; c < 3; c++ {
				for i, v := range compFloat[c] {
					if v >= 0 {
						e.componentData[c][i] = int32(v + 0.5)
					} else {
						e.componentData[c][i] = int32(v - 0.5)
					}
				}
			}
		}
	}

	// The wavelet transform itself runs inside encodeTile, one resolution
	// group at a time, via internal/scheduler.Scheduler.Compress -- preprocess
	// only produces the DC-shifted, color-transformed spatial samples that
	// SeedSamples/SeedSamplesFloat hands to the scheduler.
	return nil
}

// applyCustomMCT runs the caller-supplied K×K reversible component
// transform in place of RCT/ICT, one sample vector at a time, via
// internal/mct.CustomMCTFixed so the result is bit-exact across platforms
// regardless of Options.Lossless.
func (e *encoder) applyCustomMCT() {
	k := e.numComponents
	flat := make([]float64, 0, k*k)
	for _, row := range e.options.CustomMCTMatrix {
		flat = append(flat, row...)
	}
	m := mct.NewCustomMCTFixed(flat, k)

	n := len(e.componentData[0])
	scratch := make([]int32, k)
	out := make([]int32, k)
	for s := 0; s < n; s++ {
		for c := 0; c < k; c++ {
			scratch[c] = e.componentData[c][s]
		}
		m.Apply(scratch, out)
		for c := 0; c < k; c++ {
			e.componentData[c][s] = out[c]
		}
	}
}

// generateCodestream generates the JPEG 2000 codestream.
func (e *encoder) generateCodestream() ([]byte, error) {
	var buf []byte

	// SOC marker
	buf = append(buf, 0xFF, 0x4F)

	// SIZ marker
	siz := e.generateSIZ()
	buf = append(buf, siz...)

	// COD marker
	cod := e.generateCOD()
	buf = append(buf, cod...)

	// QCD marker
	qcd := e.generateQCD()
	buf = append(buf, qcd...)

	// Comment marker (optional)
	if e.options.Comment != "" {
		com := e.generateCOM()
		buf = append(buf, com...)
	}

	// Generate tile data
	tileData, err := e.generateTiles()
	if err != nil {
		return nil, err
	}
	buf = append(buf, tileData...)

	// EOC marker
	buf = append(buf, 0xFF, 0xD9)

	return buf, nil
}

// generateSIZ generates the SIZ marker segment.
func (e *encoder) generateSIZ() []byte {
	numComp := e.numComponents

	// Length = 38 + 3*numComponents
	length := 38 + 3*numComp

	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.SIZ))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))

	// Rsiz (profile)
	binary.BigEndian.PutUint16(buf[4:6], uint16(e.options.Profile))

	// Image dimensions
	binary.BigEndian.PutUint32(buf[6:10], uint32(e.width))
	binary.BigEndian.PutUint32(buf[10:14], uint32(e.height))

	// Image offset (0, 0)
	binary.BigEndian.PutUint32(buf[14:18], 0)
	binary.BigEndian.PutUint32(buf[18:22], 0)

	// Tile size
	tileWidth := e.width
	tileHeight := e.height
	if e.options.TileSize.X > 0 {
		tileWidth = e.options.TileSize.X
	}
	if e.options.TileSize.Y > 0 {
		tileHeight = e.options.TileSize.Y
	}
	binary.BigEndian.PutUint32(buf[22:26], uint32(tileWidth))
	binary.BigEndian.PutUint32(buf[26:30], uint32(tileHeight))

	// Tile offset
	binary.BigEndian.PutUint32(buf[30:34], 0)
	binary.BigEndian.PutUint32(buf[34:38], 0)

	// Number of components
	binary.BigEndian.PutUint16(buf[38:40], uint16(numComp))

	// Component info
	for c := 0; c < numComp; c++ {
		offset := 40 + c*3
		// Ssiz: bit depth (precision - 1, with sign bit)
		ssiz := uint8(e.precision - 1)
		if e.signed {
			ssiz |= 0x80
		}
		buf[offset] = ssiz
		// XRsiz, YRsiz: subsampling
		buf[offset+1] = 1
		buf[offset+2] = 1
	}

	return buf
}

// generateCOD generates the COD marker segment.
func (e *encoder) generateCOD() []byte {
	numRes := e.options.NumResolutions
	if numRes <= 0 {
		numRes = 6
	}

	// Base length = 12 (without precinct sizes)
	length := 12

	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.COD))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))

	// Scod: coding style
	scod := uint8(0)
	if e.options.EnableSOP {
		scod |= codestream.CodingStyleSOP
	}
	if e.options.EnableEPH {
		scod |= codestream.CodingStyleEPH
	}
	buf[4] = scod

	// SGcod. The compress scheduler (internal/scheduler.Compress) only ever
	// produces a single quality layer, so NumLayers is always written as 1
	// regardless of e.options.NumLayers -- rate-distortion layer allocation
	// is out of scope.
	buf[5] = uint8(e.options.ProgressionOrder) // Progression order
	binary.BigEndian.PutUint16(buf[6:8], 1)
	buf[8] = 1 // MCT (enabled for 3 components)

	// SPcod
	buf[9] = uint8(numRes - 1) // Number of decomposition levels

	cbWidth := e.options.CodeBlockSize.X
	cbHeight := e.options.CodeBlockSize.Y
	if cbWidth <= 0 {
		cbWidth = 6
	}
	if cbHeight <= 0 {
		cbHeight = 6
	}

	buf[10] = uint8(cbWidth - 2)  // Code-block width exponent
	buf[11] = uint8(cbHeight - 2) // Code-block height exponent

	buf[12] = 0 // Code-block style flags

	if e.options.Lossless {
		buf[13] = 1 // 5-3 reversible wavelet
	} else {
		buf[13] = 0 // 9-7 irreversible wavelet
	}

	return buf
}

// generateQCD generates the QCD marker segment.
func (e *encoder) generateQCD() []byte {
	numRes := e.options.NumResolutions
	if numRes <= 0 {
		numRes = 6
	}

	// Calculate number of subbands
	numBands := 3*(numRes-1) + 1

	var buf []byte
	if e.options.Lossless {
		// No quantization
		length := 3 + numBands
		buf = make([]byte, 2+length)
		binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.QCD))
		binary.BigEndian.PutUint16(buf[2:4], uint16(length))

		// Sqcd: no quantization, 0 guard bits
		buf[4] = codestream.QuantizationNone

		// SPqcd: one exponent per subband
		for i := 0; i < numBands; i++ {
			// Default exponent based on subband level
			buf[5+i] = uint8(e.precision + i/3) << 3
		}
	} else {
		// Scalar derived quantization
		length := 5
		buf = make([]byte, 2+length)
		binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.QCD))
		binary.BigEndian.PutUint16(buf[2:4], uint16(length))

		// Sqcd: scalar derived, 1 guard bit
		buf[4] = codestream.QuantizationScalarDerived | (1 << 5)

		// Base step size
		stepSize := uint16(0x4000) // Default step size
		if e.options.Quality > 0 {
			// Adjust based on quality
			stepSize = uint16((100 - e.options.Quality) * 256)
		}
		binary.BigEndian.PutUint16(buf[5:7], stepSize)
	}

	return buf
}

// assignQuantization fills each band's StepSize/NumBps to match what a
// decoder parsing this tile's real QCD bytes would derive via
// applyQuantization (decoder.go), so the compress scheduler's dequantization
// and the packet header's zero-bit-plane count agree with the marker this
// encoder actually writes. NumGuardBits is always read back as 0 by
// QuantizationDefault.GuardBits regardless of the Sqcd byte's guard-bit
// field (see parser.go's readQCDInto/GuardBits), so both branches below use
// guard=0 to match that, not the nominal "1 guard bit" the QCD comment
// names.
func (e *encoder) assignQuantization(tc *tcd.TileComponent) {
	if e.options.Lossless {
		i := 0
		for _, res := range tc.Resolutions {
			for _, band := range res.Bands {
				exp := e.precision + i/3
				bps := exp - 1
				if bps < 0 {
					bps = 0
				}
				band.NumBps = bps
				i++
			}
		}
		return
	}

	stepSize := uint16(0x4000)
	if e.options.Quality > 0 {
		stepSize = uint16((100 - e.options.Quality) * 256)
	}
	s := codestream.StepSize{Mantissa: stepSize & 0x07FF, Exponent: uint8(stepSize >> 11)}
	value := s.Value()
	bps := int(s.Exponent) - 1
	if bps < 0 {
		bps = 0
	}
	for _, res := range tc.Resolutions {
		for _, band := range res.Bands {
			band.StepSize = value
			band.NumBps = bps
		}
	}
}

// generateCOM generates the COM marker segment.
func (e *encoder) generateCOM() []byte {
	comment := []byte(e.options.Comment)
	length := 4 + len(comment)

	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.COM))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))
	binary.BigEndian.PutUint16(buf[4:6], codestream.CommentLatin1)
	copy(buf[6:], comment)

	return buf
}

// generateTiles generates tile data.
func (e *encoder) generateTiles() ([]byte, error) {
	var buf []byte

	// For now, single tile (entire image)
	tileData, err := e.encodeTile(0)
	if err != nil {
		return nil, err
	}
	buf = append(buf, tileData...)

	return buf, nil
}

// encodeTile builds one tile component per image component, seeds it with
// this tile's spatial samples, and runs the compress scheduler's
// finest-to-coarsest forward wavelet + code-block encode pipeline
// (internal/scheduler.Scheduler.Compress) before packing the resulting
// code-block payloads into real packets.
func (e *encoder) encodeTile(tileIdx int) ([]byte, error) {
	numRes := e.options.NumResolutions
	if numRes <= 0 {
		numRes = 6
	}
	cblkExpnW := uint8(e.options.CodeBlockSize.X)
	cblkExpnH := uint8(e.options.CodeBlockSize.Y)
	if e.options.CodeBlockSize.X <= 0 {
		cblkExpnW = 6
	}
	if e.options.CodeBlockSize.Y <= 0 {
		cblkExpnH = 6
	}

	cp := tcd.CodingParams{
		NumResolutions: numRes,
		CblkExpnW:      cblkExpnW,
		CblkExpnH:      cblkExpnH,
		Irreversible:   !e.options.Lossless,
	}
	rect := tcd.Rect{X0: 0, Y0: 0, X1: int32(e.width), Y1: int32(e.height)}

	sched := &scheduler.Scheduler{Workers: runtime.GOMAXPROCS(0), NewT1: newT1Worker}
	tcs := make([]*tcd.TileComponent, e.numComponents)
	for c := 0; c < e.numComponents; c++ {
		tc, err := tcd.NewTileComponent(true, true, rect, rect, e.precision, e.signed, cp)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", c, err)
		}
		tc.Index = c
		e.assignQuantization(tc)

		if cp.Irreversible {
			samples := make([]float64, len(e.componentData[c]))
			for i, v := range e.componentData[c] {
				samples[i] = float64(v)
			}
			tc.SeedSamplesFloat(samples)
		} else {
			tc.SeedSamples(e.componentData[c])
		}

		if err := sched.Compress(context.Background(), tc, e.precision); err != nil {
			return nil, fmt.Errorf("component %d: %w", c, err)
		}
		tcs[c] = tc
	}

	tileData, err := e.encodePackets(tcs)
	if err != nil {
		return nil, err
	}
	return e.createTileHeader(tileIdx, tileData), nil
}

// encodePackets packs every tile component's code-block payloads into a
// single quality layer of real packets, in the configured progression
// order, via internal/t2.PacketEncoder -- the mirror of decoder.go's
// depositTilePackets.
func (e *encoder) encodePackets(tcs []*tcd.TileComponent) ([]byte, error) {
	if len(tcs) == 0 {
		return nil, nil
	}
	numRes := len(tcs[0].Resolutions)

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

	var buf bytes.Buffer
	enc := t2.NewPacketEncoder(&buf)
	order := codestream.ProgressionOrder(e.options.ProgressionOrder)
	pi := t2.NewPacketIterator(len(tcs), numRes, 1, precinctCounts, order)
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
		if err := enc.EncodePacket(precincts, bandNumBps, pkt.Layer, e.options.EnableSOP, e.options.EnableEPH); err != nil {
			return nil, fmt.Errorf("resolution %d component %d: %w", pkt.Resolution, pkt.Component, err)
		}
	}
	return buf.Bytes(), nil
}

// createTileHeader creates the tile-part header.
func (e *encoder) createTileHeader(tileIdx int, tileData []byte) []byte {
	sotLength := 10
	tilePartLength := uint32(14 + len(tileData))

	header := make([]byte, 14)
	binary.BigEndian.PutUint16(header[0:2], uint16(codestream.SOT))
	binary.BigEndian.PutUint16(header[2:4], uint16(sotLength))
	binary.BigEndian.PutUint16(header[4:6], uint16(tileIdx))
	binary.BigEndian.PutUint32(header[6:10], tilePartLength)
	header[10] = 0 // Tile-part index
	header[11] = 1 // Number of tile-parts
	binary.BigEndian.PutUint16(header[12:14], uint16(codestream.SOD))

	return append(header, tileData...)
}

// writeJP2 writes a JP2 file.
func (e *encoder) writeJP2(codestream []byte) error {
	boxWriter := box.NewWriter(e.w)

	// Write signature
	if err := boxWriter.WriteSignature(); err != nil {
		return err
	}

	// Write file type box
	ftypBox := box.CreateFileTypeBox()
	if err := boxWriter.WriteBox(ftypBox); err != nil {
		return err
	}

	// Determine colorspace from options or default based on components
	var colorspace uint32
	switch e.options.ColorSpace {
	case ColorSpaceBilevel:
		colorspace = box.CSBilevel1
	case ColorSpaceGray:
		colorspace = box.CSGray
	case ColorSpaceSRGB:
		colorspace = box.CSSRGB
	case ColorSpaceSYCC:
		colorspace = box.CSYCbCr1
	case ColorSpaceYCbCr2:
		colorspace = box.CSYCbCr2
	case ColorSpaceYCbCr3:
		colorspace = box.CSYCbCr3
	case ColorSpacePhotoYCC:
		colorspace = box.CSPhotoYCC
	case ColorSpaceCMY:
		colorspace = box.CSCMY
	case ColorSpaceCMYK:
		colorspace = box.CSCMYK
	case ColorSpaceYCCK:
		colorspace = box.CSYCCK
	case ColorSpaceCIELab:
		colorspace = box.CSCIELab
	case ColorSpaceCIEJab:
		colorspace = box.CSCIEJab
	case ColorSpaceESRGB:
		colorspace = box.CSeSRGB
	case ColorSpaceROMMRGB:
		colorspace = box.CSROMMRGB
	case ColorSpaceYPbPr60:
		colorspace = box.CSYPbPr1125
	case ColorSpaceYPbPr50:
		colorspace = box.CSYPbPr1250
	case ColorSpaceEYCC:
		colorspace = box.CSeSYCC
	default:
		// Default based on number of components
		if e.numComponents == 1 {
			colorspace = box.CSGray
		} else {
			// 3 or 4 components default to sRGB (4th component is alpha)
			colorspace = box.CSSRGB
		}
	}

	// Write JP2 header
	jp2hBox := box.CreateJP2Header(
		uint32(e.width),
		uint32(e.height),
		uint16(e.numComponents),
		uint8(e.precision-1),
		colorspace,
	)
	if err := boxWriter.WriteBox(jp2hBox); err != nil {
		return err
	}

	// Write codestream
	jp2cBox := box.CreateCodestreamBox(codestream)
	if err := boxWriter.WriteBox(jp2cBox); err != nil {
		return err
	}

	return nil
}

// Ensure encoder implements required interfaces
var _ color.Model = (*encoder)(nil).colorModel()

func (e *encoder) colorModel() color.Model {
	return nil
}
