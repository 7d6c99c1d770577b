package t2

import (
	"bytes"
	"io"
	"testing"

	"github.com/mrjoshuak/go-jpeg2000/internal/codestream"
	"github.com/mrjoshuak/go-jpeg2000/internal/tcd"
)

// Helper to create precincts for testing.
func createTestPrecincts(numComponents, numResolutions, numPrecincts int) [][][]int {
	precincts := make([][][]int, numComponents)
	for c := 0; c < numComponents; c++ {
		precincts[c] = make([][]int, numResolutions)
		for r := 0; r < numResolutions; r++ {
			precincts[c][r] = []int{numPrecincts}
		}
	}
	return precincts
}

// TestNewPacketIterator tests packet iterator creation.
func TestNewPacketIterator(t *testing.T) {
	precincts := createTestPrecincts(3, 4, 2)

	tests := []struct {
		name           string
		numComponents  int
		numResolutions int
		numLayers      int
		order          codestream.ProgressionOrder
	}{
		{"LRCP", 3, 4, 2, codestream.LRCP},
		{"RLCP", 3, 4, 2, codestream.RLCP},
		{"RPCL", 3, 4, 2, codestream.RPCL},
		{"PCRL", 3, 4, 2, codestream.PCRL},
		{"CPRL", 3, 4, 2, codestream.CPRL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := NewPacketIterator(tt.numComponents, tt.numResolutions, tt.numLayers, precincts, tt.order)
			if pi == nil {
				t.Fatal("NewPacketIterator returned nil")
			}
			if pi.numComponents != tt.numComponents {
				t.Errorf("numComponents = %d; want %d", pi.numComponents, tt.numComponents)
			}
			if pi.numResolutions != tt.numResolutions {
				t.Errorf("numResolutions = %d; want %d", pi.numResolutions, tt.numResolutions)
			}
			if pi.numLayers != tt.numLayers {
				t.Errorf("numLayers = %d; want %d", pi.numLayers, tt.numLayers)
			}
			if pi.order != tt.order {
				t.Errorf("order = %d; want %d", pi.order, tt.order)
			}
		})
	}
}

// TestPacketIteratorLRCP tests LRCP progression order.
func TestPacketIteratorLRCP(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 1)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.LRCP)

	expectedPackets := []Packet{
		{Layer: 0, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 1, Precinct: 0},
	}

	for i, expected := range expectedPackets {
		packet, ok := pi.Next()
		if !ok {
			t.Fatalf("Packet %d: Next() returned false, expected more packets", i)
		}
		if packet != expected {
			t.Errorf("Packet %d: got %+v; want %+v", i, packet, expected)
		}
	}

	_, ok := pi.Next()
	if ok {
		t.Error("Expected no more packets after iteration complete")
	}
}

// TestPacketIteratorRLCP tests RLCP progression order.
func TestPacketIteratorRLCP(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 1)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.RLCP)

	expectedPackets := []Packet{
		{Layer: 0, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 1, Precinct: 0},
	}

	for i, expected := range expectedPackets {
		packet, ok := pi.Next()
		if !ok {
			t.Fatalf("Packet %d: Next() returned false, expected more packets", i)
		}
		if packet != expected {
			t.Errorf("Packet %d: got %+v; want %+v", i, packet, expected)
		}
	}
}

// TestPacketIteratorRPCL tests RPCL progression order.
func TestPacketIteratorRPCL(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 1)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.RPCL)

	expectedPackets := []Packet{
		{Layer: 0, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 1, Precinct: 0},
	}

	for i, expected := range expectedPackets {
		packet, ok := pi.Next()
		if !ok {
			t.Fatalf("Packet %d: Next() returned false", i)
		}
		if packet != expected {
			t.Errorf("Packet %d: got %+v; want %+v", i, packet, expected)
		}
	}
}

// TestPacketIteratorPCRL tests PCRL progression order.
func TestPacketIteratorPCRL(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 1)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.PCRL)

	expectedPackets := []Packet{
		{Layer: 0, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 1, Precinct: 0},
	}

	for i, expected := range expectedPackets {
		packet, ok := pi.Next()
		if !ok {
			t.Fatalf("Packet %d: Next() returned false", i)
		}
		if packet != expected {
			t.Errorf("Packet %d: got %+v; want %+v", i, packet, expected)
		}
	}
}

// TestPacketIteratorCPRL tests CPRL progression order.
func TestPacketIteratorCPRL(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 1)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.CPRL)

	expectedPackets := []Packet{
		{Layer: 0, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 0, Precinct: 0},
		{Layer: 0, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 0, Component: 1, Precinct: 0},
		{Layer: 0, Resolution: 1, Component: 1, Precinct: 0},
		{Layer: 1, Resolution: 1, Component: 1, Precinct: 0},
	}

	for i, expected := range expectedPackets {
		packet, ok := pi.Next()
		if !ok {
			t.Fatalf("Packet %d: Next() returned false", i)
		}
		if packet != expected {
			t.Errorf("Packet %d: got %+v; want %+v", i, packet, expected)
		}
	}
}

// TestPacketIteratorReset tests resetting the iterator.
func TestPacketIteratorReset(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 2)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.LRCP)

	for i := 0; i < 4; i++ {
		_, ok := pi.Next()
		if !ok {
			t.Fatalf("Unexpected end of packets at %d", i)
		}
	}

	pi.Reset()

	packet, ok := pi.Next()
	if !ok {
		t.Fatal("Reset() didn't restore packets")
	}
	expected := Packet{Layer: 0, Resolution: 0, Component: 0, Precinct: 0}
	if packet != expected {
		t.Errorf("After Reset: got %+v; want %+v", packet, expected)
	}
}

// TestPacketIteratorMultiplePrecincts tests with multiple precincts.
func TestPacketIteratorMultiplePrecincts(t *testing.T) {
	precincts := createTestPrecincts(1, 1, 2)
	pi := NewPacketIterator(1, 1, 1, precincts, codestream.LRCP)

	p1, ok1 := pi.Next()
	if !ok1 {
		t.Fatal("Expected packet 1")
	}
	if p1.Precinct != 0 {
		t.Errorf("Packet 1 precinct = %d; want 0", p1.Precinct)
	}

	p2, ok2 := pi.Next()
	if !ok2 {
		t.Fatal("Expected packet 2")
	}
	if p2.Precinct != 1 {
		t.Errorf("Packet 2 precinct = %d; want 1", p2.Precinct)
	}
}

// TestPacketIteratorMaxPrecincts tests maxPrecincts calculation.
func TestPacketIteratorMaxPrecincts(t *testing.T) {
	precincts := [][][]int{
		{{2}, {3}},
		{{1}, {4}},
	}

	pi := NewPacketIterator(2, 2, 1, precincts, codestream.PCRL)
	maxPrec := pi.maxPrecincts()

	if maxPrec != 4 {
		t.Errorf("maxPrecincts() = %d; want 4", maxPrec)
	}
}

// TestByteReaderAt tests the byteReaderAt helper.
func TestByteReaderAt(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	reader := &byteReaderAt{data: data}

	buf := make([]byte, 2)
	n, err := reader.Read(buf)
	if err != nil {
		t.Fatalf("First read error: %v", err)
	}
	if n != 2 {
		t.Errorf("First read: n = %d; want 2", n)
	}
	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Errorf("First read: data = %v; want [0x01, 0x02]", buf)
	}

	n, err = reader.Read(buf)
	if err != nil {
		t.Fatalf("Second read error: %v", err)
	}
	if n != 2 {
		t.Errorf("Second read: n = %d; want 2", n)
	}
	if buf[0] != 0x03 || buf[1] != 0x04 {
		t.Errorf("Second read: data = %v; want [0x03, 0x04]", buf)
	}

	n, err = reader.Read(buf)
	if err != nil {
		t.Fatalf("Third read error: %v", err)
	}
	if n != 1 {
		t.Errorf("Third read: n = %d; want 1", n)
	}

	n, err = reader.Read(buf)
	if err != io.EOF {
		t.Errorf("EOF read: err = %v; want io.EOF", err)
	}
	if n != 0 {
		t.Errorf("EOF read: n = %d; want 0", n)
	}
}

// TestByteReaderAtEmpty tests reading from empty slice.
func TestByteReaderAtEmpty(t *testing.T) {
	reader := &byteReaderAt{data: []byte{}}
	buf := make([]byte, 1)

	n, err := reader.Read(buf)
	if err != io.EOF {
		t.Errorf("Empty read: err = %v; want io.EOF", err)
	}
	if n != 0 {
		t.Errorf("Empty read: n = %d; want 0", n)
	}
}

// TestNewPacketEncoder tests packet encoder creation.
func TestNewPacketEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	if enc == nil {
		t.Fatal("NewPacketEncoder returned nil")
	}
	if enc.w != &buf {
		t.Error("NewPacketEncoder didn't store writer")
	}
	if enc.bio == nil {
		t.Error("NewPacketEncoder didn't create ByteStuffingWriter")
	}
}

// TestNewPacketDecoder tests packet decoder creation.
func TestNewPacketDecoder(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	dec := NewPacketDecoder(data)

	if dec == nil {
		t.Fatal("NewPacketDecoder returned nil")
	}
	if len(dec.buf) != 3 {
		t.Errorf("Decoder buf length = %d; want 3", len(dec.buf))
	}
	if dec.bio == nil {
		t.Error("NewPacketDecoder didn't create ByteStuffingReader")
	}
}

// TestPacketDecoderPosition tests position tracking.
func TestPacketDecoderPosition(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	dec := NewPacketDecoder(data)

	if dec.Position() != 0 {
		t.Errorf("Initial position = %d; want 0", dec.Position())
	}
}

// newBandPrecinct builds a single-band precinct with numCB code blocks
// laid out in one row (16x16 nominal code blocks), for isolating
// EncodePacket/DecodePacket from the rest of the tile-component lattice.
func newBandPrecinct(isCompressor bool, numCB int) *tcd.Precinct {
	bounds := tcd.Rect{X0: 0, Y0: 0, X1: int32(16 * numCB), Y1: 16}
	return tcd.NewPrecinct(bounds, isCompressor, 4, 4)
}

// TestEncodePacketEmpty tests encoding an empty packet.
func TestEncodePacketEmpty(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.IncludedInLayer = 10 // not included at layer 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("Empty packet produced no output")
	}
}

// TestEncodePacketWithData tests encoding a packet with code block data.
func TestEncodePacketWithData(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0xAA, 0xBB, 0xCC}
	cb.NumBps = 2
	cb.IncludedInLayer = 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("Packet with data produced no output")
	}
}

// TestEncodePacketWithSOP tests encoding with SOP marker.
func TestEncodePacketWithSOP(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 5, true, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	data := buf.Bytes()

	if len(data) < 6 {
		t.Fatalf("Output too short for SOP marker: %d bytes", len(data))
	}
	if data[0] != 0xFF || data[1] != 0x91 {
		t.Errorf("SOP marker = %02X%02X; want FF91", data[0], data[1])
	}
	if data[2] != 0x00 || data[3] != 0x04 {
		t.Errorf("SOP length = %02X%02X; want 0004", data[2], data[3])
	}
	layerNum := int(data[4])<<8 | int(data[5])
	if layerNum != 5 {
		t.Errorf("SOP layer number = %d; want 5", layerNum)
	}
}

// TestEncodePacketWithEPH tests encoding with EPH marker.
func TestEncodePacketWithEPH(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, true)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	data := buf.Bytes()

	found := false
	for i := 0; i < len(data)-1; i++ {
		if data[i] == 0xFF && data[i+1] == 0x92 {
			found = true
			break
		}
	}
	if !found {
		t.Error("EPH marker not found in output")
	}
}

// TestEncodePacketWithSOPAndEPH tests encoding with both markers.
func TestEncodePacketWithSOPAndEPH(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, true, true)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	data := buf.Bytes()

	if len(data) < 8 {
		t.Fatalf("Output too short: %d bytes", len(data))
	}
}

// TestEncodeNumPasses tests encoding different numbers of coding passes.
func TestEncodeNumPasses(t *testing.T) {
	tests := []struct {
		numPasses int
		desc      string
	}{
		{1, "single pass"},
		{2, "two passes"},
		{3, "three passes"},
		{4, "four passes"},
		{5, "five passes"},
		{6, "six passes"},
		{10, "ten passes"},
		{36, "thirty-six passes"},
		{37, "thirty-seven passes"},
		{50, "fifty passes"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewPacketEncoder(&buf)

			err := enc.encodeNumPasses(tt.numPasses)
			if err != nil {
				t.Errorf("encodeNumPasses(%d) error: %v", tt.numPasses, err)
			}
		})
	}
}

// TestEncodeLength tests encoding code block lengths.
func TestEncodeLength(t *testing.T) {
	tests := []struct {
		length int
		desc   string
	}{
		{0, "zero length"},
		{1, "one byte"},
		{10, "ten bytes"},
		{100, "hundred bytes"},
		{63, "6 bits"},
		{127, "max valid (7 bits)"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewPacketEncoder(&buf)

			err := enc.encodeLength(tt.length, 0, 0)
			if err != nil {
				t.Errorf("encodeLength(%d) error: %v", tt.length, err)
			}
		})
	}
}

// TestDecodeNumPasses tests decoding coding pass counts.
func TestDecodeNumPasses(t *testing.T) {
	tests := []struct {
		numPasses int
		desc      string
	}{
		{1, "single pass"},
		{2, "two passes"},
		{3, "three passes"},
		{4, "four passes"},
		{5, "five passes"},
		{6, "six passes"},
		{10, "ten passes"},
		{36, "max in 5-bit range"},
		{37, "start of 7-bit range"},
		{50, "fifty passes"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewPacketEncoder(&buf)
			err := enc.encodeNumPasses(tt.numPasses)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			enc.bio.Flush()

			dec := NewPacketDecoder(buf.Bytes())
			decoded, err := dec.decodeNumPasses()
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if decoded != tt.numPasses {
				t.Errorf("Decoded %d; want %d", decoded, tt.numPasses)
			}
		})
	}
}

// TestDecodeLength tests decoding code block lengths.
func TestDecodeLength(t *testing.T) {
	tests := []struct {
		length int
		desc   string
	}{
		{0, "zero length"},
		{1, "one byte"},
		{10, "ten bytes"},
		{100, "hundred bytes"},
		{127, "max valid (7 bits)"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewPacketEncoder(&buf)
			err := enc.encodeLength(tt.length, 0, 0)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			enc.bio.Flush()

			dec := NewPacketDecoder(buf.Bytes())
			decoded, err := dec.decodeLength(0, 0)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if decoded != tt.length {
				t.Errorf("Decoded %d; want %d", decoded, tt.length)
			}
		})
	}
}

// TestDecodePacketWithSOP tests decoding with SOP marker present.
func TestDecodePacketWithSOP(t *testing.T) {
	data := []byte{
		0xFF, 0x91, 0x00, 0x04, 0x00, 0x05, // SOP with layer=5
		0x00, // Empty packet (presence bit = 0)
	}

	dec := NewPacketDecoder(data)
	p := newBandPrecinct(false, 1)

	err := dec.DecodePacket([]*tcd.Precinct{p}, []int{4}, 5, true, false)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}

	if dec.Position() < 6 {
		t.Errorf("Position after SOP = %d; want >= 6", dec.Position())
	}
}

// TestDecodePacketWithEPH tests decoding with EPH marker present.
func TestDecodePacketWithEPH(t *testing.T) {
	data := []byte{
		0x00,       // Empty packet (presence bit = 0)
		0xFF, 0x92, // EPH marker
	}

	dec := NewPacketDecoder(data)
	p := newBandPrecinct(false, 1)

	err := dec.DecodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, true)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
}

// TestDecodeTagTreeValue tests tag tree decoding.
func TestDecodeTagTreeValue(t *testing.T) {
	tree, err := tcd.NewTagTree(2, 2)
	if err != nil {
		t.Fatalf("NewTagTree error: %v", err)
	}

	tests := []struct {
		value int
		desc  string
	}{
		{0, "value 0"},
		{1, "value 1"},
		{5, "value 5"},
		{10, "value 10"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewPacketEncoder(&buf)
			err := enc.encodeTagTreeValue(tree, 0, 0, tt.value)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			enc.bio.Flush()

			dec := NewPacketDecoder(buf.Bytes())
			decoded, err := dec.decodeTagTreeValue(tree, 0, 0)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if decoded != tt.value {
				t.Errorf("Decoded %d; want %d", decoded, tt.value)
			}
		})
	}
}

// TestEncodeDecodePacketRoundTrip tests full packet encode/decode cycle.
func TestEncodeDecodePacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	cb.NumBps = 3
	cb.IncludedInLayer = 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, true, true)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	dec := NewPacketDecoder(buf.Bytes())
	dp := newBandPrecinct(false, 1)
	dp.DecompressedBlock(0).Data = make([]byte, 4)

	err = dec.DecodePacket([]*tcd.Precinct{dp}, []int{4}, 0, true, true)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
}

// TestPacketIteratorEmptyPrecincts tests with empty precinct configuration.
func TestPacketIteratorEmptyPrecincts(t *testing.T) {
	precincts := [][][]int{}
	pi := NewPacketIterator(0, 0, 0, precincts, codestream.LRCP)

	_, ok := pi.Next()
	if ok {
		t.Error("Empty iterator should return false")
	}
}

// TestPacketIteratorSingleElement tests with minimal configuration.
func TestPacketIteratorSingleElement(t *testing.T) {
	precincts := createTestPrecincts(1, 1, 1)
	pi := NewPacketIterator(1, 1, 1, precincts, codestream.LRCP)

	packet, ok := pi.Next()
	if !ok {
		t.Fatal("Expected one packet")
	}
	expected := Packet{Layer: 0, Resolution: 0, Component: 0, Precinct: 0}
	if packet != expected {
		t.Errorf("Got %+v; want %+v", packet, expected)
	}

	_, ok = pi.Next()
	if ok {
		t.Error("Expected no more packets")
	}
}

// TestEncodePacketMultipleCodeBlocks tests encoding with multiple code blocks.
func TestEncodePacketMultipleCodeBlocks(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 2)
	cb0 := p.CompressedBlock(0)
	cb0.Data = []byte{0x01, 0x02}
	cb0.NumBps = 4
	cb0.IncludedInLayer = 0

	cb1 := p.CompressedBlock(1)
	cb1.Data = []byte{0x03, 0x04}
	cb1.NumBps = 3
	cb1.IncludedInLayer = 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("Multi-CB packet produced no output")
	}
}

// TestEncodePacketMultipleBands tests encoding with multiple bands.
func TestEncodePacketMultipleBands(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	precincts := make([]*tcd.Precinct, 3) // HL, LH, HH
	bandNumBps := make([]int, 3)
	for band := 0; band < 3; band++ {
		p := newBandPrecinct(true, 1)
		cb := p.CompressedBlock(0)
		cb.Data = []byte{byte(band + 1)}
		cb.NumBps = 4
		cb.IncludedInLayer = 0
		precincts[band] = p
		bandNumBps[band] = 4
	}

	err := enc.EncodePacket(precincts, bandNumBps, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("Multi-band packet produced no output")
	}
}

// TestPacketIteratorCountPackets tests that iterator produces correct packet count.
func TestPacketIteratorCountPackets(t *testing.T) {
	tests := []struct {
		layers, res, comp, prec int
		order                   codestream.ProgressionOrder
		expected                int
	}{
		{1, 1, 1, 1, codestream.LRCP, 1},
		{2, 2, 2, 1, codestream.LRCP, 8},
		{3, 2, 2, 1, codestream.RLCP, 12},
		{2, 3, 2, 1, codestream.RPCL, 12},
	}

	for _, tt := range tests {
		precincts := createTestPrecincts(tt.comp, tt.res, tt.prec)
		pi := NewPacketIterator(tt.comp, tt.res, tt.layers, precincts, tt.order)

		count := 0
		for {
			_, ok := pi.Next()
			if !ok {
				break
			}
			count++
		}

		if count != tt.expected {
			t.Errorf("Order %d: counted %d packets; want %d", tt.order, count, tt.expected)
		}
	}
}

// BenchmarkPacketIteratorLRCP benchmarks LRCP iteration.
func BenchmarkPacketIteratorLRCP(b *testing.B) {
	precincts := createTestPrecincts(3, 5, 16)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		pi := NewPacketIterator(3, 5, 10, precincts, codestream.LRCP)
		for {
			_, ok := pi.Next()
			if !ok {
				break
			}
		}
	}
}

// BenchmarkPacketIteratorRLCP benchmarks RLCP iteration.
func BenchmarkPacketIteratorRLCP(b *testing.B) {
	precincts := createTestPrecincts(3, 5, 16)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		pi := NewPacketIterator(3, 5, 10, precincts, codestream.RLCP)
		for {
			_, ok := pi.Next()
			if !ok {
				break
			}
		}
	}
}

// BenchmarkPacketIteratorCPRL benchmarks CPRL iteration.
func BenchmarkPacketIteratorCPRL(b *testing.B) {
	precincts := createTestPrecincts(3, 5, 16)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		pi := NewPacketIterator(3, 5, 10, precincts, codestream.CPRL)
		for {
			_, ok := pi.Next()
			if !ok {
				break
			}
		}
	}
}

// BenchmarkEncodePacket benchmarks packet encoding.
func BenchmarkEncodePacket(b *testing.B) {
	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = make([]byte, 1000)
	cb.NumBps = 2
	cb.IncludedInLayer = 0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		enc := NewPacketEncoder(&buf)
		enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	}
}

// BenchmarkDecodeNumPasses benchmarks decoding number of passes.
func BenchmarkDecodeNumPasses(b *testing.B) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)
	enc.encodeNumPasses(10)
	enc.bio.Flush()
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dec := NewPacketDecoder(data)
		dec.decodeNumPasses()
	}
}

// BenchmarkDecodeLength benchmarks decoding lengths.
func BenchmarkDecodeLength(b *testing.B) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)
	enc.encodeLength(1000, 0, 0)
	enc.bio.Flush()
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dec := NewPacketDecoder(data)
		dec.decodeLength(0, 0)
	}
}

// BenchmarkByteReaderAt benchmarks byte reader.
func BenchmarkByteReaderAt(b *testing.B) {
	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reader := &byteReaderAt{data: data}
		buf := make([]byte, 100)
		for {
			_, err := reader.Read(buf)
			if err == io.EOF {
				break
			}
		}
	}
}

// TestPacketIteratorUnknownOrder tests behavior with an invalid progression order.
func TestPacketIteratorUnknownOrder(t *testing.T) {
	precincts := createTestPrecincts(1, 1, 1)
	pi := NewPacketIterator(1, 1, 1, precincts, codestream.ProgressionOrder(99))

	_, ok := pi.Next()
	if ok {
		t.Error("Unknown order should not produce packets")
	}
}

// TestDecodePacketHeaderNonZeroLayer tests decoding packet header at non-zero layer.
func TestDecodePacketHeaderNonZeroLayer(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0xAA}
	cb.NumBps = 4
	cb.IncludedInLayer = 1 // included starting at layer 1

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 1, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("Encoded packet should have data")
	}
}

// TestDecodePacketBodyWithData tests packet body decoding with code block data.
func TestDecodePacketBodyWithData(t *testing.T) {
	data := []byte{
		0xFF, 0x91, 0x00, 0x04, 0x00, 0x00, // SOP with layer=0
		0x80,                   // Packet present (1 bit), then padding
		0xFF, 0x92,             // EPH marker
		0xDE, 0xAD, 0xBE, 0xEF, // Code block data
	}

	dec := NewPacketDecoder(data)
	p := newBandPrecinct(false, 1)
	p.DecompressedBlock(0).Data = make([]byte, 4)

	err := dec.DecodePacket([]*tcd.Precinct{p}, []int{4}, 0, true, true)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
}

// TestEncodePacketHeaderMultipleLayers tests encoding across multiple layers.
func TestEncodePacketHeaderMultipleLayers(t *testing.T) {
	p := newBandPrecinct(true, 2)
	cb0 := p.CompressedBlock(0)
	cb0.Data = []byte{0x01}
	cb0.NumBps = 3
	cb0.IncludedInLayer = 0

	cb1 := p.CompressedBlock(1)
	cb1.Data = []byte{0x02}
	cb1.NumBps = 2
	cb1.IncludedInLayer = 1

	var buf0 bytes.Buffer
	enc0 := NewPacketEncoder(&buf0)
	err := enc0.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket layer 0 error: %v", err)
	}

	var buf1 bytes.Buffer
	enc1 := NewPacketEncoder(&buf1)
	err = enc1.EncodePacket([]*tcd.Precinct{p}, []int{4}, 1, false, false)
	if err != nil {
		t.Fatalf("EncodePacket layer 1 error: %v", err)
	}
}

// TestDecodeNumPassesEdgeCases tests edge cases for pass decoding.
func TestDecodeNumPassesEdgeCases(t *testing.T) {
	tests := []int{1, 2, 3, 4, 5, 6, 7, 35, 36, 37, 38, 100}

	for _, numPasses := range tests {
		var buf bytes.Buffer
		enc := NewPacketEncoder(&buf)
		err := enc.encodeNumPasses(numPasses)
		if err != nil {
			t.Fatalf("encodeNumPasses(%d) error: %v", numPasses, err)
		}
		enc.bio.Flush()

		dec := NewPacketDecoder(buf.Bytes())
		decoded, err := dec.decodeNumPasses()
		if err != nil {
			t.Fatalf("decodeNumPasses (expecting %d) error: %v", numPasses, err)
		}
		if decoded != numPasses {
			t.Errorf("decodeNumPasses: got %d; want %d", decoded, numPasses)
		}
	}
}

// TestPacketIteratorWithVariablePrecincts tests with varying precinct counts.
func TestPacketIteratorWithVariablePrecincts(t *testing.T) {
	precincts := [][][]int{
		{{1}, {2}, {4}},
	}

	pi := NewPacketIterator(1, 3, 1, precincts, codestream.LRCP)

	count := 0
	for {
		_, ok := pi.Next()
		if !ok {
			break
		}
		count++
	}

	if count != 7 {
		t.Errorf("Counted %d packets; want 7", count)
	}
}

// TestHasMoreAllOrders tests hasMore for all progression orders.
func TestHasMoreAllOrders(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 2)

	orders := []codestream.ProgressionOrder{
		codestream.LRCP,
		codestream.RLCP,
		codestream.RPCL,
		codestream.PCRL,
		codestream.CPRL,
	}

	for _, order := range orders {
		pi := NewPacketIterator(2, 2, 2, precincts, order)

		packet, ok := pi.Next()
		if !ok {
			t.Errorf("Order %d: should have packets initially", order)
			continue
		}

		if packet.Layer < 0 || packet.Resolution < 0 || packet.Component < 0 || packet.Precinct < 0 {
			t.Errorf("Order %d: invalid first packet: %+v", order, packet)
		}
	}
}

// TestEncodePacketNotIncludedYet tests encoding when code block not yet included.
func TestEncodePacketNotIncludedYet(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0xAA}
	cb.NumBps = 4
	cb.IncludedInLayer = 5 // will be included at layer 5

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
}

// TestPacketStruct tests the Packet struct.
func TestPacketStruct(t *testing.T) {
	p := Packet{
		Layer:      1,
		Resolution: 2,
		Component:  3,
		Precinct:   4,
	}

	if p.Layer != 1 {
		t.Errorf("Packet.Layer = %d; want 1", p.Layer)
	}
	if p.Resolution != 2 {
		t.Errorf("Packet.Resolution = %d; want 2", p.Resolution)
	}
	if p.Component != 3 {
		t.Errorf("Packet.Component = %d; want 3", p.Component)
	}
	if p.Precinct != 4 {
		t.Errorf("Packet.Precinct = %d; want 4", p.Precinct)
	}
}

// TestDecodePacketEmptyPresent tests decoding an empty packet (presence=0).
func TestDecodePacketEmptyPresent(t *testing.T) {
	data := []byte{0x00}

	dec := NewPacketDecoder(data)
	p := newBandPrecinct(false, 1)

	err := dec.DecodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
}

// errorWriter is an io.Writer that accepts writes until failAfter bytes
// have been written and returns io.ErrShortWrite from then on.
type errorWriter struct {
	failAfter int
	written   int
}

func (w *errorWriter) Write(p []byte) (int, error) {
	if w.written >= w.failAfter {
		return 0, io.ErrShortWrite
	}
	w.written += len(p)
	return len(p), nil
}

// TestDecodePacketNonZeroLayerInclusion tests decoding at layer > 0 with inclusion.
func TestDecodePacketNonZeroLayerInclusion(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0xDE, 0xAD}
	cb.NumBps = 3
	cb.IncludedInLayer = 1

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 1, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
}

// TestDecodePacketWithCodeBlockInclusion tests full decode with CB inclusion.
func TestDecodePacketWithCodeBlockInclusion(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0x11, 0x22, 0x33}
	cb.NumBps = 4
	cb.IncludedInLayer = 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
}

// TestEncodePacketMultiplePasses tests encoding with various pass counts.
func TestEncodePacketMultiplePasses(t *testing.T) {
	bpsForPasses := []int{1, 2, 3, 5, 10, 36, 37, 50}

	for _, numBps := range bpsForPasses {
		var buf bytes.Buffer
		enc := NewPacketEncoder(&buf)

		p := newBandPrecinct(true, 1)
		cb := p.CompressedBlock(0)
		cb.Data = []byte{0xAA}
		cb.NumBps = numBps
		cb.IncludedInLayer = 0

		err := enc.EncodePacket([]*tcd.Precinct{p}, []int{numBps + 4}, 0, false, false)
		if err != nil {
			t.Fatalf("EncodePacket with NumBps %d error: %v", numBps, err)
		}
	}
}

// TestEncodeTagTreeValueZero tests tag tree encoding with value 0.
func TestEncodeTagTreeValueZero(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)
	tree, err := tcd.NewTagTree(2, 2)
	if err != nil {
		t.Fatalf("NewTagTree error: %v", err)
	}

	err = enc.encodeTagTreeValue(tree, 0, 0, 0)
	if err != nil {
		t.Fatalf("encodeTagTreeValue(0) error: %v", err)
	}
}

// TestDecodePacketDataCopy tests that packet body data is properly copied.
func TestDecodePacketDataCopy(t *testing.T) {
	bodyData := []byte{0xCA, 0xFE, 0xBA, 0xBE}

	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = bodyData
	cb.NumBps = 2
	cb.IncludedInLayer = 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
}

// TestPacketIteratorBoundsEdgeCases tests edge cases for bounds.
func TestPacketIteratorBoundsEdgeCases(t *testing.T) {
	precincts := createTestPrecincts(1, 1, 1)
	pi := NewPacketIterator(1, 1, 1, precincts, codestream.LRCP)

	if pi.layer != 0 {
		t.Errorf("Initial layer = %d; want 0", pi.layer)
	}
	if pi.resolution != 0 {
		t.Errorf("Initial resolution = %d; want 0", pi.resolution)
	}
	if pi.component != 0 {
		t.Errorf("Initial component = %d; want 0", pi.component)
	}
	if pi.precinct != 0 {
		t.Errorf("Initial precinct = %d; want 0", pi.precinct)
	}
}

// TestDecodeLengthZero tests decoding a zero-length entry.
func TestDecodeLengthZero(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)
	enc.encodeLength(0, 0, 0)
	enc.bio.Flush()

	dec := NewPacketDecoder(buf.Bytes())
	length, err := dec.decodeLength(0, 0)
	if err != nil {
		t.Fatalf("decodeLength error: %v", err)
	}
	if length != 0 {
		t.Errorf("Decoded length = %d; want 0", length)
	}
}

// TestEncodePacketNoCodeBlocks tests encoding a precinct with no code blocks.
func TestEncodePacketNoCodeBlocks(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := tcd.NewPrecinct(tcd.Rect{}, true, 4, 4) // empty bounds, no code blocks

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}
}

// TestAdvanceRPCLMultiplePrecincts tests RPCL advancement with multiple precincts.
func TestAdvanceRPCLMultiplePrecincts(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 3)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.RPCL)

	count := 0
	for {
		_, ok := pi.Next()
		if !ok {
			break
		}
		count++
	}

	expected := 2 * 3 * 2 * 2
	if count != expected {
		t.Errorf("RPCL packet count = %d; want %d", count, expected)
	}
}

// TestAdvanceCPRLMultiplePrecincts tests CPRL advancement with multiple precincts.
func TestAdvanceCPRLMultiplePrecincts(t *testing.T) {
	precincts := createTestPrecincts(2, 2, 3)
	pi := NewPacketIterator(2, 2, 2, precincts, codestream.CPRL)

	count := 0
	for {
		_, ok := pi.Next()
		if !ok {
			break
		}
		count++
	}

	expected := 2 * 3 * 2 * 2
	if count != expected {
		t.Errorf("CPRL packet count = %d; want %d", count, expected)
	}
}

// TestDecodePacketHeaderAtLayerOne tests decoding packet header at layer 1.
// This covers the "subsequent layers - single bit" branch in decodePacketHeader.
func TestDecodePacketHeaderAtLayerOne(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cb := p.CompressedBlock(0)
	cb.Data = []byte{0xAB, 0xCD}
	cb.NumBps = 2
	cb.IncludedInLayer = 1 // first included at layer 1

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 1, false, false)
	if err != nil {
		t.Fatalf("EncodePacket at layer 1 error: %v", err)
	}

	dec := NewPacketDecoder(buf.Bytes())
	dp := newBandPrecinct(false, 1)

	err = dec.DecodePacket([]*tcd.Precinct{dp}, []int{4}, 1, false, false)
	if err != nil {
		t.Fatalf("DecodePacket at layer 1 error: %v", err)
	}
}

// TestDecodePacketWithCodeBlockDataBody tests decoding packet body with CB data.
func TestDecodePacketWithCodeBlockDataBody(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPacketEncoder(&buf)

	p := newBandPrecinct(true, 1)
	cbData := []byte{0x12, 0x34, 0x56, 0x78}
	cb := p.CompressedBlock(0)
	cb.Data = cbData
	cb.NumBps = 3
	cb.IncludedInLayer = 0

	err := enc.EncodePacket([]*tcd.Precinct{p}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("EncodePacket error: %v", err)
	}

	dec := NewPacketDecoder(buf.Bytes())
	dp := newBandPrecinct(false, 1)
	dp.DecompressedBlock(0).Data = make([]byte, len(cbData))

	err = dec.DecodePacket([]*tcd.Precinct{dp}, []int{4}, 0, false, false)
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}
}
