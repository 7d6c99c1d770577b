// Package flow builds the per-component sub-DAG of spec.md §4.6: a
// ResFlow per resolution (blocks -> waveletHoriz -> waveletVert) chained
// into an ImageComponentFlow, on top of internal/taskgraph. Grounded on
// original_source/src/lib/jp2/scheduling/ImageComponentFlow.cpp's
// ResFlow/ImageComponentFlow.
package flow

import "github.com/mrjoshuak/go-jpeg2000/internal/taskgraph"

// ResFlow is one resolution's three-node sub-graph.
type ResFlow struct {
	Blocks       *taskgraph.Node
	WaveletHoriz *taskgraph.Node
	WaveletVert  *taskgraph.Node
	doWavelet    bool
}

// NewResFlow creates a ResFlow with empty (nil-bodied) nodes; callers
// attach bodies via SetBlocks/SetWaveletHoriz/SetWaveletVert before
// calling Graph.
func NewResFlow(name string) *ResFlow {
	return &ResFlow{
		Blocks:       taskgraph.NewNode(name+"-blocks", nil),
		WaveletHoriz: taskgraph.NewNode(name+"-waveletHoriz", nil),
		WaveletVert:  taskgraph.NewNode(name+"-waveletVert", nil),
		doWavelet:    true,
	}
}

// DisableWavelet drops the wavelet nodes from this ResFlow's internal
// edges and from precede() to a successor; only Blocks survives. Used
// for the single-resolution special case of spec.md §4.6.
func (r *ResFlow) DisableWavelet() {
	r.doWavelet = false
}

// SetBlocks/SetWaveletHoriz/SetWaveletVert attach task bodies.
func (r *ResFlow) SetBlocks(fn taskgraph.Func)       { r.Blocks.SetFunc(fn) }
func (r *ResFlow) SetWaveletHoriz(fn taskgraph.Func) { r.WaveletHoriz.SetFunc(fn) }
func (r *ResFlow) SetWaveletVert(fn taskgraph.Func)  { r.WaveletVert.SetFunc(fn) }

// graph wires this ResFlow's own internal edges.
func (r *ResFlow) graph() {
	if r.doWavelet {
		r.Blocks.Precede(r.WaveletHoriz)
		r.WaveletHoriz.Precede(r.WaveletVert)
	}
}

// addTo registers this ResFlow's live nodes into g.
func (r *ResFlow) addTo(g *taskgraph.Graph) {
	g.Add(r.Blocks)
	if r.doWavelet {
		g.Add(r.WaveletHoriz, r.WaveletVert)
	}
}

// precedeResFlow wires this ResFlow's terminal node to another ResFlow's
// entry node (waveletVert -> blocks, or blocks -> blocks if wavelet is
// disabled), per the original's ResFlow::precede(ResFlow*).
func (r *ResFlow) precedeResFlow(succ *ResFlow) {
	if r.doWavelet {
		r.WaveletVert.Precede(succ.Blocks)
	} else {
		r.Blocks.Precede(succ.Blocks)
	}
}

// precedeNode wires this ResFlow's terminal node to an arbitrary
// successor node, per ResFlow::precede(FlowComponent*).
func (r *ResFlow) precedeNode(succ *taskgraph.Node) {
	if r.doWavelet {
		r.WaveletVert.Precede(succ)
	} else {
		r.Blocks.Precede(succ)
	}
}

// ImageComponentFlow is the per-component sub-DAG: one ResFlow per
// resolution level (after grouping the two lowest into one), chained
// waveletVert[i] -> blocks[i+1], with an optional final-copy node for
// region decode.
type ImageComponentFlow struct {
	resFlows        []*ResFlow
	waveletFinalCopy *taskgraph.Node
}

// NewImageComponentFlow builds the ResFlow chain for a component
// decoding numResolutions resolutions (spec.md §4.6's special cases):
// the two lowest resolutions are grouped into a single ResFlow, and if
// only one resolution is decoded, that ResFlow's wavelet nodes are
// disabled outright.
func NewImageComponentFlow(numResolutions int) *ImageComponentFlow {
	icf := &ImageComponentFlow{}
	if numResolutions == 0 {
		return icf
	}
	noWavelet := numResolutions == 1
	numResFlows := numResolutions
	if numResFlows > 1 {
		numResFlows--
	}
	icf.resFlows = make([]*ResFlow, numResFlows)
	for i := range icf.resFlows {
		icf.resFlows[i] = NewResFlow(resFlowName(i))
	}
	if noWavelet {
		icf.resFlows[0].DisableWavelet()
	}
	return icf
}

func resFlowName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return "resFlow-" + string(digits[i])
	}
	return "resFlow-N"
}

// SetRegionDecompression appends a "region decode final copy" node after
// the last ResFlow, per spec.md §4.6.
func (icf *ImageComponentFlow) SetRegionDecompression(fn taskgraph.Func) {
	icf.waveletFinalCopy = taskgraph.NewNode("waveletFinalCopy", fn)
}

// ResFlowAt returns the ResFlow for the given grouped-resolution index,
// or nil if out of range.
func (icf *ImageComponentFlow) ResFlowAt(i int) *ResFlow {
	if i < 0 || i >= len(icf.resFlows) {
		return nil
	}
	return icf.resFlows[i]
}

// NumResFlows reports how many (possibly grouped) resolution flows this
// component has.
func (icf *ImageComponentFlow) NumResFlows() int { return len(icf.resFlows) }

// Build wires every internal edge and adds every live node to g, ready
// for g.Run(ctx).
func (icf *ImageComponentFlow) Build(g *taskgraph.Graph) {
	for _, rf := range icf.resFlows {
		rf.graph()
	}
	for i := 0; i < len(icf.resFlows)-1; i++ {
		icf.resFlows[i].precedeResFlow(icf.resFlows[i+1])
	}
	if icf.waveletFinalCopy != nil && len(icf.resFlows) > 0 {
		icf.resFlows[len(icf.resFlows)-1].precedeNode(icf.waveletFinalCopy)
	}

	for _, rf := range icf.resFlows {
		rf.addTo(g)
	}
	if icf.waveletFinalCopy != nil {
		g.Add(icf.waveletFinalCopy)
	}
}
