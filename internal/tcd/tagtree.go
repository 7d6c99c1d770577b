package tcd

import (
	"fmt"

	"github.com/mrjoshuak/go-jpeg2000/internal/jerr"
)

// BitReader is the minimal contract TagTree.DecodeValue needs from the
// (out-of-scope, external) T2 packet-header bit reader.
type BitReader interface {
	ReadBit() (int, error)
}

type tagNode struct {
	value int
	low   int
	known bool
}

// TagTree is the two-dimensional quadtree-of-integers of spec.md §4.1,
// grounded on the teacher's internal/tcd.TagTree node layout and
// generalized with the decodeValue bitreader contract the teacher lacks.
type TagTree struct {
	width, height int
	levelWidth    []int
	levelHeight   []int
	nodes         [][]tagNode
}

const maxInt = int(^uint(0) >> 1)

// NewTagTree allocates a tag tree sized for a width x height leaf grid.
// It returns an AllocationFailed-wrapped error only if the requested size
// cannot be represented; callers should treat that as "disable this tree
// and keep decoding" per spec.md §4.1's degrade-on-failure note.
func NewTagTree(width, height int) (*TagTree, error) {
	if width < 0 || height < 0 {
		return nil, jerr.Wrap(jerr.AllocationFailed, fmt.Sprintf("tagtree: negative dimension %dx%d", width, height))
	}
	t := &TagTree{}
	t.Init(width, height)
	return t, nil
}

// Init (re)sizes the tree for a new width x height leaf grid, reallocating
// only if the new size needs more levels/nodes than currently held.
func (t *TagTree) Init(width, height int) {
	t.width, t.height = width, height

	t.levelWidth = t.levelWidth[:0]
	t.levelHeight = t.levelHeight[:0]
	w, h := width, height
	for {
		t.levelWidth = append(t.levelWidth, w)
		t.levelHeight = append(t.levelHeight, h)
		if w <= 1 && h <= 1 {
			break
		}
		w = (w + 1) / 2
		h = (h + 1) / 2
	}

	levels := len(t.levelWidth)
	if cap(t.nodes) < levels {
		t.nodes = make([][]tagNode, levels)
	} else {
		t.nodes = t.nodes[:levels]
	}
	for lvl := 0; lvl < levels; lvl++ {
		n := t.levelWidth[lvl] * t.levelHeight[lvl]
		if n == 0 {
			n = 1
		}
		if cap(t.nodes[lvl]) < n {
			t.nodes[lvl] = make([]tagNode, n)
		} else {
			t.nodes[lvl] = t.nodes[lvl][:n]
		}
		for i := range t.nodes[lvl] {
			t.nodes[lvl][i] = tagNode{value: maxInt}
		}
	}
}

// Reinit zeroes decode state (low/known) for a new packet header parse,
// without reallocating or touching the leaf values set by SetValue.
func (t *TagTree) Reinit() {
	for lvl := range t.nodes {
		for i := range t.nodes[lvl] {
			t.nodes[lvl][i].low = 0
			t.nodes[lvl][i].known = false
		}
	}
}

// SetValue sets the value of leaf (x,y), propagating the minimum up
// through every ancestor so decodeValue's threshold comparisons are
// correct regardless of which leaf triggers them.
func (t *TagTree) SetValue(x, y, value int) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	t.nodes[0][y*t.width+x].value = value
	cx, cy, w := x, y, t.width
	for lvl := 0; lvl+1 < len(t.nodes); lvl++ {
		cx, cy = cx/2, cy/2
		w = t.levelWidth[lvl+1]
		idx := cy*w + cx
		if value < t.nodes[lvl+1][idx].value {
			t.nodes[lvl+1][idx].value = value
		}
	}
}

// path returns, leaf to root, the (level, index) of every ancestor node
// of leaf (x,y), including the leaf itself.
func (t *TagTree) path(x, y int) []struct{ level, idx int } {
	out := make([]struct{ level, idx int }, 0, len(t.nodes))
	cx, cy := x, y
	for lvl := 0; lvl < len(t.nodes); lvl++ {
		w := t.levelWidth[lvl]
		out = append(out, struct{ level, idx int }{lvl, cy*w + cx})
		cx, cy = cx/2, cy/2
	}
	return out
}

// DecodeValue reads bits from br until it has proven leaf (x,y)'s value
// is < threshold or established a lower bound >= threshold, per spec.md
// §4.1. It returns true if the value is known to be < threshold.
func (t *TagTree) DecodeValue(br BitReader, x, y, threshold int) (bool, error) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return false, fmt.Errorf("tagtree: (%d,%d) out of range %dx%d", x, y, t.width, t.height)
	}
	path := t.path(x, y)

	// Walk root to leaf, pulling each node's "low" bound up to date from
	// its parent before reading any new bits for it.
	for i := len(path) - 1; i >= 0; i-- {
		n := &t.nodes[path[i].level][path[i].idx]
		if i+1 < len(path) {
			parent := &t.nodes[path[i+1].level][path[i+1].idx]
			if n.low < parent.low {
				n.low = parent.low
			}
		}
		for !n.known && n.low < threshold {
			if n.low >= n.value {
				n.known = true
				break
			}
			bit, err := br.ReadBit()
			if err != nil {
				return false, err
			}
			if bit == 1 {
				n.known = true
			} else {
				n.low++
			}
		}
	}

	leaf := &t.nodes[0][y*t.width+x]
	return leaf.known && leaf.low < threshold, nil
}
