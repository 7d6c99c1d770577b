// Package taskgraph is a minimal task-graph runtime: nodes with explicit
// precede edges, fanned out with golang.org/x/sync/errgroup, honoring a
// single shared "success" flag that any task can clear to make the rest
// of the graph short-circuit (spec.md §5's "Shared-state policy"). No
// panic crosses a task boundary; a task that panics is converted into a
// cleared success flag exactly like a returned error would be.
package taskgraph

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Func is a task body. Its return value is an error if one occurred;
// the runtime treats a non-nil error and a panic identically.
type Func func(ctx context.Context) error

// Node is one vertex of the graph. Zero value is a usable node with no
// body (a join point).
type Node struct {
	name    string
	fn      Func
	preds   []*Node
	succs   []*Node
	indegAt atomic.Int32
}

// NewNode creates a named node running fn (fn may be nil for a pure join
// point).
func NewNode(name string, fn Func) *Node {
	return &Node{name: name, fn: fn}
}

// SetFunc attaches or replaces a node's task body; used when a node must
// be created before its work is known (e.g. ResFlow's fixed three-node
// shape, populated once the scheduler has enumerated code blocks).
func (n *Node) SetFunc(fn Func) {
	n.fn = fn
}

// Precede records that n must run before other.
func (n *Node) Precede(other *Node) *Node {
	n.succs = append(n.succs, other)
	other.preds = append(other.preds, n)
	return n
}

// Graph is a composed set of nodes ready to run. Nodes are added via Add;
// Run executes every node respecting precede edges and returns once the
// whole graph has finished, with the first error any node returned.
type Graph struct {
	nodes   []*Node
	success atomic.Bool
}

// NewGraph creates an empty graph with its shared success flag set true.
func NewGraph() *Graph {
	g := &Graph{}
	g.success.Store(true)
	return g
}

// Add registers nodes as part of this graph's run.
func (g *Graph) Add(nodes ...*Node) {
	g.nodes = append(g.nodes, nodes...)
}

// Success reports the shared success flag; any task may have cleared it.
func (g *Graph) Success() bool {
	return g.success.Load()
}

// Fail clears the shared success flag. Safe to call concurrently; it is
// the only mutation any task performs on shared graph state (spec.md §5:
// "relaxed atomic write + read").
func (g *Graph) Fail() {
	g.success.Store(false)
}

// Run executes the graph to completion, honoring precede edges: a node
// starts only once every predecessor has finished. It returns once every
// node has run (successfully or not); the caller inspects Success() for
// the outcome. Matches spec.md §5's "run().wait()" contract.
func (g *Graph) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, n := range g.nodes {
		n.indegAt.Store(int32(len(n.preds)))
	}

	ready := make(chan *Node, len(g.nodes))
	for _, n := range g.nodes {
		if len(n.preds) == 0 {
			ready <- n
		}
	}

	for scheduled := 0; scheduled < len(g.nodes); scheduled++ {
		node := <-ready
		eg.Go(func() error {
			g.runNode(ctx, node)
			for _, s := range node.succs {
				if s.indegAt.Add(-1) == 0 {
					ready <- s
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

// runNode executes a single node's body, converting a panic into a
// cleared success flag (spec.md §4.7: "No exception crosses a task
// boundary").
func (g *Graph) runNode(ctx context.Context, n *Node) {
	if n.fn == nil {
		return
	}
	if !g.Success() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.Fail()
		}
	}()
	if err := n.fn(ctx); err != nil {
		g.Fail()
	}
}
