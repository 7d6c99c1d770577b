package taskgraph

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRunHonorsPrecedeOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) Func {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	a := NewNode("a", record("a"))
	b := NewNode("b", record("b"))
	c := NewNode("c", record("c"))
	a.Precede(b)
	b.Precede(c)

	g := NewGraph()
	g.Add(a, b, c)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !g.Success() {
		t.Fatal("expected success")
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRunClearsSuccessOnError(t *testing.T) {
	failing := NewNode("fail", func(ctx context.Context) error { return errors.New("boom") })
	var ranAfter bool
	after := NewNode("after", func(ctx context.Context) error { ranAfter = true; return nil })
	failing.Precede(after)

	g := NewGraph()
	g.Add(failing, after)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Success() {
		t.Fatal("expected success flag to be cleared")
	}
	if ranAfter {
		t.Fatal("successor of a failed node should not run its body once success is false")
	}
}

func TestRunConvertsPanicToFailure(t *testing.T) {
	panics := NewNode("panics", func(ctx context.Context) error { panic("nope") })
	g := NewGraph()
	g.Add(panics)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Success() {
		t.Fatal("expected a panic inside a task to clear the success flag rather than escape Run")
	}
}

func TestFanOutRunsIndependentNodes(t *testing.T) {
	var count int
	var mu sync.Mutex
	inc := func(ctx context.Context) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}
	root := NewNode("root", nil)
	g := NewGraph()
	nodes := []*Node{root}
	for i := 0; i < 8; i++ {
		n := NewNode("leaf", inc)
		root.Precede(n)
		nodes = append(nodes, n)
	}
	g.Add(nodes...)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != 8 {
		t.Fatalf("count = %d, want 8", count)
	}
}
