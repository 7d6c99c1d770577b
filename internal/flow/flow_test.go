package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/mrjoshuak/go-jpeg2000/internal/taskgraph"
)

func TestOrderingAcrossResolutions(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) taskgraph.Func {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	icf := NewImageComponentFlow(3) // grouped: resFlow-0 (res 0+1), resFlow-1 (res 2)
	if icf.NumResFlows() != 2 {
		t.Fatalf("NumResFlows() = %d, want 2", icf.NumResFlows())
	}
	for i := 0; i < icf.NumResFlows(); i++ {
		rf := icf.ResFlowAt(i)
		rf.SetBlocks(record("blocks" + itoa(i)))
		rf.SetWaveletHoriz(record("horiz" + itoa(i)))
		rf.SetWaveletVert(record("vert" + itoa(i)))
	}

	g := taskgraph.NewGraph()
	icf.Build(g)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !g.Success() {
		t.Fatal("expected success")
	}

	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	if pos["blocks0"] > pos["horiz0"] || pos["horiz0"] > pos["vert0"] {
		t.Fatalf("resFlow 0 internal order violated: %v", order)
	}
	if pos["vert0"] > pos["blocks1"] {
		t.Fatalf("vert0 must precede blocks1: %v", order)
	}
	if pos["blocks1"] > pos["horiz1"] || pos["horiz1"] > pos["vert1"] {
		t.Fatalf("resFlow 1 internal order violated: %v", order)
	}
}

func TestSingleResolutionDisablesWavelet(t *testing.T) {
	icf := NewImageComponentFlow(1)
	rf := icf.ResFlowAt(0)
	var horizRan, vertRan bool
	rf.SetBlocks(func(ctx context.Context) error { return nil })
	rf.SetWaveletHoriz(func(ctx context.Context) error { horizRan = true; return nil })
	rf.SetWaveletVert(func(ctx context.Context) error { vertRan = true; return nil })

	g := taskgraph.NewGraph()
	icf.Build(g)
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if horizRan || vertRan {
		t.Fatal("wavelet nodes must be disabled for a single-resolution flow")
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := "0123456789"
	var out []byte
	for i > 0 {
		out = append([]byte{digits[i%10]}, out...)
		i /= 10
	}
	return string(out)
}
