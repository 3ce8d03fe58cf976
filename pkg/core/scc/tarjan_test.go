package scc

import (
	"context"
	"sort"
	"testing"

	"github.com/sbp-tools/sbp/pkg/core/graph"
)

func buildIDGraph(t *testing.T, vertices []int, edges [][2]int) *graph.MultiDigraph[int] {
	t.Helper()
	g := graph.New[int]()
	for _, v := range vertices {
		g.AddVertex(v)
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestSingletonsBucketAlwaysPresent(t *testing.T) {
	g := buildIDGraph(t, []int{0, 1, 2}, [][2]int{{0, 1}, {1, 2}})
	result, err := Find(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(result) == 0 {
		t.Fatal("expected at least the singletons bucket")
	}
	got := append([]int(nil), result[0]...)
	sort.Ints(got)
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("singletons = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("singletons = %v, want %v", got, want)
		}
	}
}

func TestEmptySingletonsBucketStillPrepended(t *testing.T) {
	g := buildIDGraph(t, []int{0, 1, 2}, [][2]int{{0, 1}, {1, 2}, {2, 0}})
	result, err := Find(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 (empty bucket + one SCC)", len(result))
	}
	if len(result[0]) != 0 {
		t.Errorf("result[0] = %v, want empty bucket", result[0])
	}
}

// TestS5ThreeCycle mirrors S5: a 3-cycle forms one non-singleton SCC.
func TestS5ThreeCycle(t *testing.T) {
	g := buildIDGraph(t, []int{0, 1, 2}, [][2]int{{0, 1}, {1, 2}, {2, 0}})
	result, err := Find(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(result) != 2 || len(result[1]) != 3 {
		t.Fatalf("result = %v, want one non-singleton SCC of size 3", result)
	}
}

// TestP4SCCPartition verifies that the SCC output partitions the vertex
// set: every vertex appears exactly once, and every entry after the
// singleton bucket has at least two vertices. Strong connectivity of those
// entries is not checked here.
func TestP4SCCPartition(t *testing.T) {
	vertices := []int{0, 1, 2, 3, 4, 5}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 0}, {2, 3}, {3, 4}, {4, 5}}
	g := buildIDGraph(t, vertices, edges)

	result, err := Find(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	seen := make(map[int]bool)
	for _, v := range result[0] {
		if seen[v] {
			t.Errorf("vertex %d appears twice", v)
		}
		seen[v] = true
	}
	for _, scc := range result[1:] {
		if len(scc) < 2 {
			t.Errorf("non-singleton bucket contains size-%d component", len(scc))
		}
		for _, v := range scc {
			if seen[v] {
				t.Errorf("vertex %d appears twice", v)
			}
			seen[v] = true
		}
	}
	for _, v := range vertices {
		if !seen[v] {
			t.Errorf("vertex %d missing from partition", v)
		}
	}
	if len(seen) != len(vertices) {
		t.Errorf("partition covers %d vertices, want %d", len(seen), len(vertices))
	}
}

func TestNoEdgesAllSingletons(t *testing.T) {
	g := buildIDGraph(t, []int{0, 1, 2}, nil)
	result, err := Find(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(result) != 1 || len(result[0]) != 3 {
		t.Fatalf("result = %v, want single bucket with all three vertices", result)
	}
}

func TestSelfLoopIsSingleton(t *testing.T) {
	g := graph.New[int]()
	g.AddVertex(0)
	if err := g.AddEdge(0, 0); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	result, err := Find(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	// A self-loop alone does not make a vertex mutually reachable with a
	// distinct other vertex; it remains its own (singleton) SCC.
	if len(result) != 1 || len(result[0]) != 1 || result[0][0] != 0 {
		t.Fatalf("result = %v, want single vertex singleton", result)
	}
}
