package dot

import (
	"strings"
	"testing"

	"github.com/sbp-tools/sbp/pkg/core/graph"
)

func buildGraph(t *testing.T) *graph.MultiDigraph[int] {
	t.Helper()
	g := graph.New[int]()
	g.AddVertex(0)
	g.AddVertex(1)
	g.AddVertex(2) // isolated
	if err := g.AddEdgeWeighted(0, 1, 3); err != nil {
		t.Fatalf("AddEdgeWeighted: %v", err)
	}
	return g
}

func TestToDOTWeightLabelMode(t *testing.T) {
	g := buildGraph(t)
	out := ToDOT(g, "test", WeightLabel, Options[int]{})

	if !strings.Contains(out, `digraph "test" {`) {
		t.Errorf("missing digraph header: %q", out)
	}
	if !strings.Contains(out, `"0" -> "1" [label="3"];`) {
		t.Errorf("expected one weighted edge line, got: %q", out)
	}
	if strings.Count(out, `"0" -> "1"`) != 1 {
		t.Errorf("WeightLabel mode should emit exactly one line per bundle: %q", out)
	}
	if !strings.Contains(out, `"2" [label="2"];`) {
		t.Errorf("expected isolated vertex 2 rendered on its own line: %q", out)
	}
}

func TestToDOTMultiEdgeMode(t *testing.T) {
	g := buildGraph(t)
	out := ToDOT(g, "test", MultiEdge, Options[int]{})

	if strings.Count(out, `"0" -> "1";`) != 3 {
		t.Errorf("MultiEdge mode should emit w separate lines, got: %q", out)
	}
}

func TestToDOTLabelAndHighlight(t *testing.T) {
	g := graph.New[int]()
	g.AddVertex(0)
	g.AddVertex(1)
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	out := ToDOT(g, "kmers", WeightLabel, Options[int]{
		Label:     func(v int) string { return "AC" },
		Highlight: func(v int) bool { return v == 0 },
	})

	if !strings.Contains(out, `"AC" -> "AC"`) {
		t.Errorf("expected custom label applied to both endpoints: %q", out)
	}
	if !strings.Contains(out, "dashed") {
		t.Errorf("expected highlighted vertex styling present: %q", out)
	}
}
