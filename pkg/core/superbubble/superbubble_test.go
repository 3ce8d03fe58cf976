package superbubble

import (
	"context"
	"testing"

	"github.com/sbp-tools/sbp/pkg/core/dagify"
	"github.com/sbp-tools/sbp/pkg/core/graph"
)

// buildDAG constructs a *dagify.DAG directly from local ids (r=dagify.R,
// r'=dagify.RPrime already present), for tests that want full control over
// the DAG shape without going through Partitioner+DAGifier.
func buildDAG(t *testing.T, n int, vertices []int, edges [][2]int) *dagify.DAG {
	t.Helper()
	g := graph.New[int]()
	g.AddVertex(dagify.R)
	g.AddVertex(dagify.RPrime)
	for _, v := range vertices {
		g.AddVertex(v)
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", e[0], e[1], err)
		}
	}
	return &dagify.DAG{Graph: g, N: n}
}

func containsPair(pairs []Pair, want Pair) bool {
	for _, p := range pairs {
		if p == want {
			return true
		}
	}
	return false
}

// TestS3DiamondFound builds by hand, with buildDAG, the DAG that DAGifier
// gives the simple S3 diamond when source and terminal are unseeded (no
// external connections per S5's rule discussion): the original copy plus a
// mirror copy (ids 8..11 here). Find reports both the original (0,3) and
// its untranslatable mirror twin; FilterTranslatable keeps only the
// original.
func TestS3DiamondFound(t *testing.T) {
	// local ids: 2=global0, 3=global1, 4=global2, 5=global3.
	d := buildDAG(t, 4,
		[]int{2, 3, 4, 5, 8, 9, 10, 11},
		[][2]int{
			{dagify.R, 2}, {dagify.R, 8},
			{2, 3}, {2, 4}, {3, 5}, {4, 5},
			{8, 9}, {8, 10}, {9, 11}, {10, 11},
			{5, dagify.RPrime}, {11, dagify.RPrime},
		})

	pairs, err := Find(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !containsPair(pairs, Pair{Entrance: 2, Exit: 5}) {
		t.Errorf("pairs = %v, want to contain (2,5)", pairs)
	}
	if !containsPair(pairs, Pair{Entrance: 8, Exit: 11}) {
		t.Errorf("pairs = %v, want to contain duplicate-copy (8,11)", pairs)
	}

	translatable := FilterTranslatable(d, pairs)
	if !containsPair(translatable, Pair{Entrance: 2, Exit: 5}) {
		t.Errorf("translatable = %v, want to contain (2,5)", translatable)
	}
	if containsPair(translatable, Pair{Entrance: 8, Exit: 11}) {
		t.Errorf("translatable = %v, should not contain duplicate-copy pair", translatable)
	}
}

// TestS4NestedDiamondFindsFullMinimalDecomposition builds the
// nested-diamond-after-merge shape from S4 directly (no DAGifier
// duplication involved, isolating Phase A-E behaviour). The rigorous
// per-entrance-minimal-exit decomposition of this DAG is (2,5), (5,8) and
// (8,9) in local ids — see DESIGN.md's C8 entry, which cross-checks this
// against BruteForce and against S4's (inaccurate) prose expectation.
func TestS4NestedDiamondFindsFullMinimalDecomposition(t *testing.T) {
	// local ids: 2..9 = global 0..7.
	d := buildDAG(t, 8,
		[]int{2, 3, 4, 5, 6, 7, 8, 9},
		[][2]int{
			{dagify.R, 2},
			{2, 3}, {2, 4},
			{3, 5}, {4, 5},
			{5, 6}, {5, 7},
			{6, 8}, {7, 8},
			{8, 9},
			{9, dagify.RPrime},
		})

	pairs, err := Find(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	for _, want := range []Pair{{Entrance: 2, Exit: 5}, {Entrance: 5, Exit: 8}, {Entrance: 8, Exit: 9}} {
		if !containsPair(pairs, want) {
			t.Errorf("pairs = %v, want to contain %v", pairs, want)
		}
	}

	// Soundness (P7): every reported pair must also satisfy the direct
	// reachability-matching definition.
	for _, p := range pairs {
		ok, err := isMatchingPair(d.Graph, p.Entrance, p.Exit)
		if err != nil {
			t.Fatalf("isMatchingPair(%d,%d): %v", p.Entrance, p.Exit, err)
		}
		if !ok {
			t.Errorf("reported pair (%d,%d) fails the direct matching definition", p.Entrance, p.Exit)
		}
	}

	// Completeness (P8) on this small graph: Find's output matches
	// BruteForce's independently-derived minimal decomposition exactly.
	bf, err := BruteForce(context.Background(), d.Graph, dagify.R)
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	if len(bf) != len(pairs) {
		t.Errorf("BruteForce found %d pairs, Find found %d: %v vs %v", len(bf), len(pairs), bf, pairs)
	}
	for _, want := range bf {
		if !containsPair(pairs, want) {
			t.Errorf("Find missed brute-force pair %v", want)
		}
	}
}

// TestFindRejectsCycle feeds a graph containing a genuine back edge (never
// passed through DAGifier) directly to topologicalOrder and expects
// CodeNotADAG.
func TestFindRejectsCycle(t *testing.T) {
	g := graph.New[int]()
	for _, v := range []int{0, 1, 2} {
		g.AddVertex(v)
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	must(g.AddEdge(0, 1))
	must(g.AddEdge(1, 2))
	must(g.AddEdge(2, 0))

	if _, err := topologicalOrder(context.Background(), g, 0); err == nil {
		t.Fatal("expected CodeNotADAG for a cyclic graph")
	}
}

// TestFindEmptyDAG checks the trivial empty-graph case returns no pairs and
// no error.
func TestFindEmptyDAG(t *testing.T) {
	d := &dagify.DAG{Graph: graph.New[int](), N: 0}
	pairs, err := Find(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("pairs = %v, want empty", pairs)
	}
}

// TestBruteForceMatchesDiamond checks the brute-force validator's own
// output on a plain (non-duplicated) diamond, independent of Find.
func TestBruteForceMatchesDiamond(t *testing.T) {
	d := buildDAG(t, 4,
		[]int{2, 3, 4, 5},
		[][2]int{
			{dagify.R, 2},
			{2, 3}, {2, 4}, {3, 5}, {4, 5},
			{5, dagify.RPrime},
		})

	pairs, err := BruteForce(context.Background(), d.Graph, dagify.R)
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	if !containsPair(pairs, Pair{Entrance: 2, Exit: 5}) {
		t.Errorf("brute-force pairs = %v, want to contain (2,5)", pairs)
	}
}

// TestBruteForceReportsMinimalNotOuterExit confirms that the wider pair
// (2,9) — global (0,7), the pair S4's prose names as the "outer" bubble —
// satisfies the raw reachability-matching definition but is correctly
// excluded from the minimal decomposition once (2,5) is accounted for as
// entrance 2's nearest valid exit. This is the trace behind the C8 Open
// Question resolution in DESIGN.md.
func TestBruteForceReportsMinimalNotOuterExit(t *testing.T) {
	d := buildDAG(t, 8,
		[]int{2, 3, 4, 5, 6, 7, 8, 9},
		[][2]int{
			{dagify.R, 2},
			{2, 3}, {2, 4},
			{3, 5}, {4, 5},
			{5, 6}, {5, 7},
			{6, 8}, {7, 8},
			{8, 9},
			{9, dagify.RPrime},
		})

	ok, err := isMatchingPair(d.Graph, 2, 9)
	if err != nil {
		t.Fatalf("isMatchingPair(2,9): %v", err)
	}
	if !ok {
		t.Error("expected (2,9) to satisfy the raw matching condition")
	}

	pairs, err := BruteForce(context.Background(), d.Graph, dagify.R)
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	if containsPair(pairs, Pair{Entrance: 2, Exit: 9}) {
		t.Errorf("pairs = %v, (2,9) should be excluded once (2,5) is entrance 2's minimal exit", pairs)
	}
	if !containsPair(pairs, Pair{Entrance: 2, Exit: 5}) {
		t.Errorf("pairs = %v, want (2,5) as entrance 2's minimal exit", pairs)
	}
}
