// Package superbubble implements the SuperbubbleFinder stage: linear-time
// detection of superbubble entrance/exit pairs over a single DAG, following
// Brankovic et al.'s topological-order + range-minimum-query construction.
package superbubble

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sbp-tools/sbp/pkg/core/dagify"
	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/errors"
)

// Pair is one reported superbubble endpoint pair, in local DAG ids.
type Pair struct {
	Entrance int
	Exit     int
}

const (
	negInf = -1 << 62
	posInf = 1 << 62
)

// topoFrame is one explicit-stack activation record for the iterative
// post-order DFS of Phase A.
type topoFrame struct {
	v        int
	children []int
	ci       int
}

// order holds Phase A's output.
type order struct {
	invOrd []int         // topological order, root first
	ordD   map[int]int   // vertex -> position in invOrd
}

// topologicalOrder runs an iterative post-order DFS from d.R, detecting
// back edges (Phase A). Vertices are appended to invOrd on finish and the
// slice reversed, since post-order-finish-reversed is reverse-topological
// order becomes topological order for a DAG rooted at the source.
func topologicalOrder(ctx context.Context, g *graph.MultiDigraph[int], root int) (*order, error) {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	colors := make(map[int]int, g.VertexCount())
	for _, v := range g.Vertices() {
		colors[v] = white
	}

	var finished []int
	colors[root] = grey
	work := []*topoFrame{{v: root}}

	for len(work) > 0 {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "superbubble topological sort cancelled")
		default:
		}

		top := work[len(work)-1]
		if top.children == nil {
			children, err := g.Children(top.v)
			if err != nil {
				return nil, err
			}
			top.children = children
		}

		if top.ci < len(top.children) {
			w := top.children[top.ci]
			top.ci++
			switch colors[w] {
			case white:
				colors[w] = grey
				work = append(work, &topoFrame{v: w})
			case grey:
				return nil, errors.New(errors.CodeNotADAG, "back edge (%d, %d) detected during topological sort", top.v, w)
			case black:
				// forward/cross edge, no action needed for ordering.
			}
			continue
		}

		work = work[:len(work)-1]
		colors[top.v] = black
		finished = append(finished, top.v)
	}

	// Any vertex unreachable from root would be a defect: D2 guarantees
	// every vertex lies on an r->r' path, so a properly built DAG never
	// leaves one unvisited.
	if len(finished) != g.VertexCount() {
		return nil, errors.New(errors.CodeInternalInconsistency, "topological sort visited %d of %d vertices", len(finished), g.VertexCount())
	}

	invOrd := make([]int, len(finished))
	for i, v := range finished {
		invOrd[len(finished)-1-i] = v
	}
	ordD := make(map[int]int, len(invOrd))
	for i, v := range invOrd {
		ordD[v] = i
	}
	return &order{invOrd: invOrd, ordD: ordD}, nil
}

// candidateKind distinguishes a Phase B candidate as an entrance or exit.
type candidateKind int

const (
	entranceKind candidateKind = iota
	exitKind
)

// candidate is one Phase B list entry. Phase B's spec describes each
// candidate as carrying a back-pointer to the previous entrance seen so
// far, used by a recursive formulation of nested-minimality validation;
// this implementation gets the same nesting behavior for free from
// validate's exit-stack (Phase E pushes the just-matched entrance back on
// as the new current exit), so no explicit back-pointer field is carried.
type candidate struct {
	vertex int
	kind   candidateKind
}

// buildCandidates implements Phase B: walk invOrd in topological order,
// flagging exit candidates (some parent has out-degree 1) and entrance
// candidates (some child has in-degree 1).
func buildCandidates(ctx context.Context, g *graph.MultiDigraph[int], ord *order) ([]candidate, error) {
	var candidates []candidate

	for _, v := range ord.invOrd {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "candidate generation cancelled")
		default:
		}

		parents, err := g.Parents(v)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			outdeg, err := g.OutDegree(p)
			if err != nil {
				return nil, err
			}
			if outdeg == 1 {
				candidates = append(candidates, candidate{vertex: v, kind: exitKind})
				break
			}
		}

		children, err := g.Children(v)
		if err != nil {
			return nil, err
		}
		isEntrance := false
		for _, c := range children {
			indeg, err := g.InDegree(c)
			if err != nil {
				return nil, err
			}
			if indeg == 1 {
				isEntrance = true
				break
			}
		}
		if isEntrance {
			candidates = append(candidates, candidate{vertex: v, kind: entranceKind})
		}
	}

	return candidates, nil
}

// outArrays implements Phase C: OutChild[i] is the furthest-forward
// topological position reachable by a direct child of invOrd[i] (-inf if
// none); OutParent[i] is the nearest-back topological position of a direct
// parent (+inf if none).
func outArrays(ctx context.Context, g *graph.MultiDigraph[int], ord *order) (outChild, outParent []int, err error) {
	n := len(ord.invOrd)
	outChild = make([]int, n)
	outParent = make([]int, n)

	for i, v := range ord.invOrd {
		select {
		case <-ctx.Done():
			return nil, nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "out-array construction cancelled")
		default:
		}

		children, err := g.Children(v)
		if err != nil {
			return nil, nil, err
		}
		maxChild := negInf
		for _, c := range children {
			if pos := ord.ordD[c]; pos > maxChild {
				maxChild = pos
			}
		}
		outChild[i] = maxChild

		parents, err := g.Parents(v)
		if err != nil {
			return nil, nil, err
		}
		minParent := posInf
		for _, p := range parents {
			if pos := ord.ordD[p]; pos < minParent {
				minParent = pos
			}
		}
		outParent[i] = minParent
	}

	return outChild, outParent, nil
}

// sparseTable is a static range-extremum structure supporting O(1) queries
// after O(N log N) preprocessing (Phase D).
type sparseTable struct {
	table [][]int
	log2  []int
	pick  func(a, b int) int
}

func newSparseTable(values []int, pick func(a, b int) int) *sparseTable {
	n := len(values)
	log2 := make([]int, n+1)
	for i := 2; i <= n; i++ {
		log2[i] = log2[i/2] + 1
	}

	k := log2[n] + 1
	if n == 0 {
		k = 1
	}
	table := make([][]int, k)
	table[0] = append([]int(nil), values...)
	for j := 1; j < k; j++ {
		half := 1 << (j - 1)
		table[j] = make([]int, n-(1<<j)+1)
		for i := 0; i+(1<<j) <= n; i++ {
			table[j][i] = pick(table[j-1][i], table[j-1][i+half])
		}
	}

	return &sparseTable{table: table, log2: log2, pick: pick}
}

// query returns the pick-extremum over values[l..r] inclusive. Callers must
// ensure 0 <= l <= r < n.
func (s *sparseTable) query(l, r int) int {
	j := s.log2[r-l+1]
	return s.pick(s.table[j][l], s.table[j][r-(1<<j)+1])
}

// maxInt and minInt are passed as sparseTable's pick function: the
// predeclared min/max builtins cannot be used as function values.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FilterTranslatable drops any pair with an endpoint outside the original
// vertex range [2, N+1]: the DAGifier duplicates every non-source/terminal
// vertex (§4.7), so an acyclic SubGraph with no external connections gets a
// fully duplicated mirror copy wired to r/r' by the same completion rule as
// the original half. The mirror copy has no entry in the owning SubGraph's
// GlobalOfLocal map, so callers translating a DAG-local pair back to global
// ids should call this first and drop what it filters out.
func FilterTranslatable(d *dagify.DAG, pairs []Pair) []Pair {
	isOriginal := func(v int) bool { return v >= 2 && v <= d.N+1 }
	var out []Pair
	for _, p := range pairs {
		if isOriginal(p.Entrance) && isOriginal(p.Exit) {
			out = append(out, p)
		}
	}
	return out
}

// Find runs the full superbubble-detection pipeline (Phases A-E) over d and
// returns every reported (entrance, exit) pair in local DAG ids, ordered
// innermost-first per candidate the way nested bubbles are discovered.
func Find(ctx context.Context, d *dagify.DAG, logger *log.Logger) ([]Pair, error) {
	if logger == nil {
		logger = log.Default()
	}
	g := d.Graph

	if g.VertexCount() == 0 {
		return nil, nil
	}

	ord, err := topologicalOrder(ctx, g, dagify.R)
	if err != nil {
		return nil, err
	}

	candidates, err := buildCandidates(ctx, g, ord)
	if err != nil {
		return nil, err
	}

	outChild, outParent, err := outArrays(ctx, g, ord)
	if err != nil {
		return nil, err
	}
	if len(outChild) > 0 {
		for i, v := range ord.invOrd {
			outdeg, _ := g.OutDegree(v)
			if outdeg == 0 && outChild[i] != negInf {
				return nil, errors.New(errors.CodeInternalInconsistency, "vertex %d has no children but OutChild != -inf", v)
			}
			indeg, _ := g.InDegree(v)
			if indeg == 0 && outParent[i] != posInf {
				return nil, errors.New(errors.CodeInternalInconsistency, "vertex %d has no parents but OutParent != +inf", v)
			}
		}
	}

	childTable := newSparseTable(outChild, maxInt)
	parentTable := newSparseTable(outParent, minInt)

	pairs, err := validate(ctx, ord, candidates, childTable, parentTable)
	if err != nil {
		return nil, err
	}

	logger.Info("found superbubbles", "count", len(pairs), "dag_vertices", g.VertexCount())
	return pairs, nil
}

// validate implements Phase E: iterate candidates back to front, maintaining
// a stack of unmatched exit candidates, matching each entrance against the
// topmost exit and validating the RMQ escape conditions.
func validate(ctx context.Context, ord *order, candidates []candidate, childTable, parentTable *sparseTable) ([]Pair, error) {
	var pairs []Pair
	var exitStack []int // indices into candidates

	for idx := len(candidates) - 1; idx >= 0; idx-- {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "superbubble validation cancelled")
		default:
		}

		c := candidates[idx]
		if c.kind == exitKind {
			exitStack = append(exitStack, idx)
			continue
		}

		if len(exitStack) == 0 {
			continue
		}

		tIdx := exitStack[len(exitStack)-1]
		t := candidates[tIdx]
		i := ord.ordD[c.vertex]
		j := ord.ordD[t.vertex]

		if i >= j {
			exitStack = exitStack[:len(exitStack)-1]
			continue
		}

		if !isValidPair(childTable, parentTable, c.vertex, t.vertex, i, j) {
			exitStack = exitStack[:len(exitStack)-1]
			continue
		}

		pairs = append(pairs, Pair{Entrance: c.vertex, Exit: t.vertex})
		exitStack[len(exitStack)-1] = idx
	}

	return pairs, nil
}

// isValidPair checks the two RMQ escape conditions and the endpoint
// restriction from §4.8 Phase E for candidate entrance v at position i
// against exit t at position j. Neither endpoint may be r or r′: this also
// excludes the whole-DAG span (r, r′) from the report, matching S3's
// "no (r, r') reported unless whole-graph mode is on" note. This package
// has no whole-graph mode, and BruteForce skips r and r′ as well, so
// (r, r′) is never reported.
func isValidPair(childTable, parentTable *sparseTable, v, t, i, j int) bool {
	if v == dagify.R || v == dagify.RPrime || t == dagify.R || t == dagify.RPrime {
		return false
	}

	if j-1 >= i && childTable.query(i, j-1) > j {
		return false
	}
	if i+1 <= j && parentTable.query(i+1, j) < i {
		return false
	}

	return true
}
