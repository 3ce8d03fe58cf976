// Package graph implements the directed multigraph that backs every stage
// of the superbubble pipeline: parallel edges accumulate as a weight on a
// single (child, parent) bundle rather than being stored individually, and
// every vertex carries a reverse adjacency list so predecessors are as
// cheap to enumerate as successors.
package graph

import (
	"math"

	"github.com/sbp-tools/sbp/pkg/errors"
)

// MultiDigraph is a directed multigraph over a comparable vertex key type.
// Children and parents are kept in insertion order so that iteration —
// and therefore every algorithm built on top of it — is deterministic.
// The zero value is not usable; construct with New.
type MultiDigraph[V comparable] struct {
	vertices  []V
	index     map[V]int // position of v in vertices, or absent if removed
	children  map[V][]V
	parents   map[V][]V
	weight    map[V]map[V]uint64
	edgeCount uint64
}

// New returns an empty MultiDigraph.
func New[V comparable]() *MultiDigraph[V] {
	return &MultiDigraph[V]{
		index:    make(map[V]int),
		children: make(map[V][]V),
		parents:  make(map[V][]V),
		weight:   make(map[V]map[V]uint64),
	}
}

// AddVertex inserts v with empty adjacency. It reports false if v is
// already present, leaving the graph unchanged.
func (g *MultiDigraph[V]) AddVertex(v V) bool {
	if _, ok := g.index[v]; ok {
		return false
	}
	g.index[v] = len(g.vertices)
	g.vertices = append(g.vertices, v)
	g.children[v] = nil
	g.parents[v] = nil
	g.weight[v] = make(map[V]uint64)
	return true
}

// ContainsVertex reports whether v is present.
func (g *MultiDigraph[V]) ContainsVertex(v V) bool {
	_, ok := g.index[v]
	return ok
}

// ContainsEdge reports whether at least one edge (u,v) exists.
func (g *MultiDigraph[V]) ContainsEdge(u, v V) bool {
	bundle, ok := g.weight[u]
	if !ok {
		return false
	}
	w, ok := bundle[v]
	return ok && w > 0
}

// WeightOf returns the multiplicity of the (u,v) bundle, or 0 with ok=false
// if the vertices are absent or no such edge exists.
func (g *MultiDigraph[V]) WeightOf(u, v V) (weight uint64, ok bool) {
	bundle, present := g.weight[u]
	if !present {
		return 0, false
	}
	w, present := bundle[v]
	if !present || w == 0 {
		return 0, false
	}
	return w, true
}

// VertexCount returns the number of vertices currently present.
func (g *MultiDigraph[V]) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the sum of all bundle weights (invariant I3).
func (g *MultiDigraph[V]) EdgeCount() uint64 {
	return g.edgeCount
}

// Vertices returns a copy of the vertex list in insertion order.
func (g *MultiDigraph[V]) Vertices() []V {
	out := make([]V, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Children returns v's distinct out-neighbours in insertion order.
func (g *MultiDigraph[V]) Children(v V) ([]V, error) {
	if !g.ContainsVertex(v) {
		return nil, errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	out := make([]V, len(g.children[v]))
	copy(out, g.children[v])
	return out, nil
}

// Parents returns v's distinct in-neighbours in insertion order.
func (g *MultiDigraph[V]) Parents(v V) ([]V, error) {
	if !g.ContainsVertex(v) {
		return nil, errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	out := make([]V, len(g.parents[v]))
	copy(out, g.parents[v])
	return out, nil
}

// InDegree returns the number of distinct predecessors of v.
func (g *MultiDigraph[V]) InDegree(v V) (int, error) {
	if !g.ContainsVertex(v) {
		return 0, errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	return len(g.parents[v]), nil
}

// OutDegree returns the number of distinct successors of v.
func (g *MultiDigraph[V]) OutDegree(v V) (int, error) {
	if !g.ContainsVertex(v) {
		return 0, errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	return len(g.children[v]), nil
}

// InWeighted returns the sum of incoming bundle weights.
func (g *MultiDigraph[V]) InWeighted(v V) (uint64, error) {
	if !g.ContainsVertex(v) {
		return 0, errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	var total uint64
	for _, p := range g.parents[v] {
		total += g.weight[p][v]
	}
	return total, nil
}

// OutWeighted returns the sum of outgoing bundle weights.
func (g *MultiDigraph[V]) OutWeighted(v V) (uint64, error) {
	if !g.ContainsVertex(v) {
		return 0, errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	var total uint64
	for _, c := range g.children[v] {
		total += g.weight[v][c]
	}
	return total, nil
}

// AddEdge adds one unit of weight to the (u,v) bundle, creating it (and
// updating children/parents) if this is the first edge between the two.
// Fails with missing-vertex if either endpoint is absent, or overflow if
// the global edge counter would wrap.
func (g *MultiDigraph[V]) AddEdge(u, v V) error {
	return g.AddEdgeWeighted(u, v, 1)
}

// AddEdgeEnsuring behaves like AddEdge but creates any missing endpoint
// first instead of failing.
func (g *MultiDigraph[V]) AddEdgeEnsuring(u, v V) error {
	g.AddVertex(u)
	g.AddVertex(v)
	return g.AddEdgeWeighted(u, v, 1)
}

// AddEdgeWeighted adds w (w >= 1) to the (u,v) bundle weight and w to the
// global edge counter.
func (g *MultiDigraph[V]) AddEdgeWeighted(u, v V, w uint64) error {
	if w == 0 {
		return errors.New(errors.CodeBadInput, "edge weight must be >= 1")
	}
	if !g.ContainsVertex(u) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", u)
	}
	if !g.ContainsVertex(v) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	if w > math.MaxUint64-g.edgeCount {
		return errors.New(errors.CodeOverflow, "edge count would overflow adding weight %d to %d", w, g.edgeCount)
	}

	if g.weight[u][v] == 0 {
		g.children[u] = append(g.children[u], v)
		g.parents[v] = append(g.parents[v], u)
	}
	g.weight[u][v] += w
	g.edgeCount += w
	return nil
}

// RemoveEdge decrements the (u,v) bundle by one, removing it entirely once
// the weight reaches zero. Fails with missing-vertex or missing-edge.
func (g *MultiDigraph[V]) RemoveEdge(u, v V) error {
	if !g.ContainsVertex(u) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", u)
	}
	if !g.ContainsVertex(v) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	w, ok := g.WeightOf(u, v)
	if !ok {
		return errors.New(errors.CodeMissingEdge, "no edge (%v, %v)", u, v)
	}
	g.edgeCount--
	if w == 1 {
		g.dropBundle(u, v)
		return nil
	}
	g.weight[u][v] = w - 1
	return nil
}

// RemoveAllEdges deletes the entire (u,v) bundle in one step, decrementing
// the global counter by its current weight.
func (g *MultiDigraph[V]) RemoveAllEdges(u, v V) error {
	if !g.ContainsVertex(u) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", u)
	}
	if !g.ContainsVertex(v) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}
	w, ok := g.WeightOf(u, v)
	if !ok {
		return errors.New(errors.CodeMissingEdge, "no edge (%v, %v)", u, v)
	}
	g.edgeCount -= w
	g.dropBundle(u, v)
	return nil
}

// dropBundle removes the (u,v) bundle and its children/parents entries.
// Callers must have already adjusted edgeCount.
func (g *MultiDigraph[V]) dropBundle(u, v V) {
	delete(g.weight[u], v)
	g.children[u] = removeFirst(g.children[u], v)
	g.parents[v] = removeFirst(g.parents[v], u)
}

// RemoveVertex removes v along with every incident bundle, maintaining
// I1-I5: the global counter drops by the sum of v's incoming and outgoing
// weights.
func (g *MultiDigraph[V]) RemoveVertex(v V) error {
	if !g.ContainsVertex(v) {
		return errors.New(errors.CodeMissingVertex, "vertex %v not found", v)
	}

	for _, c := range append([]V(nil), g.children[v]...) {
		g.edgeCount -= g.weight[v][c]
		delete(g.weight[v], c)
		g.parents[c] = removeFirst(g.parents[c], v)
	}
	for _, p := range append([]V(nil), g.parents[v]...) {
		g.edgeCount -= g.weight[p][v]
		delete(g.weight[p], v)
		g.children[p] = removeFirst(g.children[p], v)
	}

	delete(g.children, v)
	delete(g.parents, v)
	delete(g.weight, v)

	pos := g.index[v]
	g.vertices = append(g.vertices[:pos], g.vertices[pos+1:]...)
	delete(g.index, v)
	for i := pos; i < len(g.vertices); i++ {
		g.index[g.vertices[i]] = i
	}
	return nil
}

func removeFirst[V comparable](s []V, v V) []V {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
