// Package dagify implements the DAGifier stage: it turns a SubGraph's
// cyclic local-id graph into an acyclic one by duplicating every non-source,
// non-terminal vertex and classifying edges with an iterative DFS, following
// Brankovic et al.'s construction.
package dagify

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/core/partition"
	"github.com/sbp-tools/sbp/pkg/errors"
)

// R and RPrime are the fixed local ids of a DAG's source and terminal
// vertices, shared with the SubGraph they were built from.
const (
	R      = partition.SourceID
	RPrime = partition.TerminalID
)

// DAG is the acyclic, vertex-duplicated transform of a SubGraph. Original
// vertex ids run [2, n+1]; their duplicates run [n+2, 2n+1].
type DAG struct {
	Graph *graph.MultiDigraph[int]
	N     int // |U|, the number of original (non-source/terminal) vertices
}

// Dup returns the duplicate partner of a non-source, non-terminal local id:
// Dup is its own inverse on U ∪ U′ (D3).
func (d *DAG) Dup(i int) int {
	if i <= d.N+1 {
		return i + d.N
	}
	return i - d.N
}

// color marks DFS visitation state for the edge-classification pass.
type color int

const (
	white color = iota
	grey
	black
)

// dagFrame is one explicit-stack activation record standing in for a
// recursive DFS(v) call during edge classification.
type dagFrame struct {
	v        int
	children []int
	ci       int
}

// Build transforms SubGraph h into its DAG per §4.7: vertex duplication,
// edge seeding from r/r′, DFS edge classification, and source/terminal
// completion.
func Build(ctx context.Context, h *partition.SubGraph, logger *log.Logger) (*DAG, error) {
	if logger == nil {
		logger = log.Default()
	}

	u := make([]int, 0, h.Graph.VertexCount())
	for _, v := range h.Graph.Vertices() {
		if v != R && v != RPrime {
			u = append(u, v)
		}
	}
	n := len(u)

	d := &DAG{Graph: graph.New[int](), N: n}
	d.Graph.AddVertex(R)
	d.Graph.AddVertex(RPrime)
	for _, v := range u {
		d.Graph.AddVertex(v)
		d.Graph.AddVertex(d.Dup(v))
	}

	rSeeded, err := seedFromR(h, d)
	if err != nil {
		return nil, err
	}
	rPrimeSeeded, err := seedToRPrime(h, d)
	if err != nil {
		return nil, err
	}

	if err := classifyEdges(ctx, h, d, u); err != nil {
		return nil, err
	}

	dagVertices := make([]int, 0, 2*n)
	for _, v := range u {
		dagVertices = append(dagVertices, v, d.Dup(v))
	}

	if !rSeeded {
		for _, v := range dagVertices {
			indeg, err := d.Graph.InDegree(v)
			if err != nil {
				return nil, err
			}
			if indeg == 0 {
				if err := d.Graph.AddEdge(R, v); err != nil {
					return nil, err
				}
			}
		}
	}
	if !rPrimeSeeded {
		for _, v := range dagVertices {
			outdeg, err := d.Graph.OutDegree(v)
			if err != nil {
				return nil, err
			}
			if outdeg == 0 {
				if err := d.Graph.AddEdge(v, RPrime); err != nil {
					return nil, err
				}
			}
		}
	}

	logger.Info("built DAG", "vertices", d.Graph.VertexCount(), "edges", d.Graph.EdgeCount())
	return d, nil
}

// seedFromR adds (r, v) to D for every H-child v of r other than r′, and
// reports whether any such edge was added.
func seedFromR(h *partition.SubGraph, d *DAG) (bool, error) {
	children, err := h.Graph.Children(R)
	if err != nil {
		return false, err
	}
	seeded := false
	for _, v := range children {
		if v == RPrime {
			continue
		}
		if err := d.Graph.AddEdge(R, v); err != nil {
			return false, err
		}
		seeded = true
	}
	return seeded, nil
}

// seedToRPrime adds (v′, r′) to D for every H-parent v of r′ other than r,
// and reports whether any such edge was added.
func seedToRPrime(h *partition.SubGraph, d *DAG) (bool, error) {
	parents, err := h.Graph.Parents(RPrime)
	if err != nil {
		return false, err
	}
	seeded := false
	for _, v := range parents {
		if v == R {
			continue
		}
		if err := d.Graph.AddEdge(d.Dup(v), RPrime); err != nil {
			return false, err
		}
		seeded = true
	}
	return seeded, nil
}

// classifyEdges runs the DFS edge classification pass over H, rooted at r
// if r has any H-children, otherwise at the first (by local id) member of
// U; any member of U left unvisited afterwards starts a further DFS tree so
// every vertex is classified regardless of connectivity.
func classifyEdges(ctx context.Context, h *partition.SubGraph, d *DAG, u []int) error {
	colors := make(map[int]color, len(u)+2)
	colors[R] = white
	colors[RPrime] = white
	for _, v := range u {
		colors[v] = white
	}

	rChildren, err := h.Graph.Children(R)
	if err != nil {
		return err
	}

	roots := make([]int, 0, len(u)+1)
	if len(rChildren) > 0 {
		roots = append(roots, R)
	}
	roots = append(roots, u...)

	for _, root := range roots {
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.CodeCancelled, ctx.Err(), "dagifier cancelled")
		default:
		}
		if colors[root] != white {
			continue
		}
		if err := dfsFrom(h, d, colors, root); err != nil {
			return err
		}
	}
	return nil
}

func dfsFrom(h *partition.SubGraph, d *DAG, colors map[int]color, root int) error {
	colors[root] = grey
	work := []*dagFrame{{v: root}}

	for len(work) > 0 {
		top := work[len(work)-1]

		if top.children == nil {
			children, err := h.Graph.Children(top.v)
			if err != nil {
				return err
			}
			top.children = children
		}

		if top.ci < len(top.children) {
			w := top.children[top.ci]
			top.ci++

			inU := top.v != R && top.v != RPrime && w != R && w != RPrime
			switch colors[w] {
			case white:
				if inU {
					if err := d.Graph.AddEdge(top.v, w); err != nil {
						return err
					}
					if err := d.Graph.AddEdge(d.Dup(top.v), d.Dup(w)); err != nil {
						return err
					}
				}
				colors[w] = grey
				work = append(work, &dagFrame{v: w})
			case grey:
				if inU {
					if err := d.Graph.AddEdge(top.v, d.Dup(w)); err != nil {
						return err
					}
				}
			case black:
				if inU {
					if err := d.Graph.AddEdge(top.v, w); err != nil {
						return err
					}
					if err := d.Graph.AddEdge(d.Dup(top.v), d.Dup(w)); err != nil {
						return err
					}
				}
			}
			continue
		}

		work = work[:len(work)-1]
		colors[top.v] = black
	}
	return nil
}
