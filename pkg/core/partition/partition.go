// Package partition implements the Partitioner stage: given an IdGraph and
// its SCC decomposition, it builds one SubGraph per bucket with a
// synthetic source and terminal vertex standing in for everything outside
// the bucket.
package partition

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/errors"
)

// SourceID and TerminalID are the fixed local ids of a SubGraph's
// synthetic entrance and terminal vertices.
const (
	SourceID   = 0
	TerminalID = 1
)

// SubGraph is a MultiDigraph over local ids [0, N) plus the bijection back
// to the global (indexed) vertex space. LocalOfGlobal/GlobalOfLocal are
// partial: they are not defined on SourceID/TerminalID.
type SubGraph struct {
	Graph         *graph.MultiDigraph[int]
	LocalOfGlobal map[int]int
	GlobalOfLocal map[int]int
}

// newSubGraph allocates an empty SubGraph with source and terminal
// vertices pre-added.
func newSubGraph() *SubGraph {
	g := graph.New[int]()
	g.AddVertex(SourceID)
	g.AddVertex(TerminalID)
	return &SubGraph{
		Graph:         g,
		LocalOfGlobal: make(map[int]int),
		GlobalOfLocal: make(map[int]int),
	}
}

// buildOne applies the SubGraph construction rule (spec §3) to member set
// members, drawn from idGraph.
func buildOne(idGraph *graph.MultiDigraph[int], members []int) (*SubGraph, error) {
	sub := newSubGraph()
	inSet := make(map[int]bool, len(members))
	for _, v := range members {
		inSet[v] = true
	}

	nextLocal := TerminalID + 1
	for _, v := range members {
		local := nextLocal
		nextLocal++
		sub.Graph.AddVertex(local)
		sub.LocalOfGlobal[v] = local
		sub.GlobalOfLocal[local] = v
	}

	for _, v := range members {
		lv := sub.LocalOfGlobal[v]

		children, err := idGraph.Children(v)
		if err != nil {
			return nil, err
		}
		for _, u := range children {
			w, _ := idGraph.WeightOf(v, u)
			if inSet[u] {
				lu := sub.LocalOfGlobal[u]
				if err := sub.Graph.AddEdgeWeighted(lv, lu, w); err != nil {
					return nil, err
				}
			} else {
				if err := sub.Graph.AddEdgeWeighted(lv, TerminalID, w); err != nil {
					return nil, err
				}
			}
		}
	}

	// "for each (u,v) with u outside the set, v inside it, add
	// (source_id, v) once": track by the (u,v) pair itself so that two
	// distinct outside parents of the same v each contribute an edge, but
	// a repeated pair does not.
	seenSourceEdge := make(map[[2]int]bool)
	for _, v := range members {
		lv := sub.LocalOfGlobal[v]
		parents, err := idGraph.Parents(v)
		if err != nil {
			return nil, err
		}
		for _, u := range parents {
			if inSet[u] {
				continue
			}
			key := [2]int{u, v}
			if seenSourceEdge[key] {
				continue
			}
			seenSourceEdge[key] = true
			if err := sub.Graph.AddEdgeEnsuring(SourceID, lv); err != nil {
				return nil, err
			}
		}
	}

	return sub, nil
}

// Build produces one SubGraph per element of sccs, in the same order:
// index 0 corresponds to the singletons bucket (skipped if empty), and
// each subsequent element to one non-singleton SCC.
func Build(ctx context.Context, idGraph *graph.MultiDigraph[int], sccs [][]int, logger *log.Logger) ([]*SubGraph, error) {
	if logger == nil {
		logger = log.Default()
	}
	if len(sccs) == 0 {
		return nil, errors.New(errors.CodeInternalInconsistency, "scc list missing mandatory singletons bucket")
	}

	var subgraphs []*SubGraph
	for i, members := range sccs {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "partitioner cancelled")
		default:
		}
		if i == 0 && len(members) == 0 {
			continue
		}
		sub, err := buildOne(idGraph, members)
		if err != nil {
			return nil, err
		}
		subgraphs = append(subgraphs, sub)
	}

	logger.Info("partitioned graph", "subgraphs", len(subgraphs))
	return subgraphs, nil
}
