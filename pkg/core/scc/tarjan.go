// Package scc implements the SCCFinder stage: strongly-connected-component
// decomposition of an integer-keyed multigraph via an explicit-stack
// (non-recursive) Tarjan traversal, so recursion depth never bounds the
// graphs this can process.
package scc

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/errors"
)

// frame is one explicit-stack activation record standing in for a
// recursive Tarjan(v) call.
type frame struct {
	v        int
	children []int
	ci       int // next child index to visit
}

// Find runs Tarjan's algorithm over g and returns the SCC list with the
// mandatory ordering from the spec: index 0 is always the singletons
// bucket (a single list of every size-1 SCC, in closure order; empty if
// there are none), and every subsequent element is a non-singleton SCC in
// closure order.
func Find(ctx context.Context, g *graph.MultiDigraph[int], logger *log.Logger) ([][]int, error) {
	if logger == nil {
		logger = log.Default()
	}

	vertices := g.Vertices()
	index := make(map[int]int, len(vertices))
	lowlink := make(map[int]int, len(vertices))
	onStack := make(map[int]bool, len(vertices))
	var tarjanStack []int
	counter := 0

	var singletons []int
	var sccs [][]int

	for _, root := range vertices {
		if _, seen := index[root]; seen {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "scc finder cancelled")
		default:
		}

		work := []*frame{{v: root}}
		index[root] = counter
		lowlink[root] = counter
		counter++
		tarjanStack = append(tarjanStack, root)
		onStack[root] = true

		for len(work) > 0 {
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

				if _, seen := index[w]; !seen {
					index[w] = counter
					lowlink[w] = counter
					counter++
					tarjanStack = append(tarjanStack, w)
					onStack[w] = true
					work = append(work, &frame{v: w})
					continue
				}
				if onStack[w] && index[w] < lowlink[top.v] {
					lowlink[top.v] = index[w]
				}
				continue
			}

			// Finished exploring top.v: propagate its lowlink to its
			// parent frame before popping, then close the SCC if top.v is
			// its own root.
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1]
				if lowlink[top.v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[top.v]
				}
			}

			if lowlink[top.v] == index[top.v] {
				var component []int
				for {
					n := len(tarjanStack) - 1
					w := tarjanStack[n]
					tarjanStack = tarjanStack[:n]
					onStack[w] = false
					component = append(component, w)
					if w == top.v {
						break
					}
				}
				if len(component) == 1 {
					singletons = append(singletons, component[0])
				} else {
					sccs = append(sccs, component)
				}
			}
		}
	}

	result := make([][]int, 0, len(sccs)+1)
	result = append(result, singletons)
	result = append(result, sccs...)

	logger.Info("found strongly connected components", "singletons", len(singletons), "nontrivial", len(sccs))
	return result, nil
}
