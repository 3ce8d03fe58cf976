package superbubble

import (
	"context"

	"github.com/sbp-tools/sbp/pkg/core/dagify"
	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/errors"
)

// BruteForce enumerates every (s, t) superbubble pair by the direct
// reachability-set definition instead of the RMQ construction: for each
// vertex s with at least one child, walk the remaining vertices in
// topological order and report the first t whose "reachable from s without
// passing through t" set equals its "reaches t without passing through s"
// set. It is quadratic (or worse) in vertex count and exists purely as an
// independent cross-check for the -sb2/-sb3 CLI modes and the property
// tests, not as a production code path — Find is the one actually meant to
// scale.
func BruteForce(ctx context.Context, g *graph.MultiDigraph[int], root int) ([]Pair, error) {
	ord, err := topologicalOrder(ctx, g, root)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for i, s := range ord.invOrd {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeCancelled, ctx.Err(), "brute-force superbubble scan cancelled")
		default:
		}

		if s == dagify.R || s == dagify.RPrime {
			continue
		}
		outdeg, err := g.OutDegree(s)
		if err != nil {
			return nil, err
		}
		if outdeg == 0 {
			continue
		}

		for j := i + 1; j < len(ord.invOrd); j++ {
			t := ord.invOrd[j]
			if t == dagify.R || t == dagify.RPrime {
				continue
			}
			ok, err := isMatchingPair(g, s, t)
			if err != nil {
				return nil, err
			}
			if ok {
				pairs = append(pairs, Pair{Entrance: s, Exit: t})
				break
			}
		}
	}
	return pairs, nil
}

// isMatchingPair implements the direct superbubble definition: the vertices
// reachable from s in g-with-t-removed equal the vertices that can reach t
// in g-with-s-removed. An empty shared set is allowed: a bare edge (s,t)
// with no interior vertices is a trivial but valid superbubble by this
// definition, matching Find's literal reading of §4.8 (it reports these
// too rather than filtering them as degenerate).
func isMatchingPair(g *graph.MultiDigraph[int], s, t int) (bool, error) {
	if s == t {
		return false, nil
	}

	out, err := descendantsExcluding(g, s, t, false)
	if err != nil {
		return false, err
	}
	in, err := descendantsExcluding(g, t, s, true)
	if err != nil {
		return false, err
	}

	if len(out) != len(in) {
		return false, nil
	}
	for v := range out {
		if !in[v] {
			return false, nil
		}
	}
	return true, nil
}

// descendantsExcluding computes the set of vertices reachable from start by
// following children (or parents, if reverse) edges, treating avoid as
// removed from the graph. start itself is not included.
func descendantsExcluding(g *graph.MultiDigraph[int], start, avoid int, reverse bool) (map[int]bool, error) {
	seen := make(map[int]bool)
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		var neighbours []int
		var err error
		if reverse {
			neighbours, err = g.Parents(v)
		} else {
			neighbours, err = g.Children(v)
		}
		if err != nil {
			return nil, err
		}

		for _, n := range neighbours {
			if n == avoid || n == start || seen[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return seen, nil
}
