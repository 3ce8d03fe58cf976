// Package compress implements the ChainCompressor stage: it contracts
// maximal unary chains of a k-mer multigraph into single vertices whose
// label is the de Bruijn overlap concatenation of the chain.
package compress

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/errors"
)

// Stats reports how much contraction occurred.
type Stats struct {
	ChainsCollapsed int
}

// isChainInternal reports whether v has exactly one parent, one child, and
// the incoming bundle's weight equals the outgoing bundle's weight.
func isChainInternal(g *graph.MultiDigraph[string], v string) (bool, error) {
	parents, err := g.Parents(v)
	if err != nil {
		return false, err
	}
	children, err := g.Children(v)
	if err != nil {
		return false, err
	}
	if len(parents) != 1 || len(children) != 1 {
		return false, nil
	}
	in, _ := g.WeightOf(parents[0], v)
	out, _ := g.WeightOf(v, children[0])
	return in == out, nil
}

// isChainTerminal reports whether v can end a chain: one parent, zero
// children (per the reading of the source's seek/walk ambiguity adopted
// here: a dead-end vertex still terminates a chain rather than blocking
// it).
func isChainTerminal(g *graph.MultiDigraph[string], v string) (bool, error) {
	parents, err := g.Parents(v)
	if err != nil {
		return false, err
	}
	children, err := g.Children(v)
	if err != nil {
		return false, err
	}
	return len(parents) == 1 && len(children) == 0, nil
}

// Compress contracts every maximal unary chain in g in place and returns
// the number of chains collapsed. It snapshots the vertex key list up
// front so mutation during the walk cannot invalidate iteration: keys no
// longer present (already absorbed into an earlier chain) are skipped.
//
// Compress is idempotent: running it twice on the same graph performs no
// further contraction the second time (P3).
func Compress(ctx context.Context, g *graph.MultiDigraph[string], logger *log.Logger) (Stats, error) {
	if logger == nil {
		logger = log.Default()
	}
	var stats Stats

	snapshot := g.Vertices()
	for _, v := range snapshot {
		select {
		case <-ctx.Done():
			return Stats{}, errors.Wrap(errors.CodeCancelled, ctx.Err(), "chain compressor cancelled")
		default:
		}

		if !g.ContainsVertex(v) {
			continue
		}

		head, err := seek(g, v)
		if err != nil {
			return Stats{}, err
		}

		chain, tail, err := walk(g, head)
		if err != nil {
			return Stats{}, err
		}
		// A chain collapses only when at least two vertices follow its head.
		if len(chain) < 3 {
			continue
		}

		if err := collapse(g, chain, tail); err != nil {
			return Stats{}, err
		}
		stats.ChainsCollapsed++
	}

	logger.Info("compressed chains", "collapsed", stats.ChainsCollapsed, "vertices", g.VertexCount())
	return stats, nil
}

// seek walks upward along the unary incoming edge while the predecessor is
// also chain-internal with matching weight, returning the chain's head.
func seek(g *graph.MultiDigraph[string], v string) (string, error) {
	for {
		parents, err := g.Parents(v)
		if err != nil {
			return "", err
		}
		if len(parents) != 1 {
			return v, nil
		}
		p := parents[0]
		if p == v {
			// Self-loop: v is its own sole parent. Treating it as internal
			// would make seek climb onto itself forever (S2).
			return v, nil
		}
		internal, err := isChainInternal(g, p)
		if err != nil {
			return "", err
		}
		if !internal {
			return v, nil
		}
		v = p
	}
}

// walk collects the chain starting at head. The head is included
// unconditionally (it may have any in-degree); every candidate after it
// must be reached by current's sole outgoing edge, be current's next
// vertex's sole incoming edge, and be either chain-internal or
// chain-terminal to be absorbed. Returns the ordered chain (head..tail
// inclusive) and the tail vertex.
func walk(g *graph.MultiDigraph[string], head string) ([]string, string, error) {
	chain := []string{head}
	current := head
	for {
		children, err := g.Children(current)
		if err != nil {
			return nil, "", err
		}
		if len(children) != 1 {
			break
		}
		next := children[0]
		if next == current {
			// Self-loop: current is its own sole child. Not extendable —
			// absorbing it would append current to its own chain forever
			// (S2).
			break
		}

		nextParents, err := g.Parents(next)
		if err != nil {
			return nil, "", err
		}
		if len(nextParents) != 1 {
			break
		}

		internalNext, err := isChainInternal(g, next)
		if err != nil {
			return nil, "", err
		}
		terminalNext, err := isChainTerminal(g, next)
		if err != nil {
			return nil, "", err
		}
		if !internalNext && !terminalNext {
			break
		}

		chain = append(chain, next)
		current = next
		if terminalNext {
			break
		}
	}
	return chain, chain[len(chain)-1], nil
}

// collapse merges chain (head..tail) into one new vertex whose label
// concatenates the head label with the last character of each subsequent
// member, then rewires head's parents and tail's children onto it.
func collapse(g *graph.MultiDigraph[string], chain []string, tail string) error {
	var b strings.Builder
	b.WriteString(chain[0])
	for _, v := range chain[1:] {
		if len(v) == 0 {
			continue
		}
		b.WriteByte(v[len(v)-1])
	}
	merged := b.String()

	head := chain[0]
	headParents, err := g.Parents(head)
	if err != nil {
		return err
	}
	tailChildren, err := g.Children(tail)
	if err != nil {
		return err
	}

	type weightedEdge struct {
		other  string
		weight uint64
	}
	var incoming, outgoing []weightedEdge
	for _, p := range headParents {
		w, _ := g.WeightOf(p, head)
		incoming = append(incoming, weightedEdge{p, w})
	}
	for _, c := range tailChildren {
		w, _ := g.WeightOf(tail, c)
		outgoing = append(outgoing, weightedEdge{c, w})
	}

	inMembers := make(map[string]bool, len(chain))
	for _, v := range chain {
		inMembers[v] = true
	}

	g.AddVertex(merged)
	for _, e := range incoming {
		src := e.other
		if inMembers[src] {
			// Parent lies inside the chain itself (a cyclic chain):
			// collapsing it into a self-loop on merged would misrepresent
			// the walk, so this incoming bundle is dropped along with the
			// chain member it came from.
			continue
		}
		if err := g.AddEdgeWeighted(src, merged, e.weight); err != nil {
			return err
		}
	}
	for _, e := range outgoing {
		dst := e.other
		if inMembers[dst] {
			continue
		}
		if err := g.AddEdgeWeighted(merged, dst, e.weight); err != nil {
			return err
		}
	}

	for _, v := range chain {
		if g.ContainsVertex(v) {
			if err := g.RemoveVertex(v); err != nil {
				return err
			}
		}
	}
	return nil
}
