// Package kmer implements the GraphBuilder stage: it streams FASTA reads
// through a fixed-length k-mer window and accumulates the resulting de
// Bruijn adjacency into a graph.MultiDigraph[string].
package kmer

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/errors"
	"github.com/sbp-tools/sbp/pkg/io/fasta"
)

// Stats reports the volume of work a Build call performed.
type Stats struct {
	ReadsConsumed int
	KmersEmitted  int
}

// Build reads records from src, producing a k-mer de Bruijn multigraph.
// For every read r with len(r) > k it enumerates every length-k substring
// in order and adds an edge_ensuring between each consecutive pair. Reads
// with len(r) <= k are skipped rather than aborting the whole stage, so a
// FASTA file consisting entirely of short reads yields an empty graph
// rather than a failure. k < 2 fails immediately with bad-input.
//
// Build checks ctx for cancellation once per read.
func Build(ctx context.Context, src *fasta.Reader, k int, logger *log.Logger) (*graph.MultiDigraph[string], Stats, error) {
	if logger == nil {
		logger = log.Default()
	}
	if k < 2 {
		return nil, Stats{}, errors.New(errors.CodeBadInput, "bad k: %d (must be >= 2)", k)
	}

	g := graph.New[string]()
	var stats Stats

	for {
		select {
		case <-ctx.Done():
			return nil, Stats{}, errors.Wrap(errors.CodeCancelled, ctx.Err(), "graph builder cancelled")
		default:
		}

		rec, err := src.Next()
		if err != nil {
			return nil, Stats{}, err
		}
		if rec.Kind == fasta.End {
			break
		}
		if rec.Kind != fasta.Read {
			continue
		}

		read := string(rec.Data)
		if len(read) <= k {
			continue
		}

		stats.ReadsConsumed++
		prev := read[0:k]
		g.AddVertex(prev)
		stats.KmersEmitted++
		for i := 1; i+k <= len(read); i++ {
			curr := read[i : i+k]
			if err := g.AddEdgeEnsuring(prev, curr); err != nil {
				return nil, Stats{}, err
			}
			stats.KmersEmitted++
			prev = curr
		}
	}

	logger.Info("built k-mer graph", "k", k, "reads", stats.ReadsConsumed, "vertices", g.VertexCount(), "edges", g.EdgeCount())
	return g, stats, nil
}
