// Package pkg provides the core libraries for sbp, a superbubble detector
// for genome-assembly de Bruijn graphs.
//
// # Overview
//
// sbp turns a set of overlapping sequencing reads into every superbubble
// the underlying de Bruijn graph contains. The pkg directory is organized
// into:
//
//  1. [core] - domain logic: k-mer graph construction, chain compression,
//     integer indexing, strongly-connected-component partitioning,
//     DAG-ification, and superbubble detection itself
//  2. [io] - FASTA parsing and DOT/SVG graph export
//  3. [db] - persistence (MongoDB primary store, Redis read-through cache)
//  4. [pipeline] - orchestration (build -> compress -> index -> partition ->
//     dagify -> detect)
//  5. [cache] - local DOT/SVG render cache
//  6. [errors] - structured, machine-readable error codes
//  7. [config] - optional ~/.sbprc.toml defaults
//
// # Architecture
//
// The typical data flow through sbp:
//
//	FASTA reads
//	     |
//	     v
//	[core/kmer]        (build the de Bruijn graph)
//	     |
//	     v
//	[core/compress]    (collapse unbranched chains, optional)
//	     |
//	     v
//	[core/index]       (assign each k-mer an integer id)
//	     |
//	     v
//	[core/scc]         (find strongly connected components)
//	     |
//	     v
//	[core/partition]   (split into one SubGraph per component)
//	     |
//	     v
//	[core/dagify]      (break cycles into an acyclic 2-copy graph)
//	     |
//	     v
//	[core/superbubble] (report every superbubble)
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/sbp-tools/sbp/pkg/pipeline"
//	)
//
//	func run() error {
//	    runner := pipeline.NewRunner(nil, nil, nil)
//	    result, err := runner.Execute(context.Background(), pipeline.Options{
//	        FASTAPath: "reads.fasta",
//	        K:         21,
//	    })
//	    if err != nil {
//	        return err
//	    }
//	    for _, sb := range result.Superbubbles {
//	        // sb.Entrance, sb.Exit are global (indexed) vertex ids
//	        _ = sb
//	    }
//	    return nil
//	}
//
// [core]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/core
// [io]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/io
// [db]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/db
// [pipeline]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/cache
// [errors]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/errors
// [config]: https://pkg.go.dev/github.com/sbp-tools/sbp/pkg/config
package pkg
