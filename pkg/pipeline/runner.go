package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sbp-tools/sbp/pkg/cache"
	"github.com/sbp-tools/sbp/pkg/core/compress"
	"github.com/sbp-tools/sbp/pkg/core/dagify"
	"github.com/sbp-tools/sbp/pkg/core/graph"
	"github.com/sbp-tools/sbp/pkg/core/index"
	"github.com/sbp-tools/sbp/pkg/core/kmer"
	"github.com/sbp-tools/sbp/pkg/core/partition"
	"github.com/sbp-tools/sbp/pkg/core/scc"
	"github.com/sbp-tools/sbp/pkg/core/superbubble"
	"github.com/sbp-tools/sbp/pkg/db"
	"github.com/sbp-tools/sbp/pkg/io/dot"
	"github.com/sbp-tools/sbp/pkg/io/fasta"
)

// Runner encapsulates a full pipeline execution with caching and optional
// persistence. Both the CLI and any future programmatic caller use this to
// avoid duplicating the stage-sequencing and cache-key logic, mirroring
// the teacher's Runner.
type Runner struct {
	Cache  cache.Cache
	DB     *db.Store // nil disables -s/-r/-l/-dk/-di
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables render caching; a nil
// store disables persistence operations (Execute still runs the in-memory
// pipeline, it just cannot serve -s/-r/-l/-dk/-di).
func NewRunner(c cache.Cache, store *db.Store, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, DB: store, Logger: logger}
}

// Execute runs the complete build -> [compress] -> index -> scc ->
// partition -> dagify -> superbubble pipeline over one FASTA file.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	runID := uuid.New().String()
	logger := opts.Logger.With("run_id", runID)

	result := &Result{RunID: runID}
	if opts.DumpEachStage {
		result.StageDots = make(map[string]string)
	}
	totalStart := time.Now()

	f, err := os.Open(opts.FASTAPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.FASTAPath, err)
	}
	defer f.Close()

	buildStart := time.Now()
	kmerGraph, kstats, err := kmer.Build(ctx, fasta.NewReader(f), opts.K, logger)
	if err != nil {
		return nil, fmt.Errorf("build k-mer graph: %w", err)
	}
	result.KmerStats = kstats
	result.Timings.Build = time.Since(buildStart)
	dumpStage(result, opts, "kmer", kmerGraph, dot.Options[string]{})

	if opts.ChainCompress {
		compressStart := time.Now()
		cstats, err := compress.Compress(ctx, kmerGraph, logger)
		if err != nil {
			return nil, fmt.Errorf("compress chains: %w", err)
		}
		result.CompressStats = cstats
		result.Timings.Compress = time.Since(compressStart)
		dumpStage(result, opts, "compressed", kmerGraph, dot.Options[string]{})
	}

	indexStart := time.Now()
	ix, idGraph, err := index.Build(ctx, kmerGraph, logger)
	if err != nil {
		return nil, fmt.Errorf("index graph: %w", err)
	}
	result.Timings.Index = time.Since(indexStart)
	dumpStage(result, opts, "indexed", idGraph, dot.Options[int]{})

	sccStart := time.Now()
	sccs, err := scc.Find(ctx, idGraph, logger)
	if err != nil {
		return nil, fmt.Errorf("find strongly connected components: %w", err)
	}
	result.SCCCount = len(sccs)
	result.Timings.SCC = time.Since(sccStart)

	partitionStart := time.Now()
	subgraphs, err := partition.Build(ctx, idGraph, sccs, logger)
	if err != nil {
		return nil, fmt.Errorf("partition graph: %w", err)
	}
	result.SubGraphCount = len(subgraphs)
	result.Timings.Partition = time.Since(partitionStart)

	sbStart := time.Now()
	for i, sub := range subgraphs {
		d, err := dagify.Build(ctx, sub, logger)
		if err != nil {
			return nil, fmt.Errorf("dagify subgraph: %w", err)
		}
		dumpStage(result, opts, fmt.Sprintf("dag-%d", i), d.Graph, dot.Options[int]{
			Highlight: func(v int) bool { return v == dagify.R || v == dagify.RPrime },
		})

		pairs, err := r.findSuperbubbles(ctx, opts.Algorithm, d, logger)
		if err != nil {
			return nil, fmt.Errorf("find superbubbles: %w", err)
		}
		for _, p := range superbubble.FilterTranslatable(d, pairs) {
			gs, ok1 := sub.GlobalOfLocal[p.Entrance]
			gt, ok2 := sub.GlobalOfLocal[p.Exit]
			if !ok1 || !ok2 {
				continue
			}
			result.Superbubbles = append(result.Superbubbles, GlobalPair{
				SubGraph: sub,
				Entrance: gs,
				Exit:     gt,
			})
		}
	}
	result.Timings.Superbubble = time.Since(sbStart)

	if opts.PersistAs != "" {
		if r.DB == nil {
			return nil, fmt.Errorf("persist graph: no database configured")
		}
		id, err := r.DB.WriteGraph(ctx, opts.PersistAs, runID, ix, idGraph)
		if err != nil {
			return nil, fmt.Errorf("persist graph %q: %w", opts.PersistAs, err)
		}
		result.PersistedAs = id
	}

	result.Timings.Total = time.Since(totalStart)
	logger.Info("pipeline complete",
		"kmers_emitted", result.KmerStats.KmersEmitted,
		"sccs", result.SCCCount,
		"subgraphs", result.SubGraphCount,
		"superbubbles", len(result.Superbubbles),
		"duration", result.Timings.Total)

	return result, nil
}

// findSuperbubbles dispatches to the algorithm named by opts.Algorithm.
func (r *Runner) findSuperbubbles(ctx context.Context, alg Algorithm, d *dagify.DAG, logger *log.Logger) ([]superbubble.Pair, error) {
	if alg == AlgorithmLinear {
		return superbubble.Find(ctx, d, logger)
	}
	return superbubble.BruteForce(ctx, d.Graph, dagify.R)
}

// dumpStage records a DOT rendering of g into result.StageDots under
// stage's name, when Options.DumpEachStage is set (-d "emit DOT after each
// graph stage").
func dumpStage[V comparable](result *Result, opts Options, stage string, g *graph.MultiDigraph[V], dotOpts dot.Options[V]) {
	if !opts.DumpEachStage {
		return
	}
	result.StageDots[stage] = dot.ToDOT(g, stage, dot.WeightLabel, dotOpts)
}

// ExportGraph reloads a persisted graph by name and renders it to DOT,
// using k-mer labels when useKmerLabels is true (-dk) or bare integer ids
// otherwise (-di).
func (r *Runner) ExportGraph(ctx context.Context, name string, useKmerLabels bool) (string, error) {
	if r.DB == nil {
		return "", fmt.Errorf("export graph %q: no database configured", name)
	}

	cacheKey := fmt.Sprintf("dot:%s:kmer=%v", name, useKmerLabels)
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		return string(data), nil
	}

	ix, g, err := r.DB.LoadGraph(ctx, name)
	if err != nil {
		return "", err
	}

	var src string
	if !useKmerLabels {
		src = dot.ToDOT(g, name, dot.WeightLabel, dot.Options[int]{})
	} else {
		label := func(v int) string {
			if l, ok := ix.LabelOf(v); ok {
				return l
			}
			return fmt.Sprint(v)
		}
		src = dot.ToDOT(g, name, dot.WeightLabel, dot.Options[int]{Label: label})
	}

	_ = r.Cache.Set(ctx, cacheKey, []byte(src), cache.TTLDot)
	return src, nil
}

// ListGraphs returns every persisted graph name (-l).
func (r *Runner) ListGraphs(ctx context.Context) ([]string, error) {
	if r.DB == nil {
		return nil, fmt.Errorf("list graphs: no database configured")
	}
	return r.DB.List(ctx)
}

// RemoveGraph deletes a persisted graph by name (-r).
func (r *Runner) RemoveGraph(ctx context.Context, name string) error {
	if r.DB == nil {
		return fmt.Errorf("remove graph %q: no database configured", name)
	}
	return r.DB.Remove(ctx, name)
}

// Close releases resources held by the runner (cache and database).
func (r *Runner) Close(ctx context.Context) error {
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			return err
		}
	}
	if r.DB != nil {
		return r.DB.Close(ctx)
	}
	return nil
}
