package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/sbp-tools/sbp/pkg/errors"
	"github.com/sbp-tools/sbp/pkg/pipeline"
)

// runOptions is the CLI's flag set translated into the operations it can
// dispatch: run the pipeline (-f/-k[/-c/-d/-sbN[/-s]]), or one of the
// standalone database operations (-dk, -di, -r, -l).
type runOptions struct {
	fastaPath  string
	k          int
	dumpEach   bool
	exportKmer string
	exportInt  string
	persistAs  string
	removeName string
	listGraphs bool
	compress   bool
	algorithm  pipeline.Algorithm
}

// validate implements SUPPLEMENTED FEATURE #4: -k requires -f; -r and -l
// stand alone and never require -f. Anything else with -k set but no -f, or
// -f set with no -k, is rejected up front rather than surfacing a confusing
// error two stages into the pipeline.
func (o runOptions) validate() error {
	hasFasta := o.fastaPath != ""
	hasK := o.k != 0

	if hasK && !hasFasta {
		return errors.New(errors.CodeBadInput, "-k requires -f")
	}
	if hasFasta && !hasK {
		return errors.New(errors.CodeBadInput, "-f requires -k")
	}

	standalone := o.exportKmer != "" || o.exportInt != "" || o.removeName != "" || o.listGraphs
	if !hasFasta && !standalone {
		return errors.New(errors.CodeBadInput, "one of -f, -dk, -di, -r, or -l is required")
	}

	set := 0
	for _, v := range []bool{hasFasta, o.exportKmer != "", o.exportInt != "", o.removeName != "", o.listGraphs} {
		if v {
			set++
		}
	}
	if set > 1 {
		return errors.New(errors.CodeBadInput, "-f, -dk, -di, -r, and -l are mutually exclusive")
	}

	return nil
}

// needsDB reports whether this invocation touches the Persistence
// collaborator at all, so the caller can skip dialing Mongo/Redis entirely
// for a bare "-f -k" run.
func (o runOptions) needsDB() bool {
	return o.persistAs != "" || o.exportKmer != "" || o.exportInt != "" || o.removeName != "" || o.listGraphs
}

// run dispatches to the pipeline operation the validated options select.
func (c *CLI) run(ctx context.Context, runner *pipeline.Runner, opts runOptions) error {
	switch {
	case opts.listGraphs:
		return c.runList(ctx, runner)
	case opts.removeName != "":
		return c.runRemove(ctx, runner, opts.removeName)
	case opts.exportKmer != "":
		return c.runExport(ctx, runner, opts.exportKmer, true)
	case opts.exportInt != "":
		return c.runExport(ctx, runner, opts.exportInt, false)
	default:
		return c.runPipeline(ctx, runner, opts)
	}
}

func (c *CLI) runPipeline(ctx context.Context, runner *pipeline.Runner, opts runOptions) error {
	sp := newSpinner(fmt.Sprintf("building de Bruijn graph from %s (k=%d)", opts.fastaPath, opts.k))
	sp.Start()

	result, err := runner.Execute(ctx, pipeline.Options{
		FASTAPath:     opts.fastaPath,
		K:             opts.k,
		ChainCompress: opts.compress,
		Algorithm:     opts.algorithm,
		DumpEachStage: opts.dumpEach,
		PersistAs:     opts.persistAs,
		Logger:        c.Logger,
	})
	if err != nil {
		sp.StopWithError("pipeline failed")
		return err
	}
	sp.StopWithSuccess("pipeline complete")

	printKeyValue("reads", fmt.Sprintf("%d", result.KmerStats.ReadsConsumed))
	printKeyValue("k-mers", fmt.Sprintf("%d", result.KmerStats.KmersEmitted))
	if opts.compress {
		printKeyValue("chains", fmt.Sprintf("%d collapsed", result.CompressStats.ChainsCollapsed))
	}
	printKeyValue("components", fmt.Sprintf("%d", result.SCCCount))
	printKeyValue("subgraphs", fmt.Sprintf("%d", result.SubGraphCount))
	printKeyValue("superbubbles", fmt.Sprintf("%d", len(result.Superbubbles)))
	printKeyValue("duration", result.Timings.Total.String())

	for _, p := range result.Superbubbles {
		printKeyValue("superbubble", fmt.Sprintf("%d -> %d", p.Entrance, p.Exit))
	}

	if opts.dumpEach {
		var names []string
		for name := range result.StageDots {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(result.StageDots[name])
		}
	}

	if result.PersistedAs != "" {
		printSuccess("persisted graph %q as id %s", opts.persistAs, result.PersistedAs)
	}

	return nil
}

func (c *CLI) runList(ctx context.Context, runner *pipeline.Runner) error {
	names, err := runner.ListGraphs(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printInfo("no graphs stored")
		return nil
	}
	return runGraphListModel(names)
}

func (c *CLI) runRemove(ctx context.Context, runner *pipeline.Runner, name string) error {
	if err := runner.RemoveGraph(ctx, name); err != nil {
		return err
	}
	printSuccess("removed graph %q", name)
	return nil
}

func (c *CLI) runExport(ctx context.Context, runner *pipeline.Runner, name string, kmerLabels bool) error {
	src, err := runner.ExportGraph(ctx, name, kmerLabels)
	if err != nil {
		return err
	}
	fmt.Println(src)
	return nil
}
