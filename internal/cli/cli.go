// Package cli implements the sbp command-line interface: a single
// flag-driven command over the FASTA-to-superbubbles pipeline (§6 CLI
// collaborator), plus a small cache-management subcommand and shell
// completion generation.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sbp-tools/sbp/pkg/buildinfo"
	"github.com/sbp-tools/sbp/pkg/cache"
	"github.com/sbp-tools/sbp/pkg/config"
	"github.com/sbp-tools/sbp/pkg/db"
	"github.com/sbp-tools/sbp/pkg/pipeline"
)

const appName = "sbp"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with the pipeline flags and
// subcommands registered. Flag defaults for the database connection come
// from ~/.sbprc.toml when present; CLI flags always override them.
func (c *CLI) RootCommand() *cobra.Command {
	rc, err := config.Load()
	if err != nil {
		rc = config.Default()
	}

	var (
		fastaPath   string
		k           int
		dumpEach    bool
		exportKmer  string
		exportInt   string
		persistAs   string
		removeName  string
		listGraphs  bool
		compress    bool
		sb1, sb2    bool
		sb3         bool
		mongoURI    string
		mongoDB     string
		redisAddr   string
		noCache     bool
		verbose     bool
	)

	root := &cobra.Command{
		Use:          "sbp",
		Short:        "sbp finds superbubbles in genome-assembly de Bruijn graphs",
		Long:         `sbp builds a de Bruijn graph from FASTA reads, decomposes it into acyclic components, and reports every superbubble in the Brankovic et al. sense.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			opts := runOptions{
				fastaPath:  fastaPath,
				k:          k,
				dumpEach:   dumpEach,
				exportKmer: exportKmer,
				exportInt:  exportInt,
				persistAs:  persistAs,
				removeName: removeName,
				listGraphs: listGraphs,
				compress:   compress,
				algorithm:  selectAlgorithm(sb1, sb2, sb3),
			}
			if err := opts.validate(); err != nil {
				return err
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close(cmd.Context())

			dbc := dbConfig{mongoURI, mongoDB, redisAddr}
			if err := newStoreIfNeeded(cmd.Context(), runner, dbc, opts.needsDB()); err != nil {
				return err
			}

			return c.run(cmd.Context(), runner, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.Flags()
	flags.StringVarP(&fastaPath, "fasta", "f", "", "FASTA input path")
	flags.IntVarP(&k, "k", "k", 0, "k-mer length (required with -f)")
	flags.BoolVarP(&dumpEach, "dump", "d", false, "emit DOT after each graph stage")
	flags.StringVar(&exportKmer, "dk", "", "export DB graph NAME with k-mer labels")
	flags.StringVar(&exportInt, "di", "", "export DB graph NAME with integer labels")
	flags.StringVarP(&persistAs, "save", "s", "", "persist current graph under NAME")
	flags.StringVarP(&removeName, "remove", "r", "", "remove graph NAME from the database")
	flags.BoolVarP(&listGraphs, "list", "l", false, "list database graph names")
	flags.BoolVarP(&compress, "chain-compress", "c", false, "run chain compression")
	flags.BoolVar(&sb1, "sb1", false, "use the linear superbubble algorithm (default)")
	flags.BoolVar(&sb2, "sb2", false, "use the brute-force validator")
	flags.BoolVar(&sb3, "sb3", false, "use the brute-force validator")
	flags.StringVar(&mongoURI, "mongo-uri", rc.MongoURI, "MongoDB connection URI")
	flags.StringVar(&mongoDB, "mongo-db", rc.MongoDB, "MongoDB database name")
	flags.StringVar(&redisAddr, "redis-addr", rc.RedisAddr, "Redis address (empty disables the read-through cache)")
	flags.BoolVar(&noCache, "no-cache", false, "disable local DOT/SVG render cache")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

type dbConfig struct {
	mongoURI  string
	mongoDB   string
	redisAddr string
}

// newRunner wires a pipeline.Runner from CLI flags: a file cache (or
// NullCache with -no-cache). The database is attached separately by
// newStoreIfNeeded, once it's known whether this invocation touches it.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	fileCache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(fileCache, nil, c.Logger), nil
}

// newStoreIfNeeded connects to the database only when a DB-touching
// operation was requested, so a plain "-f -k" run never depends on Mongo
// being reachable.
func newStoreIfNeeded(ctx context.Context, runner *pipeline.Runner, dbc dbConfig, needsDB bool) error {
	if !needsDB {
		return nil
	}
	store, err := db.Open(ctx, db.Config{
		MongoURI:  dbc.mongoURI,
		Database:  dbc.mongoDB,
		RedisAddr: dbc.redisAddr,
	}, runner.Logger)
	if err != nil {
		return err
	}
	runner.DB = store
	return nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/sbp/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func selectAlgorithm(sb1, sb2, sb3 bool) pipeline.Algorithm {
	switch {
	case sb2:
		return pipeline.AlgorithmBruteForceN2
	case sb3:
		return pipeline.AlgorithmBruteForceN3
	default:
		return pipeline.DefaultAlgorithm
	}
}
