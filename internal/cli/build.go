package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imyousuf/contextfootprint/internal/cache"
	"github.com/imyousuf/contextfootprint/internal/cfcore/builder"
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/config"
	"github.com/imyousuf/contextfootprint/internal/pipeline"
	"github.com/imyousuf/contextfootprint/internal/sizefn"
)

// buildOrReuse resolves a cache key from the repository's current file
// contents and returns the cached Graph under it, or runs the extractor
// and GraphBuilder on a miss (or when store is nil, i.e. caching is
// disabled).
func buildOrReuse(cfg *config.Config, store *cache.Store, logf func(format string, args ...any)) (g *graph.Graph, key string, fromCache bool, err error) {
	files, err := pipeline.Discover(cfg.Repository.Path, cfg.Watch.Exclude)
	if err != nil {
		return nil, "", false, err
	}
	data, digests, err := pipeline.Extract(cfg.Repository.Path, files, logf)
	if err != nil {
		return nil, "", false, err
	}
	key = cache.ContentKey(cfg.Repository.Path, digests)

	if store != nil {
		if cached, ok, getErr := store.GetGraph(key); getErr == nil && ok {
			return cached, key, true, nil
		}
	}

	b := builder.New(pipeline.NewFSReader(cfg.Repository.Path), sizefn.Heuristic{}, resolveDocScorer(cfg, logf), logf)
	g, err = b.Build(data)
	if err != nil {
		return nil, "", false, fmt.Errorf("build graph: %w", err)
	}

	if store != nil {
		if putErr := store.PutGraph(key, cfg.Repository.Path, g); putErr != nil {
			logf("cache: failed to store built graph: %v", putErr)
		}
	}
	return g, key, false, nil
}

func openCacheStore(cfg *config.Config, disabled bool) (*cache.Store, error) {
	if disabled {
		return nil, nil
	}
	resolved := cfg.ResolveDBPath(dbPath)
	if resolved == "" {
		return nil, nil
	}
	return cache.Open(resolved)
}

func newBuildCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the context graph for the configured repository",
		Long: `Extract semantic data from the configured repository, run the
GraphBuilder's four passes, and report the resulting graph's node count,
type-entry count, and cache key. The built graph is cached (keyed by file content) so a
later 'compute' invocation against an unchanged tree skips straight to
the solver.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Repository.Path == "" {
				return fmt.Errorf("repository.path is not configured; run 'ctxfoot init' first")
			}

			out := cmd.OutOrStdout()
			logf := func(format string, a ...any) { fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", a...) }

			store, err := openCacheStore(cfg, noCache)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			if store != nil {
				defer store.Close()
			}

			g, key, fromCache, err := buildOrReuse(cfg, store, logf)
			if err != nil {
				return err
			}

			if fromCache {
				fmt.Fprintln(out, "Reused cached graph (no source changes detected).")
			}
			fmt.Fprintf(out, "Nodes:         %d\n", g.NodeCount())
			fmt.Fprintf(out, "Type entries:  %d\n", g.Registry().Len())
			fmt.Fprintf(out, "Cache key:     %s\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always rebuild, ignoring any cached graph")
	return cmd
}
