package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imyousuf/contextfootprint/internal/config"
	"github.com/imyousuf/contextfootprint/internal/pipeline"
	"github.com/imyousuf/contextfootprint/internal/watcher"
)

// newWatchCmd runs a full-rebuild loop: every debounced filesystem event
// under the repository root reruns buildOrReuse, which rebuilds the graph
// from scratch through the extractor+GraphBuilder pipeline unless a graph
// for the repository's current contents is already cached. Incremental graph
// updates are an explicit Non-goal of the footprint engine, so a changed
// file always triggers a whole-project rebuild rather than a patch.
func newWatchCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the context graph on every source change",
		Long: `Watch the configured repository for file changes and rebuild the
context graph from scratch on every debounced change. Each rebuild result
is cached, so a concurrent 'compute' invocation picks up the latest
graph without re-running the pipeline itself.`,
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

			rebuild := func() {
				g, key, fromCache, err := buildOrReuse(cfg, store, logf)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "rebuild failed: %v\n", err)
					return
				}
				if fromCache {
					return
				}
				fmt.Fprintf(out, "rebuilt: %d nodes, %d type entries (key %s)\n", g.NodeCount(), g.Registry().Len(), key)
			}

			rebuild()

			w, err := watcher.NewWatcher(watcher.WatcherConfig{
				Paths:            []string{cfg.Repository.Path},
				ExcludePatterns:  cfg.Watch.Exclude,
				SourceExtensions: pipeline.SourceExtensions,
			})
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			events, err := w.Start(ctx)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			fmt.Fprintf(out, "Watching %s for changes (Ctrl-C to stop)...\n", cfg.Repository.Path)
			for {
				select {
				case <-ctx.Done():
					return nil
				case evt, ok := <-events:
					if !ok {
						return nil
					}
					logf("change detected: %s %s", evt.Op, evt.Path)
					rebuild()
				}
			}
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "rebuild without consulting or populating the cache")
	return cmd
}
