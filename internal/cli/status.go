package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imyousuf/contextfootprint/internal/cache"
	"github.com/imyousuf/contextfootprint/internal/config"
	"github.com/imyousuf/contextfootprint/internal/gitutil"
	"github.com/imyousuf/contextfootprint/internal/pipeline"
)

func newStatusCmd() *cobra.Command {
	var historyFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and cache status",
		Long: `Print the resolved configuration (repository path, policy
defaults, cache location) and, if a cached graph exists for the
repository's current contents, its node/type counts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if historyFile != "" {
				if cfg.Repository.Path == "" {
					return fmt.Errorf("repository.path is not configured; run 'ctxfoot init' first")
				}
				commits, err := gitutil.GetFileHistory(cfg.Repository.Path, historyFile, 10)
				if err != nil {
					return fmt.Errorf("file history for %s: %w", historyFile, err)
				}
				out := cmd.OutOrStdout()
				if len(commits) == 0 {
					fmt.Fprintf(out, "No commit history found for %s\n", historyFile)
					return nil
				}
				fmt.Fprintf(out, "Recent commits touching %s:\n", historyFile)
				for _, c := range commits {
					hash := c.Hash
					if len(hash) > 8 {
						hash = hash[:8]
					}
					fmt.Fprintf(out, "  %s  %-20s  %s\n", hash, c.Author, c.Message)
				}
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project:       %s\n", cfg.Project.Name)
			fmt.Fprintf(out, "Repository:    %s\n", cfg.Repository.Path)
			fmt.Fprintf(out, "Languages:     %v\n", cfg.Languages)
			fmt.Fprintf(out, "Cache path:    %s\n", cfg.ResolveDBPath(dbPath))
			fmt.Fprintf(out, "Policy:        max_tokens=%d doc_score_threshold=%.2f\n", cfg.Policy.MaxTokens, cfg.Policy.DocScoreThreshold)
			if cfg.Agents.LLMProvider != "" {
				fmt.Fprintf(out, "Doc scorer:    heuristic + LLM (%s/%s)\n", cfg.Agents.LLMProvider, cfg.Agents.Model)
			} else {
				fmt.Fprintln(out, "Doc scorer:    heuristic")
			}

			if cfg.Repository.Path == "" {
				return nil
			}

			if info, err := gitutil.GetBranchInfo(cfg.Repository.Path); err == nil {
				fmt.Fprintf(out, "Branch:        %s", info.CurrentBranch)
				if info.IsFeatureBranch {
					fmt.Fprintf(out, " (%d ahead, %d behind %s)", info.Ahead, info.Behind, info.DefaultBranch)
				}
				fmt.Fprintln(out)

				if info.IsFeatureBranch {
					if commits, err := gitutil.GetCommitsBetween(cfg.Repository.Path, info.DefaultBranch); err == nil && len(commits) > 0 {
						fmt.Fprintf(out, "Commits ahead of %s:\n", info.DefaultBranch)
						for _, c := range commits {
							hash := c.Hash
							if len(hash) > 8 {
								hash = hash[:8]
							}
							fmt.Fprintf(out, "  %s  %s\n", hash, c.Message)
						}
						fmt.Fprintf(out, "(run 'ctxfoot compute --since %s' to see the Context Footprint of what changed)\n", info.DefaultBranch)
					}
				}
			}

			store, err := openCacheStore(cfg, false)
			if err != nil || store == nil {
				return nil
			}
			defer store.Close()

			files, err := pipeline.Discover(cfg.Repository.Path, cfg.Watch.Exclude)
			if err != nil {
				fmt.Fprintf(out, "\n(could not scan repository for cache lookup: %v)\n", err)
				return nil
			}
			_, digests, err := pipeline.Extract(cfg.Repository.Path, files, nil)
			if err != nil {
				fmt.Fprintf(out, "\n(could not scan repository for cache lookup: %v)\n", err)
				return nil
			}
			key := cache.ContentKey(cfg.Repository.Path, digests)
			if g, ok, err := store.GetGraph(key); err == nil && ok {
				fmt.Fprintf(out, "\nCached graph (key %s):\n", key)
				fmt.Fprintf(out, "  nodes:        %d\n", g.NodeCount())
				fmt.Fprintf(out, "  type entries: %d\n", g.Registry().Len())
			} else {
				fmt.Fprintln(out, "\nNo cached graph for the current repository contents; run 'ctxfoot build'.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&historyFile, "history", "", "print recent commits touching this repository-relative file instead of status")
	return cmd
}
