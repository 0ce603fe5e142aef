package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imyousuf/contextfootprint/internal/cfcore/cferrors"
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/cfcore/policy"
	"github.com/imyousuf/contextfootprint/internal/cfcore/solver"
	"github.com/imyousuf/contextfootprint/internal/config"
	"github.com/imyousuf/contextfootprint/internal/gitutil"
)

var (
	boundaryStyle    = newStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("4")))
	transparentStyle = newStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("2")))
	headerStyle      = newStyle(lipgloss.NewStyle().Bold(true))
)

func newComputeCmd() *cobra.Command {
	var (
		mode         string
		docThreshold float64
		maxTokens    int
		totalOnly    bool
		noCache      bool
		since        string
	)

	cmd := &cobra.Command{
		Use:   "compute [symbol...]",
		Short: "Compute the Context Footprint reachable from one or more symbols",
		Long: `Build (or reuse a cached) context graph for the configured repository
and run the CfSolver starting from the given symbols, reporting the
reachable node count, total token cost, and (unless --total-only) the
per-layer breakdown of what was pulled into context and why.

With --since <branch>, the symbol arguments are optional: start nodes
are every function/variable defined in a file git reports as changed
relative to that branch, which answers "what would an agent need to
read to safely reason about my feature branch's diff?" without having
to name every touched symbol by hand.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if since == "" && len(args) == 0 {
				return fmt.Errorf("requires at least one symbol argument, or --since <branch>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Repository.Path == "" {
				return fmt.Errorf("repository.path is not configured; run 'ctxfoot init' first")
			}
			if docThreshold <= 0 {
				docThreshold = cfg.Policy.DocScoreThreshold
			}
			if maxTokens <= 0 {
				maxTokens = cfg.Policy.MaxTokens
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

			g, _, _, err := buildOrReuse(cfg, store, logf)
			if err != nil {
				return err
			}

			var starts []int
			var labels []string
			if since != "" {
				starts, labels, err = startsFromBranchDiff(g, cfg.Repository.Path, since)
				if err != nil {
					return err
				}
				if len(starts) == 0 {
					fmt.Fprintln(out, "No changed files relative to", since, "touch any known symbol.")
					return nil
				}
			} else {
				starts = make([]int, 0, len(args))
				labels = args
				for _, sym := range args {
					idx, ok := g.GetNodeBySymbol(sym)
					if !ok {
						return &cferrors.SymbolNotFound{Symbol: sym}
					}
					starts = append(starts, idx)
				}
			}

			p := policy.New(modeFromFlag(mode), docThreshold)
			s := solver.New(g, p)

			if totalOnly {
				for i, start := range starts {
					total := s.ComputeCFTotal(start)
					fmt.Fprintf(out, "%s\t%d\n", labels[i], total)
				}
				return nil
			}

			var budget *int
			if maxTokens > 0 {
				budget = &maxTokens
			}
			result := s.ComputeCF(starts, budget)
			printResult(out, g, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "academic", "pruning mode: academic or strict")
	cmd.Flags().Float64Var(&docThreshold, "doc-threshold", 0, "documentation-completeness threshold in [0,1] (defaults to policy.doc_score_threshold)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "stop once the running total reaches this many tokens (0 = unbounded, defaults to policy.max_tokens)")
	cmd.Flags().BoolVar(&totalOnly, "total-only", false, "use the fast compute_cf_total path and print only totals")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always rebuild, ignoring any cached graph")
	cmd.Flags().StringVar(&since, "since", "", "diff-scoped mode: use every symbol defined in a file changed relative to this branch as a start node")
	return cmd
}

// startsFromBranchDiff resolves the start-node set for --since: every graph
// node whose file appears in the diff against baseBranch. Each node's
// symbol is used as its label, since a diff-scoped run has no
// caller-supplied symbol strings to echo back.
func startsFromBranchDiff(g *graph.Graph, repoPath, baseBranch string) ([]int, []string, error) {
	diff, err := gitutil.GetDiffSince(repoPath, baseBranch)
	if err != nil {
		return nil, nil, err
	}

	changed := make(map[string]bool, len(diff.ChangedFiles))
	for _, f := range diff.ChangedFiles {
		if f.Status != "deleted" {
			changed[f.Path] = true
		}
	}

	var starts []int
	var labels []string
	for i := 0; i < g.NodeCount(); i++ {
		core := g.Node(i).Core()
		if changed[core.FilePath] {
			starts = append(starts, i)
			labels = append(labels, g.Symbol(i))
		}
	}
	return starts, labels, nil
}

func modeFromFlag(mode string) policy.Mode {
	if strings.EqualFold(mode, "strict") {
		return policy.Strict
	}
	return policy.Academic
}

func printResult(out io.Writer, g *graph.Graph, result solver.CfResult) {
	fmt.Fprintf(out, "%s\n", headerStyle.Render(fmt.Sprintf("Context Footprint: %d tokens over %d nodes", result.TotalContextSize, len(result.ReachableSet))))

	depths := make([]int, 0, len(result.ReachableNodesByLayer))
	for d := range result.ReachableNodesByLayer {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	for _, d := range depths {
		ids := result.ReachableNodesByLayer[d]
		sort.Ints(ids)
		fmt.Fprintf(out, "  depth %d:\n", d)
		for _, id := range ids {
			core := g.Node(id).Core()
			style := transparentStyle
			if core.IsExternal {
				style = boundaryStyle
			}
			fmt.Fprintf(out, "    %s  %s (%s, %d tokens)\n",
				style.Render("•"), core.DisplayName, g.Symbol(id), core.ContextSize)
		}
	}
}
