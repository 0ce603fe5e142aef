package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/cfcore/policy"
	"github.com/imyousuf/contextfootprint/internal/cfcore/solver"
	"github.com/imyousuf/contextfootprint/internal/config"
	"github.com/imyousuf/contextfootprint/internal/testdetect"
)

// rankedNode is one graph node's fast-path Context Footprint, gathered for
// either the ranked list or the distribution report below.
type rankedNode struct {
	symbol   string
	nodeType string
	cf       int
}

func newTopCmd() *cobra.Command {
	var (
		mode         string
		docThreshold float64
		limit        int
		nodeType     string
		includeTests bool
		stats        bool
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank symbols in the graph by Context Footprint, or report its distribution",
		Long: `Run the fast compute_cf_total path (see 'compute --total-only') over every
symbol in the graph instead of a caller-supplied set, then either print the
highest-footprint symbols (the default) or, with --stats, a percentile
distribution across them. Test code is excluded by default on the theory
that "what's expensive to change here" is usually asking about production
code; pass --include-tests to fold it back in.

This is the batch-statistics counterpart to 'compute': where 'compute'
answers "what would it cost to change this symbol", 'top'/--stats answer
"which symbols are the most expensive in this codebase" and "how skewed
is that distribution", without the caller having to already know which
symbols to ask about.`,
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

			p := policy.New(modeFromFlag(mode), docThreshold)
			s := solver.New(g, p)

			ranked, err := rankNodes(g, s, nodeType, includeTests)
			if err != nil {
				return err
			}

			if stats {
				printDistribution(out, ranked)
				return nil
			}

			sort.Slice(ranked, func(i, j int) bool { return ranked[i].cf > ranked[j].cf })
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}
			for _, r := range ranked {
				fmt.Fprintf(out, "%6d  %-10s %s\n", r.cf, r.nodeType, r.symbol)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "academic", "pruning mode: academic or strict")
	cmd.Flags().Float64Var(&docThreshold, "doc-threshold", 0, "documentation-completeness threshold in [0,1] (defaults to policy.doc_score_threshold)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of ranked symbols to print (0 = unlimited); ignored with --stats")
	cmd.Flags().StringVar(&nodeType, "type", "all", "restrict to this node type: function, variable, or all")
	cmd.Flags().BoolVar(&includeTests, "include-tests", false, "include symbols testdetect classifies as test code")
	cmd.Flags().BoolVar(&stats, "stats", false, "print a percentile distribution instead of a ranked list")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always rebuild, ignoring any cached graph")
	return cmd
}

// rankNodes computes the fast compute_cf_total path for every node whose
// type matches nodeType ("function", "variable", or "all"), skipping test
// code unless includeTests is set.
func rankNodes(g *graph.Graph, s *solver.Solver, nodeType string, includeTests bool) ([]rankedNode, error) {
	switch nodeType {
	case "function", "variable", "all":
	default:
		return nil, fmt.Errorf("invalid --type %q: must be function, variable, or all", nodeType)
	}

	detector := testdetect.NewUniversal()
	var ranked []rankedNode
	for idx := 0; idx < g.NodeCount(); idx++ {
		node := g.Node(idx)
		typeStr := nodeTypeString(node)
		if nodeType != "all" && nodeType != typeStr {
			continue
		}

		symbol := g.Symbol(idx)
		if !includeTests && detector.IsTest(symbol, node.Core().FilePath) {
			continue
		}

		ranked = append(ranked, rankedNode{
			symbol:   symbol,
			nodeType: typeStr,
			cf:       s.ComputeCFTotal(idx),
		})
	}
	return ranked, nil
}

func nodeTypeString(n graph.Node) string {
	switch n.(type) {
	case *graph.FunctionNode:
		return "function"
	case *graph.VariableNode:
		return "variable"
	default:
		return "unknown"
	}
}

// printDistribution prints count/average/median/min/max plus every 5th
// percentile, mirroring the shape of a percentile-bucketed histogram
// without pulling in a stats library for five summary numbers.
func printDistribution(out io.Writer, ranked []rankedNode) {
	if len(ranked) == 0 {
		fmt.Fprintln(out, "no matching symbols")
		return
	}

	sizes := make([]int, len(ranked))
	for i, r := range ranked {
		sizes[i] = r.cf
	}
	sort.Ints(sizes)

	count := len(sizes)
	var sum int64
	for _, v := range sizes {
		sum += int64(v)
	}

	fmt.Fprintf(out, "count:   %d\n", count)
	fmt.Fprintf(out, "average: %d\n", sum/int64(count))
	fmt.Fprintf(out, "median:  %d\n", sizes[count/2])
	fmt.Fprintf(out, "min:     %d\n", sizes[0])
	fmt.Fprintf(out, "max:     %d\n", sizes[count-1])

	var b strings.Builder
	fmt.Fprint(&b, "percentiles:\n")
	for p := 5; p <= 100; p += 5 {
		idx := (p * (count - 1)) / 100
		if idx >= count {
			idx = count - 1
		}
		fmt.Fprintf(&b, "  p%-3d  %d\n", p, sizes[idx])
	}
	fmt.Fprint(out, b.String())
}
