// Package solver implements CfSolver: memoized layered BFS over a Graph
// under a fixed PruningPolicy. A solver holds a shared
// reference to the Graph and owns its own memo; the memo is valid only for
// this solver's (graph, policy) pair, so a new solver is required whenever
// the policy changes.
package solver

import (
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/cfcore/policy"
)

// CfResult is the outcome of a full compute_cf call.
type CfResult struct {
	// ReachableSet holds every node id reached, as a set.
	ReachableSet map[int]struct{}
	// ReachableNodesOrdered begins with the caller's start nodes (in the
	// order given) and preserves BFS visitation order thereafter.
	ReachableNodesOrdered []int
	// ReachableNodesByLayer maps depth -> node ids first reached at that
	// depth. Only observed depths are present.
	ReachableNodesByLayer map[int][]int
	// TotalContextSize is the sum of context_size over ReachableSet. When
	// MaxTokens was set, this may be less than the unbounded total and the
	// frontier may be incomplete.
	TotalContextSize int
}

// frontierEntry is one (node, depth) pair in the BFS queue.
type frontierEntry struct {
	node  int
	depth int
}

// fastEntry is one memoized compute_cf_total result.
type fastEntry struct {
	total     int
	reachable []int // every node id in this start's reachable set
}

// Solver performs memoized layered BFS over a fixed Graph under a fixed
// Policy. A Solver is not safe for concurrent use; build one Solver per
// goroutine, all sharing the same *graph.Graph, to parallelize across
// starts.
type Solver struct {
	g      *graph.Graph
	policy policy.Policy
	memo   map[int]fastEntry
}

// New constructs a CfSolver over g under the given policy.
func New(g *graph.Graph, p policy.Policy) *Solver {
	return &Solver{g: g, policy: p, memo: make(map[int]fastEntry)}
}

func cost(g *graph.Graph, idx int) int {
	return g.Node(idx).Core().ContextSize
}

// ComputeCF runs layered BFS from every node in starts.
// maxTokens, if non-nil, caps the running total as follows:
// dequeuing stops once any node's cost addition reaches or exceeds the
// budget, and a boundary neighbor is skipped (along with the rest of its
// source node's remaining neighbors) if including it would push the total
// strictly above the budget.
//
// When starts contains exactly one node and maxTokens is nil, the result
// is also written into the solver's compute_cf_total memo,
// so a later ComputeCFTotal(start) call is a cache hit.
func (s *Solver) ComputeCF(starts []int, maxTokens *int) CfResult {
	result := CfResult{
		ReachableSet:          make(map[int]struct{}),
		ReachableNodesByLayer: make(map[int][]int),
	}
	visited := make(map[int]bool)
	var queue []frontierEntry

	visit := func(idx, depth int) {
		visited[idx] = true
		result.ReachableSet[idx] = struct{}{}
		result.ReachableNodesOrdered = append(result.ReachableNodesOrdered, idx)
		result.ReachableNodesByLayer[depth] = append(result.ReachableNodesByLayer[depth], idx)
		result.TotalContextSize += cost(s.g, idx)
	}

	for _, st := range starts {
		if !visited[st] {
			visit(st, 0)
			queue = append(queue, frontierEntry{node: st, depth: 0})
		}
	}

	stopDequeue := false
	for len(queue) > 0 {
		if stopDequeue {
			break
		}
		cur := queue[0]
		queue = queue[1:]

		for _, nb := range s.g.Neighbors(cur.node) {
			if visited[nb.Target] {
				continue
			}
			decision := s.policy.Classify(s.g, cur.node, nb.Target, nb.Kind)
			if decision == policy.Pruned {
				continue
			}

			if decision == policy.Transparent {
				visit(nb.Target, cur.depth+1)
				queue = append(queue, frontierEntry{node: nb.Target, depth: cur.depth + 1})
				if maxTokens != nil && result.TotalContextSize >= *maxTokens {
					stopDequeue = true
				}
				continue
			}

			// Boundary.
			if maxTokens != nil && result.TotalContextSize+cost(s.g, nb.Target) > *maxTokens {
				break
			}
			visit(nb.Target, cur.depth+1)
			if maxTokens != nil && result.TotalContextSize >= *maxTokens {
				stopDequeue = true
			}
		}
	}

	if len(starts) == 1 && maxTokens == nil {
		reachable := make([]int, len(result.ReachableNodesOrdered))
		copy(reachable, result.ReachableNodesOrdered)
		s.memo[starts[0]] = fastEntry{total: result.TotalContextSize, reachable: reachable}
	}

	return result
}

// ComputeCFTotal returns only the total context size reachable from start,
// used for batch statistics where the full layered result
// is unneeded. Results are memoized per start node; on a cache hit this
// returns immediately. Neighbor order is unspecified (no symbol sort) and
// maxTokens is not honored on this path.
func (s *Solver) ComputeCFTotal(start int) int {
	if entry, ok := s.memo[start]; ok {
		return entry.total
	}

	visited := map[int]bool{start: true}
	reachable := []int{start}
	total := cost(s.g, start)
	queue := []int{start}

	addReachable := func(idx int) {
		visited[idx] = true
		reachable = append(reachable, idx)
		total += cost(s.g, idx)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, nb := range s.g.NeighborsUnsorted(cur) {
			if visited[nb.Target] {
				continue
			}
			decision := s.policy.Classify(s.g, cur, nb.Target, nb.Kind)
			if decision == policy.Pruned {
				continue
			}

			if decision == policy.Boundary {
				// Boundary: contributes cost, not descended through.
				addReachable(nb.Target)
				continue
			}

			if cached, ok := s.memo[nb.Target]; ok {
				// Monotone union: splice the cached reachable set in
				// instead of re-BFSing through it.
				for _, id := range cached.reachable {
					if !visited[id] {
						addReachable(id)
					}
				}
				continue
			}

			addReachable(nb.Target)
			queue = append(queue, nb.Target)
		}
	}

	s.memo[start] = fastEntry{total: total, reachable: reachable}
	return total
}
