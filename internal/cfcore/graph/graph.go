package graph

import (
	"sort"

	"github.com/imyousuf/contextfootprint/internal/cfcore/cferrors"
)

// Neighbor is one outgoing edge target, as returned by Graph.Neighbors.
type Neighbor struct {
	Target int
	Kind   EdgeKind
}

// adjEntry additionally carries the target's symbol, used only to produce
// the deterministic, symbol-sorted neighbor order the solver requires.
type adjEntry struct {
	targetSymbol string
	neighbor     Neighbor
}

// Graph is the directed multigraph over polymorphic nodes: a contiguous
// node array with dense integer ids plus per-node adjacency lists,
// carrying an embedded TypeRegistry.
// It is built once by a GraphBuilder and is immutable thereafter for
// solver use.
type Graph struct {
	nodes     []Node
	symbols   []string // nodes[i]'s symbol, parallel to nodes
	bySymbol  map[string]int
	adjacency [][]adjEntry
	registry  *TypeRegistry
}

// New creates an empty Graph with a fresh TypeRegistry.
func New() *Graph {
	return &Graph{
		bySymbol: make(map[string]int),
		registry: NewTypeRegistry(),
	}
}

// Registry returns the graph's embedded TypeRegistry.
func (g *Graph) Registry() *TypeRegistry { return g.registry }

// AddNode inserts node under symbol, assigning it the next sequential
// index. The symbol→node map is injective into node indices: re-adding an existing
// symbol is a programmer error and panics, since it would violate that
// invariant silently otherwise.
func (g *Graph) AddNode(symbol string, node Node) int {
	if _, exists := g.bySymbol[symbol]; exists {
		panic(&cferrors.InvariantViolation{Detail: "duplicate symbol " + symbol})
	}
	idx := len(g.nodes)
	node.Core().ID = idx
	g.nodes = append(g.nodes, node)
	g.symbols = append(g.symbols, symbol)
	g.adjacency = append(g.adjacency, nil)
	g.bySymbol[symbol] = idx
	return idx
}

// AddEdge inserts a directed edge from sourceIdx to targetIdx of the given
// kind. Multiple edges between the same pair (same or different kind) are
// allowed and tracked independently; no edge-index stability is required.
func (g *Graph) AddEdge(sourceIdx, targetIdx int, kind EdgeKind) {
	if sourceIdx < 0 || sourceIdx >= len(g.nodes) || targetIdx < 0 || targetIdx >= len(g.nodes) {
		panic(&cferrors.InvariantViolation{Detail: "edge endpoint out of range"})
	}
	g.adjacency[sourceIdx] = append(g.adjacency[sourceIdx], adjEntry{
		targetSymbol: g.symbols[targetIdx],
		neighbor:     Neighbor{Target: targetIdx, Kind: kind},
	})
}

// GetNodeBySymbol looks up a node index by its extractor symbol.
func (g *Graph) GetNodeBySymbol(symbol string) (int, bool) {
	idx, ok := g.bySymbol[symbol]
	return idx, ok
}

// Node returns the node at idx.
func (g *Graph) Node(idx int) Node { return g.nodes[idx] }

// Symbol returns the extractor symbol of the node at idx.
func (g *Graph) Symbol(idx int) string { return g.symbols[idx] }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Neighbors returns the outgoing edges of the node at idx, sorted by
// target symbol lexicographically — the deterministic traversal order a
// stable layered BFS needs. Ties (same target symbol reached by multiple
// edge kinds, or true multi-edges) keep their relative insertion order
// (stable sort).
func (g *Graph) Neighbors(idx int) []Neighbor {
	entries := g.adjacency[idx]
	sorted := make([]adjEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].targetSymbol < sorted[j].targetSymbol
	})
	out := make([]Neighbor, len(sorted))
	for i, e := range sorted {
		out[i] = e.neighbor
	}
	return out
}

// NeighborsUnsorted returns the outgoing edges of the node at idx in
// insertion order, without the symbol sort. Used by the fast total-only
// path, where neighbor order is explicitly unspecified.
func (g *Graph) NeighborsUnsorted(idx int) []Neighbor {
	entries := g.adjacency[idx]
	out := make([]Neighbor, len(entries))
	for i, e := range entries {
		out[i] = e.neighbor
	}
	return out
}
