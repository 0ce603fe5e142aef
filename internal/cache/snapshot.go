// Package cache persists built Graphs (and derived CF totals) across CLI
// invocations using BadgerDB. Rebuilding a Graph means
// re-running the extractor and GraphBuilder end to end, which is the most
// expensive step in the pipeline; a cache entry lets repeat invocations
// against an unchanged project skip straight to the solver.
package cache

import (
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
)

// nodeKind discriminates the two Node implementations in a serialized
// snapshot, since encoding/json cannot round-trip an interface value on its
// own.
type nodeKind string

const (
	nodeKindFunction nodeKind = "function"
	nodeKindVariable nodeKind = "variable"
)

// nodeRecord is the flattened, serializable form of a graph.Node.
type nodeRecord struct {
	Symbol string
	Kind   nodeKind

	// NodeCore fields.
	DisplayName string
	Scope       string
	ContextSize int
	Span        graph.Span
	DocScore    float64
	IsExternal  bool
	FilePath    string

	// FunctionNode-only fields (zero-valued when Kind == variable).
	Parameters        []graph.Param
	ReturnTypes       []string
	IsInterfaceMethod bool
	IsConstructor     bool
	IsDIWired         bool
	IsAsync           bool
	IsGenerator       bool
	Visibility        graph.Visibility
	LooksLikeFactory  bool

	// VariableNode-only fields (zero-valued when Kind == function).
	VarType      string
	Mutability   graph.Mutability
	VariableKind graph.VariableKind
}

// edgeRecord is one serialized adjacency entry. Source/Target are node
// indices, stable for the lifetime of a single snapshot (matching
// insertion order).
type edgeRecord struct {
	Source int
	Target int
	Kind   graph.EdgeKind
}

// typeRecord is the serializable form of a TypeRegistry entry.
type typeRecord struct {
	ID             string
	Kind           graph.TypeKind
	IsAbstract     bool
	TypeParamCount int
	TypeVar        *graph.TypeVarInfo
	ContextSize    int
	DocScore       float64
}

// snapshot is the on-disk representation of a built Graph, keyed in the
// cache store by a content hash of the project's inputs.
type snapshot struct {
	BuildID      string
	ProjectRoot  string
	Nodes        []nodeRecord
	Edges        []edgeRecord // flattened; Source repeats per outgoing edge
	Types        []typeRecord
	Implementors map[string][]string
}

func toSnapshot(buildID, projectRoot string, g *graph.Graph) snapshot {
	snap := snapshot{BuildID: buildID, ProjectRoot: projectRoot}

	for idx := 0; idx < g.NodeCount(); idx++ {
		node := g.Node(idx)
		core := node.Core()
		rec := nodeRecord{
			Symbol:      g.Symbol(idx),
			DisplayName: core.DisplayName,
			Scope:       core.Scope,
			ContextSize: core.ContextSize,
			Span:        core.Span,
			DocScore:    core.DocScore,
			IsExternal:  core.IsExternal,
			FilePath:    core.FilePath,
		}
		switch n := node.(type) {
		case *graph.FunctionNode:
			rec.Kind = nodeKindFunction
			rec.Parameters = n.Parameters
			rec.ReturnTypes = n.ReturnTypes
			rec.IsInterfaceMethod = n.IsInterfaceMethod
			rec.IsConstructor = n.IsConstructor
			rec.IsDIWired = n.IsDIWired
			rec.IsAsync = n.IsAsync
			rec.IsGenerator = n.IsGenerator
			rec.Visibility = n.Visibility
			rec.LooksLikeFactory = n.LooksLikeFactory
		case *graph.VariableNode:
			rec.Kind = nodeKindVariable
			rec.VarType = n.VarType
			rec.Mutability = n.Mutability
			rec.VariableKind = n.VariableKind
		}
		snap.Nodes = append(snap.Nodes, rec)

		for _, nb := range g.NeighborsUnsorted(idx) {
			snap.Edges = append(snap.Edges, edgeRecord{Source: idx, Target: nb.Target, Kind: nb.Kind})
		}
	}

	reg := g.Registry()
	snap.Implementors = make(map[string][]string)
	for _, id := range reg.IDs() {
		info, _ := reg.Get(id)
		snap.Types = append(snap.Types, typeRecord{
			ID:             id,
			Kind:           info.Kind,
			IsAbstract:     info.IsAbstract,
			TypeParamCount: info.TypeParamCount,
			TypeVar:        info.TypeVar,
			ContextSize:    info.ContextSize,
			DocScore:       info.DocScore,
		})
		if implementors := reg.GetImplementors(id); len(implementors) > 0 {
			snap.Implementors[id] = implementors
		}
	}

	return snap
}

func fromSnapshot(snap snapshot) *graph.Graph {
	g := graph.New()

	for _, rec := range snap.Nodes {
		var node graph.Node
		switch rec.Kind {
		case nodeKindFunction:
			node = &graph.FunctionNode{
				NodeCore: graph.NodeCore{
					DisplayName: rec.DisplayName,
					Scope:       rec.Scope,
					ContextSize: rec.ContextSize,
					Span:        rec.Span,
					DocScore:    rec.DocScore,
					IsExternal:  rec.IsExternal,
					FilePath:    rec.FilePath,
				},
				Parameters:        rec.Parameters,
				ReturnTypes:       rec.ReturnTypes,
				IsInterfaceMethod: rec.IsInterfaceMethod,
				IsConstructor:     rec.IsConstructor,
				IsDIWired:         rec.IsDIWired,
				IsAsync:           rec.IsAsync,
				IsGenerator:       rec.IsGenerator,
				Visibility:        rec.Visibility,
				LooksLikeFactory:  rec.LooksLikeFactory,
			}
		default:
			node = &graph.VariableNode{
				NodeCore: graph.NodeCore{
					DisplayName: rec.DisplayName,
					Scope:       rec.Scope,
					ContextSize: rec.ContextSize,
					Span:        rec.Span,
					DocScore:    rec.DocScore,
					IsExternal:  rec.IsExternal,
					FilePath:    rec.FilePath,
				},
				VarType:      rec.VarType,
				Mutability:   rec.Mutability,
				VariableKind: rec.VariableKind,
			}
		}
		g.AddNode(rec.Symbol, node)
	}

	for _, e := range snap.Edges {
		g.AddEdge(e.Source, e.Target, e.Kind)
	}

	for _, t := range snap.Types {
		g.Registry().Register(t.ID, graph.TypeInfo{
			Kind:           t.Kind,
			IsAbstract:     t.IsAbstract,
			TypeParamCount: t.TypeParamCount,
			TypeVar:        t.TypeVar,
			ContextSize:    t.ContextSize,
			DocScore:       t.DocScore,
		})
	}
	for ifaceID, implementors := range snap.Implementors {
		for _, implID := range implementors {
			g.Registry().RegisterImplementor(ifaceID, implID)
		}
	}

	return g
}
