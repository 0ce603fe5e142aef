// Package policy implements the pruning decision used by the footprint
// solver: for each edge traversal, classify the target node as a Boundary (count
// its cost, don't descend) or Transparent (descend through it). Reverse-expansion
// edges whose source is well-specified get a third outcome, Pruned, meaning
// the edge is not followed at all. The decision is a pure function of
// (source, target, edge kind, graph), parameterized by a documentation
// threshold and a mode.
package policy

import (
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
)

// Decision is the outcome of classifying one edge traversal.
type Decision int

const (
	Transparent Decision = iota
	Boundary
	// Pruned is produced only for reverse-expansion and dispatch edges
	// (CallIn, OverriddenBy) whose source is well-specified: the edge is
	// not followed and the target contributes nothing. A well-specified
	// callee does not pull its callers into context, and a well-documented
	// interface hides its implementors entirely — counting them as
	// Boundary nodes would charge for the very context the abstraction
	// exists to hide.
	Pruned
)

// Mode selects how aggressively functions are treated as abstraction
// boundaries.
type Mode int

const (
	// Academic treats a well-documented, fully-typed function as a
	// Boundary: good interfaces are assumed to be enough context.
	Academic Mode = iota
	// Strict never lets a function hide its body: functions are always
	// Transparent (except via the abstract-factory override).
	Strict
)

// Policy holds the parameters of a pruning decision: a documentation
// threshold in [0,1] and a mode. A Policy is pure and stateless; the same
// Policy value may be shared across solvers, but each solver using a
// Policy must own its own memo.
type Policy struct {
	DocThreshold float64
	Mode         Mode
}

// New constructs a Policy. Typical thresholds are 0.5 for Academic and 0.8
// for Strict, but callers may pass any value in [0,1].
func New(mode Mode, docThreshold float64) Policy {
	return Policy{DocThreshold: docThreshold, Mode: mode}
}

// isUnderspecified reports whether a function node is underspecified: its
// signature is incomplete, or its DocScore falls below the threshold. This
// single rule governs both the CallIn and OverriddenBy edge-kind overrides.
func isUnderspecified(reg *graph.TypeRegistry, fn *graph.FunctionNode, threshold float64) bool {
	if !signatureComplete(reg, fn) {
		return true
	}
	return fn.DocScore < threshold
}

// signatureComplete reports whether every parameter of fn has an
// effectively-typed parameter type (per the registry's TypeVar bookkeeping)
// and fn declares at least one return type.
func signatureComplete(reg *graph.TypeRegistry, fn *graph.FunctionNode) bool {
	if len(fn.ReturnTypes) == 0 {
		return false
	}
	for _, p := range fn.Parameters {
		if !reg.EffectiveParamType(p.TypeID) {
			return false
		}
	}
	return true
}

// SignatureComplete exposes signatureComplete for callers (builder
// diagnostics, tests) that need the same rule outside a traversal decision.
func SignatureComplete(reg *graph.TypeRegistry, fn *graph.FunctionNode) bool {
	return signatureComplete(reg, fn)
}

// returnsAbstractType reports whether fn's return type resolves to a
// registered abstract type — the mechanism by which dependency-injection
// factories hide their concrete implementation.
func returnsAbstractType(reg *graph.TypeRegistry, fn *graph.FunctionNode) bool {
	for _, rt := range fn.ReturnTypes {
		if info, ok := reg.Get(rt); ok && info.IsAbstract {
			return true
		}
	}
	return false
}

// Classify decides whether traversing the edge (source -> target, kind)
// should stop at target (Boundary), continue through it (Transparent), or
// skip the edge altogether (Pruned — reverse-expansion edges only). The
// order of checks below is significant:
//
//  1. Edge-kind overrides for SharedStateWrite, CallIn, OverriddenBy.
//  2. External targets are always a Boundary.
//  3. Function targets: mode rule, with the abstract-factory override.
//     Variable targets: always Transparent.
//  4. Fallback: Transparent.
func (p Policy) Classify(g *graph.Graph, sourceIdx, targetIdx int, kind graph.EdgeKind) Decision {
	reg := g.Registry()
	target := g.Node(targetIdx)

	switch kind {
	case graph.SharedStateWrite:
		// Shared-state writes must be included to reason about the
		// reader; they cannot hide behind a boundary.
		return Transparent

	case graph.CallIn:
		// This rule inspects the SOURCE of the reverse edge — the
		// callee — not the target (the caller) being classified.
		if callee, ok := g.Node(sourceIdx).(*graph.FunctionNode); ok {
			if isUnderspecified(reg, callee, p.DocThreshold) {
				return Transparent
			}
			return Pruned
		}
		return Transparent

	case graph.OverriddenBy:
		// Same rule, applied to the interface method (the source).
		if iface, ok := g.Node(sourceIdx).(*graph.FunctionNode); ok {
			if isUnderspecified(reg, iface, p.DocThreshold) {
				return Transparent
			}
			return Pruned
		}
		return Transparent
	}

	if target.Core().IsExternal {
		return Boundary
	}

	switch t := target.(type) {
	case *graph.FunctionNode:
		if returnsAbstractType(reg, t) && t.DocScore >= p.DocThreshold {
			return Boundary
		}
		switch p.Mode {
		case Strict:
			return Transparent
		default: // Academic
			if signatureComplete(reg, t) && t.DocScore >= p.DocThreshold {
				return Boundary
			}
			return Transparent
		}
	case *graph.VariableNode:
		return Transparent
	default:
		return Transparent
	}
}
