// Package builder implements GraphBuilder: the deterministic four-pass
// construction that maps SemanticData plus the injected SourceReader,
// SizeFunction, and DocumentationScorer collaborators to a fully wired
// Graph. The passes run in a fixed, non-configurable order since later
// passes depend on bookkeeping assembled by earlier ones.
package builder

import (
	"fmt"
	"strings"

	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
)

// SourceReader reads source text the builder needs to size and score
// definitions. A read failure is fatal: the build aborts.
type SourceReader interface {
	Read(path string) (string, error)
	ReadLines(path string, startLine, endLine int) ([]string, error)
}

// NodeInfo is the node description passed to DocumentationScorer.
type NodeInfo struct {
	Kind      string
	Name      string
	Signature string
}

// SizeFunction computes the token cost of a definition's span.
// The core treats the returned value as opaque.
type SizeFunction interface {
	Compute(source string, span graph.Span, documentation []string) int
}

// DocumentationScorer scores documentation quality in [0,1].
// Empty or absent documentation must score 0.
type DocumentationScorer interface {
	Score(info NodeInfo, docText string) float64
}

// Builder runs the four-pass construction algorithm once per SemanticData
// document. It holds no state between Build calls.
type Builder struct {
	reader    SourceReader
	sizeFn    SizeFunction
	docScorer DocumentationScorer
	log       func(format string, args ...any)
}

// New constructs a Builder. logFn may be nil, in which case logging is a no-op.
func New(reader SourceReader, sizeFn SizeFunction, docScorer DocumentationScorer, logFn func(format string, args ...any)) *Builder {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}
	return &Builder{reader: reader, sizeFn: sizeFn, docScorer: docScorer, log: logFn}
}

// readerEntry records one (reader function, variable read) pair discovered
// during Pass 2, consumed by Pass 3's SharedStateWrite expansion.
type readerEntry struct {
	ReaderIdx int
	VarIdx    int
}

// state holds the bookkeeping threaded between passes. It is private to one
// Build call.
type state struct {
	g *graph.Graph

	// parentMap records, for every definition symbol seen in Pass 1, its
	// enclosing symbol — the extractor-provided symbol-parent map the
	// reference-resolution walk below requires.
	parentMap map[string]string

	// typeConstructors maps a registered type id to its constructor node
	// index, when one was found, used for the target-is-a-type redirect
	// in Pass 2.
	typeConstructors map[string]int

	// typeMethodsByName maps a type id to {method display name -> node
	// index}, used by Pass 3 to match interface methods to implementors.
	typeMethodsByName map[string]map[string]int

	// funcEnclosingType maps a function node index to its enclosing
	// symbol (empty for a top-level function). Populated for every
	// function-like node; at the end of Pass 1 the symbols that resolve to
	// registered abstract types are finalized into IsInterfaceMethod.
	funcEnclosingType map[int]string

	// stateWriters maps a Variable node index to every node index that
	// writes it, in Pass-2 order.
	stateWriters map[int][]int

	// readers collects every (reader, variable) pair seen during Pass 2.
	readers []readerEntry

	// callers maps a callee node index to every caller node index, in
	// Pass-2 order.
	callers map[int][]int
}

func newState() *state {
	return &state{
		g:                 graph.New(),
		parentMap:         make(map[string]string),
		typeConstructors:  make(map[string]int),
		typeMethodsByName: make(map[string]map[string]int),
		funcEnclosingType: make(map[int]string),
		stateWriters:      make(map[int][]int),
		callers:           make(map[int][]int),
	}
}

// resolveAncestor walks the symbol-parent map upward from symbol until it
// finds the nearest ancestor symbol that is a graph node.
func (st *state) resolveAncestor(symbol string) (int, bool) {
	cur := symbol
	seen := make(map[string]bool)
	for cur != "" {
		if idx, ok := st.g.GetNodeBySymbol(cur); ok {
			return idx, true
		}
		if seen[cur] {
			break
		}
		seen[cur] = true
		parent, ok := st.parentMap[cur]
		if !ok {
			break
		}
		cur = parent
	}
	return 0, false
}

// resolveTarget resolves a reference's target_symbol to a node index,
// applying the type-id redirect: when the
// symbol itself names a registered type rather than a node, redirect to
// that type's constructor node if one was found, otherwise continue the
// ancestor walk from the type's own enclosing symbol.
func (st *state) resolveTarget(symbol string) (int, bool) {
	if st.g.Registry().Contains(symbol) {
		if idx, ok := st.typeConstructors[symbol]; ok {
			return idx, true
		}
		return st.resolveAncestor(st.parentMap[symbol])
	}
	return st.resolveAncestor(symbol)
}

func toSpan(r semantic.Range) graph.Span {
	return graph.Span{StartLine: r.StartLine, StartCol: r.StartCol, EndLine: r.EndLine, EndCol: r.EndCol}
}

func isTypeLike(k semantic.Kind) bool {
	switch k {
	case semantic.KindClass, semantic.KindInterface, semantic.KindStruct, semantic.KindEnum,
		semantic.KindTypeAlias, semantic.KindTrait, semantic.KindProtocol:
		return true
	}
	return false
}

func isFunctionLike(k semantic.Kind) bool {
	switch k {
	case semantic.KindFunction, semantic.KindMethod, semantic.KindConstructor,
		semantic.KindStaticMethod, semantic.KindAbstractMethod:
		return true
	}
	return false
}

// Phase is a single named step of the construction algorithm. Fn returns
// how many things the phase produced (nodes allocated, edges wired, types
// filled, edges synthesized) so a run can be reported and compared against
// others without re-deriving that count from the graph afterward.
type Phase struct {
	Name string
	Fn   func() (int, error)
}

// phases returns the four construction phases in their fixed execution
// order, closing over st and data so each Fn needs no arguments of its
// own. The order is not configurable: pass2 depends on the node index
// pass1 assigns, pass2Point5 depends on pass2 having resolved which
// symbols are nodes, and pass3 depends on the reader/writer/caller
// bookkeeping pass2 accumulates.
func (b *Builder) phases(st *state, data *semantic.SemanticData) []Phase {
	return []Phase{
		{Name: "allocate", Fn: func() (int, error) {
			if err := b.pass1(st, data); err != nil {
				return 0, err
			}
			return st.g.NodeCount(), nil
		}},
		{Name: "references", Fn: func() (int, error) {
			return b.pass2(st, data), nil
		}},
		{Name: "types", Fn: func() (int, error) {
			return b.pass2Point5(st, data), nil
		}},
		{Name: "synthesize", Fn: func() (int, error) {
			return b.pass3(st), nil
		}},
	}
}

// RunPhases executes phases in order, stopping at the first error, and
// returns each phase's count keyed by name. A partial map is returned
// alongside an error so a caller can report how far the build got.
func (b *Builder) RunPhases(phases []Phase) (map[string]int, error) {
	results := make(map[string]int, len(phases))
	for _, phase := range phases {
		count, err := phase.Fn()
		if err != nil {
			return results, fmt.Errorf("phase %s: %w", phase.Name, err)
		}
		results[phase.Name] = count
		b.log("  phase %s: %d", phase.Name, count)
	}
	return results, nil
}

// Build runs the four-phase construction algorithm over data, returning a
// fully wired Graph. A document whose source cannot be read is a fatal
// SourceReadError; a reference that cannot be resolved to a node is
// silently dropped.
func (b *Builder) Build(data semantic.SemanticData) (*graph.Graph, error) {
	st := newState()

	results, err := b.RunPhases(b.phases(st, &data))
	if err != nil {
		return nil, err
	}

	b.log("build complete: %d nodes, %d type entries (allocated=%d references=%d types=%d synthesize=%d)",
		st.g.NodeCount(), st.g.Registry().Len(),
		results["allocate"], results["references"], results["types"], results["synthesize"])
	return st.g, nil
}

func docText(doc []string) string {
	return strings.Join(doc, "\n")
}
