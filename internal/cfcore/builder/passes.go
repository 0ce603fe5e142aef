package builder

import (
	"strings"

	"github.com/imyousuf/contextfootprint/internal/cfcore/cferrors"
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
)

// pass1 allocates every node and type-registry entry, in document and
// definition input order.
func (b *Builder) pass1(st *state, data *semantic.SemanticData) error {
	for _, doc := range data.Documents {
		source, err := b.reader.Read(doc.RelativePath)
		if err != nil {
			return &cferrors.SourceReadError{Path: doc.RelativePath, Err: err}
		}

		for _, def := range doc.Definitions {
			md := def.Metadata
			if md.Kind == semantic.KindParameter {
				// Captured in the owning function's Parameters instead.
				continue
			}
			st.parentMap[def.Symbol] = md.EnclosingSymbol

			switch {
			case isTypeLike(md.Kind):
				b.registerType(st, def, md, source)
			case isFunctionLike(md.Kind):
				idx := b.addFunctionNode(st, doc, def, md, source)
				st.funcEnclosingType[idx] = md.EnclosingSymbol
				if md.Kind == semantic.KindConstructor && md.EnclosingSymbol != "" {
					st.typeConstructors[md.EnclosingSymbol] = idx
				}
				if md.EnclosingSymbol != "" {
					if st.typeMethodsByName[md.EnclosingSymbol] == nil {
						st.typeMethodsByName[md.EnclosingSymbol] = make(map[string]int)
					}
					st.typeMethodsByName[md.EnclosingSymbol][md.DisplayName] = idx
				}
			default:
				b.addVariableNode(st, doc, def, md, source)
			}
		}
	}

	// Finalize IsInterfaceMethod now that every type in the project is
	// registered, regardless of whether a method's enclosing type was
	// registered before or after the method itself was visited.
	for idx, enclosing := range st.funcEnclosingType {
		if enclosing == "" {
			continue
		}
		info, ok := st.g.Registry().Get(enclosing)
		if !ok || !info.IsAbstract {
			continue
		}
		if fn, ok := st.g.Node(idx).(*graph.FunctionNode); ok {
			fn.IsInterfaceMethod = true
		}
	}

	return nil
}

func (b *Builder) registerType(st *state, def semantic.Definition, md semantic.SymbolMetadata, source string) {
	span := toSpan(def.EnclosingRange)
	ctxSize := b.sizeFn.Compute(source, span, md.Documentation)
	docScore := b.docScorer.Score(NodeInfo{Kind: string(md.Kind), Name: md.DisplayName, Signature: md.Signature}, docText(md.Documentation))

	abstract := md.Kind == semantic.KindInterface || md.Kind == semantic.KindTrait || md.Kind == semantic.KindProtocol
	if md.Kind == semantic.KindClass {
		for _, rel := range md.Relationships {
			if rel.Kind == semantic.RelImplements && strings.Contains(rel.Target, "Protocol#") {
				abstract = true
				break
			}
		}
	}

	var typeKind graph.TypeKind
	switch md.Kind {
	case semantic.KindInterface, semantic.KindTrait, semantic.KindProtocol:
		typeKind = graph.TypeProtocol
	case semantic.KindClass:
		if abstract {
			typeKind = graph.TypeProtocol
		} else {
			typeKind = graph.TypeClass
		}
	case semantic.KindStruct:
		typeKind = graph.TypeStruct
	case semantic.KindEnum:
		typeKind = graph.TypeEnum
	case semantic.KindTypeAlias:
		typeKind = graph.TypeAlias
	}

	st.g.Registry().Register(def.Symbol, graph.TypeInfo{
		Kind:        typeKind,
		IsAbstract:  abstract,
		ContextSize: ctxSize,
		DocScore:    docScore,
	})

	for _, rel := range md.Relationships {
		if rel.Kind == semantic.RelImplements {
			st.g.Registry().RegisterImplementor(rel.Target, def.Symbol)
		}
	}
}

func visibilityFromModifiers(md *semantic.SymbolMetadata) graph.Visibility {
	switch {
	case md.HasModifier("private"):
		return graph.VisibilityPrivate
	case md.HasModifier("protected"):
		return graph.VisibilityProtected
	case md.HasModifier("internal"):
		return graph.VisibilityInternal
	default:
		return graph.VisibilityPublic
	}
}

// looksLikeFactory is an advisory naming heuristic: a New/Create/Build/
// Make-prefixed function whose return type is non-empty. It never feeds
// the pruning decision — only the registered-abstract-return check does.
func looksLikeFactory(md semantic.SymbolMetadata) bool {
	if len(md.ReturnTypes) == 0 {
		return false
	}
	prefixes := []string{"New", "Create", "Build", "Make"}
	name := md.DisplayName
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			return true
		}
	}
	return false
}

func (b *Builder) addFunctionNode(st *state, doc semantic.DocumentData, def semantic.Definition, md semantic.SymbolMetadata, source string) int {
	span := toSpan(def.EnclosingRange)
	ctxSize := b.sizeFn.Compute(source, span, md.Documentation)
	docScore := b.docScorer.Score(NodeInfo{Kind: string(md.Kind), Name: md.DisplayName, Signature: md.Signature}, docText(md.Documentation))

	params := make([]graph.Param, 0, len(md.Parameters))
	for _, p := range md.Parameters {
		if p.TypeVar != nil && p.TypeID != "" && !st.g.Registry().Contains(p.TypeID) {
			st.g.Registry().Register(p.TypeID, graph.TypeInfo{
				TypeVar: &graph.TypeVarInfo{Bound: p.TypeVar.Bound, Constraints: p.TypeVar.Constraints},
			})
		}
		params = append(params, graph.Param{Name: p.Name, TypeID: p.TypeID})
	}

	returnTypes := make([]string, len(md.ReturnTypes))
	copy(returnTypes, md.ReturnTypes)

	fn := &graph.FunctionNode{
		NodeCore: graph.NodeCore{
			DisplayName: md.DisplayName,
			Scope:       md.EnclosingSymbol,
			ContextSize: ctxSize,
			Span:        span,
			DocScore:    docScore,
			IsExternal:  md.IsExternal,
			FilePath:    doc.RelativePath,
		},
		Parameters:       params,
		ReturnTypes:      returnTypes,
		IsConstructor:    md.Kind == semantic.KindConstructor || md.HasModifier("constructor"),
		IsDIWired:        md.HasModifier("injected") || md.HasModifier("autowired") || md.HasModifier("di"),
		IsAsync:          md.HasModifier("async"),
		IsGenerator:      md.HasModifier("generator"),
		Visibility:       visibilityFromModifiers(&md),
		LooksLikeFactory: looksLikeFactory(md),
	}
	return st.g.AddNode(def.Symbol, fn)
}

func mutabilityFor(md semantic.SymbolMetadata) graph.Mutability {
	switch {
	case md.HasModifier("const"):
		return graph.Const
	case md.HasModifier("readonly"), md.HasModifier("final"), md.HasModifier("immutable"):
		return graph.Immutable
	case md.Kind == semantic.KindConstant:
		return graph.Immutable
	default:
		return graph.Mutable
	}
}

func variableKindFor(md semantic.SymbolMetadata) graph.VariableKind {
	switch {
	case md.EnclosingSymbol == "":
		return graph.Global
	case md.Kind == semantic.KindField:
		return graph.ClassField
	default:
		return graph.Local
	}
}

func (b *Builder) addVariableNode(st *state, doc semantic.DocumentData, def semantic.Definition, md semantic.SymbolMetadata, source string) int {
	span := toSpan(def.EnclosingRange)
	ctxSize := b.sizeFn.Compute(source, span, md.Documentation)
	docScore := b.docScorer.Score(NodeInfo{Kind: string(md.Kind), Name: md.DisplayName, Signature: md.Signature}, docText(md.Documentation))

	var varType string
	for _, rel := range md.Relationships {
		if rel.Kind == semantic.RelTypeDefinition {
			varType = rel.Target
			break
		}
	}

	v := &graph.VariableNode{
		NodeCore: graph.NodeCore{
			DisplayName: md.DisplayName,
			Scope:       md.EnclosingSymbol,
			ContextSize: ctxSize,
			Span:        span,
			DocScore:    docScore,
			IsExternal:  md.IsExternal,
			FilePath:    doc.RelativePath,
		},
		VarType:      varType,
		Mutability:   mutabilityFor(md),
		VariableKind: variableKindFor(md),
	}
	return st.g.AddNode(def.Symbol, v)
}

func edgeKindForRole(role semantic.Role) graph.EdgeKind {
	switch role {
	case semantic.RoleRead:
		return graph.Read
	case semantic.RoleWrite:
		return graph.Write
	default: // Call, Import, TypeUsage, Unknown
		return graph.Call
	}
}

// pass2 wires edges from every reference, resolving both endpoints to the
// nearest ancestor node symbol and dropping unresolved or self references.
// It returns the number of edges wired, which is this phase's count for
// the builder's Phase/RunPhases bookkeeping.
func (b *Builder) pass2(st *state, data *semantic.SemanticData) int {
	wired := 0
	for _, doc := range data.Documents {
		for _, ref := range doc.References {
			sourceIdx, ok := st.resolveAncestor(ref.EnclosingSymbol)
			if !ok {
				continue
			}
			targetIdx, ok := st.resolveTarget(ref.TargetSymbol)
			if !ok {
				continue
			}
			if sourceIdx == targetIdx {
				continue
			}

			kind := edgeKindForRole(ref.Role)
			st.g.AddEdge(sourceIdx, targetIdx, kind)
			wired++

			switch kind {
			case graph.Write:
				if _, ok := st.g.Node(targetIdx).(*graph.VariableNode); ok {
					st.stateWriters[targetIdx] = append(st.stateWriters[targetIdx], sourceIdx)
				}
			case graph.Read:
				if _, ok := st.g.Node(targetIdx).(*graph.VariableNode); ok {
					st.readers = append(st.readers, readerEntry{ReaderIdx: sourceIdx, VarIdx: targetIdx})
				}
			case graph.Call:
				st.callers[targetIdx] = append(st.callers[targetIdx], sourceIdx)
			}
		}
	}
	return wired
}

// pass2Point5 fills in return/variable types from TypeDefinition
// relationships; Implements/Inherits never become graph edges. It returns
// the number of types filled in, this phase's Phase/RunPhases count.
func (b *Builder) pass2Point5(st *state, data *semantic.SemanticData) int {
	filled := 0
	for _, doc := range data.Documents {
		for _, def := range doc.Definitions {
			md := def.Metadata
			if md.Kind == semantic.KindParameter {
				continue
			}
			idx, ok := st.g.GetNodeBySymbol(def.Symbol)
			if !ok {
				continue
			}
			for _, rel := range md.Relationships {
				if rel.Kind != semantic.RelTypeDefinition {
					continue
				}
				if !st.g.Registry().Contains(rel.Target) {
					continue
				}
				switch n := st.g.Node(idx).(type) {
				case *graph.FunctionNode:
					if len(n.ReturnTypes) == 0 {
						n.ReturnTypes = []string{rel.Target}
						filled++
					}
				case *graph.VariableNode:
					if n.VarType == "" {
						n.VarType = rel.Target
						filled++
					}
				}
			}
		}
	}
	return filled
}

// pass3 synthesizes the reverse-expansion and dispatch edges: SharedState-
// Write from every (reader, variable) pair against its writers, CallIn from
// every callee against its callers, and OverriddenBy from every interface
// method against its implementing methods. It returns the total number of
// synthesized edges, this phase's Phase/RunPhases count.
func (b *Builder) pass3(st *state) int {
	synthesized := 0

	for _, r := range st.readers {
		for _, writerIdx := range st.stateWriters[r.VarIdx] {
			if writerIdx == r.ReaderIdx {
				continue
			}
			st.g.AddEdge(r.ReaderIdx, writerIdx, graph.SharedStateWrite)
			synthesized++
		}
	}

	for calleeIdx, callerList := range st.callers {
		if _, ok := st.g.Node(calleeIdx).(*graph.FunctionNode); !ok {
			// Call edges can land on variables (TypeUsage/Unknown roles
			// resolved to a nearest enclosing node); only function callees
			// get call-in expansion.
			continue
		}
		for _, callerIdx := range callerList {
			if callerIdx == calleeIdx {
				continue
			}
			st.g.AddEdge(calleeIdx, callerIdx, graph.CallIn)
			synthesized++
		}
	}

	for idx := 0; idx < st.g.NodeCount(); idx++ {
		fn, ok := st.g.Node(idx).(*graph.FunctionNode)
		if !ok || !fn.IsInterfaceMethod {
			continue
		}
		ifaceType := st.funcEnclosingType[idx]
		if ifaceType == "" {
			continue
		}
		for _, implType := range st.g.Registry().GetImplementors(ifaceType) {
			implIdx, ok := st.typeMethodsByName[implType][fn.DisplayName]
			if !ok || implIdx == idx {
				continue
			}
			st.g.AddEdge(idx, implIdx, graph.OverriddenBy)
			synthesized++
		}
	}

	return synthesized
}
