package graph

// TypeKind classifies a TypeRegistry entry. Interface/Trait/Protocol
// kinds collapse to Protocol; an abstract Class also collapses to
// Protocol.
type TypeKind int

const (
	TypeClass TypeKind = iota
	TypeProtocol
	TypeStruct
	TypeEnum
	TypeAlias
)

// TypeVarInfo describes a generic type parameter entry in the registry.
// A TypeVar is "effectively typed" iff it carries a Bound
// or at least one Constraint.
type TypeVarInfo struct {
	Bound       string
	Constraints []string
}

// EffectivelyTyped reports whether v counts as typed for signature
// completeness.
func (v *TypeVarInfo) EffectivelyTyped() bool {
	return v != nil && (v.Bound != "" || len(v.Constraints) > 0)
}

// TypeInfo is one TypeRegistry entry.
type TypeInfo struct {
	Kind           TypeKind
	IsAbstract     bool
	TypeParamCount int
	TypeVar        *TypeVarInfo // non-nil iff this entry describes a generic type parameter
	ContextSize    int
	DocScore       float64
}

// TypeRegistry is the side-table of type declarations keyed by the
// extractor's opaque type id. It is not part of the graph.
type TypeRegistry struct {
	entries      map[string]TypeInfo
	order        []string
	implementors map[string][]string // interface id -> implementor type ids, insertion order
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		entries:      make(map[string]TypeInfo),
		implementors: make(map[string][]string),
	}
}

// Register adds or replaces the entry for id.
func (r *TypeRegistry) Register(id string, info TypeInfo) {
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = info
}

// Get returns the entry for id, and whether it exists.
func (r *TypeRegistry) Get(id string) (TypeInfo, bool) {
	info, ok := r.entries[id]
	return info, ok
}

// Contains reports whether id has a registered entry.
func (r *TypeRegistry) Contains(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// RegisterImplementor records that implID implements interfaceID. Order of
// first registration is preserved; duplicate registrations are no-ops.
func (r *TypeRegistry) RegisterImplementor(interfaceID, implID string) {
	for _, existing := range r.implementors[interfaceID] {
		if existing == implID {
			return
		}
	}
	r.implementors[interfaceID] = append(r.implementors[interfaceID], implID)
}

// GetImplementors returns the implementor type ids registered against
// interfaceID, in registration order. Returns nil if none.
func (r *TypeRegistry) GetImplementors(interfaceID string) []string {
	return r.implementors[interfaceID]
}

// Len returns the number of registered type entries.
func (r *TypeRegistry) Len() int { return len(r.entries) }

// IsEmpty reports whether the registry has no entries.
func (r *TypeRegistry) IsEmpty() bool { return len(r.entries) == 0 }

// IDs returns all registered type ids in registration order.
func (r *TypeRegistry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// EffectiveParamType resolves whether a parameter type id counts as an
// effective type for signature-completeness purposes: a plain (non-TypeVar)
// type id is always effective; a TypeVar id is effective only if the
// registry entry carries a bound or constraint.
func (r *TypeRegistry) EffectiveParamType(typeID string) bool {
	if typeID == "" {
		return false
	}
	info, ok := r.entries[typeID]
	if !ok {
		// Unregistered ids (e.g. external/opaque types the extractor
		// still gave a symbol to) are treated as effectively typed: the
		// extractor asserted a concrete type even though it is not
		// itself a declaration we indexed.
		return true
	}
	if info.TypeVar == nil {
		return true
	}
	return info.TypeVar.EffectivelyTyped()
}
