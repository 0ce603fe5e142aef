package graph

import "testing"

func TestTypeRegistryRegisterAndGet(t *testing.T) {
	r := NewTypeRegistry()
	if !r.IsEmpty() {
		t.Fatal("new registry should be empty")
	}

	r.Register("pkg.Widget", TypeInfo{Kind: TypeStruct, ContextSize: 10})
	if r.IsEmpty() || r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	if !r.Contains("pkg.Widget") {
		t.Fatal("Contains(pkg.Widget) = false, want true")
	}

	info, ok := r.Get("pkg.Widget")
	if !ok || info.Kind != TypeStruct || info.ContextSize != 10 {
		t.Fatalf("Get(pkg.Widget) = (%+v, %v), want Kind=TypeStruct ContextSize=10", info, ok)
	}

	if _, ok := r.Get("pkg.Missing"); ok {
		t.Fatal("Get(pkg.Missing) should report not-found")
	}
}

func TestTypeRegistryRegisterPreservesOrderOnReplace(t *testing.T) {
	r := NewTypeRegistry()
	r.Register("pkg.A", TypeInfo{Kind: TypeStruct})
	r.Register("pkg.B", TypeInfo{Kind: TypeStruct})
	r.Register("pkg.A", TypeInfo{Kind: TypeEnum}) // replace, not re-append

	ids := r.IDs()
	want := []string{"pkg.A", "pkg.B"}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	info, _ := r.Get("pkg.A")
	if info.Kind != TypeEnum {
		t.Fatalf("Get(pkg.A).Kind = %v, want TypeEnum after replace", info.Kind)
	}
}

func TestTypeRegistryImplementors(t *testing.T) {
	r := NewTypeRegistry()
	r.RegisterImplementor("pkg.Iface", "pkg.ImplA")
	r.RegisterImplementor("pkg.Iface", "pkg.ImplB")
	r.RegisterImplementor("pkg.Iface", "pkg.ImplA") // duplicate, no-op

	got := r.GetImplementors("pkg.Iface")
	want := []string{"pkg.ImplA", "pkg.ImplB"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("GetImplementors(pkg.Iface) = %v, want %v", got, want)
	}

	if got := r.GetImplementors("pkg.NoSuchIface"); got != nil {
		t.Fatalf("GetImplementors(unregistered) = %v, want nil", got)
	}
}

func TestTypeVarInfoEffectivelyTyped(t *testing.T) {
	cases := []struct {
		name string
		v    *TypeVarInfo
		want bool
	}{
		{"nil", nil, false},
		{"empty", &TypeVarInfo{}, false},
		{"bound only", &TypeVarInfo{Bound: "pkg.Comparable"}, true},
		{"constraint only", &TypeVarInfo{Constraints: []string{"pkg.Ordered"}}, true},
	}
	for _, c := range cases {
		if got := c.v.EffectivelyTyped(); got != c.want {
			t.Errorf("%s: EffectivelyTyped() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestEffectiveParamType(t *testing.T) {
	r := NewTypeRegistry()
	r.Register("pkg.Concrete", TypeInfo{Kind: TypeStruct})
	r.Register("T", TypeInfo{TypeVar: &TypeVarInfo{}})
	r.Register("U", TypeInfo{TypeVar: &TypeVarInfo{Bound: "pkg.Comparable"}})

	cases := []struct {
		name   string
		typeID string
		want   bool
	}{
		{"empty type id is never effective", "", false},
		{"unregistered id treated as effectively typed", "pkg.External", true},
		{"plain registered type is effective", "pkg.Concrete", true},
		{"unbounded type var is not effective", "T", false},
		{"bounded type var is effective", "U", true},
	}
	for _, c := range cases {
		if got := r.EffectiveParamType(c.typeID); got != c.want {
			t.Errorf("%s: EffectiveParamType(%q) = %v, want %v", c.name, c.typeID, got, c.want)
		}
	}
}
