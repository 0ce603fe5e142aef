package tsvisitor

import (
	"testing"

	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
)

const tsSource = `export interface Store {
	get(key: string): string;
	put(key: string, value: string): void;
}

export class DiskStore implements Store {
	constructor(private root: string) {}

	get(key: string): string {
		return this.root + key;
	}

	put(key: string, value: string): void {}
}

export function lookup(store: DiskStore, key: string): string {
	return store.get(key);
}
`

func extractTsSource(t *testing.T) semantic.DocumentData {
	t.Helper()
	doc, err := NewTypeScriptExtractor().ExtractFile("store.ts", []byte(tsSource))
	if err != nil {
		t.Fatalf("ExtractFile returned error: %v", err)
	}
	return doc
}

func TestTypeScriptExtractInterfaceMembers(t *testing.T) {
	doc := extractTsSource(t)

	if doc.Language != "typescript" {
		t.Errorf("Language = %q, want %q", doc.Language, "typescript")
	}

	iface := findDef(t, doc, "store.ts#Store")
	if iface.Metadata.Kind != semantic.KindInterface {
		t.Fatalf("Store kind = %q, want Interface", iface.Metadata.Kind)
	}

	for _, name := range []string{"get", "put"} {
		member := findDef(t, doc, "store.ts#Store."+name)
		if member.Metadata.Kind != semantic.KindAbstractMethod {
			t.Errorf("Store.%s kind = %q, want AbstractMethod", name, member.Metadata.Kind)
		}
		if member.Metadata.EnclosingSymbol != iface.Symbol {
			t.Errorf("Store.%s enclosing = %q, want %q", name, member.Metadata.EnclosingSymbol, iface.Symbol)
		}
	}
}

func TestTypeScriptExtractImplementsRelationship(t *testing.T) {
	doc := extractTsSource(t)

	impl := findDef(t, doc, "store.ts#DiskStore")
	if impl.Metadata.Kind != semantic.KindClass {
		t.Errorf("DiskStore kind = %q, want Class", impl.Metadata.Kind)
	}
	targets := implementsTargets(impl)
	if len(targets) != 1 || targets[0] != "store.ts#Store" {
		t.Fatalf("DiskStore Implements = %v, want [store.ts#Store]", targets)
	}
}

func TestTypeScriptExtractClassMethods(t *testing.T) {
	doc := extractTsSource(t)

	ctor := findDef(t, doc, "store.ts#DiskStore.constructor")
	if ctor.Metadata.Kind != semantic.KindConstructor {
		t.Errorf("constructor kind = %q, want Constructor", ctor.Metadata.Kind)
	}

	get := findDef(t, doc, "store.ts#DiskStore.get")
	if get.Metadata.Kind != semantic.KindMethod {
		t.Errorf("DiskStore.get kind = %q, want Method", get.Metadata.Kind)
	}
	if get.Metadata.EnclosingSymbol != "store.ts#DiskStore" {
		t.Errorf("DiskStore.get enclosing = %q, want the class symbol", get.Metadata.EnclosingSymbol)
	}
	if len(get.Metadata.Parameters) != 1 || get.Metadata.Parameters[0].TypeID != "string" {
		t.Errorf("DiskStore.get parameters = %+v, want one string param", get.Metadata.Parameters)
	}
	if len(get.Metadata.ReturnTypes) != 1 || get.Metadata.ReturnTypes[0] != "string" {
		t.Errorf("DiskStore.get return types = %v, want [string]", get.Metadata.ReturnTypes)
	}
}

func TestTypeScriptExtractCallReference(t *testing.T) {
	doc := extractTsSource(t)

	found := false
	for _, ref := range doc.References {
		if ref.Role == semantic.RoleCall &&
			ref.EnclosingSymbol == "store.ts#lookup" &&
			ref.TargetSymbol == "store.ts#get" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a Call reference from lookup to get")
	}
}
