package tsvisitor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
)

// TypeScriptExtractor parses TypeScript source with tree-sitter, scoped
// down to the declarations the footprint builder cares about (classes,
// interfaces, functions, methods) rather than broader architectural
// pattern detection (HTTP routes, test frameworks, …), which has no
// equivalent in this engine's data model.
type TypeScriptExtractor struct{}

// NewTypeScriptExtractor constructs a TypeScriptExtractor.
func NewTypeScriptExtractor() *TypeScriptExtractor { return &TypeScriptExtractor{} }

// ExtractFile parses one TypeScript source file.
func (x *TypeScriptExtractor) ExtractFile(relativePath string, content []byte) (semantic.DocumentData, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return semantic.DocumentData{}, fmt.Errorf("parsing %s: %w", relativePath, err)
	}

	te := &tsExtractor{relativePath: relativePath, content: content}
	te.walkTopLevel(tree.RootNode())

	return semantic.DocumentData{
		RelativePath: relativePath,
		Language:     "typescript",
		Definitions:  te.definitions,
		References:   te.references,
	}, nil
}

type tsExtractor struct {
	relativePath string
	content      []byte

	definitions []semantic.Definition
	references  []semantic.Reference
}

func (te *tsExtractor) text(n *sitter.Node) string { return n.Content(te.content) }

func (te *tsExtractor) rangeOf(n *sitter.Node) semantic.Range {
	start, end := n.StartPoint(), n.EndPoint()
	return semantic.Range{
		StartLine: int(start.Row), StartCol: int(start.Column),
		EndLine: int(end.Row), EndCol: int(end.Column),
	}
}

func (te *tsExtractor) walkTopLevel(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		te.visitDecl(root.NamedChild(i), "")
	}
}

// visitDecl dispatches a top-level or export-wrapped declaration.
func (te *tsExtractor) visitDecl(node *sitter.Node, enclosing string) {
	switch node.Type() {
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			te.visitDecl(decl, enclosing)
		}
	case "class_declaration":
		te.extractClass(node)
	case "interface_declaration":
		te.extractInterface(node)
	case "function_declaration":
		te.extractFunction(node, "", enclosing)
	}
}

func (te *tsExtractor) extractInterface(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := te.text(nameNode)
	symbol := te.relativePath + "#" + name

	te.definitions = append(te.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      te.rangeOf(nameNode),
		EnclosingRange: te.rangeOf(node),
		Metadata: semantic.SymbolMetadata{
			Symbol:      symbol,
			Kind:        semantic.KindInterface,
			DisplayName: name,
		},
	})

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if member.Type() == "method_signature" {
				if mNameNode := member.ChildByFieldName("name"); mNameNode != nil {
					mName := te.text(mNameNode)
					mSymbol := symbol + "." + mName
					te.definitions = append(te.definitions, semantic.Definition{
						Symbol:         mSymbol,
						NameRange:      te.rangeOf(mNameNode),
						EnclosingRange: te.rangeOf(member),
						Metadata: semantic.SymbolMetadata{
							Symbol:          mSymbol,
							Kind:            semantic.KindAbstractMethod,
							DisplayName:     mName,
							EnclosingSymbol: symbol,
						},
					})
				}
			}
		}
	}
}

func (te *tsExtractor) extractClass(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := te.text(nameNode)
	symbol := te.relativePath + "#" + name

	// The heritage clause is an unnamed class_heritage child, not a field.
	var rels []semantic.Relationship
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "class_heritage" {
			rels = append(rels, te.parseHeritage(child)...)
		}
	}

	te.definitions = append(te.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      te.rangeOf(nameNode),
		EnclosingRange: te.rangeOf(node),
		Metadata: semantic.SymbolMetadata{
			Symbol:        symbol,
			Kind:          semantic.KindClass,
			DisplayName:   name,
			Relationships: rels,
		},
	})

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if member.Type() == "method_definition" {
				te.extractFunction(member, name, symbol)
			}
		}
	}
}

func (te *tsExtractor) parseHeritage(heritage *sitter.Node) []semantic.Relationship {
	var rels []semantic.Relationship
	for i := 0; i < int(heritage.ChildCount()); i++ {
		clause := heritage.Child(i)
		switch clause.Type() {
		case "extends_clause":
			for j := 0; j < int(clause.ChildCount()); j++ {
				gc := clause.Child(j)
				if gc.Type() == "identifier" || gc.Type() == "member_expression" {
					rels = append(rels, semantic.Relationship{Kind: semantic.RelInherits, Target: te.qualify(te.text(gc))})
				}
			}
		case "implements_clause":
			for j := 0; j < int(clause.ChildCount()); j++ {
				gc := clause.Child(j)
				if gc.Type() == "type_identifier" || gc.Type() == "generic_type" {
					rels = append(rels, semantic.Relationship{Kind: semantic.RelImplements, Target: te.qualify(baseTypeName(te.text(gc)))})
				}
			}
		}
	}
	return rels
}

// qualify turns a bare local type name into this file's symbol form so it
// lines up with the symbol the type's own Definition is registered under.
// Dotted names (module members) are left as-is: they resolve outside this
// file, if at all.
func (te *tsExtractor) qualify(name string) string {
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	return te.relativePath + "#" + name
}

// baseTypeName strips type arguments from a generic type reference
// (Repository<User> -> Repository).
func baseTypeName(name string) string {
	if i := strings.Index(name, "<"); i >= 0 {
		return name[:i]
	}
	return name
}

func (te *tsExtractor) extractFunction(node *sitter.Node, className, enclosing string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := te.text(nameNode)

	symbol := te.relativePath + "#" + name
	kind := semantic.KindFunction
	if className != "" {
		symbol = te.relativePath + "#" + className + "." + name
		kind = semantic.KindMethod
		if name == "constructor" {
			kind = semantic.KindConstructor
		}
	}

	var params []semantic.Parameter
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
			p := paramsNode.NamedChild(i)
			pname, typeID := tsParamNameAndType(te, p)
			if pname == "" {
				continue
			}
			params = append(params, semantic.Parameter{Name: pname, TypeID: typeID})
		}
	}

	var returnTypes []string
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		returnTypes = append(returnTypes, trimAnnotation(te.text(ret)))
	}

	te.definitions = append(te.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      te.rangeOf(nameNode),
		EnclosingRange: te.rangeOf(node),
		Metadata: semantic.SymbolMetadata{
			Symbol:          symbol,
			Kind:            kind,
			DisplayName:     name,
			Parameters:      params,
			ReturnTypes:     returnTypes,
			EnclosingSymbol: enclosing,
		},
	})

	if body := node.ChildByFieldName("body"); body != nil {
		te.extractCalls(body, symbol)
	}
}

func tsParamNameAndType(te *tsExtractor, p *sitter.Node) (string, string) {
	switch p.Type() {
	case "identifier":
		return te.text(p), ""
	case "required_parameter", "optional_parameter":
		nameNode := p.ChildByFieldName("pattern")
		if nameNode == nil {
			return "", ""
		}
		typeID := ""
		if tn := p.ChildByFieldName("type"); tn != nil {
			typeID = trimAnnotation(te.text(tn))
		}
		return te.text(nameNode), typeID
	default:
		return "", ""
	}
}

// trimAnnotation strips the leading colon and padding from a type
// annotation's source text (": string" -> "string").
func trimAnnotation(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), ":"))
}

func (te *tsExtractor) extractCalls(body *sitter.Node, enclosing string) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := te.text(fn)
				if idx := strings.LastIndex(name, "."); idx >= 0 {
					name = name[idx+1:]
				}
				te.references = append(te.references, semantic.Reference{
					TargetSymbol:    te.relativePath + "#" + name,
					Range:           te.rangeOf(n),
					EnclosingSymbol: enclosing,
					Role:            semantic.RoleCall,
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(body)
}
