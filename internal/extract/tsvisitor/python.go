// Package tsvisitor extracts SemanticData using tree-sitter grammars for
// languages the Go standard library can't parse on its own: each file is
// parsed in full over the Python or TypeScript grammar, emitting
// semantic.Definition/semantic.Reference values.
package tsvisitor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
)

// PythonExtractor parses Python source with tree-sitter.
type PythonExtractor struct{}

// NewPythonExtractor constructs a PythonExtractor.
func NewPythonExtractor() *PythonExtractor { return &PythonExtractor{} }

// ExtractFile parses one Python source file.
func (x *PythonExtractor) ExtractFile(relativePath string, content []byte) (semantic.DocumentData, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return semantic.DocumentData{}, fmt.Errorf("parsing %s: %w", relativePath, err)
	}

	base := filepath.Base(relativePath)
	moduleName := strings.TrimSuffix(base, filepath.Ext(base))

	pe := &pyExtractor{
		relativePath: relativePath,
		content:      content,
		moduleSymbol: relativePath + "#" + moduleName,
	}
	pe.walkTopLevel(tree.RootNode())

	return semantic.DocumentData{
		RelativePath: relativePath,
		Language:     "python",
		Definitions:  pe.definitions,
		References:   pe.references,
	}, nil
}

type pyExtractor struct {
	relativePath string
	content      []byte
	moduleSymbol string

	definitions []semantic.Definition
	references  []semantic.Reference
}

func (pe *pyExtractor) text(n *sitter.Node) string {
	return n.Content(pe.content)
}

func (pe *pyExtractor) rangeOf(n *sitter.Node) semantic.Range {
	start := n.StartPoint()
	end := n.EndPoint()
	return semantic.Range{
		StartLine: int(start.Row), StartCol: int(start.Column),
		EndLine: int(end.Row), EndCol: int(end.Column),
	}
}

// qualify turns a bare local class name into this file's symbol form so it
// lines up with the symbol the class's own Definition is registered under.
// Dotted bases (typing.Protocol, abc.ABC) resolve outside this file and are
// left as-is.
func (pe *pyExtractor) qualify(name string) string {
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	return pe.relativePath + "#" + name
}

func (pe *pyExtractor) docstringOf(bodyNode *sitter.Node) []string {
	if bodyNode == nil || bodyNode.NamedChildCount() == 0 {
		return nil
	}
	first := bodyNode.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return nil
	}
	expr := first.NamedChild(0)
	if expr.Type() != "string" {
		return nil
	}
	text := strings.Trim(pe.text(expr), `"' `)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func (pe *pyExtractor) walkTopLevel(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			pe.extractClass(child)
		case "function_definition":
			pe.extractFunction(child, "", pe.moduleSymbol)
		}
	}
}

func (pe *pyExtractor) extractClass(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := pe.text(nameNode)
	symbol := pe.relativePath + "#" + name

	kind := semantic.KindClass
	var rels []semantic.Relationship
	if super := node.ChildByFieldName("superclasses"); super != nil {
		for i := 0; i < int(super.NamedChildCount()); i++ {
			base := pe.text(super.NamedChild(i))
			if strings.Contains(base, "Protocol") {
				kind = semantic.KindProtocol
			}
			rels = append(rels, semantic.Relationship{Kind: semantic.RelImplements, Target: pe.qualify(base)})
		}
	}

	pe.definitions = append(pe.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      pe.rangeOf(nameNode),
		EnclosingRange: pe.rangeOf(node),
		Metadata: semantic.SymbolMetadata{
			Symbol:          symbol,
			Kind:            kind,
			DisplayName:     name,
			Documentation:   pe.docstringOf(node.ChildByFieldName("body")),
			Relationships:   rels,
			EnclosingSymbol: pe.moduleSymbol,
		},
	})

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if member.Type() == "function_definition" {
				pe.extractFunction(member, name, symbol)
			}
		}
	}
}

func (pe *pyExtractor) extractFunction(node *sitter.Node, className, enclosing string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := pe.text(nameNode)

	var symbol string
	kind := semantic.KindFunction
	if className != "" {
		symbol = pe.relativePath + "#" + className + "." + name
		kind = semantic.KindMethod
		if name == "__init__" {
			kind = semantic.KindConstructor
		}
	} else {
		symbol = pe.relativePath + "#" + name
	}

	var params []semantic.Parameter
	isFirstMethodParam := className != ""
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
			p := paramsNode.NamedChild(i)
			pname, typeID := pyParamNameAndType(pe, p)
			if pname == "" {
				continue
			}
			if isFirstMethodParam && pname == "self" {
				isFirstMethodParam = false
				continue
			}
			params = append(params, semantic.Parameter{Name: pname, TypeID: typeID})
		}
	}

	var returnTypes []string
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		returnTypes = append(returnTypes, pe.text(ret))
	}

	var modifiers []string
	if strings.HasPrefix(name, "_") {
		modifiers = append(modifiers, "private")
	}

	pe.definitions = append(pe.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      pe.rangeOf(nameNode),
		EnclosingRange: pe.rangeOf(node),
		Metadata: semantic.SymbolMetadata{
			Symbol:          symbol,
			Kind:            kind,
			DisplayName:     name,
			Documentation:   pe.docstringOf(node.ChildByFieldName("body")),
			Parameters:      params,
			ReturnTypes:     returnTypes,
			EnclosingSymbol: enclosing,
			Modifiers:       modifiers,
		},
	})

	if body := node.ChildByFieldName("body"); body != nil {
		pe.extractCalls(body, symbol)
	}
}

func pyParamNameAndType(pe *pyExtractor, p *sitter.Node) (string, string) {
	switch p.Type() {
	case "identifier":
		return pe.text(p), ""
	case "typed_parameter":
		nameNode := p.NamedChild(0)
		if nameNode == nil {
			return "", ""
		}
		typeID := ""
		if p.NamedChildCount() > 1 {
			typeID = pe.text(p.NamedChild(1))
		}
		return pe.text(nameNode), typeID
	case "default_parameter", "typed_default_parameter":
		nameNode := p.ChildByFieldName("name")
		if nameNode == nil {
			return "", ""
		}
		typeID := ""
		if tn := p.ChildByFieldName("type"); tn != nil {
			typeID = pe.text(tn)
		}
		return pe.text(nameNode), typeID
	default:
		return "", ""
	}
}

// extractCalls walks a function body for call expressions, emitting a Call
// reference per call — coarse but consistent with the rest of this
// extractor's best-effort contract.
func (pe *pyExtractor) extractCalls(body *sitter.Node, enclosing string) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := pe.text(fn)
				if idx := strings.LastIndex(name, "."); idx >= 0 {
					name = name[idx+1:]
				}
				pe.references = append(pe.references, semantic.Reference{
					TargetSymbol:    pe.relativePath + "#" + name,
					Range:           pe.rangeOf(n),
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
