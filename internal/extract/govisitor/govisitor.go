// Package govisitor extracts SemanticData from Go source files by walking
// the go/ast tree produced by go/parser and go/token, emitting the
// extractor-facing semantic.Definition/semantic.Reference contract the
// footprint builder consumes.
package govisitor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
)

// Extractor walks Go source files and accumulates SemanticData.
type Extractor struct {
	ProjectRoot string
}

// New creates an Extractor rooted at projectRoot.
func New(projectRoot string) *Extractor {
	return &Extractor{ProjectRoot: projectRoot}
}

// ExtractFile parses one Go source file (relativePath is recorded verbatim
// on the returned DocumentData) and extracts its definitions and
// references.
func (x *Extractor) ExtractFile(relativePath string, content []byte) (semantic.DocumentData, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, relativePath, content, parser.ParseComments)
	if err != nil {
		return semantic.DocumentData{}, fmt.Errorf("parsing %s: %w", relativePath, err)
	}

	fe := &fileExtractor{
		fset:             fset,
		file:             file,
		relativePath:     relativePath,
		pkgName:          file.Name.Name,
		interfaceMethods: make(map[string]map[string]bool),
		structMethods:    make(map[string]map[string]bool),
		structDefIdx:     make(map[string]int),
	}
	fe.walk()

	return semantic.DocumentData{
		RelativePath: relativePath,
		Language:     "go",
		Definitions:  fe.definitions,
		References:   fe.references,
	}, nil
}

type fileExtractor struct {
	fset         *token.FileSet
	file         *ast.File
	relativePath string
	pkgName      string

	definitions []semantic.Definition
	references  []semantic.Reference

	// interfaceMethods maps an interface name to its declared method-name
	// set; structMethods maps a receiver type name to the method names
	// declared on it. Go interface satisfaction is structural, so the two
	// are matched after the walk to attach Implements relationships.
	interfaceMethods map[string]map[string]bool
	structMethods    map[string]map[string]bool

	// structDefIdx locates a struct's Definition in definitions so the
	// post-walk matching can append relationships to its metadata.
	structDefIdx map[string]int
}

func (fe *fileExtractor) symbol(name string) string {
	return fe.relativePath + "#" + fe.pkgName + "." + name
}

func (fe *fileExtractor) methodSymbol(receiver, name string) string {
	return fe.relativePath + "#" + fe.pkgName + "." + receiver + "." + name
}

func (fe *fileExtractor) rangeOf(node ast.Node) semantic.Range {
	start := fe.fset.Position(node.Pos())
	end := fe.fset.Position(node.End())
	return semantic.Range{StartLine: start.Line - 1, StartCol: start.Column - 1, EndLine: end.Line - 1, EndCol: end.Column - 1}
}

func docLines(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	text := strings.TrimSpace(cg.Text())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func (fe *fileExtractor) walk() {
	for _, decl := range fe.file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			fe.extractFunc(d)
		case *ast.GenDecl:
			fe.extractGenDecl(d)
		}
	}
	fe.attachImplementsRelationships()
}

func receiverTypeName(fd *ast.FuncDecl) (string, bool) {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return "", false
	}
	expr := fd.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name, true
	}
	return "", false
}

func (fe *fileExtractor) extractFunc(fd *ast.FuncDecl) {
	var symbol, enclosing string
	recv, isMethod := receiverTypeName(fd)
	if isMethod {
		symbol = fe.methodSymbol(recv, fd.Name.Name)
		enclosing = fe.symbol(recv)
	} else {
		symbol = fe.symbol(fd.Name.Name)
		enclosing = ""
	}

	kind := semantic.KindFunction
	if isMethod {
		kind = semantic.KindMethod
		if fe.structMethods[recv] == nil {
			fe.structMethods[recv] = make(map[string]bool)
		}
		fe.structMethods[recv][fd.Name.Name] = true
	}
	if fd.Name.Name == "New"+recv || (isMethod == false && strings.HasPrefix(fd.Name.Name, "New")) {
		kind = semantic.KindConstructor
	}

	params := funcParams(fd.Type)
	returnTypes := funcReturnTypes(fd.Type)

	var modifiers []string
	if !fd.Name.IsExported() {
		modifiers = append(modifiers, "private")
	}

	md := semantic.SymbolMetadata{
		Symbol:          symbol,
		Kind:            kind,
		DisplayName:     fd.Name.Name,
		Documentation:   docLines(fd.Doc),
		Parameters:      params,
		ReturnTypes:     returnTypes,
		EnclosingSymbol: enclosing,
		Modifiers:       modifiers,
	}

	fe.definitions = append(fe.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      fe.rangeOf(fd.Name),
		EnclosingRange: fe.rangeOf(fd),
		Metadata:       md,
	})

	if fd.Body != nil {
		fe.extractReferences(symbol, fd.Body)
	}
}

func (fe *fileExtractor) extractGenDecl(gd *ast.GenDecl) {
	switch gd.Tok {
	case token.TYPE:
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			fe.extractTypeSpec(ts, gd.Doc)
		}
	case token.VAR, token.CONST:
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			fe.extractValueSpec(vs, gd)
		}
	}
}

func (fe *fileExtractor) extractTypeSpec(ts *ast.TypeSpec, doc *ast.CommentGroup) {
	symbol := fe.symbol(ts.Name.Name)
	documentation := docLines(ts.Doc)
	if documentation == nil {
		documentation = docLines(doc)
	}

	var kind semantic.Kind
	switch ts.Type.(type) {
	case *ast.InterfaceType:
		kind = semantic.KindInterface
	case *ast.StructType:
		kind = semantic.KindStruct
	default:
		kind = semantic.KindTypeAlias
	}

	md := semantic.SymbolMetadata{
		Symbol:        symbol,
		Kind:          kind,
		DisplayName:   ts.Name.Name,
		Documentation: documentation,
	}

	fe.definitions = append(fe.definitions, semantic.Definition{
		Symbol:         symbol,
		NameRange:      fe.rangeOf(ts.Name),
		EnclosingRange: fe.rangeOf(ts),
		Metadata:       md,
	})

	switch t := ts.Type.(type) {
	case *ast.StructType:
		fe.structDefIdx[ts.Name.Name] = len(fe.definitions) - 1
		fe.extractStructFields(symbol, t)
	case *ast.InterfaceType:
		fe.extractInterfaceMethods(symbol, ts.Name.Name, t)
	}
}

// extractInterfaceMethods emits a Definition per declared interface method
// (embedded interfaces carry no name and are skipped) and records the
// interface's method-name set for the post-walk satisfaction matching.
func (fe *fileExtractor) extractInterfaceMethods(ifaceSymbol, ifaceName string, it *ast.InterfaceType) {
	methods := make(map[string]bool)
	fe.interfaceMethods[ifaceName] = methods
	if it.Methods == nil {
		return
	}

	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			continue
		}
		ft, ok := m.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		for _, n := range m.Names {
			methods[n.Name] = true
			symbol := fe.methodSymbol(ifaceName, n.Name)
			fe.definitions = append(fe.definitions, semantic.Definition{
				Symbol:         symbol,
				NameRange:      fe.rangeOf(n),
				EnclosingRange: fe.rangeOf(m),
				Metadata: semantic.SymbolMetadata{
					Symbol:          symbol,
					Kind:            semantic.KindAbstractMethod,
					DisplayName:     n.Name,
					Documentation:   docLines(m.Doc),
					Parameters:      funcParams(ft),
					ReturnTypes:     funcReturnTypes(ft),
					EnclosingSymbol: ifaceSymbol,
				},
			})
		}
	}
}

// attachImplementsRelationships matches every struct's method set against
// every interface's: Go interface satisfaction is structural, not declared,
// so a struct whose methods are a superset of an interface's gets an
// Implements relationship appended to its Definition. Matching is by
// method name within one file, like the rest of this extractor's
// resolution.
func (fe *fileExtractor) attachImplementsRelationships() {
	for ifaceName, ifaceMethods := range fe.interfaceMethods {
		if len(ifaceMethods) == 0 {
			continue
		}
		for structName, structMethods := range fe.structMethods {
			if !implementsAll(structMethods, ifaceMethods) {
				continue
			}
			idx, ok := fe.structDefIdx[structName]
			if !ok {
				continue
			}
			md := &fe.definitions[idx].Metadata
			md.Relationships = append(md.Relationships, semantic.Relationship{
				Kind:   semantic.RelImplements,
				Target: fe.symbol(ifaceName),
			})
		}
	}
}

func implementsAll(structMethods, ifaceMethods map[string]bool) bool {
	for method := range ifaceMethods {
		if !structMethods[method] {
			return false
		}
	}
	return true
}

func (fe *fileExtractor) extractStructFields(structSymbol string, st *ast.StructType) {
	if st.Fields == nil {
		return
	}
	for _, field := range st.Fields.List {
		typeID := exprTypeID(field.Type)
		for _, name := range field.Names {
			fieldSymbol := structSymbol + "." + name.Name
			fe.definitions = append(fe.definitions, semantic.Definition{
				Symbol:         fieldSymbol,
				NameRange:      fe.rangeOf(name),
				EnclosingRange: fe.rangeOf(field),
				Metadata: semantic.SymbolMetadata{
					Symbol:          fieldSymbol,
					Kind:            semantic.KindField,
					DisplayName:     name.Name,
					EnclosingSymbol: structSymbol,
					Relationships: []semantic.Relationship{
						{Kind: semantic.RelTypeDefinition, Target: typeID},
					},
				},
			})
		}
	}
}

func (fe *fileExtractor) extractValueSpec(vs *ast.ValueSpec, gd *ast.GenDecl) {
	kind := semantic.KindVariable
	if gd.Tok == token.CONST {
		kind = semantic.KindConstant
	}
	typeID := ""
	if vs.Type != nil {
		typeID = exprTypeID(vs.Type)
	}

	for _, name := range vs.Names {
		if name.Name == "_" {
			continue
		}
		symbol := fe.symbol(name.Name)
		var rels []semantic.Relationship
		if typeID != "" {
			rels = append(rels, semantic.Relationship{Kind: semantic.RelTypeDefinition, Target: typeID})
		}
		fe.definitions = append(fe.definitions, semantic.Definition{
			Symbol:         symbol,
			NameRange:      fe.rangeOf(name),
			EnclosingRange: fe.rangeOf(vs),
			Metadata: semantic.SymbolMetadata{
				Symbol:        symbol,
				Kind:          kind,
				DisplayName:   name.Name,
				Documentation: docLines(gd.Doc),
				Relationships: rels,
			},
		})
	}
}

// funcParams flattens a signature's parameter list, one entry per declared
// name (or a single anonymous entry for an unnamed parameter).
func funcParams(ft *ast.FuncType) []semantic.Parameter {
	if ft.Params == nil {
		return nil
	}
	var params []semantic.Parameter
	for _, field := range ft.Params.List {
		typeID := exprTypeID(field.Type)
		if len(field.Names) == 0 {
			params = append(params, semantic.Parameter{Name: "", TypeID: typeID})
			continue
		}
		for _, n := range field.Names {
			params = append(params, semantic.Parameter{Name: n.Name, TypeID: typeID})
		}
	}
	return params
}

// funcReturnTypes renders a signature's result types, one id per result.
func funcReturnTypes(ft *ast.FuncType) []string {
	if ft.Results == nil {
		return nil
	}
	var returnTypes []string
	for _, field := range ft.Results.List {
		returnTypes = append(returnTypes, exprTypeID(field.Type))
	}
	return returnTypes
}

// exprTypeID renders a minimal, best-effort type id for an expression. It
// is not a resolved symbol — just a stable string the registry can key on
// for same-package types, using unresolved type names for structural edges.
func exprTypeID(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return exprTypeID(t.X)
	case *ast.SelectorExpr:
		return exprTypeID(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + exprTypeID(t.Elt)
	case *ast.MapType:
		return "map[" + exprTypeID(t.Key) + "]" + exprTypeID(t.Value)
	case *ast.InterfaceType:
		return "interface{}"
	default:
		return ""
	}
}

// extractReferences walks a function body for call, read, and write
// references. It is intentionally coarse (identifier-level, not full
// data-flow): every call expression becomes a Call reference, every
// assignment's left-hand identifiers become Write references, and bare
// identifier uses elsewhere become Read references.
func (fe *fileExtractor) extractReferences(enclosing string, body ast.Node) {
	writeTargets := make(map[ast.Node]bool)

	ast.Inspect(body, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.AssignStmt:
			for _, lhs := range stmt.Lhs {
				writeTargets[lhs] = true
			}
		}
		return true
	})

	ast.Inspect(body, func(n ast.Node) bool {
		switch expr := n.(type) {
		case *ast.CallExpr:
			if name, ok := calleeName(expr.Fun); ok {
				fe.references = append(fe.references, semantic.Reference{
					TargetSymbol:    fe.symbol(name),
					Range:           fe.rangeOf(expr),
					EnclosingSymbol: enclosing,
					Role:            semantic.RoleCall,
				})
			}
		case *ast.Ident:
			if expr.Name == "_" || expr.Obj != nil {
				// Local declarations/params are not cross-scope references.
				return true
			}
			role := semantic.RoleRead
			if writeTargets[expr] {
				role = semantic.RoleWrite
			}
			fe.references = append(fe.references, semantic.Reference{
				TargetSymbol:    fe.symbol(expr.Name),
				Range:           fe.rangeOf(expr),
				EnclosingSymbol: enclosing,
				Role:            role,
			})
		}
		return true
	})
}

func calleeName(fun ast.Expr) (string, bool) {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name, true
	case *ast.SelectorExpr:
		return f.Sel.Name, true
	default:
		return "", false
	}
}
