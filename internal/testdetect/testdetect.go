// Package testdetect classifies graph nodes as test code by file path and
// symbol naming convention, one detector per language this module extracts
// (internal/pipeline.SourceExtensions). It exists so batch operations over
// the whole graph — ranking, distribution stats — can exclude test code by
// default the way a human skimming "what's expensive here" would.
package testdetect

import "strings"

// Detector recognizes test code for one language's conventions.
type Detector interface {
	// IsTest reports whether symbol (this project's "path#qualified.name"
	// form) or filePath (repository-relative) looks like test code.
	IsTest(symbol, filePath string) bool
	Language() string
}

// goDetector matches Go's single convention: anything in a _test.go file.
type goDetector struct{}

func (goDetector) IsTest(_, filePath string) bool {
	return strings.HasSuffix(filePath, "_test.go")
}
func (goDetector) Language() string { return "go" }

// pythonDetector matches pytest/unittest conventions: tests/ directories,
// test_*.py / *_test.py files, test_* functions, and Test* classes (and
// their methods).
type pythonDetector struct{}

func (pythonDetector) IsTest(symbol, filePath string) bool {
	if containsTestDir(filePath) {
		return true
	}

	base := filePath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}

	_, qualified, ok := strings.Cut(symbol, "#")
	if !ok {
		return false
	}
	segments := strings.Split(qualified, ".")
	last := segments[len(segments)-1]
	if strings.HasPrefix(last, "test_") {
		return true
	}
	for _, seg := range segments {
		if strings.HasPrefix(seg, "Test") {
			return true
		}
	}
	return false
}
func (pythonDetector) Language() string { return "python" }

func containsTestDir(filePath string) bool {
	return strings.Contains(filePath, "/tests/") || strings.Contains(filePath, "/test/") ||
		strings.HasPrefix(filePath, "tests/") || strings.HasPrefix(filePath, "test/")
}

// jsDetector matches Jest/Mocha conventions: __tests__/ and tests/
// directories, and .test./.spec. file infixes across js/ts/jsx/tsx.
type jsDetector struct{}

func (jsDetector) IsTest(_, filePath string) bool {
	if strings.Contains(filePath, "/__tests__/") || strings.HasPrefix(filePath, "__tests__/") ||
		containsTestDir(filePath) {
		return true
	}
	for _, suffix := range []string{".test.js", ".test.ts", ".test.jsx", ".test.tsx",
		".spec.js", ".spec.ts", ".spec.jsx", ".spec.tsx"} {
		if strings.HasSuffix(filePath, suffix) {
			return true
		}
	}
	return false
}
func (jsDetector) Language() string { return "javascript" }

// Universal routes to the language-specific Detector inferred from a
// file's extension, falling back to trying every detector when the
// extension is unrecognized. Covers exactly the languages the pipeline
// extracts (internal/pipeline.SourceExtensions); a detector for a
// language with no extractor would never be handed a symbol to classify.
type Universal struct {
	detectors []Detector
}

// NewUniversal constructs the multi-language dispatcher.
func NewUniversal() *Universal {
	return &Universal{detectors: []Detector{goDetector{}, pythonDetector{}, jsDetector{}}}
}

// IsTest reports whether the node identified by symbol/filePath is test
// code, trying the language inferred from filePath's extension first and
// falling back to every detector if the extension is unrecognized.
func (u *Universal) IsTest(symbol, filePath string) bool {
	if d := u.forExt(filePath); d != nil {
		return d.IsTest(symbol, filePath)
	}
	for _, d := range u.detectors {
		if d.IsTest(symbol, filePath) {
			return true
		}
	}
	return false
}

func (u *Universal) forExt(filePath string) Detector {
	switch {
	case strings.HasSuffix(filePath, ".go"):
		return goDetector{}
	case strings.HasSuffix(filePath, ".py"), strings.HasSuffix(filePath, ".pyi"):
		return pythonDetector{}
	case strings.HasSuffix(filePath, ".js"), strings.HasSuffix(filePath, ".ts"),
		strings.HasSuffix(filePath, ".jsx"), strings.HasSuffix(filePath, ".tsx"),
		strings.HasSuffix(filePath, ".mjs"), strings.HasSuffix(filePath, ".cjs"):
		return jsDetector{}
	default:
		return nil
	}
}
