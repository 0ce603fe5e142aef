// Package pipeline wires the filesystem, the per-language extractors
// (internal/extract/govisitor, internal/extract/tsvisitor), and the
// cfcore GraphBuilder together into the one operation every CLI command
// needs: turn a project root into a built Graph. It owns file discovery
// (gitignore-aware, via internal/watcher's matcher) and content digesting
// for cache keys; it owns no graph semantics of its own.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/imyousuf/contextfootprint/internal/cache"
	"github.com/imyousuf/contextfootprint/internal/cfcore/builder"
	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
	"github.com/imyousuf/contextfootprint/internal/cfcore/semantic"
	"github.com/imyousuf/contextfootprint/internal/extract/govisitor"
	"github.com/imyousuf/contextfootprint/internal/extract/tsvisitor"
	"github.com/imyousuf/contextfootprint/internal/watcher"
)

// extractor is the common shape of every per-language extractor this
// pipeline dispatches to.
type extractor interface {
	ExtractFile(relativePath string, content []byte) (semantic.DocumentData, error)
}

// SourceExtensions lists every file extension (lowercase, with leading
// dot) that some extractor below claims. Consumers outside this package
// that need to know "is this a file the pipeline can parse at all"
// without triggering a full discover+extract (such as the watcher's
// change filter) read this instead of duplicating the switch.
var SourceExtensions = []string{
	".go",
	".py", ".pyi",
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
}

// extractorFor returns the extractor responsible for ext (lowercased,
// including the leading dot), or nil if the pipeline has no extractor for
// that language — such files are silently skipped, the same way the
// builder silently drops unresolved references.
func extractorFor(ext string, goExtractor *govisitor.Extractor) extractor {
	switch strings.ToLower(ext) {
	case ".go":
		return goExtractor
	case ".py", ".pyi":
		return tsvisitor.NewPythonExtractor()
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs":
		return tsvisitor.NewTypeScriptExtractor()
	default:
		return nil
	}
}

// fsReader implements builder.SourceReader by reading from the local
// filesystem relative to a project root.
type fsReader struct {
	root string
}

// NewFSReader returns a builder.SourceReader rooted at root.
func NewFSReader(root string) builder.SourceReader {
	return fsReader{root: root}
}

func (r fsReader) Read(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.root, path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r fsReader) ReadLines(path string, startLine, endLine int) ([]string, error) {
	text, err := r.Read(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}
	if startLine > endLine {
		return nil, nil
	}
	return lines[startLine : endLine+1], nil
}

// Discover walks root for files whose extension this pipeline can extract,
// skipping anything matched by gitignore rules or excludePatterns. Results
// are relative to root, sorted for determinism.
func Discover(root string, excludePatterns []string) ([]string, error) {
	matcher := watcher.NewGitIgnoreMatcher([]string{root}, excludePatterns)
	if err := matcher.LoadPatterns(); err != nil {
		return nil, fmt.Errorf("load ignore patterns: %w", err)
	}

	var goExtractor govisitor.Extractor // stateless; used only to type-switch
	var found []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if matcher.Match(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if extractorFor(filepath.Ext(path), &goExtractor) == nil {
			return nil
		}
		found = append(found, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(found)
	return found, nil
}

// Extract reads and parses every file in relPaths (relative to root),
// returning the assembled SemanticData and a content digest per file for
// cache-key derivation. A file that fails to parse is skipped with its
// error recorded via logf, mirroring the builder's best-effort stance on
// unresolvable references rather than aborting the whole build over one
// malformed file.
func Extract(root string, relPaths []string, logf func(format string, args ...any)) (semantic.SemanticData, []cache.FileDigest, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	goExtractor := govisitor.New(root)

	data := semantic.SemanticData{ProjectRoot: root}
	digests := make([]cache.FileDigest, 0, len(relPaths))

	for _, rel := range relPaths {
		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return semantic.SemanticData{}, nil, fmt.Errorf("read %s: %w", rel, err)
		}

		sum := sha256.Sum256(content)
		digests = append(digests, cache.FileDigest{Path: rel, Hash: hex.EncodeToString(sum[:])})

		x := extractorFor(filepath.Ext(rel), goExtractor)
		if x == nil {
			continue
		}
		doc, err := x.ExtractFile(rel, content)
		if err != nil {
			logf("extract %s: %v", rel, err)
			continue
		}
		data.Documents = append(data.Documents, doc)
	}

	return data, digests, nil
}

// Build runs Discover, Extract, and the GraphBuilder in sequence, the
// full pipeline a cache miss falls back to.
func Build(root string, excludePatterns []string, sizeFn builder.SizeFunction, docScorer builder.DocumentationScorer, logf func(format string, args ...any)) (*graph.Graph, []cache.FileDigest, error) {
	files, err := Discover(root, excludePatterns)
	if err != nil {
		return nil, nil, err
	}

	data, digests, err := Extract(root, files, logf)
	if err != nil {
		return nil, nil, err
	}

	b := builder.New(fsReader{root: root}, sizeFn, docScorer, logf)
	g, err := b.Build(data)
	if err != nil {
		return nil, nil, err
	}
	return g, digests, nil
}
