// Package sizefn provides the default SizeFunction implementation consumed
// by the graph builder. It is a heuristic token counter: rather than
// counting bytes or characters, it walks the span's source lines, strips
// comments and blank lines, and converts surviving code (plus any attached
// documentation) into an approximate token count.
package sizefn

import (
	"strings"

	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
)

// averageCharsPerToken approximates the token/character ratio of typical
// source code for languages without a real tokenizer wired in.
const averageCharsPerToken = 4.0

// Heuristic is the default SizeFunction: it counts non-blank, non-comment
// characters within the span (plus documentation text) and divides by an
// average token width. It never returns a negative size, and returns at
// least 1 whenever any counted character remains; a span holding only blank
// or comment lines, with no documentation, sizes to 0.
type Heuristic struct {
	// CharsPerToken overrides averageCharsPerToken when positive.
	CharsPerToken float64
}

// Compute implements builder.SizeFunction.
func (h Heuristic) Compute(source string, span graph.Span, documentation []string) int {
	ratio := h.CharsPerToken
	if ratio <= 0 {
		ratio = averageCharsPerToken
	}

	lines := strings.Split(source, "\n")
	start := span.StartLine
	end := span.EndLine
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}

	var chars int
	for i := start; i <= end && i < len(lines) && i >= 0; i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isCommentLine(trimmed) {
			continue
		}
		chars += len(trimmed)
	}

	for _, doc := range documentation {
		chars += len(strings.TrimSpace(doc))
	}

	size := int(float64(chars) / ratio)
	if size < 1 && chars > 0 {
		size = 1
	}
	return size
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}
