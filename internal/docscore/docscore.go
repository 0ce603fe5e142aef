// Package docscore provides DocumentationScorer implementations consumed
// by the graph builder: a cheap heuristic scorer used by default, and an
// optional LLM-assisted wrapper built around an injected, possibly-nil
// llm.Client — present only to improve the score, never required for a
// build to succeed.
package docscore

import (
	"context"
	"fmt"
	"strings"

	"github.com/imyousuf/contextfootprint/internal/cfcore/builder"
	"github.com/imyousuf/contextfootprint/pkg/llm"
)

// Heuristic scores documentation by presence and shape: empty text scores
// 0, and score rises with length and with the presence of parameter/return
// documentation conventions, capped at 1.
type Heuristic struct{}

// Score implements builder.DocumentationScorer.
func (Heuristic) Score(info builder.NodeInfo, docText string) float64 {
	trimmed := strings.TrimSpace(docText)
	if trimmed == "" {
		return 0
	}

	score := 0.3
	words := len(strings.Fields(trimmed))
	switch {
	case words >= 40:
		score += 0.3
	case words >= 15:
		score += 0.2
	case words >= 5:
		score += 0.1
	}

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "@param") || strings.Contains(lower, "param:") || strings.Contains(lower, "args:") {
		score += 0.15
	}
	if strings.Contains(lower, "@return") || strings.Contains(lower, "returns:") || strings.Contains(lower, "return:") {
		score += 0.15
	}

	if score > 1 {
		score = 1
	}
	return score
}

// LLMScorer wraps another DocumentationScorer and replaces its result with
// an LLM judgement of documentation quality, clamped to [0,1]. If the LLM
// call fails or its reply does not parse as a number, the wrapped scorer's
// result is returned unchanged — LLM assistance is
// optional and non-blocking: the client is nil-checked, best-effort, and
// failures are logged as warnings only.
type LLMScorer struct {
	Fallback builder.DocumentationScorer
	Client   llm.Client
	Log      func(format string, args ...any)
}

// Score implements builder.DocumentationScorer.
func (s LLMScorer) Score(info builder.NodeInfo, docText string) float64 {
	base := s.Fallback.Score(info, docText)
	if s.Client == nil || strings.TrimSpace(docText) == "" {
		return base
	}

	logFn := s.Log
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	prompt := fmt.Sprintf(
		"Rate the documentation quality for %s %q on a scale from 0.0 to 1.0. "+
			"Consider whether parameters, return values, and behavior are described. "+
			"Respond with only the number.\n\nSignature: %s\nDocumentation:\n%s",
		info.Kind, info.Name, info.Signature, docText,
	)

	resp, err := s.Client.Complete(context.Background(), "You are a terse code-documentation quality rater.", prompt)
	if err != nil {
		logFn("docscore: LLM scoring failed, using heuristic: %v", err)
		return base
	}

	var parsed float64
	if _, scanErr := fmt.Sscanf(strings.TrimSpace(resp.Content), "%f", &parsed); scanErr != nil {
		logFn("docscore: could not parse LLM score %q, using heuristic", resp.Content)
		return base
	}
	if parsed < 0 {
		parsed = 0
	}
	if parsed > 1 {
		parsed = 1
	}
	return parsed
}
