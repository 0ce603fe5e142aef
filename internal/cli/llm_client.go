package cli

import (
	"fmt"
	"os"

	"github.com/imyousuf/contextfootprint/internal/cfcore/builder"
	"github.com/imyousuf/contextfootprint/internal/config"
	"github.com/imyousuf/contextfootprint/internal/docscore"
	"github.com/imyousuf/contextfootprint/pkg/llm"

	internalllm "github.com/imyousuf/contextfootprint/internal/llm"
)

// createLLMClient builds an llm.Client from cfg.Agents and the
// environment. Returns an error if no provider is configured or the
// provider rejects the configuration; callers that treat LLM assistance as
// optional should fall back rather than propagate it (see resolveDocScorer).
func createLLMClient(cfg *config.Config) (llm.Client, error) {
	provider := cfg.Agents.LLMProvider
	if provider == "" {
		return nil, fmt.Errorf("no LLM provider configured (set agents.llm_provider)")
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")

	// Auto-detect the Claude CLI when Anthropic is configured but no API
	// key is available.
	if provider == "anthropic" && apiKey == "" {
		if path := internalllm.FindClaudeCLI(); path != "" {
			provider = "claude-cli"
		}
	}

	project := cfg.Agents.Project
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	return llm.NewClient(llm.Config{
		Provider:        provider,
		Model:           cfg.Agents.Model,
		APIKey:          apiKey,
		Project:         project,
		Location:        cfg.Agents.Location,
		CredentialsFile: cfg.Agents.CredentialsFile,
	})
}

// resolveDocScorer builds the DocumentationScorer the builder should use:
// the heuristic scorer alone, or the heuristic wrapped with LLM assistance
// when a provider is configured. LLM client construction failures are
// logged and swallowed — documentation scoring must never block a build.
func resolveDocScorer(cfg *config.Config, logf func(format string, args ...any)) builder.DocumentationScorer {
	heuristic := docscore.Heuristic{}
	if cfg.Agents.LLMProvider == "" {
		return heuristic
	}
	client, err := createLLMClient(cfg)
	if err != nil {
		logf("docscore: %v; falling back to heuristic scoring", err)
		return heuristic
	}
	return docscore.LLMScorer{Fallback: heuristic, Client: client, Log: logf}
}
