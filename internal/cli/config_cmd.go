package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imyousuf/contextfootprint/internal/config"
)

// Style definitions for config view.
var (
	configHeaderStyle = newStyle(lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}))
	labelStyle = newStyle(lipgloss.NewStyle().
			Faint(true).
			Width(20))
	valueStyle = lipgloss.NewStyle()
)

// allLanguages lists every language the extraction pipeline knows how to
// parse; see internal/pipeline.extractorFor for the actual dispatch.
var allLanguages = []string{"go", "python", "typescript", "javascript"}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit project configuration",
		Long: `View or edit ctxfoot project configuration.

By default, displays the current configuration in a pretty-printed format.
Use 'config edit' to edit configuration interactively.`,
		RunE: runConfigView,
	}

	cmd.AddCommand(newConfigEditCmd())

	return cmd
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	fmt.Fprintln(out, configHeaderStyle.Render("ctxfoot Configuration"))
	fmt.Fprintln(out, configHeaderStyle.Render(strings.Repeat("=", 26)))
	fmt.Fprintln(out)

	printSection(out, "Project")
	printKV(out, "Name", cfg.Project.Name)
	if cfg.ConfigDir != "" {
		printKV(out, "Config dir", cfg.ConfigDir)
	}
	fmt.Fprintln(out)

	printSection(out, "Repository")
	if cfg.Repository.Path != "" {
		fmt.Fprintf(out, "    %s\n", cfg.Repository.Path)
	} else {
		fmt.Fprintln(out, "    (not configured)")
	}
	fmt.Fprintln(out)

	printSection(out, "Languages")
	if len(cfg.Languages) > 0 {
		fmt.Fprintf(out, "    %s\n", strings.Join(cfg.Languages, ", "))
	} else {
		fmt.Fprintln(out, "    (none)")
	}
	fmt.Fprintln(out)

	printSection(out, "Cache")
	printKV(out, "DB Path", cfg.ResolveDBPath(dbPath))
	fmt.Fprintln(out)

	printSection(out, "Pruning Policy")
	printKV(out, "Max tokens", fmt.Sprintf("%d", cfg.Policy.MaxTokens))
	printKV(out, "Doc threshold", fmt.Sprintf("%.2f", cfg.Policy.DocScoreThreshold))
	fmt.Fprintln(out)

	printSection(out, "LLM Configuration")
	if cfg.Agents.LLMProvider == "" {
		fmt.Fprintln(out, "    (disabled; heuristic documentation scorer only)")
	} else {
		printKV(out, "Provider", cfg.Agents.LLMProvider)
		printKV(out, "Model", cfg.Agents.Model)
		if cfg.Agents.LLMProvider == "vertex-ai" {
			printKV(out, "GCP Project", cfg.Agents.Project)
			printKV(out, "GCP Region", cfg.Agents.Location)
		}
	}
	fmt.Fprintln(out)

	printSection(out, "Watch Exclusions")
	for _, pattern := range cfg.Watch.Exclude {
		fmt.Fprintf(out, "    %s\n", pattern)
	}
	fmt.Fprintln(out)

	return nil
}

func printSection(out io.Writer, title string) {
	fmt.Fprintf(out, "  %s\n", configHeaderStyle.Render(title))
}

func printKV(out io.Writer, label, value string) {
	fmt.Fprintf(out, "    %s%s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func newConfigEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit project configuration interactively",
		Long:  `Edit ctxfoot project configuration using an interactive wizard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigEdit(cmd)
		},
	}

	return cmd
}

func runConfigEdit(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.ConfigDir == "" {
		return fmt.Errorf("no project config found; run 'ctxfoot init' first")
	}

	out := cmd.OutOrStdout()

	// Pre-fill form variables from existing config.
	projectName := cfg.Project.Name
	repoPath := cfg.Repository.Path
	languages := make([]string, len(cfg.Languages))
	copy(languages, cfg.Languages)
	llmProvider := cfg.Agents.LLMProvider
	gcpProject := cfg.Agents.Project
	gcpRegion := cfg.Agents.Location
	if gcpRegion == "" {
		gcpRegion = "us-central1"
	}
	maxTokens := fmt.Sprintf("%d", cfg.Policy.MaxTokens)
	docThreshold := fmt.Sprintf("%.2f", cfg.Policy.DocScoreThreshold)
	var confirm bool

	selectedSet := make(map[string]bool, len(languages))
	for _, l := range languages {
		selectedSet[l] = true
	}
	langOptions := make([]huh.Option[string], len(allLanguages))
	for i, lang := range allLanguages {
		opt := huh.NewOption(lang, lang)
		if selectedSet[lang] {
			opt = opt.Selected(true)
		}
		langOptions[i] = opt
	}

	providerOptions := []huh.Option[string]{
		huh.NewOption("Disabled (heuristic only)", ""),
		huh.NewOption("Claude Code CLI", "claude-cli"),
		huh.NewOption("Anthropic API", "anthropic"),
		huh.NewOption("Vertex AI (GCP)", "vertex-ai"),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&projectName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("project name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Repository path").
				Value(&repoPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("repository path cannot be empty")
					}
					return nil
				}),
		).Title("Project Setup"),

		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Languages to parse").
				Options(langOptions...).
				Value(&languages).
				Filterable(true).
				Height(16),
		).Title("Languages"),

		huh.NewGroup(
			huh.NewInput().
				Title("Max tokens per compute (0 = unbounded)").
				Value(&maxTokens),
			huh.NewInput().
				Title("Documentation-completeness threshold (0-1)").
				Value(&docThreshold),
		).Title("Pruning Policy"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LLM provider").
				Options(providerOptions...).
				Value(&llmProvider),
		).Title("LLM Configuration"),

		huh.NewGroup(
			huh.NewInput().
				Title("GCP Project ID").
				Value(&gcpProject).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("GCP project ID is required for Vertex AI")
					}
					return nil
				}),
			huh.NewInput().
				Title("GCP Region").
				Value(&gcpRegion).
				Placeholder("us-central1").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("GCP region is required for Vertex AI")
					}
					return nil
				}),
		).Title("Vertex AI Configuration").
			WithHideFunc(func() bool { return llmProvider != "vertex-ai" }),

		huh.NewGroup(
			huh.NewNote().
				Title("Summary").
				DescriptionFunc(func() string {
					langStr := strings.Join(languages, ", ")
					if langStr == "" {
						langStr = "(none)"
					}
					providerLabel := llmProvider
					switch llmProvider {
					case "":
						providerLabel = "disabled"
					case "claude-cli":
						providerLabel = "Claude Code CLI"
					case "anthropic":
						providerLabel = "Anthropic API"
					case "vertex-ai":
						providerLabel = fmt.Sprintf("Vertex AI (%s / %s)", gcpProject, gcpRegion)
					}
					return fmt.Sprintf(
						"Project:     %s\n"+
							"Repository:  %s\n"+
							"Languages:   %s\n"+
							"Max tokens:  %s\n"+
							"Doc thresh:  %s\n"+
							"LLM:         %s",
						projectName, repoPath, langStr, maxTokens, docThreshold, providerLabel,
					)
				}, &languages),
			huh.NewConfirm().
				Title("Save changes?").
				Value(&confirm).
				Affirmative("Save").
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return fmt.Errorf("interactive config edit: %w", err)
	}

	if !confirm {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	cfg.Project.Name = projectName
	cfg.Repository.Path = repoPath
	cfg.Languages = languages
	cfg.Agents.LLMProvider = llmProvider
	if llmProvider == "vertex-ai" {
		cfg.Agents.Project = gcpProject
		cfg.Agents.Location = gcpRegion
	} else {
		cfg.Agents.Project = ""
		cfg.Agents.Location = ""
	}
	fmt.Sscanf(maxTokens, "%d", &cfg.Policy.MaxTokens)
	fmt.Sscanf(docThreshold, "%f", &cfg.Policy.DocScoreThreshold)

	configPath := filepath.Join(cfg.ConfigDir, config.ProjectConfigFile)
	if err := config.WriteConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}
