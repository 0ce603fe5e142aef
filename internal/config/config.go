// Package config handles configuration loading and validation for the
// context footprint engine using a viper+yaml discovery chain: a
// per-project directory holding a config.yaml, a committed project conf
// for cross-machine settings, and a global registry for project-name
// lookups. Knobs cover graph cache path, extractor languages, pruning
// policy defaults, and an optional doc-score LLM.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	// ProjectDirName is the per-project configuration directory name.
	ProjectDirName = ".contextfootprint"
	// ProjectConfigFile is the config filename inside the project dir.
	ProjectConfigFile = "config.yaml"
	// DefaultDBDir is the default cache database directory name inside the project dir.
	DefaultDBDir = "cf.db"
	// ProjectConfFile is the per-project conf file committed to git (lives at project root).
	ProjectConfFile = ".contextfootprint.conf"
)

// ProjectConf holds the contents of the .contextfootprint.conf file
// (committed to git, shared across every machine that checks the project out).
type ProjectConf struct {
	// ExportFile is the relative path to the graph export file.
	ExportFile string `yaml:"export_file"`
}

// Config holds all configuration for a context footprint run.
type Config struct {
	// Project contains project metadata.
	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	// Repository describes the single project root to analyze.
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository"`
	// Watch contains file watching configuration.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
	// Languages lists the languages to parse, one extractor per entry.
	Languages []string `mapstructure:"languages" yaml:"languages"`
	// Cache contains graph cache storage configuration.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
	// Policy contains the default pruning policy parameters.
	Policy PolicyConfig `mapstructure:"policy" yaml:"policy"`
	// Agents contains optional LLM-assisted documentation scoring configuration.
	Agents AgentsConfig `mapstructure:"agents" yaml:"agents"`
	// ConfigDir is the resolved .contextfootprint directory path (not persisted in YAML).
	ConfigDir string `mapstructure:"-" yaml:"-"`
	// ProjectConf is the parsed .contextfootprint.conf if found (not persisted).
	ProjectConf *ProjectConf `mapstructure:"-" yaml:"-"`
	// ProjectConfDir is the directory containing .contextfootprint.conf (not persisted).
	ProjectConfDir string `mapstructure:"-" yaml:"-"`
}

// ProjectConfig holds project metadata.
type ProjectConfig struct {
	// Name is the project name.
	Name string `mapstructure:"name" yaml:"name"`
}

// RepositoryConfig describes the project root to build a graph from.
type RepositoryConfig struct {
	// Path is the filesystem path to the project root.
	Path string `mapstructure:"path" yaml:"path"`
}

// WatchConfig holds file watching configuration.
type WatchConfig struct {
	// Exclude lists glob patterns to exclude from watching.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// CacheConfig holds graph cache storage configuration.
type CacheConfig struct {
	// DBPath is the path to the cache database directory.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// PolicyConfig holds default pruning policy parameters, overridable per
// invocation by CLI flags.
type PolicyConfig struct {
	// MaxTokens is the default compute_cf budget; 0 means unbounded.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
	// DocScoreThreshold is the documentation-score cutoff passed to the
	// Policy package: a function scoring at or above it can be a Boundary
	// (an abstract factory in either mode, or a complete signature in
	// Academic mode), and a callee or interface method scoring below it is
	// underspecified.
	DocScoreThreshold float64 `mapstructure:"doc_score_threshold" yaml:"doc_score_threshold"`
}

// AgentsConfig holds optional LLM-assisted documentation scoring configuration.
type AgentsConfig struct {
	// LLMProvider is the LLM provider (anthropic, vertex-ai, claude-cli). Empty disables LLM scoring.
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
	// Model is the model identifier.
	Model string `mapstructure:"model" yaml:"model"`
	// Project is the GCP project ID (used when LLMProvider is "vertex-ai").
	Project string `mapstructure:"project" yaml:"project"`
	// Location is the GCP region (used when LLMProvider is "vertex-ai", e.g. "us-central1").
	Location string `mapstructure:"location" yaml:"location"`
	// CredentialsFile is the path to a GCP service account credentials JSON file (for Vertex AI).
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

// DiscoverProjectDir walks up from startDir looking for a .contextfootprint/ directory.
// Returns the full path to the directory if found, or empty string if not.
func DiscoverProjectDir(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ProjectDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return ""
}

// ResolveDBPath determines the cache database path using this priority:
//  1. flagValue (CLI --db-path flag) if non-empty
//  2. cache.db_path from config YAML if non-empty
//  3. <ConfigDir>/cf.db if ConfigDir is set
//  4. empty string (caller should handle)
func (c *Config) ResolveDBPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if c.Cache.DBPath != "" {
		return c.Cache.DBPath
	}
	if c.ConfigDir != "" {
		return filepath.Join(c.ConfigDir, DefaultDBDir)
	}
	return ""
}

// DiscoverProjectConf walks up from startDir looking for a .contextfootprint.conf file.
// Returns the conf file path, parsed conf, and any error.
func DiscoverProjectConf(startDir string) (confPath string, conf *ProjectConf, err error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ProjectConfFile)
		if _, err := os.Stat(candidate); err == nil {
			data, err := os.ReadFile(candidate)
			if err != nil {
				return "", nil, fmt.Errorf("read %s: %w", candidate, err)
			}
			var pc ProjectConf
			if err := yaml.Unmarshal(data, &pc); err != nil {
				return "", nil, fmt.Errorf("parse %s: %w", candidate, err)
			}
			return candidate, &pc, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, nil
}

// ExportFilePath resolves the export file path relative to the conf directory.
func ExportFilePath(confDir string, conf *ProjectConf) string {
	if conf == nil || conf.ExportFile == "" {
		return ""
	}
	return filepath.Join(confDir, conf.ExportFile)
}

// Load loads configuration from file, environment variables, and defaults.
// Search order:
//  1. --config flag (explicit path via global viper)
//  2. --project-name flag -> registry lookup
//  3. Walk up from CWD for .contextfootprint/config.yaml
//  4. Registry lookup by CWD path
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("CONTEXTFOOTPRINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var configDir string

	// 1. Check --config flag
	globalViper := viper.GetViper()
	if configFile := globalViper.GetString("config_file"); configFile != "" {
		v.SetConfigFile(configFile)
		// Derive configDir from the config file's directory if it's inside a .contextfootprint dir.
		cfgParent := filepath.Dir(configFile)
		if filepath.Base(cfgParent) == ProjectDirName {
			configDir = cfgParent
		}
	} else {
		// 2. Check --project-name flag -> registry lookup
		if projectName := globalViper.GetString("project_name"); projectName != "" {
			entries := ListProjects()
			for _, entry := range entries {
				if entry.Name == projectName {
					configDir = entry.ConfigDir
					configFile := filepath.Join(configDir, ProjectConfigFile)
					if _, err := os.Stat(configFile); err == nil {
						v.SetConfigFile(configFile)
					}
					break
				}
			}
		}

		// 3. Walk up from CWD for .contextfootprint/config.yaml
		if v.ConfigFileUsed() == "" {
			cwd, err := os.Getwd()
			if err == nil {
				if projDir := DiscoverProjectDir(cwd); projDir != "" {
					configDir = projDir
					configFile := filepath.Join(projDir, ProjectConfigFile)
					if _, err := os.Stat(configFile); err == nil {
						v.SetConfigFile(configFile)
					}
				}
			}
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// 4. If still no config found, try registry lookup by CWD path
		if configDir == "" {
			cwd, err := os.Getwd()
			if err == nil {
				if entry, ok := LookupProject(cwd); ok {
					configDir = entry.ConfigDir
					configFile := filepath.Join(configDir, ProjectConfigFile)
					if _, err := os.Stat(configFile); err == nil {
						v.SetConfigFile(configFile)
						if err := v.ReadInConfig(); err != nil {
							return nil, fmt.Errorf("error reading config file: %w", err)
						}
					}
				}
			}
		}
	}

	// Load .env from the discovered .contextfootprint/ directory.
	if configDir != "" {
		loadEnvFile(filepath.Join(configDir, ".env"))
	}

	// Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.ConfigDir = configDir

	// Discover .contextfootprint.conf from CWD (or configDir parent).
	searchDir := ""
	if configDir != "" {
		searchDir = filepath.Dir(configDir)
	} else {
		searchDir, _ = os.Getwd()
	}
	if searchDir != "" {
		confPath, pc, err := DiscoverProjectConf(searchDir)
		if err == nil && pc != nil {
			cfg.ProjectConf = pc
			cfg.ProjectConfDir = filepath.Dir(confPath)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Repository.Path == "" {
		return fmt.Errorf("repository.path is required")
	}

	if c.Policy.MaxTokens < 0 {
		return fmt.Errorf("policy.max_tokens must be >= 0, got %d", c.Policy.MaxTokens)
	}

	if c.Policy.DocScoreThreshold < 0 || c.Policy.DocScoreThreshold > 1 {
		return fmt.Errorf("policy.doc_score_threshold must be in [0,1], got %f", c.Policy.DocScoreThreshold)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")

	v.SetDefault("watch.exclude", []string{
		"**/node_modules/**",
		"**/.git/**",
		"**/vendor/**",
		"**/__pycache__/**",
		"**/dist/**",
		"**/build/**",
	})

	v.SetDefault("languages", []string{
		"go",
		"python",
		"typescript",
	})

	v.SetDefault("policy.max_tokens", 0)
	v.SetDefault("policy.doc_score_threshold", 0.6)

	v.SetDefault("agents.llm_provider", "")
	v.SetDefault("agents.model", "claude-sonnet-4-5-20250929")
}

// loadEnvFile reads a .env file and sets environment variables from it.
// Each line should be in KEY=VALUE format. Lines starting with # and blank lines are skipped.
// Values are not overridden if the environment variable is already set.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // file doesn't exist or can't be read; silently skip
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		// Only set if not already present in the environment.
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
