// Package cli implements the command-line interface for the context
// footprint engine's ctxfoot binary.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	verbose     bool
	dbPath      string
	projectName string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "ctxfoot",
	Short: "ctxfoot - Context Footprint analysis for codebases",
	Long: `ctxfoot builds a symbol-level dependency graph of a codebase and computes
the Context Footprint of a symbol: the total token cost of everything an
AI agent would need to read to safely reason about or modify it, after
pruning anything a well-documented, stable interface lets you treat as
a black box.

Commands:
  init       Initialize a .contextfootprint/ project directory
  build      Build (or reuse a cached) context graph
  compute    Compute the Context Footprint for one or more symbols
  top        Rank symbols in the graph by Context Footprint
  watch      Rebuild the context graph on every source change
  status     Show configuration and cache status`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .contextfootprint/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "path for the graph database")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project-name", "p", "", "project name (looks up in the ~/.contextfootprint.registry registry)")

	// Bind flags to viper
	bindFlag := func(key, flag string) {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}
	bindFlag("config_file", "config")
	bindFlag("project_name", "project-name")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newComputeCmd())
	rootCmd.AddCommand(newTopCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newLLMTestCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHookCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}
