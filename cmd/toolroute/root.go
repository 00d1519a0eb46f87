package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "toolroute",
	Short: "Route tasks to a language model with on-demand provider tools",
	Long: `toolroute answers a free-form task with a language model.

Each task is classified first. When it needs external apps, the matching
providers are resolved from the catalog (asking you when several could do
the same job), their operations are bound as tools, and the model answers
with those tools available. When nothing usable remains the model answers
from its own reasoning instead.

Configuration is read from ~/.config/toolroute/config.yaml, a project
.toolroute.yaml, and TOOLROUTE_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user and project config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(choicesCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(credentialsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
