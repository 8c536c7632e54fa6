package main

import (
	"os"

	"jobagent/internal/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:          "jobagent",
		Short:        "jobagent is a multi-agent job search assistant",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $JOBAGENT_CONFIG or the user config dir)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(setupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
