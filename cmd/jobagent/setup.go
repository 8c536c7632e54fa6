package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"jobagent/internal/config"

	"github.com/spf13/cobra"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.Path()
		}

		if _, err := os.Stat(path); err == nil && !setupForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if err := config.Write(path, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\nset OPENAI_API_KEY and TAVILY_API_KEY, then start the LinkedIn MCP server at http://127.0.0.1:8000/mcp\n", path)
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupForce, "force", "f", false, "overwrite an existing config file")
}
