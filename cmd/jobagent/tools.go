package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Discover remote tools and print the agent roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(context.Background(), "cli")
		if err != nil {
			return err
		}
		defer a.Close()

		spec := a.assistant.Spec()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "orchestrator\t%s\tlimit %d\n", spec.Model, spec.RecursionLimit)
		for _, name := range spec.ToolNames() {
			fmt.Fprintf(w, "  tool\t%s\n", name)
		}
		for _, sa := range spec.SubAgents {
			tools := strings.Join(sa.Tools, ", ")
			if tools == "" {
				tools = "(none)"
			}
			fmt.Fprintf(w, "%s\t%s\n", sa.Name, tools)
		}
		return w.Flush()
	},
}
