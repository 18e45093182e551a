package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hanjia/skilldex/pkg/descriptor"
	"github.com/hanjia/skilldex/pkg/presenter"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List and inspect installed agents",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all installed agents",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		entries := indexes.Agents.Load(ctx, false)
		if len(entries) == 0 {
			presenter.Info("No agents installed")
			return
		}
		printMarkdownTable(entries)
		printDiagnostics(indexes.Agents.Diagnostics())
	},
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the full definition of an agent",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		detail, err := indexes.Agents.Details(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to load agent details")
			os.Exit(1)
		}
		if detail == nil {
			presenter.Warning(fmt.Sprintf("Agent '%s' not found", args[0]))
			os.Exit(1)
		}

		presenter.Section(fmt.Sprintf("Agent: %s", detail.Name))
		fmt.Printf("Path: %s\n\n", detail.Path)
		fmt.Println(detail.Content)
		if detail.Readme != "" {
			presenter.Section("README")
			fmt.Println(detail.Readme)
		}
	},
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsShowCmd)
}

func printMarkdownTable(entries []descriptor.MarkdownEntry) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----------")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", entry.Name, truncate(entry.Description, 60))
	}
	tw.Flush()
}
