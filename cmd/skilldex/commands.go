package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanjia/skilldex/pkg/presenter"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List and inspect installed slash commands",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var commandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all installed commands",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		entries := indexes.Commands.Load(ctx, false)
		if len(entries) == 0 {
			presenter.Info("No commands installed")
			return
		}
		printMarkdownTable(entries)
		printDiagnostics(indexes.Commands.Diagnostics())
	},
}

var commandsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the full definition of a command",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		detail, err := indexes.Commands.Details(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to load command details")
			os.Exit(1)
		}
		if detail == nil {
			presenter.Warning(fmt.Sprintf("Command '%s' not found", args[0]))
			os.Exit(1)
		}

		presenter.Section(fmt.Sprintf("Command: %s", detail.Name))
		fmt.Printf("Path: %s\n\n", detail.Path)
		fmt.Println(detail.Content)
		if detail.Readme != "" {
			presenter.Section("README")
			fmt.Println(detail.Readme)
		}
	},
}

func init() {
	commandsCmd.AddCommand(commandsListCmd)
	commandsCmd.AddCommand(commandsShowCmd)
}
