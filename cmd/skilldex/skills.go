package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hanjia/skilldex/pkg/catalog"
	"github.com/hanjia/skilldex/pkg/presenter"
	"github.com/hanjia/skilldex/pkg/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List, inspect, and search installed skills",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all installed skills",
	Long:  `List skills from the user, project, and managed (plugin-provided) locations.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		entries := indexes.Skills.Load(ctx, false)
		if len(entries) == 0 {
			presenter.Info("No skills installed")
			return
		}
		printSkillTable(entries)
		printDiagnostics(indexes.Skills.Diagnostics())
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the full contents of a skill",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		location, _ := cmd.Flags().GetString("location")
		detail, err := indexes.Skills.Details(ctx, args[0], catalog.Location(location))
		if err != nil {
			presenter.Error(err, "Failed to load skill details")
			os.Exit(1)
		}
		if detail == nil {
			presenter.Warning(fmt.Sprintf("Skill '%s' not found in %s location", args[0], location))
			os.Exit(1)
		}

		presenter.Section(fmt.Sprintf("Skill: %s (%s)", detail.Name, detail.Location))
		fmt.Printf("Path: %s\n", detail.Path)
		if detail.SourcePlugin != "" {
			fmt.Printf("Plugin: %s\n", detail.SourcePlugin)
		}
		if detail.Description != "" {
			fmt.Printf("Description: %s\n", detail.Description)
		}
		fmt.Printf("\nDescriptor:\n%s\n", detail.Descriptor)
		if detail.Readme != "" {
			presenter.Section("README")
			fmt.Println(detail.Readme)
		}
		if detail.Prompt != "" {
			presenter.Section("Prompt")
			fmt.Println(detail.Prompt)
		}
	},
}

var skillsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search skills by name, description, or source plugin",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		location, _ := cmd.Flags().GetString("location")

		results := indexes.Skills.Search(ctx, query, catalog.Location(location))
		if len(results) == 0 {
			presenter.Info("No matching skills")
			return
		}
		printSkillTable(results)
	},
}

func init() {
	skillsShowCmd.Flags().String("location", "user", "Location to look in (user, project, managed)")
	skillsSearchCmd.Flags().String("location", "", "Restrict results to one location (user, project, managed)")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
	skillsCmd.AddCommand(skillsSearchCmd)
}

func printSkillTable(entries []skills.Skill) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLOCATION\tPLUGIN\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t--------\t------\t-----------")
	for _, skill := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", skill.Name, skill.Location, skill.SourcePlugin, truncate(skill.Description, 60))
	}
	tw.Flush()
}

func printDiagnostics(diags []catalog.Diagnostic) {
	for _, d := range diags {
		presenter.Warning(fmt.Sprintf("skipped %s: %s", d.Path, d.Reason))
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
