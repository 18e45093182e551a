package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hanjia/skilldex/pkg/presenter"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List installed plugins and manage their enabled state",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all installed plugins",
	Long:  `List plugins installed under the marketplaces directory with their enabled state.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		entries := indexes.Plugins.Load(ctx, false)
		if len(entries) == 0 {
			presenter.Info("No plugins installed")
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMARKETPLACE\tENABLED\tDESCRIPTION")
		fmt.Fprintln(tw, "--\t-----------\t-------\t-----------")
		for _, plugin := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", plugin.ID, plugin.Marketplace, plugin.Enabled, truncate(plugin.Description, 60))
		}
		tw.Flush()
	},
}

var pluginsEnableCmd = &cobra.Command{
	Use:   "enable <marketplace/name>",
	Short: "Enable a plugin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setPluginState(cmd, args[0], true)
	},
}

var pluginsDisableCmd = &cobra.Command{
	Use:   "disable <marketplace/name>",
	Short: "Disable a plugin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setPluginState(cmd, args[0], false)
	},
}

var pluginsStatusCmd = &cobra.Command{
	Use:   "status <marketplace/name>",
	Short: "Show whether a plugin is enabled",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		indexes, closer, err := buildIndexes(ctx)
		if err != nil {
			presenter.Error(err, "Failed to initialize indexes")
			os.Exit(1)
		}
		defer closer()

		enabled, err := indexes.Plugins.Status(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to query plugin status")
			os.Exit(1)
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Printf("%s: %s\n", args[0], state)
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
	pluginsCmd.AddCommand(pluginsEnableCmd)
	pluginsCmd.AddCommand(pluginsDisableCmd)
	pluginsCmd.AddCommand(pluginsStatusCmd)
}

func setPluginState(cmd *cobra.Command, id string, enable bool) {
	ctx := cmd.Context()
	indexes, closer, err := buildIndexes(ctx)
	if err != nil {
		presenter.Error(err, "Failed to initialize indexes")
		os.Exit(1)
	}
	defer closer()

	if enable {
		err = indexes.Plugins.Enable(ctx, id)
	} else {
		err = indexes.Plugins.Disable(ctx, id)
	}
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to update plugin '%s'", id))
		os.Exit(1)
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	presenter.Success(fmt.Sprintf("Plugin '%s' %s", id, state))
}
