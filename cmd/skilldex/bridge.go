package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hanjia/skilldex/pkg/bridge"
	"github.com/hanjia/skilldex/pkg/logger"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve the indexes over stdio for an embedding UI",
	Long: `Run the line-delimited JSON bridge over stdio.

This mode is meant to be launched as a subprocess by a UI host. The host
writes one JSON request per line on stdin and reads one JSON response per
line on stdout; responses echo the request id.

Example:
  skilldex bridge`,
	RunE: runBridge,
}

func runBridge(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// stdout belongs to the response stream.
	logger.SetLogOutput(os.Stderr)

	indexes, closer, err := buildIndexes(ctx)
	if err != nil {
		return err
	}
	defer closer()

	router := bridge.NewRouter(indexes, bridge.WithContext(ctx))
	return router.Run()
}
