package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var statusEndpoint string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a combined overview: state, progress, and outdatedness",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addEndpointFlag(statusCmd, &statusEndpoint)
}

func runStatus(cmd *cobra.Command, args []string) error {
	c := client.New(statusEndpoint)
	ctx := cmd.Context()

	overview, err := c.Overview(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), overview)

	progress, err := c.Progress(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "progress: %s\n", progress)

	outdated, err := c.Outdated(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "outdated: %s\n", outdated)

	return nil
}
