package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var startEndpoint string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a harvest",
	Long: `Starts a harvest on a running harvester process (POST /).

Rejected with 503 if a harvest, save, or submit is already in progress.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	addEndpointFlag(startCmd, &startEndpoint)
}

func runStart(cmd *cobra.Command, args []string) error {
	body, err := client.New(startEndpoint).StartHarvest(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
