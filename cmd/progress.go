package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var progressEndpoint string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print harvested/total document counts (GET /progress)",
	Args:  cobra.NoArgs,
	RunE:  runProgress,
}

func init() {
	rootCmd.AddCommand(progressCmd)
	addEndpointFlag(progressCmd, &progressEndpoint)
}

func runProgress(cmd *cobra.Command, args []string) error {
	body, err := client.New(progressEndpoint).Progress(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
