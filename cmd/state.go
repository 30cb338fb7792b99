package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var stateEndpoint string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the harvester's current state (GET /state)",
	Args:  cobra.NoArgs,
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	addEndpointFlag(stateCmd, &stateEndpoint)
}

func runState(cmd *cobra.Command, args []string) error {
	body, err := client.New(stateEndpoint).State(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
