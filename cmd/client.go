package cmd

import (
	"github.com/spf13/cobra"

	"harvester/internal/client"
)

// addEndpointFlag registers the --endpoint flag every client-driving
// subcommand shares, defaulting to HARVESTER_ENDPOINT or client.DefaultEndpoint.
func addEndpointFlag(cmd *cobra.Command, endpoint *string) {
	cmd.Flags().StringVar(endpoint, "endpoint", client.DefaultEndpointFromEnv(), "Harvester REST endpoint (env: HARVESTER_ENDPOINT)")
}
