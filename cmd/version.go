package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

// versionCheckTimeout bounds the reachability check against a running
// server.
const versionCheckTimeout = 2 * time.Second

var versionEndpoint string

// newVersionCmd creates the Cobra command for displaying the application
// version. It also reports whether a harvester process is reachable at
// --endpoint, since that is the only "server version" concept this REST
// surface exposes.
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Long: `Displays the harvester CLI version and, if a harvester process
is reachable at --endpoint, confirms it is running.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "harvester version %s\n", rootCmd.Version)

			ctx, cancel := context.WithTimeout(context.Background(), versionCheckTimeout)
			defer cancel()

			if client.New(versionEndpoint).Reachable(ctx) {
				fmt.Fprintf(cmd.OutOrStdout(), "server: running at %s\n", versionEndpoint)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "server: not running")
			}
		},
	}
	addEndpointFlag(cmd, &versionEndpoint)
	return cmd
}
