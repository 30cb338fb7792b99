package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var abortEndpoint string

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Cancel the current harvest, save, or submit",
	Long: `Cancels whatever long operation is currently running (POST /abort).

Rejected with 400 if no operation is running.`,
	Args: cobra.NoArgs,
	RunE: runAbort,
}

func init() {
	rootCmd.AddCommand(abortCmd)
	addEndpointFlag(abortCmd, &abortEndpoint)
}

func runAbort(cmd *cobra.Command, args []string) error {
	body, err := client.New(abortEndpoint).Abort(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
