package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var submitEndpoint string

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit saved documents to the configured downstream index (POST /submit)",
	Long: `Starts a submit: each pipeline's saved documents are POSTed in
batches to its submissionUrl. Rejected with 503 if an operation is already
in progress.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	addEndpointFlag(submitCmd, &submitEndpoint)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	body, err := client.New(submitEndpoint).Submit(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
