package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var saveEndpoint string

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Export harvested documents (GET /download)",
	Long: `Starts a save: each pipeline's stable documents are exported to an
ndjson file. Rejected with 503 if an operation is already in progress.`,
	Args: cobra.NoArgs,
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	addEndpointFlag(saveCmd, &saveEndpoint)
}

func runSave(cmd *cobra.Command, args []string) error {
	body, err := client.New(saveEndpoint).Save(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
