package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var (
	resetEndpoint string
	resetYes      bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the harvester's context (POST /reset)",
	Long: `Reloads configuration from disk. The ETL registry is not rebuilt:
registered pipelines keep the definition they were registered with.
Prompts for confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
	addEndpointFlag(resetCmd, &resetEndpoint)
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		confirmed, err := confirm(cmd, "This reloads configuration from disk. Continue?")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
	}

	body, err := client.New(resetEndpoint).Reset(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}

// confirm asks the operator a yes/no question on the command's standard
// input, defaulting to "no" on anything but an explicit y/yes.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false, scanner.Err()
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
