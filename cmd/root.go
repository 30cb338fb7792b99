package cmd

import (
	"errors"
	"net/url"
	"os"

	"harvester/internal/client"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeUnavailable indicates the server rejected the request (e.g. 503 busy).
	ExitCodeUnavailable = 2
	// ExitCodeUnreachable indicates the server could not be reached at all.
	ExitCodeUnreachable = 3
)

// rootCmd represents the base command for the harvester CLI.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Run and control a harvester module",
	Long: `harvester runs a data-harvesting process (extract, transform, load) and
exposes its REST control surface, or drives a running process's REST surface
from the command line.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "harvester version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return ExitCodeUnavailable
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ExitCodeUnreachable
	}
	return ExitCodeError
}

// init adds the commands that, unlike the rest of cmd/, are built with a
// constructor rather than a package-level var.
func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
