package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var shellEndpoint string

// shellCmd is a REPL over the REST surface, grounded on the teacher's MCP
// REPL (internal/agent/repl.go), adapted from dispatching MCP tool calls to
// dispatching the fixed command set below against internal/client.Client.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive REPL over the REST surface",
	Long: `Reads command names (start, abort, save, submit, reset, state,
progress, status, log, quit) from standard input, one per line, and prints
each one's result.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	addEndpointFlag(shellCmd, &shellEndpoint)
}

func runShell(cmd *cobra.Command, args []string) error {
	c := client.New(shellEndpoint)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "harvester> ",
		HistoryFile:       filepath.Join(os.TempDir(), ".harvester_shell_history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
		Stdin:             io.NopCloser(cmd.InOrStdin()),
		Stdout:            out,
		Stderr:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("shell: create readline instance: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(out, "harvester shell. Commands: start abort save submit reset state progress status log quit")
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("shell: read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := dispatchShellCommand(ctx, out, c, line); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func dispatchShellCommand(ctx context.Context, out io.Writer, c *client.Client, line string) error {
	var (
		body string
		err  error
	)
	switch line {
	case "start":
		body, err = c.StartHarvest(ctx)
	case "abort":
		body, err = c.Abort(ctx)
	case "save":
		body, err = c.Save(ctx)
	case "submit":
		body, err = c.Submit(ctx)
	case "reset":
		body, err = c.Reset(ctx)
	case "state":
		body, err = c.State(ctx)
	case "progress":
		body, err = c.Progress(ctx)
	case "status":
		body, err = c.Overview(ctx)
	case "log":
		body, err = c.Log(ctx, time.Time{}, "", nil)
	default:
		fmt.Fprintf(out, "unknown command %q\n", line)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, body)
	return nil
}
