package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"harvester/internal/client"
)

var (
	watchEndpoint string
	watchInterval time.Duration
	watchQuiet    bool
)

// watchCmd polls GET /state on an interval and prints each change, grounded
// on the teacher's --follow streaming idiom (cmd/events.go's
// followEventsWithNotifications), adapted to polling since the REST surface
// has no server-push notification channel. The spinner shown between state
// transitions is grounded on the teacher's internal/cli/executor.go, which
// shows one while a long-running tool call is in flight.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream state transitions until interrupted",
	Long: `Polls GET /state on --interval and prints a line each time the
reported state changes. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addEndpointFlag(watchCmd, &watchEndpoint)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "Polling interval")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress the spinner shown between polls")
}

func runWatch(cmd *cobra.Command, args []string) error {
	c := client.New(watchEndpoint)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var s *spinner.Spinner
	if !watchQuiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " waiting for a state change..."
		s.Writer = cmd.OutOrStdout()
		s.Start()
		defer s.Stop()
	}

	var last string
	for {
		state, err := c.State(ctx)
		if err != nil {
			return err
		}
		if state != last {
			if s != nil {
				s.Stop()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", time.Now().Format(time.RFC3339), state)
			last = state
			if s != nil {
				s.Start()
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(watchInterval):
		}
	}
}
