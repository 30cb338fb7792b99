package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"harvester/pkg/logging"
)

// runService blocks until the process is signaled to stop, then shuts the
// state machine and time keeper down gracefully. This is the harvester's
// only execution mode: a long-running service, per spec.md §6 ("the
// process is launched as a long-running service").
func runService(ctx context.Context, services *Services) error {
	logging.Info("app", "harvester started, awaiting control commands")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logging.Info("app", "shutting down")
	services.Keeper.Stop()
	services.Machine.Stop()
	services.Bus.Close()

	return nil
}
