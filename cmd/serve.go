package cmd

import (
	"context"
	"fmt"

	"harvester/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveYolo skips interactive confirmation prompts for destructive
// operations driven from this same process (it has no effect on the core
// components, which always execute what the REST surface asks for).
var serveYolo bool

// serveModuleDir is the harvester module's root directory (config, cache,
// pipeline definitions, timekeeper state).
var serveModuleDir string

// serveListenAddr is the REST server's bind address.
var serveListenAddr string

// serveCmd defines the serve command structure: it starts the harvester
// process itself, wiring the event bus, configuration manager, ETL
// registry, time keeper, state machine, and REST server, then blocks until
// a shutdown signal arrives.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the harvester process and serve its REST control surface.",
	Long: `Starts a harvester module: loads its configuration and pipeline
definitions from --module-dir, wires the ETL pipelines, and serves the REST
control surface (POST /, GET /state, POST /abort, etc.) on --listen-addr.

Use 'harvester start', 'harvester state', etc. from another shell to drive
the running process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveYolo, serveModuleDir)
	cfg.ListenAddr = serveListenAddr

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveYolo, "yolo", false, "Skip interactive confirmation prompts")
	serveCmd.Flags().StringVar(&serveModuleDir, "module-dir", ".", "Harvester module's root directory")
	serveCmd.Flags().StringVar(&serveListenAddr, "listen-addr", "", "REST server bind address (default :8080, or a systemd-activated socket)")
}
