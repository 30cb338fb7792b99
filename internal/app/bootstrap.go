package app

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/internal/restserver"
	"harvester/pkg/logging"
)

// Application bootstraps and runs the harvester process. It follows a
// two-phase initialization pattern:
//  1. Bootstrap phase: configure logging, construct every core component.
//  2. Execution phase: start the state machine, time keeper, and REST
//     server, publish ServiceInitialized, and block until shutdown.
type Application struct {
	config   *Config
	services *Services
	rest     *restserver.Server
}

// NewApplication performs the complete bootstrap sequence: configures
// logging, constructs the event bus, configuration manager, ETL registry,
// time keeper, state machine, and control facade (InitializeServices), then
// starts the state machine and time keeper and announces readiness.
//
// A non-nil error here is the only case spec.md §6 calls catastrophic: the
// process should exit with non-zero status rather than enter the `error`
// state, since there is no running state machine yet to enter it.
func NewApplication(cfg *Config) (*Application, error) {
	logLevel := logging.LevelInfo
	if cfg.Debug {
		logLevel = logging.LevelDebug
	}
	logging.InitForCLI(logLevel, os.Stdout)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("bootstrap", err, "failed to initialize services")
		return nil, fmt.Errorf("initialize services: %w", err)
	}

	services.Machine.Start()
	services.Keeper.Start()
	if services.Scheduler != nil {
		services.Scheduler.Start()
	}
	services.ConfigWatcher.Start()

	services.Bus.SendEvent(eventbus.Event{
		Kind:    events.ServiceInitialized,
		Payload: events.ServiceInitializedPayload{Success: true},
	})

	addr := cfg.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	metricsHandler := promhttp.HandlerFor(services.PromRegistry, promhttp.HandlerOpts{})
	rest := restserver.New(addr, services.Facade, metricsHandler)
	if err := rest.Start(); err != nil {
		return nil, fmt.Errorf("start REST server: %w", err)
	}

	return &Application{config: cfg, services: services, rest: rest}, nil
}

// Run blocks until the process receives a shutdown signal. runService stops
// the time keeper and state machine and closes the event bus; Run then stops
// the REST server, the scheduler, and the config watcher.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.rest.Stop(context.Background()); err != nil {
			logging.Error("bootstrap", err, "error shutting down REST server")
		}
		if a.services.Scheduler != nil {
			a.services.Scheduler.Stop()
		}
		a.services.ConfigWatcher.Stop()
	}()
	return runService(ctx, a.services)
}

// Services exposes the application's wired components, e.g. for a REST
// server to bind handlers against the control facade.
func (a *Application) Services() *Services { return a.services }
