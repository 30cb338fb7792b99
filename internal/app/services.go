package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"harvester/internal/collaborator"
	"harvester/internal/config"
	"harvester/internal/control"
	"harvester/internal/etl"
	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/internal/obsv"
	"harvester/internal/scheduler"
	"harvester/internal/statemachine"
	"harvester/internal/submission"
	"harvester/internal/timekeeper"
	"harvester/pkg/logging"
)

// Services holds every long-lived component the Main Context wires
// together, in the order the harvester's core pieces (spec.md §2) compose:
// event bus, configuration, ETL registry, time keeper, state machine,
// control facade, plus the ambient metrics registry and the optional
// Scheduler collaborator.
type Services struct {
	Bus           *eventbus.Bus
	ConfigManager *config.Manager
	Registry      *etl.Registry
	Keeper        *timekeeper.Keeper
	Machine       *statemachine.Machine
	Facade        *control.Facade
	PromRegistry  *prometheus.Registry
	Scheduler     *scheduler.Scheduler // nil when no harvestSchedule is configured
	ConfigWatcher *config.Watcher
}

// InitializeServices constructs every core component and wires them
// together. Initialization sequence:
//
//  1. Event bus — every other component communicates only through it.
//  2. Configuration manager — loads the global snapshot and pipeline
//     definitions from cfg.ModuleDir.
//  3. ETL registry — one pipeline per loaded definition, collaborators
//     resolved from internal/collaborator's built-in set.
//  4. Time keeper — loads persisted harvest/save/submit measures.
//  5. State machine — wired to the registry's Harvest and to the save/submit
//     drivers from internal/submission.
//  6. Control facade — the thin command/response layer internal/restserver
//     drives.
//
// Pipeline definitions whose extractorType has no built-in collaborator are
// logged and skipped rather than failing startup: spec.md treats Extractor
// as an external collaborator contract, so an unresolvable type is expected
// to be wired in by a production deployment, not a fatal misconfiguration.
func InitializeServices(cfg *Config) (*Services, error) {
	bus := eventbus.New()

	configManager, loadErrs := config.NewManager(cfg.ModuleDir, bus)
	for _, e := range loadErrs.Errors {
		logging.Warn("app", "skipping pipeline definition %s: %s", e.Pipeline, e.Message)
	}

	registry := etl.NewRegistry(bus, func() bool {
		return configManager.Snapshot().Global.Concurrent
	})

	for name, pc := range configManager.Snapshot().Pipelines {
		if err := registerPipeline(registry, bus, cfg.ModuleDir, pc); err != nil {
			logging.Warn("app", "pipeline %s: %v", name, err)
		}
	}

	keeper := timekeeper.New(bus, cfg.ModuleDir)
	if err := keeper.Load(); err != nil {
		return nil, fmt.Errorf("app: load time keeper state: %w", err)
	}

	exportDir := filepath.Join(cfg.ModuleDir, "export")
	saveDriver := submission.NewSaveDriver(bus, registry, exportDir)
	submitDriver := submission.NewSubmitDriver(bus, registry, func() map[string]config.PipelineConfig {
		return configManager.Snapshot().Pipelines
	})
	harvestDriver := statemachine.Driver{Start: func(ctx context.Context) { registry.Harvest(ctx) }}

	machine := statemachine.New(bus, harvestDriver, saveDriver, submitDriver, registry.IsOutdated, func() error {
		if errs := configManager.Reload(); errs.HasErrors() {
			return errs
		}
		return nil
	})

	facade := control.New(machine, registry, dataProviderName(cfg.ModuleDir))

	installAutoChaining(bus, configManager, machine)

	promRegistry := prometheus.NewRegistry()
	obsv.NewMetrics(promRegistry).Observe(bus, registry)

	sched := newScheduler(bus, configManager.Snapshot().Global.HarvestSchedule)
	installScheduledHarvest(bus, machine)

	watcher := config.NewWatcher(configManager)

	return &Services{
		Bus:           bus,
		ConfigManager: configManager,
		Registry:      registry,
		Keeper:        keeper,
		Machine:       machine,
		Facade:        facade,
		PromRegistry:  promRegistry,
		Scheduler:     sched,
		ConfigWatcher: watcher,
	}, nil
}

func registerPipeline(registry *etl.Registry, bus *eventbus.Bus, moduleDir string, pc config.PipelineConfig) error {
	sourceDir := filepath.Join(moduleDir, "sources", pc.Name)
	ef, tf, lf, err := collaborator.NewFactories(pc.ExtractorType, sourceDir)
	if err != nil {
		return err
	}

	cacheDir := filepath.Join(moduleDir, "cache", pc.Name)
	p := etl.NewPipeline(pc.Name, bus, cacheDir, ef, tf, lf, func() etl.Config {
		return etl.Config{
			Enabled:      pc.Enabled,
			ForceHarvest: pc.ForceHarvest,
			StartIndex:   pc.StartIndex,
			EndIndex:     pc.EndIndexPtr(),
		}
	})
	if err := p.Init(moduleDir); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return registry.Register(p)
}

// installAutoChaining wires the autoSave/autoSubmit configuration
// parameters (spec.md §6): a successful harvest starts a save when
// autoSave is set, and a successful save starts a submit when autoSubmit
// is set. Both reads use the configuration snapshot current at the moment
// the triggering event arrives.
func installAutoChaining(bus *eventbus.Bus, configManager *config.Manager, machine *statemachine.Machine) {
	bus.AddListener(events.HarvestFinished, func(e eventbus.Event) {
		payload, ok := e.Payload.(events.HarvestFinishedPayload)
		if !ok || !payload.Success {
			return
		}
		if configManager.Snapshot().Global.AutoSave {
			machine.Save()
		}
	})

	bus.AddListener(events.SaveFinished, func(e eventbus.Event) {
		payload, ok := e.Payload.(events.FinishedPayload)
		if !ok || !payload.Success {
			return
		}
		if configManager.Snapshot().Global.AutoSubmit {
			machine.Submit()
		}
	})
}

// newScheduler builds the Scheduler collaborator when a harvestSchedule is
// configured (spec.md §3: `<moduleName>/scheduler.json`, here surfaced
// through the global config snapshot rather than its own file). Returns nil
// when unconfigured or the expression is invalid.
func newScheduler(bus *eventbus.Bus, harvestSchedule string) *scheduler.Scheduler {
	if harvestSchedule == "" {
		return nil
	}
	sched := scheduler.New(bus)
	if err := sched.AddSchedule(harvestSchedule); err != nil {
		logging.Warn("app", "ignoring invalid harvestSchedule %q: %v", harvestSchedule, err)
		return nil
	}
	return sched
}

// installScheduledHarvest bridges the Scheduler collaborator's sole core
// interaction (spec.md §6) into an actual harvest: StartHarvestEvent (from
// internal/scheduler or any other emitter) triggers the same path POST /
// does.
func installScheduledHarvest(bus *eventbus.Bus, machine *statemachine.Machine) {
	bus.AddListener(events.StartHarvestEvent, func(eventbus.Event) {
		machine.StartHarvest()
	})
}

// moduleNameSuffix is appended to a data-provider name to derive the
// module's directory name at setup time (spec.md §6: "a moduleName derived
// from the data-provider name ... suffix HarvesterService appended").
// dataProviderName reverses that to answer GET /data-provider.
const moduleNameSuffix = "HarvesterService"

func dataProviderName(moduleDir string) string {
	base := filepath.Base(moduleDir)
	return strings.TrimSuffix(base, moduleNameSuffix)
}
