package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harvester/internal/config"
	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/internal/statemachine"
)

func TestInitializeServices(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(moduleDir string)
		checkServices func(*testing.T, *Services)
	}{
		{
			name: "empty module directory wires every core component",
			checkServices: func(t *testing.T, s *Services) {
				assert.NotNil(t, s.Bus)
				assert.NotNil(t, s.ConfigManager)
				assert.NotNil(t, s.Registry)
				assert.NotNil(t, s.Keeper)
				assert.NotNil(t, s.Machine)
				assert.NotNil(t, s.Facade)
				assert.NotNil(t, s.PromRegistry)
				assert.NotNil(t, s.ConfigWatcher)
				assert.Nil(t, s.Scheduler)
				assert.Empty(t, s.Registry.Pipelines())
			},
		},
		{
			name: "a directory-extractor pipeline definition registers a pipeline",
			setup: func(moduleDir string) {
				err := config.SavePipeline(moduleDir, config.DefaultPipelineConfig("products", "directory"))
				require.NoError(t, err)
			},
			checkServices: func(t *testing.T, s *Services) {
				require.Len(t, s.Registry.Pipelines(), 1)
				assert.Equal(t, "products", s.Registry.Pipelines()[0].Name())
			},
		},
		{
			name: "a pipeline with an unresolvable extractorType is skipped, not fatal",
			setup: func(moduleDir string) {
				err := config.SavePipeline(moduleDir, config.DefaultPipelineConfig("legacy", "oai-pmh"))
				require.NoError(t, err)
			},
			checkServices: func(t *testing.T, s *Services) {
				assert.Empty(t, s.Registry.Pipelines())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moduleDir := t.TempDir()
			if tt.setup != nil {
				tt.setup(moduleDir)
			}

			services, err := InitializeServices(&Config{ModuleDir: moduleDir})
			require.NoError(t, err)
			tt.checkServices(t, services)
		})
	}
}

func TestInitializeServicesWiresSchedulerWhenHarvestScheduleConfigured(t *testing.T) {
	moduleDir := t.TempDir()
	require.NoError(t, config.SaveGlobal(moduleDir, config.GlobalConfig{HarvestSchedule: "@every 1h"}))

	services, err := InitializeServices(&Config{ModuleDir: moduleDir})
	require.NoError(t, err)
	require.NotNil(t, services.Scheduler)
}

func TestInitializeServicesSkipsSchedulerOnInvalidCronExpression(t *testing.T) {
	moduleDir := t.TempDir()
	require.NoError(t, config.SaveGlobal(moduleDir, config.GlobalConfig{HarvestSchedule: "not a cron expression"}))

	services, err := InitializeServices(&Config{ModuleDir: moduleDir})
	require.NoError(t, err)
	assert.Nil(t, services.Scheduler)
}

func TestDataProviderNameStripsHarvesterServiceSuffix(t *testing.T) {
	got := dataProviderName(filepath.Join(os.TempDir(), "rssFeedHarvesterService"))
	assert.Equal(t, "rssFeed", got)
}

func TestInstalledAutoChainingStartsSaveAfterSuccessfulHarvest(t *testing.T) {
	moduleDir := t.TempDir()
	services, err := InitializeServices(&Config{ModuleDir: moduleDir})
	require.NoError(t, err)
	require.NoError(t, services.ConfigManager.UpdateGlobal(config.GlobalConfig{AutoSave: true}))

	saveStarted := make(chan struct{}, 1)
	services.Bus.AddListener(events.SaveStarted, func(eventbus.Event) {
		select {
		case saveStarted <- struct{}{}:
		default:
		}
	})

	services.Machine.Start()
	defer services.Machine.Stop()

	services.Bus.SendEvent(eventbus.Event{Kind: events.ServiceInitialized, Payload: events.ServiceInitializedPayload{Success: true}})
	waitForState(t, services.Machine, statemachine.Idle)

	services.Bus.SendEvent(eventbus.Event{Kind: events.HarvestFinished, Payload: events.HarvestFinishedPayload{Success: true}})

	select {
	case <-saveStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("expected autoSave to start a save after a successful harvest")
	}
}

func TestStartHarvestEventTriggersStartHarvest(t *testing.T) {
	moduleDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(moduleDir, "sources", "products"), 0o755))
	require.NoError(t, config.SavePipeline(moduleDir, config.DefaultPipelineConfig("products", "directory")))

	services, err := InitializeServices(&Config{ModuleDir: moduleDir})
	require.NoError(t, err)

	harvestStarted := make(chan struct{}, 1)
	services.Bus.AddListener(events.HarvestStarted, func(eventbus.Event) {
		select {
		case harvestStarted <- struct{}{}:
		default:
		}
	})

	services.Machine.Start()
	defer services.Machine.Stop()

	services.Bus.SendEvent(eventbus.Event{Kind: events.ServiceInitialized, Payload: events.ServiceInitializedPayload{Success: true}})
	waitForState(t, services.Machine, statemachine.Idle)

	services.Bus.SendEvent(eventbus.Event{Kind: events.StartHarvestEvent})

	select {
	case <-harvestStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("expected StartHarvestEvent to trigger a harvest")
	}
}

func waitForState(t *testing.T, m *statemachine.Machine, want statemachine.Name) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Current() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected state %s, got %s", want, m.Current())
}
