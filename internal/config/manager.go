package config

import (
	"path/filepath"
	"sync/atomic"

	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// Manager holds the process-global configuration snapshot (spec.md §3:
// "Configuration is process-global; reads are lock-free (values are
// immutable snapshots)"). Every write replaces the snapshot wholesale and
// publishes ConfigChanged. No component outside the tests subscribes to it;
// the ETL Registry and the Harvest Time Keeper do not react to it.
type Manager struct {
	moduleDir string
	bus       *eventbus.Bus
	snapshot  atomic.Value // Config
}

// NewManager constructs a Manager from moduleDir's on-disk state, loading
// the global snapshot and every pipeline definition. Load errors are
// returned alongside a best-effort Manager so the caller can decide whether
// to proceed or abort startup.
func NewManager(moduleDir string, bus *eventbus.Bus) (*Manager, ErrorCollection) {
	cfg, errs := Load(moduleDir)
	m := &Manager{moduleDir: moduleDir, bus: bus}
	m.snapshot.Store(cfg)
	return m, errs
}

// Snapshot returns the current configuration. The returned value is
// immutable; callers that need to change it go through UpdateGlobal,
// UpsertPipeline, RemovePipeline, or Reload.
func (m *Manager) Snapshot() Config {
	return m.snapshot.Load().(Config)
}

// UpdateGlobal replaces the global parameters, persists them, and publishes
// ConfigChanged.
func (m *Manager) UpdateGlobal(global GlobalConfig) error {
	if err := SaveGlobal(m.moduleDir, global); err != nil {
		return err
	}

	next := m.Snapshot().Clone()
	next.Global = global
	m.snapshot.Store(next)
	m.publish("global")
	return nil
}

// UpsertPipeline validates, persists, and installs a pipeline definition,
// replacing any prior definition with the same name.
func (m *Manager) UpsertPipeline(p PipelineConfig) error {
	if err := SavePipeline(m.moduleDir, p); err != nil {
		return err
	}

	next := m.Snapshot().Clone()
	next.Pipelines[p.Name] = p
	m.snapshot.Store(next)
	m.publish(p.Name)
	return nil
}

// RemovePipeline deletes a pipeline's persisted definition and drops it
// from the snapshot.
func (m *Manager) RemovePipeline(name string) error {
	if err := NewStorage(m.pipelinesDir()).Delete(name); err != nil {
		return err
	}

	next := m.Snapshot().Clone()
	delete(next.Pipelines, name)
	m.snapshot.Store(next)
	m.publish(name)
	return nil
}

// Reload re-reads the global snapshot and every pipeline definition from
// disk, replacing the in-memory snapshot wholesale and publishing
// ConfigChanged. It backs the control surface's "reset" operation (spec.md
// §6 POST /reset): discarding in-memory drift and resyncing to what is
// actually persisted.
func (m *Manager) Reload() ErrorCollection {
	cfg, errs := Load(m.moduleDir)
	m.snapshot.Store(cfg)
	m.publish("*")
	return errs
}

func (m *Manager) pipelinesDir() string {
	return filepath.Join(m.moduleDir, pipelinesDirName)
}

func (m *Manager) publish(key string) {
	if m.bus == nil {
		return
	}
	m.bus.SendEvent(eventbus.Event{Kind: events.ConfigChanged, Payload: events.ConfigChangedPayload{Key: key}})
}
