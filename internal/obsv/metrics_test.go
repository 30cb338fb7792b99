package obsv

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	hcache "harvester/internal/cache/harvester"
	"harvester/internal/etl"
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

func newPipeline(t *testing.T, bus *eventbus.Bus, name string) *etl.Pipeline {
	t.Helper()
	cfg := etl.Config{Enabled: true}
	p := etl.NewPipeline(name, bus, t.TempDir(), nil, nil, nil, func() etl.Config { return cfg })
	if err := p.Init("harvester-test"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.Cache().Init("fingerprint", hcache.Range{Start: 0}); err != nil {
		t.Fatalf("Cache Init: %v", err)
	}
	return p
}

func TestDocumentsHarvestedIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	bus := eventbus.New()
	defer bus.Close()

	registry := etl.NewRegistry(bus, func() bool { return false })
	m.Observe(bus, registry)

	bus.SendEvent(eventbus.Event{Kind: events.DocumentsHarvested, Payload: events.DocumentsHarvestedPayload{Count: 3}})
	bus.SendEvent(eventbus.Event{Kind: events.DocumentsHarvested, Payload: events.DocumentsHarvestedPayload{Count: 2}})

	counter := m.documentsHarvested.WithLabelValues("all")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && testutil.ToFloat64(counter) < 5 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := testutil.ToFloat64(counter); got != 5 {
		t.Fatalf("documents_harvested_total = %v, want 5", got)
	}
}

func TestHarvestFinishedRefreshesHealthGaugeAndObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	bus := eventbus.New()
	defer bus.Close()

	registry := etl.NewRegistry(bus, func() bool { return false })
	if err := registry.Register(newPipeline(t, bus, "ok-pipeline")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m.Observe(bus, registry)

	bus.SendEvent(eventbus.Event{Kind: events.HarvestStarted, Payload: events.HarvestStartedPayload{RunID: "run-1"}})
	bus.SendEvent(eventbus.Event{Kind: events.HarvestFinished, Payload: events.HarvestFinishedPayload{RunID: "run-1", Success: true}})

	okGauge := m.pipelinesByHealth.WithLabelValues(string(etl.HealthOK))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && testutil.ToFloat64(okGauge) != 1 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := testutil.ToFloat64(okGauge); got != 1 {
		t.Fatalf("pipelines_by_health{health=ok} = %v, want 1", got)
	}

	if got := testutil.CollectAndCount(m.harvestDuration); got == 0 {
		t.Fatal("expected a harvest duration observation after HarvestFinished")
	}
}
