// Package obsv exposes Prometheus metrics for the harvester's Event Bus
// traffic: documents harvested, pipelines by health, and harvest duration.
// This restores observability the original Java service shipped (Dropwizard
// metrics) but that the spec distillation dropped; it is wired up here using
// the pack's prometheus/client_golang instead.
package obsv

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"harvester/internal/etl"
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// Metrics holds the harvester's Prometheus collectors.
type Metrics struct {
	documentsHarvested *prometheus.CounterVec
	pipelinesByHealth  *prometheus.GaugeVec
	harvestDuration    *prometheus.HistogramVec

	mu           sync.Mutex
	harvestStart map[string]time.Time // keyed by HarvestStartedPayload.RunID
}

// NewMetrics constructs and registers every collector against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documentsHarvested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harvester",
			Name:      "documents_harvested_total",
			Help:      "Documents loaded into pipeline caches; the pipeline label is always \"all\".",
		}, []string{"pipeline"}),
		pipelinesByHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "harvester",
			Name:      "pipelines_by_health",
			Help:      "Number of pipelines currently in each health classification.",
		}, []string{"health"}),
		harvestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "harvester",
			Name:      "harvest_duration_seconds",
			Help:      "Wall-clock duration of a registry-level harvest.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		harvestStart: make(map[string]time.Time),
	}

	reg.MustRegister(m.documentsHarvested, m.pipelinesByHealth, m.harvestDuration)
	return m
}

// Observe subscribes to the event bus and updates collectors as events
// arrive. It does not block; each handler runs on the bus's dispatch loop.
func (m *Metrics) Observe(bus *eventbus.Bus, registry *etl.Registry) {
	bus.AddListener(events.DocumentsHarvested, func(e eventbus.Event) {
		payload, ok := e.Payload.(events.DocumentsHarvestedPayload)
		if !ok {
			return
		}
		m.documentsHarvested.WithLabelValues("all").Add(float64(payload.Count))
	})

	bus.AddListener(events.HarvestStarted, func(e eventbus.Event) {
		if payload, ok := e.Payload.(events.HarvestStartedPayload); ok && payload.RunID != "" {
			m.mu.Lock()
			m.harvestStart[payload.RunID] = time.Now()
			m.mu.Unlock()
		}

		m.refreshHealthGauge(registry)
	})

	bus.AddListener(events.HarvestFinished, func(e eventbus.Event) {
		payload, ok := e.Payload.(events.HarvestFinishedPayload)

		var start time.Time
		if ok && payload.RunID != "" {
			m.mu.Lock()
			start = m.harvestStart[payload.RunID]
			delete(m.harvestStart, payload.RunID)
			m.mu.Unlock()
		}

		m.refreshHealthGauge(registry)

		outcome := "success"
		if ok && !payload.Success {
			outcome = "failure"
		}
		if !start.IsZero() {
			m.harvestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		}
	})
}

func (m *Metrics) refreshHealthGauge(registry *etl.Registry) {
	counts := map[etl.Health]int{
		etl.HealthOK:               0,
		etl.HealthHarvestFailed:    0,
		etl.HealthSubmissionFailed: 0,
		etl.HealthFubar:            0,
	}
	for _, p := range registry.Pipelines() {
		counts[p.Health()]++
	}
	for health, count := range counts {
		m.pipelinesByHealth.WithLabelValues(string(health)).Set(float64(count))
	}
}
