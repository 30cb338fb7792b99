package etl

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"harvester/internal/apperrors"
	"harvester/internal/document"
	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/pkg/logging"
)

// ConcurrentFunc reports whether the registry should fan pipeline
// operations out in parallel (true) or sequentially (false). Backed by the
// registry-level "concurrent" configuration parameter (spec.md §3).
type ConcurrentFunc func() bool

// Registry owns the set of pipelines and drives harvests across them. It
// does not own any pipeline's cache, extractor, transformer, or loader —
// those remain exclusively owned by each Pipeline (spec.md §3 Ownership).
type Registry struct {
	mu        sync.RWMutex
	pipelines []*Pipeline
	names     map[string]struct{}

	bus         *eventbus.Bus
	concurrent  ConcurrentFunc
	harvestOnce singleflight.Group
}

// NewRegistry constructs an empty Registry.
func NewRegistry(bus *eventbus.Bus, concurrent ConcurrentFunc) *Registry {
	return &Registry{
		bus:        bus,
		concurrent: concurrent,
		names:      make(map[string]struct{}),
	}
}

// Register adds a pipeline once; a duplicate name is logged and ignored.
func (r *Registry) Register(p *Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[p.Name()]; exists {
		logging.Warn("etl-registry", "pipeline %s already registered, ignoring duplicate", p.Name())
		return nil
	}
	r.names[p.Name()] = struct{}{}
	r.pipelines = append(r.pipelines, p)
	return nil
}

// Pipelines returns a snapshot of registered pipelines in registration
// order.
func (r *Registry) Pipelines() []*Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Pipeline(nil), r.pipelines...)
}

// ProcessPipelines applies fn to every pipeline, in parallel if concurrent
// is true, otherwise sequentially in registration order. Results are
// collected into a pre-sized, per-index slice joined before being returned,
// so a parallel fan-out never races on a shared append (spec.md §9 Open
// Question 2). A pipeline's failure is logged but never aborts the others.
func (r *Registry) ProcessPipelines(ctx context.Context, fn func(context.Context, *Pipeline) error) []error {
	pipelines := r.Pipelines()
	results := make([]error, len(pipelines))

	run := func(i int, p *Pipeline) {
		if err := fn(ctx, p); err != nil {
			results[i] = err
			logging.Error("etl-registry", err, "pipeline %s: step failed", p.Name())
		}
	}

	if r.concurrent != nil && r.concurrent() {
		var eg errgroup.Group
		for i, p := range pipelines {
			i, p := i, p
			eg.Go(func() error {
				run(i, p)
				return nil
			})
		}
		_ = eg.Wait()
		return results
	}

	for i, p := range pipelines {
		run(i, p)
	}
	return results
}

// Harvest asynchronously prepares and drives every registered pipeline; it
// returns as soon as the work is scheduled so a REST handler calling it can
// respond immediately. Two calls keyed on the same current aggregate hash
// collapse onto the same singleflight run rather than harvesting twice
// (spec.md §3 Harvest Fingerprint: same fingerprint implies unchanged
// source data).
func (r *Registry) Harvest(ctx context.Context) {
	key := r.Hash()
	go func() {
		_, _, _ = r.harvestOnce.Do(key, func() (interface{}, error) {
			r.runHarvest(ctx)
			return nil, nil
		})
	}()
}

func (r *Registry) runHarvest(ctx context.Context) {
	prepareResults := r.ProcessPipelines(ctx, func(ctx context.Context, p *Pipeline) error {
		return p.PrepareHarvest(ctx)
	})

	runnable := 0
	for i, p := range r.Pipelines() {
		if prepareResults[i] == nil && p.Status() == StatusHarvesting {
			runnable++
		}
	}

	if runnable == 0 {
		logging.Warn("etl-registry", "no harvester could be started")
		logging.Audit(logging.AuditEvent{
			Action:  "start_harvest",
			Outcome: "rejected",
			Details: apperrors.ErrNoHarvesterCouldBeStarted.Error(),
		})
		return
	}

	runID := uuid.New().String()
	r.bus.SendEvent(eventbus.Event{
		Kind: events.HarvestStarted,
		Payload: events.HarvestStartedPayload{
			RunID:            runID,
			Hash:             r.Hash(),
			MaxDocumentCount: r.MaxDocumentCount(),
		},
	})

	var aborted atomic.Bool
	abortSub := r.bus.AddListener(events.AbortingStarted, func(eventbus.Event) { aborted.Store(true) })
	defer r.bus.RemoveListener(abortSub)

	harvestResults := r.ProcessPipelines(ctx, func(ctx context.Context, p *Pipeline) error {
		if p.Status() != StatusHarvesting {
			return nil
		}
		return p.Harvest(ctx)
	})

	success := true
	for _, err := range harvestResults {
		if err != nil {
			success = false
		}
	}

	r.bus.SendEvent(eventbus.Event{
		Kind:    events.HarvestFinished,
		Payload: events.HarvestFinishedPayload{RunID: runID, Success: success, Hash: r.Hash()},
	})

	// An abort request landed the state machine in aborting; now that every
	// pipeline's Harvest call has actually returned, the unwind it was
	// waiting on is done (spec.md §8 Scenario D).
	if aborted.Load() {
		r.bus.SendEvent(eventbus.Event{Kind: events.AbortingFinished})
	}
}

// AbortHarvest invokes AbortHarvest on every registered pipeline.
func (r *Registry) AbortHarvest() {
	for _, p := range r.Pipelines() {
		p.AbortHarvest()
	}
}

// MaxDocumentCount sums each pipeline's reported size, or returns -1
// (unknown) if any pipeline reports -1.
func (r *Registry) MaxDocumentCount() int {
	total := 0
	for _, p := range r.Pipelines() {
		n := p.MaxDocumentCount()
		if n < 0 {
			return -1
		}
		total += n
	}
	return total
}

// Hash aggregates per-pipeline hashes, in stable registration order, per
// spec.md §9's resolution of the initHash ordering question.
func (r *Registry) Hash() string {
	var sb strings.Builder
	for _, p := range r.Pipelines() {
		sb.WriteString(p.Hash())
	}
	return document.ContentHash([]byte(sb.String()))
}

// Status aggregates the worst-of pipeline statuses: aborting > harvesting >
// queued > busy > idle.
func (r *Registry) Status() Status {
	pipelines := r.Pipelines()
	statuses := make([]Status, len(pipelines))
	for i, p := range pipelines {
		statuses[i] = p.Status()
	}
	return WorstStatus(statuses)
}

// Health aggregates the worst-of pipeline healths: fubar > harvest-failed >
// submission-failed > ok.
func (r *Registry) Health() Health {
	pipelines := r.Pipelines()
	healths := make([]Health, len(pipelines))
	for i, p := range pipelines {
		healths[i] = p.Health()
	}
	return WorstHealth(healths)
}

// IsOutdated reports whether any registered pipeline's cache is outdated.
// harvestInternal's ApplyChanges always clears a pipeline's WIP directory on
// exit (success, failure, or abort alike), so the comparison refreshes each
// pipeline's WIP fingerprint via initCache first, the same way PrepareHarvest
// does, rather than comparing against a WIP side that harvesting already
// deleted.
func (r *Registry) IsOutdated() (bool, error) {
	for _, p := range r.Pipelines() {
		outdated, err := p.isOutdated(p.Config())
		if err != nil {
			return false, err
		}
		if outdated {
			return true, nil
		}
	}
	return false, nil
}

// HarvestedDocuments sums each pipeline's cache Size: the entries pending in
// its Changes WIP partition, not yet promoted to stable.
func (r *Registry) HarvestedDocuments() (int, error) {
	total := 0
	for _, p := range r.Pipelines() {
		n, err := p.cache.Size()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
