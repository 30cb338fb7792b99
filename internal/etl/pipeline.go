package etl

import (
	"context"
	"fmt"
	"sync"

	"harvester/internal/apperrors"
	hcache "harvester/internal/cache/harvester"
	"harvester/internal/document"
	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/pkg/logging"
)

// Config holds the per-pipeline parameters spec.md §6 enumerates.
type Config struct {
	Enabled      bool
	ForceHarvest bool
	StartIndex   int
	EndIndex     *int // nil = unbounded, replacing the Java MAX_INT sentinel
}

// ConfigFunc returns the pipeline's current configuration snapshot.
// Configuration reads are lock-free immutable snapshots (spec.md §5).
type ConfigFunc func() Config

// Pipeline is one extract→transform→load unit for one data source. It
// exclusively owns its Harvester Cache, extractor, transformer, and
// loader.
type Pipeline struct {
	name string
	bus  *eventbus.Bus
	cache *hcache.Cache

	extractorFactory   ExtractorFactory
	transformerFactory TransformerFactory
	loaderFactory      LoaderFactory
	configFn           ConfigFunc

	mu          sync.RWMutex
	status      Status
	health      Health
	hash        string
	maxDocCount int

	extractor   Extractor
	transformer Transformer
	loader      Loader

	httpCacheDir string

	cancel context.CancelFunc
}

// NewPipeline constructs a pipeline. cacheDir is this pipeline's exclusive
// Harvester Cache root; it must not be shared with any other pipeline.
func NewPipeline(name string, bus *eventbus.Bus, cacheDir string, ef ExtractorFactory, tf TransformerFactory, lf LoaderFactory, cfg ConfigFunc) *Pipeline {
	return &Pipeline{
		name:               name,
		bus:                bus,
		cache:              hcache.New(cacheDir),
		extractorFactory:   ef,
		transformerFactory: tf,
		loaderFactory:      lf,
		configFn:           cfg,
		status:             StatusBusy,
		health:             HealthOK,
		maxDocCount:        -1,
	}
}

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Pipeline) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *Pipeline) Health() Health {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

func (p *Pipeline) setHealth(h Health) {
	p.mu.Lock()
	p.health = h
	p.mu.Unlock()
}

func (p *Pipeline) Hash() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hash
}

// MaxDocumentCount returns the extractor-reported document count, or -1 if
// unknown.
func (p *Pipeline) MaxDocumentCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxDocCount
}

// Cache exposes the pipeline's Harvester Cache to its Loader collaborator.
func (p *Pipeline) Cache() *hcache.Cache { return p.cache }

// Config returns the pipeline's current configuration snapshot, so a Loader
// can read ForceHarvest when deciding whether to bypass change detection.
func (p *Pipeline) Config() Config { return p.configFn() }

// Init wires the pipeline's HTTP cache directory. It does not construct the
// transformer or loader yet.
func (p *Pipeline) Init(moduleName string) error {
	p.httpCacheDir = moduleName + "/http-cache/" + p.name
	return nil
}

// update constructs the extractor, initializes it, and recomputes the
// pipeline's hash and maxDocumentCount. Extractor failures surface as a
// PreconditionError.
func (p *Pipeline) update(ctx context.Context) error {
	extractor := p.extractorFactory()
	if err := extractor.Init(ctx); err != nil {
		return apperrors.NewPreconditionError(p.name, fmt.Sprintf("invalid-pipeline-shape: %v", err))
	}

	p.mu.Lock()
	p.extractor = extractor
	p.hash = document.ContentHash([]byte(extractor.UniqueVersionString()))
	p.maxDocCount = extractor.Size()
	p.mu.Unlock()
	return nil
}

// PrepareHarvest runs the precondition checks and wires the transformer and
// loader. A non-nil error is always a *apperrors.PreconditionError.
func (p *Pipeline) PrepareHarvest(ctx context.Context) error {
	p.setStatus(StatusBusy)

	cfg := p.configFn()
	if !cfg.Enabled {
		p.setStatus(StatusDone)
		p.setHealth(HealthOK)
		if err := p.cache.SkipAllDocuments(); err != nil {
			logging.Warn("etl", "pipeline %s: skip documents after disabled precondition: %v", p.name, err)
		}
		return apperrors.NewPreconditionError(p.name, "disabled")
	}

	if err := p.update(ctx); err != nil {
		return err
	}

	transformer := p.transformerFactory()
	loader := p.loaderFactory()
	if err := transformer.Init(p); err != nil {
		return apperrors.NewPreconditionError(p.name, fmt.Sprintf("invalid-pipeline-shape: %v", err))
	}
	if err := loader.Init(p); err != nil {
		return apperrors.NewPreconditionError(p.name, fmt.Sprintf("invalid-pipeline-shape: %v", err))
	}
	p.mu.Lock()
	p.transformer = transformer
	p.loader = loader
	p.mu.Unlock()

	outdated, err := p.isOutdated(cfg)
	if err != nil {
		return apperrors.NewPreconditionError(p.name, fmt.Sprintf("invalid-pipeline-shape: %v", err))
	}
	if !cfg.ForceHarvest && !outdated {
		p.setStatus(StatusDone)
		p.setHealth(HealthOK)
		if err := p.cache.SkipAllDocuments(); err != nil {
			logging.Warn("etl", "pipeline %s: skip documents after no-changes precondition: %v", p.name, err)
		}
		return apperrors.NewPreconditionError(p.name, "skipped-no-changes")
	}

	p.setStatus(StatusHarvesting)
	return nil
}

func (p *Pipeline) isOutdated(cfg Config) (bool, error) {
	if err := p.initCache(cfg); err != nil {
		return false, err
	}
	return p.cache.IsOutdated()
}

func (p *Pipeline) initCache(cfg Config) error {
	rng := hcache.Range{Start: cfg.StartIndex, EndIndex: cfg.EndIndex}
	return p.cache.Init(p.Hash(), rng)
}

// Harvest drives the pipeline's extract→transform→load loop. It subscribes
// to AbortingStarted for the duration of the call and always unsubscribes
// on exit.
func (p *Pipeline) Harvest(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	sub := p.bus.AddListener(events.AbortingStarted, func(eventbus.Event) {
		p.AbortHarvest()
	})
	defer p.bus.RemoveListener(sub)

	logging.Info("etl", "pipeline %s: harvest start", p.name)

	err := p.harvestInternal(ctx)

	cancelled := ctx.Err() != nil
	switch {
	case err == nil && !cancelled:
		p.setHealth(HealthOK)
		p.setStatus(StatusDone)
	case cancelled:
		p.setHealth(HealthHarvestFailed)
		p.setStatus(StatusDone)
		logging.Warn("etl", "pipeline %s: harvest aborted", p.name)
	default:
		p.setHealth(HealthHarvestFailed)
		p.setStatus(StatusDone)
		logging.Error("etl", err, "pipeline %s: harvest failed", p.name)
	}

	return err
}

// AbortHarvest requests cooperative cancellation: the element loop observes
// this at its next checkpoint and exits, performing at most one additional
// load first (spec.md §8 invariant 8).
func (p *Pipeline) AbortHarvest() {
	p.setStatus(StatusAborting)
	p.mu.RLock()
	cancel := p.cancel
	p.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

func (p *Pipeline) harvestInternal(ctx context.Context) (err error) {
	defer func() {
		aborted := ctx.Err() != nil
		succeeded := err == nil && !aborted
		if applyErr := p.cache.ApplyChanges(succeeded, aborted); applyErr != nil {
			logging.Error("etl", applyErr, "pipeline %s: apply cache changes", p.name)
			if err == nil {
				err = &apperrors.DiskError{Op: "applyChanges", Err: applyErr}
			}
		}
	}()

	it, extractErr := p.extractor.Extract(ctx)
	if extractErr != nil {
		return &apperrors.TransientSourceError{Pipeline: p.name, Err: extractErr}
	}

	for it.HasNext() {
		if ctx.Err() != nil {
			return nil
		}

		item, nextErr := it.Next()
		if nextErr != nil {
			return &apperrors.TransientSourceError{Pipeline: p.name, Err: nextErr}
		}

		output, transformErr := p.transformer.Transform(item)
		if transformErr != nil {
			return &apperrors.TransientSourceError{Pipeline: p.name, Err: transformErr}
		}
		if output == nil {
			continue
		}

		isLast := !it.HasNext()
		if loadErr := p.loader.Load(output, isLast); loadErr != nil {
			return &apperrors.LoaderError{Pipeline: p.name, Err: loadErr}
		}

		p.bus.SendEvent(eventbus.Event{Kind: events.DocumentsHarvested, Payload: events.DocumentsHarvestedPayload{Count: 1}})
	}

	return nil
}
