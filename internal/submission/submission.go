// Package submission implements the save and submit operations the REST
// surface's /download and /submit routes trigger (spec.md §6): packaging a
// pipeline's stable Harvester Cache for download, and pushing it to the
// configured submission endpoint in bounded batches.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"harvester/internal/config"
	"harvester/internal/etl"
	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/internal/statemachine"
	"harvester/pkg/logging"
)

// Registry is the subset of *etl.Registry this package needs, kept as an
// interface so tests can supply a fake without a real cache on disk.
type Registry interface {
	Pipelines() []*etl.Pipeline
}

// Save writes every pipeline's stable document set to
// <exportDir>/<pipelineName>.ndjson, one JSON body per line, so an operator
// can retrieve a harvest's output via GET /download.
func Save(registry Registry, exportDir string) error {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("submission: create export dir %s: %w", exportDir, err)
	}

	for _, p := range registry.Pipelines() {
		if err := saveOne(p, exportDir); err != nil {
			return err
		}
	}
	return nil
}

func saveOne(p *etl.Pipeline, exportDir string) error {
	path := filepath.Join(exportDir, p.Name()+".ndjson")
	tmp, err := os.CreateTemp(exportDir, ".tmp-"+p.Name()+"-*")
	if err != nil {
		return fmt.Errorf("submission: create temp export for %s: %w", p.Name(), err)
	}
	tmpPath := tmp.Name()

	var writeErr error
	iterErr := p.Cache().ForEachDocument(func(_ string, body []byte) bool {
		if _, err := tmp.Write(body); err != nil {
			writeErr = err
			return false
		}
		if _, err := tmp.Write([]byte("\n")); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if iterErr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("submission: export %s: %w", p.Name(), iterErr)
	}
	if writeErr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("submission: write export for %s: %w", p.Name(), writeErr)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("submission: close export for %s: %w", p.Name(), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("submission: finalize export for %s: %w", p.Name(), err)
	}
	return nil
}

const defaultBatchSize = 100

// Submit pushes every pipeline's stable documents to its configured
// submissionUrl in batches of submissionSize (default 100 when unset),
// authenticating with HTTP Basic Auth when submissionUserName is set.
// Pipelines without a submissionUrl are skipped.
func Submit(ctx context.Context, registry Registry, pipelines map[string]config.PipelineConfig) error {
	client := &http.Client{}

	for _, p := range registry.Pipelines() {
		cfg, ok := pipelines[p.Name()]
		if !ok || cfg.SubmissionURL == "" {
			continue
		}
		if err := submitOne(ctx, client, p, cfg); err != nil {
			return err
		}
	}
	return nil
}

func submitOne(ctx context.Context, client *http.Client, p *etl.Pipeline, cfg config.PipelineConfig) error {
	batchSize := cfg.SubmissionSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var batch [][]byte
	var iterErr error

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := postBatch(ctx, client, cfg, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err := p.Cache().ForEachDocument(func(_ string, body []byte) bool {
		batch = append(batch, append([]byte(nil), body...))
		if len(batch) < batchSize {
			return true
		}
		if err := flush(); err != nil {
			iterErr = err
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("submission: iterate %s cache: %w", p.Name(), err)
	}
	if iterErr != nil {
		return iterErr
	}
	return flush()
}

// NewSaveDriver wraps Save as a statemachine.Driver: starting it runs the
// export in the background and publishes SaveStarted/SaveFinished around
// it, the way the ETL Registry brackets a harvest with HarvestStarted and
// HarvestFinished.
func NewSaveDriver(bus *eventbus.Bus, registry Registry, exportDir string) statemachine.Driver {
	return statemachine.Driver{
		Start: func(ctx context.Context) {
			bus.SendEvent(eventbus.Event{Kind: events.SaveStarted})

			var aborted atomic.Bool
			abortSub := bus.AddListener(events.AbortingStarted, func(eventbus.Event) { aborted.Store(true) })

			go func() {
				defer bus.RemoveListener(abortSub)

				err := Save(registry, exportDir)
				if err != nil {
					logging.Error("submission", err, "save failed")
				}
				bus.SendEvent(eventbus.Event{
					Kind:    events.SaveFinished,
					Payload: events.FinishedPayload{Success: err == nil},
				})
				if aborted.Load() {
					bus.SendEvent(eventbus.Event{Kind: events.AbortingFinished})
				}
			}()
		},
	}
}

// NewSubmitDriver wraps Submit as a statemachine.Driver, bracketing it with
// SubmissionStarted/SubmissionFinished. pipelines is called fresh on every
// start so a submission always uses the current configuration snapshot.
func NewSubmitDriver(bus *eventbus.Bus, registry Registry, pipelines func() map[string]config.PipelineConfig) statemachine.Driver {
	return statemachine.Driver{
		Start: func(ctx context.Context) {
			bus.SendEvent(eventbus.Event{Kind: events.SubmissionStarted})

			var aborted atomic.Bool
			abortSub := bus.AddListener(events.AbortingStarted, func(eventbus.Event) { aborted.Store(true) })

			go func() {
				defer bus.RemoveListener(abortSub)

				err := Submit(ctx, registry, pipelines())
				if err != nil {
					logging.Error("submission", err, "submit failed")
				}
				bus.SendEvent(eventbus.Event{
					Kind:    events.SubmissionFinished,
					Payload: events.FinishedPayload{Success: err == nil},
				})
				if aborted.Load() {
					bus.SendEvent(eventbus.Event{Kind: events.AbortingFinished})
				}
			}()
		},
	}
}

func postBatch(ctx context.Context, client *http.Client, cfg config.PipelineConfig, batch [][]byte) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("submission: encode batch for %s: %w", cfg.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.SubmissionURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("submission: build request for %s: %w", cfg.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.SubmissionUserName != "" {
		req.SetBasicAuth(cfg.SubmissionUserName, cfg.SubmissionPassword)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submission: submit batch for %s: %w", cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("submission: %s rejected batch with status %d", cfg.Name, resp.StatusCode)
	}
	return nil
}
