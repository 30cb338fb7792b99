// Package timekeeper implements the Harvest Time Keeper (spec.md §4.8):
// three independent process-time measures (harvest, save, submit), each a
// small state machine, persisted to a single JSON cache file.
package timekeeper

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"harvester/internal/diskutil"
	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/pkg/logging"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Status is a ProcessTimeMeasure's state.
type Status string

const (
	NotStarted Status = "not-started"
	Started    Status = "started"
	Finished   Status = "finished"
	Failed     Status = "failed"
	Aborted    Status = "aborted"
)

// Measure is one process-time state machine: harvest, save, or submit.
type Measure struct {
	Status    Status     `json:"status"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func (m *Measure) start(now time.Time) {
	m.Status = Started
	m.StartedAt = &now
	m.EndedAt = nil
}

func (m *Measure) finish(now time.Time, success bool) {
	if success {
		m.Status = Finished
	} else {
		m.Status = Failed
	}
	m.EndedAt = &now
}

func (m *Measure) abort(now time.Time) {
	m.Status = Aborted
	m.EndedAt = &now
}

// snapshot is the on-disk shape of timekeeper.json.
type snapshot struct {
	Harvest Measure `json:"harvest"`
	Save    Measure `json:"save"`
	Submit  Measure `json:"submit"`
}

// sanitize rewrites any in-flight "started" status to "not-started": a
// process that was running at shutdown is not recoverable.
func (s *snapshot) sanitize() {
	for _, m := range []*Measure{&s.Harvest, &s.Save, &s.Submit} {
		if m.Status == Started {
			*m = Measure{Status: NotStarted}
		}
	}
}

// Keeper owns the three measures and their persistence. It subscribes to
// the harvest/save/submit start and finished events, and to a common
// AbortingStarted.
type Keeper struct {
	mu       sync.Mutex
	path     string
	snapshot snapshot

	bus  *eventbus.Bus
	subs []*eventbus.Subscription
}

// New constructs a Keeper persisting to <stateDir>/timekeeper.json. Load
// must be called before Start to pick up any prior state.
func New(bus *eventbus.Bus, stateDir string) *Keeper {
	return &Keeper{
		path: filepath.Join(stateDir, "timekeeper.json"),
		bus:  bus,
	}
}

// Load reads the persisted measures, if any, applying the started→
// not-started rewrite on every load.
func (k *Keeper) Load() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := os.ReadFile(k.path)
	if err != nil {
		if os.IsNotExist(err) {
			k.snapshot = snapshot{}
			return nil
		}
		return fmt.Errorf("timekeeper: read %s: %w", k.path, err)
	}

	var s snapshot
	if err := jsonAPI.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timekeeper: decode %s: %w", k.path, err)
	}
	s.sanitize()
	k.snapshot = s
	return nil
}

// Start registers the keeper's event listeners. Entering is paired with
// Stop, which removes them.
func (k *Keeper) Start() {
	k.subs = append(k.subs,
		k.bus.AddListener(events.HarvestStarted, func(eventbus.Event) { k.onStart(&k.snapshot.Harvest) }),
		k.bus.AddListener(events.HarvestFinished, func(e eventbus.Event) {
			k.onFinished(&k.snapshot.Harvest, payloadSuccess(e))
		}),
		k.bus.AddListener(events.SaveStarted, func(eventbus.Event) { k.onStart(&k.snapshot.Save) }),
		k.bus.AddListener(events.SaveFinished, func(e eventbus.Event) {
			k.onFinished(&k.snapshot.Save, payloadSuccess(e))
		}),
		k.bus.AddListener(events.SubmissionStarted, func(eventbus.Event) { k.onStart(&k.snapshot.Submit) }),
		k.bus.AddListener(events.SubmissionFinished, func(e eventbus.Event) {
			k.onFinished(&k.snapshot.Submit, payloadSuccess(e))
		}),
		k.bus.AddListener(events.AbortingStarted, func(eventbus.Event) { k.onAbort() }),
	)
}

// Stop unregisters all of the keeper's event listeners.
func (k *Keeper) Stop() {
	for _, sub := range k.subs {
		k.bus.RemoveListener(sub)
	}
	k.subs = nil
}

func payloadSuccess(e eventbus.Event) bool {
	switch p := e.Payload.(type) {
	case events.HarvestFinishedPayload:
		return p.Success
	case events.FinishedPayload:
		return p.Success
	default:
		return false
	}
}

func (k *Keeper) onStart(m *Measure) {
	k.mu.Lock()
	m.start(time.Now())
	k.mu.Unlock()
	k.persist()
}

func (k *Keeper) onFinished(m *Measure, success bool) {
	k.mu.Lock()
	m.finish(time.Now(), success)
	k.mu.Unlock()
	k.persist()
}

// onAbort moves any measure that is currently "started" to "aborted". A
// measure that was never started is unaffected.
func (k *Keeper) onAbort() {
	k.mu.Lock()
	now := time.Now()
	for _, m := range []*Measure{&k.snapshot.Harvest, &k.snapshot.Save, &k.snapshot.Submit} {
		if m.Status == Started {
			m.abort(now)
		}
	}
	k.mu.Unlock()
	k.persist()
}

// IsHarvestIncomplete reports whether the harvest measure ended in failed
// or aborted status.
func (k *Keeper) IsHarvestIncomplete() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.snapshot.Harvest.Status == Failed || k.snapshot.Harvest.Status == Aborted
}

// Measures returns a copy of the current harvest, save, and submit
// measures.
func (k *Keeper) Measures() (harvest, save, submit Measure) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.snapshot.Harvest, k.snapshot.Save, k.snapshot.Submit
}

// persist serializes the current snapshot and atomically replaces the
// on-disk file. Persistence failures are logged; readers of the prior file
// see either the pre- or post-transition snapshot, never a partial one.
func (k *Keeper) persist() {
	k.mu.Lock()
	data, err := jsonAPI.MarshalIndent(&k.snapshot, "", "  ")
	k.mu.Unlock()
	if err != nil {
		logging.Error("timekeeper", err, "failed to encode snapshot")
		return
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0o755); err != nil {
		logging.Error("timekeeper", err, "failed to create state directory")
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(k.path), ".tmp-timekeeper-*")
	if err != nil {
		logging.Error("timekeeper", err, "failed to create temp file")
		return
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		logging.Error("timekeeper", err, "failed to write temp file")
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		logging.Error("timekeeper", err, "failed to close temp file")
		return
	}

	if err := diskutil.Replace(k.path, tmpPath); err != nil {
		logging.Error("timekeeper", err, "failed to persist snapshot")
	}
}
