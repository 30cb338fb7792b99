package statemachine

import (
	"context"
	"sync"
	"testing"
	"time"

	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/pkg/logging"
)

func init() {
	logging.Discard()
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func newRunningMachine(t *testing.T, harvest, save, submit Driver) (*Machine, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	m := New(bus, harvest, save, submit, nil, nil)
	m.Start()
	bus.SendEvent(eventbus.Event{Kind: events.ServiceInitialized, Payload: events.ServiceInitializedPayload{Success: true}})
	waitUntil(t, func() bool { return m.Current() == Idle })
	return m, bus
}

func TestInitializationBusiesAllButResetThenMovesToIdleOnSuccess(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	m := New(bus, Driver{Start: func(context.Context) {}}, Driver{}, Driver{}, nil, nil)
	m.Start()

	if got := m.StartHarvest(); got.Outcome != Busy {
		t.Fatalf("expected busy, got %s", got.Outcome)
	}

	bus.SendEvent(eventbus.Event{Kind: events.ServiceInitialized, Payload: events.ServiceInitializedPayload{Success: true}})
	waitUntil(t, func() bool { return m.Current() == Idle })
}

func TestInitializationFailureMovesToError(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	m := New(bus, Driver{}, Driver{}, Driver{}, nil, nil)
	m.Start()

	bus.SendEvent(eventbus.Event{Kind: events.ServiceInitialized, Payload: events.ServiceInitializedPayload{Success: false}})
	waitUntil(t, func() bool { return m.Current() == Error })

	if got := m.StartHarvest(); got.Outcome != Fubar {
		t.Fatalf("expected fubar, got %s", got.Outcome)
	}
	if got := m.Reset(); got.Outcome != Accepted {
		t.Fatalf("expected reset to be accepted, got %s", got.Outcome)
	}
	waitUntil(t, func() bool { return m.Current() == Idle })
}

func TestIdleStartHarvestTransitionsOnHarvestStartedEvent(t *testing.T) {
	var started int32
	var mu sync.Mutex
	harvest := Driver{Start: func(ctx context.Context) {
		mu.Lock()
		started++
		mu.Unlock()
	}}
	m, bus := newRunningMachine(t, harvest, Driver{}, Driver{})

	resp := m.StartHarvest()
	if resp.Outcome != Accepted {
		t.Fatalf("expected accepted, got %s", resp.Outcome)
	}

	bus.SendEvent(eventbus.Event{Kind: events.HarvestStarted, Payload: events.HarvestStartedPayload{}})
	waitUntil(t, func() bool { return m.Current() == Harvesting })

	if got := m.StartHarvest(); got.Outcome != Busy {
		t.Fatalf("expected busy while harvesting, got %s", got.Outcome)
	}
}

func TestHarvestingAbortTransitionsThroughAborting(t *testing.T) {
	m, bus := newRunningMachine(t, Driver{Start: func(context.Context) {}}, Driver{}, Driver{})

	bus.SendEvent(eventbus.Event{Kind: events.HarvestStarted, Payload: events.HarvestStartedPayload{}})
	waitUntil(t, func() bool { return m.Current() == Harvesting })

	resp := m.Abort()
	if resp.Outcome != Accepted {
		t.Fatalf("expected accepted, got %s", resp.Outcome)
	}
	waitUntil(t, func() bool { return m.Current() == Aborting })

	bus.SendEvent(eventbus.Event{Kind: events.AbortingFinished, Payload: events.FinishedPayload{Success: true}})
	waitUntil(t, func() bool { return m.Current() == Idle })
}

func TestHarvestFinishedReturnsToIdle(t *testing.T) {
	m, bus := newRunningMachine(t, Driver{Start: func(context.Context) {}}, Driver{}, Driver{})

	bus.SendEvent(eventbus.Event{Kind: events.HarvestStarted, Payload: events.HarvestStartedPayload{}})
	waitUntil(t, func() bool { return m.Current() == Harvesting })

	bus.SendEvent(eventbus.Event{Kind: events.HarvestFinished, Payload: events.HarvestFinishedPayload{Success: false}})
	waitUntil(t, func() bool { return m.Current() == Idle })
}

func TestResetDuringAbortingWarnsAndForcesIdle(t *testing.T) {
	m, bus := newRunningMachine(t, Driver{Start: func(context.Context) {}}, Driver{}, Driver{})

	bus.SendEvent(eventbus.Event{Kind: events.HarvestStarted, Payload: events.HarvestStartedPayload{}})
	waitUntil(t, func() bool { return m.Current() == Harvesting })
	m.Abort()
	waitUntil(t, func() bool { return m.Current() == Aborting })

	resp := m.Reset()
	if resp.Outcome != AcceptedWithWarning {
		t.Fatalf("expected accepted-with-warning, got %s", resp.Outcome)
	}
	if m.Current() != Idle {
		t.Fatalf("expected immediate transition to idle, got %s", m.Current())
	}
}

func TestIdleIsOutdatedDelegatesToRegistry(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	m := New(bus, Driver{Start: func(context.Context) {}}, Driver{}, Driver{}, func() (bool, error) { return true, nil }, nil)
	m.Start()
	bus.SendEvent(eventbus.Event{Kind: events.ServiceInitialized, Payload: events.ServiceInitializedPayload{Success: true}})
	waitUntil(t, func() bool { return m.Current() == Idle })

	resp := m.IsOutdated()
	if resp.Data != true {
		t.Fatalf("expected outdated=true, got %v", resp.Data)
	}
}

func TestSaveAndSubmitFollowTheSamePatternAsHarvest(t *testing.T) {
	m, bus := newRunningMachine(t, Driver{}, Driver{Start: func(context.Context) {}}, Driver{Start: func(context.Context) {}})

	m.Save()
	bus.SendEvent(eventbus.Event{Kind: events.SaveStarted})
	waitUntil(t, func() bool { return m.Current() == Saving })
	bus.SendEvent(eventbus.Event{Kind: events.SaveFinished, Payload: events.FinishedPayload{Success: true}})
	waitUntil(t, func() bool { return m.Current() == Idle })

	m.Submit()
	bus.SendEvent(eventbus.Event{Kind: events.SubmissionStarted})
	waitUntil(t, func() bool { return m.Current() == Submitting })
	bus.SendEvent(eventbus.Event{Kind: events.SubmissionFinished, Payload: events.FinishedPayload{Success: true}})
	waitUntil(t, func() bool { return m.Current() == Idle })
}
