// Package statemachine implements the single-instance finite-state machine
// that gates every externally triggered control operation (spec.md §4.5):
// initialization, idle, harvesting, saving, submitting, aborting, error.
// One file per state, grounded on the teacher's callback-registration
// lifecycle in internal/services/interfaces.go (StateChangeCallback),
// generalized here to event-bus-driven enter/leave registration.
package statemachine

import (
	"context"
	"sync"

	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/pkg/logging"
)

func payloadSucceeded(e eventbus.Event) bool {
	switch p := e.Payload.(type) {
	case events.HarvestFinishedPayload:
		return p.Success
	case events.FinishedPayload:
		return p.Success
	case events.ServiceInitializedPayload:
		return p.Success
	default:
		return false
	}
}

// Name identifies one of the machine's states.
type Name string

const (
	Initialization Name = "initialization"
	Idle           Name = "idle"
	Harvesting     Name = "harvesting"
	Saving         Name = "saving"
	Submitting     Name = "submitting"
	Aborting       Name = "aborting"
	Error          Name = "error"
)

// Outcome classifies how a state responded to a requested operation; the
// Control Facade maps this directly onto an HTTP status (spec.md §4.9)
// without any business logic of its own.
type Outcome string

const (
	Accepted           Outcome = "accepted"
	AcceptedWithWarning Outcome = "accepted-with-warning"
	AcceptedAfterInit  Outcome = "accepted-after-init"
	BadRequest         Outcome = "bad-request"
	Busy               Outcome = "busy"
	Fubar              Outcome = "fubar"
)

// Response is what a state's operation method returns.
type Response struct {
	Outcome Outcome
	Message string
	// Data carries an operation-specific result, e.g. the bool from
	// isOutdated. Nil unless the operation produces one.
	Data interface{}
}

// Driver starts a long-running operation (harvest, save, submit) in the
// background; the caller gets a Response immediately and learns the
// outcome later via the corresponding *Started/*Finished bus events.
type Driver struct {
	Start func(ctx context.Context)
}

// IsOutdatedFunc answers the idle state's isOutdated delegate-to-registry
// operation.
type IsOutdatedFunc func() (bool, error)

// ResetFunc performs whatever state-clearing work "reset" implies for the
// host application; it is optional and called synchronously whenever a
// reset lands the machine in idle.
type ResetFunc func() error

// state bundles one FSM state's six trigger methods with the listeners it
// registers on entry and removes on exit.
type state struct {
	name        Name
	startHarvest func(m *Machine) Response
	abort        func(m *Machine) Response
	save         func(m *Machine) Response
	submit       func(m *Machine) Response
	reset        func(m *Machine) Response
	isOutdated   func(m *Machine) Response
	listen       func(m *Machine) []*eventbus.Subscription
}

// Machine is the process's single state-machine instance; all control
// transitions funnel through it (spec.md §5 Shared-resource policy).
type Machine struct {
	bus          *eventbus.Bus
	harvest      Driver
	save         Driver
	submit       Driver
	isOutdatedFn IsOutdatedFunc
	resetFn      ResetFunc

	mu           sync.Mutex
	current      *state
	subs         []*eventbus.Subscription
	pendingReset bool
	ctx          context.Context
}

// New constructs the machine in the initialization state. Start must be
// called once before any control operation is meaningfully accepted.
func New(bus *eventbus.Bus, harvest, save, submit Driver, isOutdatedFn IsOutdatedFunc, resetFn ResetFunc) *Machine {
	m := &Machine{
		bus:          bus,
		harvest:      harvest,
		save:         save,
		submit:       submit,
		isOutdatedFn: isOutdatedFn,
		resetFn:      resetFn,
		ctx:          context.Background(),
	}
	m.current = initializationState()
	return m
}

// Start enters the initialization state, registering its listeners.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterLocked(m.current)
}

// Stop removes every listener the current state installed.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked()
}

// Current returns the machine's current state name.
func (m *Machine) Current() Name {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.name
}

func (m *Machine) StartHarvest() Response { return m.dispatch(func(s *state) func(*Machine) Response { return s.startHarvest }) }
func (m *Machine) Abort() Response        { return m.dispatch(func(s *state) func(*Machine) Response { return s.abort }) }
func (m *Machine) Save() Response         { return m.dispatch(func(s *state) func(*Machine) Response { return s.save }) }
func (m *Machine) Submit() Response       { return m.dispatch(func(s *state) func(*Machine) Response { return s.submit }) }
func (m *Machine) Reset() Response        { return m.dispatch(func(s *state) func(*Machine) Response { return s.reset }) }
func (m *Machine) IsOutdated() Response   { return m.dispatch(func(s *state) func(*Machine) Response { return s.isOutdated }) }

func (m *Machine) dispatch(pick func(*state) func(*Machine) Response) Response {
	m.mu.Lock()
	trigger := pick(m.current)
	m.mu.Unlock()
	return trigger(m)
}

// transitionTo leaves the current state and enters to. Called from event
// listeners, so it takes the lock itself rather than assuming the caller
// holds it.
func (m *Machine) transitionTo(to *state) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked()
	m.current = to
	m.enterLocked(to)

	if to.name == Idle && m.pendingReset {
		m.pendingReset = false
		m.runReset()
	}
}

func (m *Machine) leaveLocked() {
	for _, sub := range m.subs {
		m.bus.RemoveListener(sub)
	}
	m.subs = nil
}

func (m *Machine) enterLocked(s *state) {
	logging.Info("statemachine", "entering state %s", s.name)
	if s.listen != nil {
		m.subs = s.listen(m)
	}
}

func (m *Machine) runReset() {
	if m.resetFn == nil {
		return
	}
	if err := m.resetFn(); err != nil {
		logging.Error("statemachine", err, "reset callback failed")
	}
}

func (m *Machine) listenOn(kind eventbus.Kind, handler func(eventbus.Event)) *eventbus.Subscription {
	return m.bus.AddListener(kind, handler)
}
