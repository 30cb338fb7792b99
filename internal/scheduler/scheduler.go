// Package scheduler emits StartHarvestEvent on a cron schedule, so a
// harvester can be set to harvest periodically without an external caller
// hitting POST /. It has no opinion about what happens after the event is
// published — internal/app wires a listener that calls the state machine.
package scheduler

import (
	"github.com/robfig/cron/v3"

	"harvester/internal/eventbus"
	"harvester/internal/events"
	"harvester/pkg/logging"
)

// Scheduler wraps a cron.Cron, publishing events.StartHarvestEvent on each
// configured schedule.
type Scheduler struct {
	cron *cron.Cron
	bus  *eventbus.Bus
}

// New constructs a Scheduler that will publish onto bus. It does not start
// running until Start is called.
func New(bus *eventbus.Bus) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		bus:  bus,
	}
}

// AddSchedule registers a cron schedule that triggers a harvest: a standard
// 5-field expression or a descriptor such as "@every 1h". It returns an error if expr is not a valid cron expression.
func (s *Scheduler) AddSchedule(expr string) error {
	_, err := s.cron.AddFunc(expr, func() {
		logging.Info("scheduler", "cron schedule fired, publishing StartHarvestEvent")
		s.bus.SendEvent(eventbus.Event{Kind: events.StartHarvestEvent})
	})
	return err
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for any in-flight job to complete.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
