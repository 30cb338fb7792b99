package statemachine

import (
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// idleState is the machine's resting state: every long-running operation
// may be accepted from here, and only from here.
func idleState() *state {
	return &state{
		name: Idle,
		startHarvest: func(m *Machine) Response {
			if m.harvest.Start == nil {
				return Response{Outcome: BadRequest, Message: "no harvest driver configured"}
			}
			m.harvest.Start(m.ctx)
			return Response{Outcome: Accepted, Message: "harvest starting"}
		},
		abort: func(m *Machine) Response {
			return Response{Outcome: BadRequest, Message: "nothing in flight to abort"}
		},
		save: func(m *Machine) Response {
			if m.save.Start == nil {
				return Response{Outcome: BadRequest, Message: "no save driver configured"}
			}
			m.save.Start(m.ctx)
			return Response{Outcome: Accepted, Message: "save starting"}
		},
		submit: func(m *Machine) Response {
			if m.submit.Start == nil {
				return Response{Outcome: BadRequest, Message: "no submit driver configured"}
			}
			m.submit.Start(m.ctx)
			return Response{Outcome: Accepted, Message: "submission starting"}
		},
		reset: func(m *Machine) Response {
			m.runReset()
			return Response{Outcome: Accepted, Message: "reset complete"}
		},
		isOutdated: func(m *Machine) Response {
			if m.isOutdatedFn == nil {
				return Response{Outcome: Accepted, Data: false}
			}
			outdated, err := m.isOutdatedFn()
			if err != nil {
				return Response{Outcome: Accepted, Message: err.Error(), Data: false}
			}
			return Response{Outcome: Accepted, Data: outdated}
		},
		listen: func(m *Machine) []*eventbus.Subscription {
			return []*eventbus.Subscription{
				m.listenOn(events.HarvestStarted, func(eventbus.Event) { m.transitionTo(harvestingState()) }),
				m.listenOn(events.SaveStarted, func(eventbus.Event) { m.transitionTo(savingState()) }),
				m.listenOn(events.SubmissionStarted, func(eventbus.Event) { m.transitionTo(submittingState()) }),
			}
		},
	}
}
