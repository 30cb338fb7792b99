package statemachine

import (
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// submittingState is entered once a submit collaborator emits
// SubmissionStarted.
func submittingState() *state {
	return &state{
		name:         Submitting,
		startHarvest: busyResponse,
		save:         busyResponse,
		submit:       busyResponse,
		reset:        busyResponse,
		isOutdated:   busyResponse,
		abort: func(m *Machine) Response {
			m.bus.SendEvent(eventbus.Event{Kind: events.AbortingStarted})
			return Response{Outcome: Accepted, Message: "abort requested"}
		},
		listen: func(m *Machine) []*eventbus.Subscription {
			return []*eventbus.Subscription{
				m.listenOn(events.AbortingStarted, func(eventbus.Event) { m.transitionTo(abortingState()) }),
				m.listenOn(events.SubmissionFinished, func(eventbus.Event) { m.transitionTo(idleState()) }),
			}
		},
	}
}
