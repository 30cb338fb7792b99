package statemachine

import (
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// savingState is entered once a save collaborator emits SaveStarted.
func savingState() *state {
	return &state{
		name:         Saving,
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
				m.listenOn(events.SaveFinished, func(eventbus.Event) { m.transitionTo(idleState()) }),
			}
		},
	}
}
