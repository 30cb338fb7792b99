package statemachine

import (
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

func busyResponse(m *Machine) Response { return Response{Outcome: Busy, Message: "another operation is in flight"} }

// harvestingState is entered once the ETL Registry reports at least one
// runnable pipeline and emits HarvestStarted.
func harvestingState() *state {
	return &state{
		name:         Harvesting,
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
				m.listenOn(events.HarvestFinished, func(eventbus.Event) { m.transitionTo(idleState()) }),
			}
		},
	}
}
