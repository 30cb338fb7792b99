package statemachine

import (
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// abortingState is entered while a harvest, save, or submit is unwinding
// after an abort request. Reset is allowed here but warns that the
// in-flight operation may still be finishing (spec.md §4.5).
func abortingState() *state {
	return &state{
		name:         Aborting,
		startHarvest: busyResponse,
		abort:        busyResponse,
		save:         busyResponse,
		submit:       busyResponse,
		isOutdated:   busyResponse,
		reset: func(m *Machine) Response {
			m.mu.Lock()
			m.pendingReset = true
			m.mu.Unlock()
			m.transitionTo(idleState())
			return Response{Outcome: AcceptedWithWarning, Message: "reset accepted while an abort was still in progress"}
		},
		listen: func(m *Machine) []*eventbus.Subscription {
			return []*eventbus.Subscription{
				m.listenOn(events.AbortingFinished, func(eventbus.Event) { m.transitionTo(idleState()) }),
			}
		},
	}
}
