package statemachine

import (
	"harvester/internal/eventbus"
	"harvester/internal/events"
)

// initializationState holds the machine before the Main Context has
// finished constructing its collaborators. Every operation but reset is
// busy; reset is accepted but deferred until initialization finishes.
func initializationState() *state {
	return &state{
		name:         Initialization,
		startHarvest: func(m *Machine) Response { return Response{Outcome: Busy, Message: "still initializing"} },
		abort:        func(m *Machine) Response { return Response{Outcome: Busy, Message: "still initializing"} },
		save:         func(m *Machine) Response { return Response{Outcome: Busy, Message: "still initializing"} },
		submit:       func(m *Machine) Response { return Response{Outcome: Busy, Message: "still initializing"} },
		isOutdated:   func(m *Machine) Response { return Response{Outcome: Busy, Message: "still initializing"} },
		reset: func(m *Machine) Response {
			m.mu.Lock()
			m.pendingReset = true
			m.mu.Unlock()
			return Response{Outcome: AcceptedAfterInit, Message: "reset queued until initialization completes"}
		},
		listen: func(m *Machine) []*eventbus.Subscription {
			sub := m.listenOn(events.ServiceInitialized, func(e eventbus.Event) {
				if payloadSucceeded(e) {
					m.transitionTo(idleState())
					return
				}
				m.transitionTo(errorState())
			})
			return []*eventbus.Subscription{sub}
		},
	}
}
