package statemachine

// errorState is entered only when initialization reports failure. Every
// operation but reset is rejected as fubar; reset is the sole recovery
// path back to idle.
func errorState() *state {
	fubarResponse := func(m *Machine) Response { return Response{Outcome: Fubar, Message: "service failed to initialize"} }
	return &state{
		name:         Error,
		startHarvest: fubarResponse,
		abort:        fubarResponse,
		save:         fubarResponse,
		submit:       fubarResponse,
		isOutdated:   fubarResponse,
		reset: func(m *Machine) Response {
			m.mu.Lock()
			m.pendingReset = true
			m.mu.Unlock()
			m.transitionTo(idleState())
			return Response{Outcome: Accepted, Message: "recovered from error"}
		},
	}
}
