package build

import "fmt"

// State is a lifecycle state of a pipeline run or deploy stage.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"

	// Deploy-only states. A deploy stage waits in Gated until every
	// matrix run is terminal, then moves to Skipped or Running.
	StateGated     State = "gated"
	StateSkipped   State = "skipped"
	StatePublished State = "published"
)

var allowedTransitions = map[State][]State{
	StatePending: {StateRunning, StateGated},
	StateRunning: {StateSucceeded, StateFailed, StatePublished},
	StateGated:   {StateSkipped, StateRunning},
}

// IsTerminal reports whether the state is final.
func IsTerminal(s State) bool {
	switch s {
	case StateSucceeded, StateFailed, StateSkipped, StatePublished:
		return true
	default:
		return false
	}
}

// Transition validates and returns the requested state change.
func Transition(from, to State) (State, error) {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("disallowed transition %s -> %s", from, to)
}
