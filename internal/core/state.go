package core

import "fmt"

// State is the lifecycle state of the placeholder, owned by the Coordinator.
type State uint32

const (
	// StateIdle is the initial state: nothing is bound.
	StateIdle State = iota
	// StateListening means the placeholder holds the port.
	StateListening
	// StateStopped is terminal. The placeholder either released the port,
	// failed to bind it, or was never needed.
	StateStopped
)

// IsValid reports whether s is a recognized State value.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateListening, StateStopped:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateStopped
}

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListening:
		return "Listening"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}
