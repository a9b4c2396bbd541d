package core

import "fmt"

// SignalKind identifies a phase boundary in the host's startup sequence.
type SignalKind int

const (
	// EnvironmentReady means the host has resolved its configuration,
	// including the port the real service will use.
	EnvironmentReady SignalKind = iota + 1
	// ServiceReady means the host finished initializing and is about to
	// bind the port itself.
	ServiceReady
)

// String returns the name of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case EnvironmentReady:
		return "EnvironmentReady"
	case ServiceReady:
		return "ServiceReady"
	default:
		return fmt.Sprintf("SignalKind(%d)", int(k))
	}
}

// Signal is a lifecycle notification from the host. Port is only meaningful
// for EnvironmentReady; zero means "use the configured port".
type Signal struct {
	Kind SignalKind
	Port int
}

// String implements fmt.Stringer.
func (s Signal) String() string {
	if s.Kind == EnvironmentReady {
		return fmt.Sprintf("%s(port=%d)", s.Kind, s.Port)
	}
	return s.Kind.String()
}
