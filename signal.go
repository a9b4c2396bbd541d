package portshim

import "github.com/giantswarm/portshim/internal/core"

// State is the lifecycle state of a Shim:
//
//	StateIdle --EnvironmentReady, bind ok--> StateListening --ServiceReady--> StateStopped
//	StateIdle --EnvironmentReady, bind failed--> StateStopped
//	StateIdle --ServiceReady--> StateStopped
//
// StateStopped is terminal.
type State = core.State

const (
	StateIdle      = core.StateIdle
	StateListening = core.StateListening
	StateStopped   = core.StateStopped
)

// SignalKind identifies a host lifecycle event.
type SignalKind = core.SignalKind

const (
	// EnvironmentReady is emitted once the host knows the port its real
	// service will bind.
	EnvironmentReady = core.EnvironmentReady

	// ServiceReady is emitted right before the real service binds.
	ServiceReady = core.ServiceReady
)

// Signal is a host lifecycle event. Port is read for EnvironmentReady only;
// zero falls back to Config.Port.
type Signal = core.Signal

// EnvironmentReadySignal returns an EnvironmentReady signal for port.
func EnvironmentReadySignal(port int) Signal {
	return Signal{Kind: EnvironmentReady, Port: port}
}

// ServiceReadySignal returns a ServiceReady signal.
func ServiceReadySignal() Signal {
	return Signal{Kind: ServiceReady}
}
