package portshim

import (
	"github.com/giantswarm/portshim/internal/core"
	"github.com/giantswarm/portshim/internal/netutil"
	"github.com/giantswarm/portshim/internal/placeholder"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrBind matches every failure to bind the placeholder port. The
	// concrete error is a *BindError.
	ErrBind = netutil.ErrBind

	// ErrInvalidPort is wrapped by a BindError when the port is outside
	// 1-65535, and returned by ConfigFromEnv for an out-of-range
	// PORTSHIM_PORT.
	ErrInvalidPort = netutil.ErrInvalidPort

	// ErrStopTimeout is recorded when in-flight requests did not finish
	// before the stop deadline and their connections were closed.
	ErrStopTimeout = placeholder.ErrStopTimeout

	// ErrAlreadyStarted is returned by a placeholder that is started twice.
	ErrAlreadyStarted = placeholder.ErrAlreadyStarted

	// ErrSignalOrder describes a ServiceReady observed before any
	// EnvironmentReady. It only appears in debug logs.
	ErrSignalOrder = core.ErrSignalOrder

	// ErrHandoffLockHeld is recorded when the handoff lock configured with
	// WithHandoffLock is held by another process at start.
	ErrHandoffLockHeld = core.ErrHandoffLockHeld
)

// BindError describes a failed bind. It matches ErrBind and unwraps to the
// operating system error; use InUse and PermissionDenied to tell the common
// causes apart.
type BindError = netutil.BindError
