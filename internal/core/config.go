package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/portshim/internal/netutil"
)

// DrainPolicy controls what the placeholder does with in-flight requests
// when it is stopped.
type DrainPolicy int

const (
	// DrainInFlight stops accepting, lets in-flight requests finish until the
	// stop deadline, then closes whatever is left. This is the default.
	DrainInFlight DrainPolicy = iota

	// AbandonInFlight closes the socket and every open connection at once.
	// Clients with a request in flight see a reset connection.
	AbandonInFlight
)

// IsValid reports whether p is a recognized DrainPolicy value.
func (p DrainPolicy) IsValid() bool {
	switch p {
	case DrainInFlight, AbandonInFlight:
		return true
	default:
		return false
	}
}

// String returns the name of the policy.
func (p DrainPolicy) String() string {
	switch p {
	case DrainInFlight:
		return "DrainInFlight"
	case AbandonInFlight:
		return "AbandonInFlight"
	default:
		return fmt.Sprintf("DrainPolicy(%d)", int(p))
	}
}

// ShimConfig holds configuration for a Coordinator. All fields are immutable
// after construction via NewCoordinator.
type ShimConfig struct {
	// Enabled turns the shim on. A disabled shim never leaves StateIdle.
	Enabled bool

	// Port is used when an EnvironmentReady signal carries no port.
	// Zero means the signal must supply it.
	Port int

	// Host is the bind host. Empty means all interfaces.
	Host string

	// ResponseStatus is the status of every placeholder response. It must be
	// a 2xx code, since the platform probe treats anything else as failure.
	ResponseStatus int

	// ResponseBody is the body of every placeholder response.
	ResponseBody []byte

	// StartTimeout bounds the bind (and handoff lock acquisition).
	StartTimeout time.Duration

	// StopTimeout bounds draining and releasing the port.
	StopTimeout time.Duration

	// ReadHeaderTimeout bounds how long the placeholder waits for request
	// headers on an accepted connection.
	ReadHeaderTimeout time.Duration

	// DrainPolicy selects how Stop treats in-flight requests.
	DrainPolicy DrainPolicy

	// HandoffLockPath, when set, is an flock file held while the
	// placeholder owns the port. See AwaitHandoff.
	HandoffLockPath string
}

// Validate checks all ShimConfig invariants and returns an error describing
// every violation found, joined with errors.Join.
func (c ShimConfig) Validate() error {
	var errs []error

	if c.Port != 0 && !netutil.ValidPort(c.Port) {
		errs = append(errs, fmt.Errorf("port must be 0 or within %d-%d, got %d", netutil.MinPort, netutil.MaxPort, c.Port))
	}
	if c.ResponseStatus < 200 || c.ResponseStatus > 299 {
		errs = append(errs, fmt.Errorf("response status must be a 2xx code, got %d", c.ResponseStatus))
	}
	if c.StartTimeout <= 0 {
		errs = append(errs, fmt.Errorf("start timeout must be greater than 0, got %s", c.StartTimeout))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be greater than 0, got %s", c.StopTimeout))
	}
	if c.ReadHeaderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read header timeout must be greater than 0, got %s", c.ReadHeaderTimeout))
	}
	if !c.DrainPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("invalid drain policy: %v", c.DrainPolicy))
	}
	if c.ResponseBody == nil {
		errs = append(errs, errors.New("response body must not be nil"))
	}

	return errors.Join(errs...)
}
