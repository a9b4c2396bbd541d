package portshim

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("portshim: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("portshim: %s must not be empty", name))
	}
}

// Option configures a Shim during construction via New.
//
// Several With* functions panic on invalid input. Option values are
// typically constants, so an invalid value is a programmer error; failing at
// construction keeps such errors out of the startup path, where the shim must
// never fail.
type Option func(*shimConfig)

// WithHost sets the host the placeholder binds. Use the host the real service
// binds, so the platform probe reaches the placeholder the same way.
//
// Default: all interfaces.
//
// Panics if host is empty.
func WithHost(host string) Option {
	requireNonEmpty("host", host)
	return func(c *shimConfig) {
		c.Host = host
	}
}

// WithResponseBody sets the body of every placeholder response.
//
// Default: "ok".
//
// Panics if body is nil. Pass an empty slice for an empty body.
func WithResponseBody(body []byte) Option {
	if body == nil {
		panic("portshim: response body must not be nil")
	}
	b := make([]byte, len(body))
	copy(b, body)
	return func(c *shimConfig) {
		c.ResponseBody = b
	}
}

// WithStartTimeout bounds binding the placeholder, including handoff lock
// acquisition.
//
// Default: 1 second.
//
// Panics if d <= 0.
func WithStartTimeout(d time.Duration) Option {
	requirePositive("start timeout", d)
	return func(c *shimConfig) {
		c.StartTimeout = d
	}
}

// WithStopTimeout bounds how long ServiceReady waits for in-flight
// placeholder requests under DrainInFlight. The socket is closed when it
// expires.
//
// Default: 2 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *shimConfig) {
		c.StopTimeout = d
	}
}

// WithReadHeaderTimeout bounds how long an accepted connection may take to
// send its request headers.
//
// Default: 2 seconds.
//
// Panics if d <= 0.
func WithReadHeaderTimeout(d time.Duration) Option {
	requirePositive("read header timeout", d)
	return func(c *shimConfig) {
		c.ReadHeaderTimeout = d
	}
}

// WithDrainPolicy selects how in-flight requests are treated on stop.
//
// Default: DrainInFlight.
//
// Panics if p is not a recognized policy.
func WithDrainPolicy(p DrainPolicy) Option {
	if !p.IsValid() {
		panic(fmt.Sprintf("portshim: invalid drain policy: %v", p))
	}
	return func(c *shimConfig) {
		c.DrainPolicy = p
	}
}

// WithHandoffLock makes the shim hold an exclusive file lock at path while
// the placeholder is bound. A real service in another process passes the same
// path to AwaitHandoff. The parent directory is created if needed.
//
// If the lock is already held when the shim starts, the placeholder is not
// bound and ErrHandoffLockHeld is recorded.
//
// Panics if path is empty.
func WithHandoffLock(path string) Option {
	requireNonEmpty("handoff lock path", path)
	return func(c *shimConfig) {
		c.HandoffLockPath = path
	}
}

// WithMetricsRegisterer registers the shim's Prometheus collectors with reg.
// Without it, no metrics are recorded.
//
// Panics if reg is nil.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	if reg == nil {
		panic("portshim: metrics registerer must not be nil")
	}
	return func(c *shimConfig) {
		c.registerer = reg
	}
}
