package core

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giantswarm/portshim/internal/metrics"
	"github.com/giantswarm/portshim/internal/placeholder"
	"github.com/gofrs/flock"
)

// PortHolder is the listener side of the handoff. *placeholder.Listener is
// the production implementation.
type PortHolder interface {
	Start(ctx context.Context, port int) error
	Stop(timeout time.Duration) error
	Addr() net.Addr
}

// Verify the placeholder satisfies PortHolder at compile time.
var _ PortHolder = (*placeholder.Listener)(nil)

// CoordinatorParams holds the parameters for NewCoordinator.
type CoordinatorParams struct {
	Config ShimConfig
	// Holder overrides the placeholder listener built from Config.
	Holder PortHolder
	// Metrics is optional; nil records nothing.
	Metrics *metrics.Recorder
}

// Coordinator owns the shim State and is the only component that starts or
// stops the placeholder. It guarantees that the placeholder never holds the
// port once the real service may bind it.
//
// Synchronization strategy:
//   - mu serializes transitions, so a start always completes (bound or
//     failed) before a stop is considered. Request handling never takes mu.
//   - state is an atomic State for lock-free reads by State and observers.
//   - lock is the optional handoff flock. Protected by mu.
type Coordinator struct {
	cfg     ShimConfig
	holder  PortHolder
	metrics *metrics.Recorder
	log     *slog.Logger

	mu    sync.Mutex
	state atomic.Uint32
	lock  *flock.Flock

	lastErr  atomic.Pointer[error]
	done     chan struct{}
	doneOnce sync.Once
}

// NewCoordinator creates a Coordinator in StateIdle.
// Panics if params.Config fails validation; invalid configuration is a
// programmer error.
func NewCoordinator(params CoordinatorParams) *Coordinator {
	if err := params.Config.Validate(); err != nil {
		panic(fmt.Sprintf("portshim: invalid shim config: %v", err))
	}

	log := Logger()
	holder := params.Holder
	if holder == nil {
		holder = placeholder.New(placeholder.Config{
			Host:              params.Config.Host,
			ResponseStatus:    params.Config.ResponseStatus,
			Body:              params.Config.ResponseBody,
			ReadHeaderTimeout: params.Config.ReadHeaderTimeout,
			AbandonInFlight:   params.Config.DrainPolicy == AbandonInFlight,
			Logger:            log,
			Metrics:           params.Metrics,
		})
	}

	c := &Coordinator{
		cfg:     params.Config,
		holder:  holder,
		metrics: params.Metrics,
		log:     log,
		done:    make(chan struct{}),
	}
	c.metrics.SetState(int(StateIdle))
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Done returns a channel closed when the Coordinator reaches StateStopped.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the last start or stop failure, or nil.
func (c *Coordinator) Err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Addr returns the placeholder's bound address while listening, else nil.
func (c *Coordinator) Addr() net.Addr {
	if c.State() != StateListening {
		return nil
	}
	return c.holder.Addr()
}

// Enabled reports whether the shim is enabled.
func (c *Coordinator) Enabled() bool {
	return c.cfg.Enabled
}

// RequestStart binds the placeholder on port (or the configured port when
// port is zero). It is a no-op returning nil unless the shim is enabled and
// Idle. On failure the Coordinator moves straight to StateStopped so the
// real service is never blocked, and the failure is returned.
func (c *Coordinator) RequestStart(ctx context.Context, port int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Enabled {
		return nil
	}
	if s := c.State(); s != StateIdle {
		c.log.Debug("start ignored", "state", s)
		return nil
	}
	if port == 0 {
		port = c.cfg.Port
	}

	if err := c.start(ctx, port); err != nil {
		c.metrics.IncStartFailures()
		c.setErr(err)
		c.log.Warn("placeholder failed to start; startup continues without liveness protection",
			"port", port, "error", err)
		c.transition(StateStopped)
		return err
	}

	c.transition(StateListening)
	return nil
}

// start acquires the handoff lock (if configured) and binds the placeholder.
// Must be called with mu held.
func (c *Coordinator) start(ctx context.Context, port int) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StartTimeout)
	defer cancel()

	if c.cfg.HandoffLockPath != "" {
		fl, err := tryHandoffLock(c.cfg.HandoffLockPath)
		if err != nil {
			return err
		}
		c.lock = fl
	}

	if err := c.holder.Start(ctx, port); err != nil {
		releaseHandoffLock(c.log, c.lock)
		c.lock = nil
		return err
	}
	return nil
}

// RequestStop stops the placeholder and releases the port. It is a no-op
// returning nil unless the Coordinator is Listening. The transition to
// StateStopped is unconditional; a stop error (typically a drain timeout) is
// returned for reporting only. There is no retry.
func (c *Coordinator) RequestStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.State(); s != StateListening {
		c.log.Debug("stop ignored", "state", s)
		return nil
	}

	begin := time.Now()
	err := c.holder.Stop(c.cfg.StopTimeout)
	// The socket is closed; only now may a waiting process take over.
	releaseHandoffLock(c.log, c.lock)
	c.lock = nil
	c.metrics.ObserveStop(time.Since(begin))

	if err != nil {
		c.setErr(err)
		c.log.Warn("placeholder stop did not complete cleanly; port released", "error", err)
	}
	c.transition(StateStopped)
	return err
}

// MarkUnneeded moves an Idle Coordinator straight to StateStopped without
// binding anything. It handles a ServiceReady that arrives before any
// EnvironmentReady. It is a no-op for a disabled shim or any other state.
func (c *Coordinator) MarkUnneeded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Enabled || c.State() != StateIdle {
		return
	}
	c.log.Debug("service ready before environment ready; placeholder not needed")
	c.transition(StateStopped)
}

// transition stores the new state. Must be called with mu held.
func (c *Coordinator) transition(to State) {
	from := c.State()
	c.state.Store(uint32(to))
	c.metrics.SetState(int(to))
	c.log.Info("shim state changed", "from", from, "to", to)
	if to.IsTerminal() {
		c.doneOnce.Do(func() { close(c.done) })
	}
}

func (c *Coordinator) setErr(e error) {
	c.lastErr.Store(&e)
}
