package portshim

import (
	"context"
	"net"

	"github.com/giantswarm/portshim/internal/core"
	"github.com/giantswarm/portshim/internal/metrics"
)

// Shim is a startup liveness shim. It is created once per process with New
// and driven by the host's lifecycle signals.
//
// No method returns a start or stop failure to the caller: the host startup
// path must never depend on the shim. Failures are logged and exposed
// through Err.
//
// All methods are safe for concurrent use.
type Shim struct {
	coord    *core.Coordinator
	observer *core.Observer
}

// New creates a Shim in StateIdle. Nothing is bound until EnvironmentReady.
// A Config with Enabled false yields a Shim whose methods are no-ops.
//
// Panics if cfg.Port is outside 0-65535 or cfg.ResponseStatus is not a 2xx
// code, or if the metrics registerer holds a different metric under one of
// the shim's metric names. Collectors registered by an earlier Shim on the
// same registerer are shared.
func New(cfg Config, opts ...Option) *Shim {
	sc := defaultShimConfig(cfg)
	for _, opt := range opts {
		opt(&sc)
	}

	coord := core.NewCoordinator(core.CoordinatorParams{
		Config:  sc.ShimConfig,
		Metrics: metrics.New(sc.registerer),
	})
	return &Shim{
		coord:    coord,
		observer: core.NewObserver(coord),
	}
}

// EnvironmentReady binds the placeholder on port, or on Config.Port when port
// is zero. Only the first call has an effect. It returns once the port is
// bound or the bind has failed.
func (s *Shim) EnvironmentReady(ctx context.Context, port int) {
	s.Handle(ctx, EnvironmentReadySignal(port))
}

// ServiceReady releases the port. It returns once the placeholder socket is
// closed, so the caller may bind immediately afterwards. Only the first call
// after EnvironmentReady has an effect; a call before it retires the shim.
func (s *Shim) ServiceReady() {
	s.Handle(context.Background(), ServiceReadySignal())
}

// Handle applies one lifecycle signal.
func (s *Shim) Handle(ctx context.Context, sig Signal) {
	// Failures are logged and kept for Err by the coordinator.
	_ = s.observer.Handle(ctx, sig)
}

// Watch consumes signals from every source until all of them are closed or
// ctx is canceled. Sources are drained for their whole lifetime, so a host
// never blocks on sending a duplicate signal. It returns the context error
// when ctx ends first, and an error if any source is nil.
func (s *Shim) Watch(ctx context.Context, sources ...<-chan Signal) error {
	return s.observer.Watch(ctx, sources...)
}

// State returns the current lifecycle state.
func (s *Shim) State() State {
	return s.coord.State()
}

// Addr returns the placeholder's bound address while StateListening, else
// nil.
func (s *Shim) Addr() net.Addr {
	return s.coord.Addr()
}

// Done returns a channel closed once the Shim reaches StateStopped.
func (s *Shim) Done() <-chan struct{} {
	return s.coord.Done()
}

// Err returns the most recent start or stop failure, or nil. Use errors.Is
// with ErrBind, ErrStopTimeout, or ErrHandoffLockHeld to classify it.
func (s *Shim) Err() error {
	return s.coord.Err()
}

// Enabled reports whether the Shim was created with Config.Enabled.
func (s *Shim) Enabled() bool {
	return s.coord.Enabled()
}
