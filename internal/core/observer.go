package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/giantswarm/portshim/internal/sentinel"
	"golang.org/x/sync/errgroup"
)

// ErrSignalOrder describes a ServiceReady observed before any
// EnvironmentReady. It is never returned to callers; the Observer records it
// at debug level and retires the shim.
const ErrSignalOrder = sentinel.Error("service ready before environment ready")

// Observer turns host lifecycle signals into Coordinator requests. Delivery
// may be duplicated or out of order: only the first EnvironmentReady can start
// the placeholder, only the first ServiceReady after that start can stop it,
// and every other signal is dropped.
//
// Handle is serialized by mu, so a start always completes before the next
// signal is looked at, regardless of how many sources deliver concurrently.
type Observer struct {
	coord *Coordinator
	mu    sync.Mutex
}

// NewObserver creates an Observer driving coord. Panics if coord is nil.
func NewObserver(coord *Coordinator) *Observer {
	if coord == nil {
		panic("portshim: observer coordinator must not be nil")
	}
	return &Observer{coord: coord}
}

// Handle applies one signal. The returned error is the start or stop failure
// it caused, if any; it is informational and must not abort host startup.
func (o *Observer) Handle(ctx context.Context, sig Signal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	log := o.coord.log
	if !o.coord.Enabled() {
		log.Debug("shim disabled; signal ignored", "signal", sig)
		return nil
	}

	switch sig.Kind {
	case EnvironmentReady:
		if s := o.coord.State(); s != StateIdle {
			log.Debug("duplicate or late signal ignored", "signal", sig, "state", s)
			return nil
		}
		return o.coord.RequestStart(ctx, sig.Port)

	case ServiceReady:
		switch s := o.coord.State(); s {
		case StateIdle:
			log.Debug("placeholder never started", "signal", sig, "reason", ErrSignalOrder)
			o.coord.MarkUnneeded()
			return nil
		case StateListening:
			return o.coord.RequestStop()
		default:
			log.Debug("duplicate or late signal ignored", "signal", sig, "state", s)
			return nil
		}

	default:
		log.Debug("unknown signal ignored", "signal", sig)
		return nil
	}
}

// Watch consumes every source concurrently and applies each signal through
// Handle. Sources keep being drained after the shim has stopped so that a
// host blocked on sending a duplicate notification is never stuck.
// Watch returns nil once all sources are closed, or the context error if ctx
// is canceled first.
func (o *Observer) Watch(ctx context.Context, sources ...<-chan Signal) error {
	for i, src := range sources {
		if src == nil {
			return fmt.Errorf("watch: source %d is nil", i)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return gCtx.Err()
				case sig, ok := <-src:
					if !ok {
						return nil
					}
					// Failures are already logged and recorded by the
					// Coordinator; they must not stop the watch.
					_ = o.Handle(gCtx, sig)
				}
			}
		})
	}
	return g.Wait()
}
