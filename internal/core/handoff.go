package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/portshim/internal/fileutil"
	"github.com/giantswarm/portshim/internal/readiness"
	"github.com/giantswarm/portshim/internal/sentinel"
	"github.com/gofrs/flock"
)

// ErrHandoffLockHeld is returned when the placeholder cannot take the handoff
// lock because another process holds it.
const ErrHandoffLockHeld = sentinel.Error("handoff lock held by another process")

// handoffLockRetryInterval is the interval between attempts to acquire the
// handoff lock in AwaitHandoff.
const handoffLockRetryInterval = 50 * time.Millisecond

// handoffPollInterval is the interval between bind probes in AwaitHandoff.
const handoffPollInterval = 10 * time.Millisecond

// tryHandoffLock takes the exclusive handoff lock without blocking.
// The placeholder must never wait on the lock: if someone else holds it, the
// shim gives up and lets startup proceed unprotected.
func tryHandoffLock(path string) (*flock.Flock, error) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("prepare handoff lock: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring handoff lock %s: %w", path, err)
	}
	if !locked {
		_ = fl.Close()
		return nil, fmt.Errorf("%w: %s", ErrHandoffLockHeld, path)
	}
	return fl, nil
}

// releaseHandoffLock releases the lock and closes the file descriptor. The
// lock file stays on disk; removing it could invalidate a lock concurrently
// taken by the process waiting in AwaitHandoff.
func releaseHandoffLock(logger *slog.Logger, fl *flock.Flock) {
	if fl != nil {
		if err := fl.Close(); err != nil {
			logger.Debug("failed to release handoff lock", "path", fl.Path(), "err", err)
		}
	}
}

// HandoffConfig configures AwaitHandoff.
type HandoffConfig struct {
	LockPath string        // Handoff lock file shared with the placeholder process
	Host     string        // Host the real service will bind
	Port     int           // Port to probe; zero skips the bind probe
	Timeout  time.Duration // Overall bound for lock and bind probe
}

// AwaitHandoff blocks until a placeholder in another process has released the
// port: it waits for the handoff lock, drops it again, then polls until
// host:port is bindable. Call it right before the real service binds.
func AwaitHandoff(ctx context.Context, cfg HandoffConfig) error {
	if cfg.LockPath == "" {
		return fmt.Errorf("await handoff: lock path must not be empty")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("await handoff: %w", readiness.ErrTimeoutNotPositive)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := fileutil.EnsureParentDir(cfg.LockPath); err != nil {
		return fmt.Errorf("await handoff: %w", err)
	}
	fl := flock.New(cfg.LockPath)
	locked, err := fl.TryLockContext(ctx, handoffLockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquiring handoff lock %s: %w", cfg.LockPath, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return fmt.Errorf("acquiring handoff lock %s: %w", cfg.LockPath, ctx.Err())
		}
		return fmt.Errorf("acquiring handoff lock %s: lock not acquired", cfg.LockPath)
	}
	releaseHandoffLock(Logger(), fl)

	if cfg.Port == 0 {
		return nil
	}

	remaining := cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining = time.Until(deadline)
	}
	return readiness.WaitReady(ctx, readiness.Config{
		Interval: handoffPollInterval,
		Timeout:  remaining,
		Name:     "port handoff",
		Port:     cfg.Port,
		Logger:   Logger(),
	}, readiness.PortFree(cfg.Host, cfg.Port))
}
