package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/giantswarm/portshim/internal/netutil"
	"github.com/giantswarm/portshim/internal/sentinel"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ErrIntervalNotPositive indicates a non-positive poll interval.
const ErrIntervalNotPositive = sentinel.Error("interval must be positive")

// ErrTimeoutNotPositive indicates a non-positive timeout.
const ErrTimeoutNotPositive = sentinel.Error("timeout must be positive")

// Check reports whether the awaited condition holds. The context is canceled
// when the poll loop times out or the caller cancels. attempt is 1-based.
// A non-nil error aborts polling.
type Check func(ctx context.Context, attempt int) (ready bool, err error)

// Config configures WaitReady.
type Config struct {
	Interval time.Duration // Poll interval
	Timeout  time.Duration // Overall timeout
	Name     string        // For logging (e.g., "port release", "placeholder")
	Port     int           // For logging context
	Logger   *slog.Logger  // Optional logger (defaults to slog.Default())
}

// WaitReady polls check until it returns true, returns an error, or the
// timeout elapses. The first check runs immediately.
func WaitReady(ctx context.Context, cfg Config, check Check) error {
	if cfg.Name == "" {
		return errors.New("wait ready: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// PollUntilContextTimeout calls the condition sequentially, so attempt
	// needs no synchronization.
	attempt := 0
	if err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true,
		func(pollCtx context.Context) (bool, error) {
			attempt++
			ready, err := check(pollCtx, attempt)
			if err != nil {
				return false, err
			}
			if ready {
				log.Debug("wait succeeded", "name", cfg.Name, "port", cfg.Port, "attempt", attempt)
			}
			return ready, nil
		}); err != nil {
		return fmt.Errorf("wait for %s on port %d: %w", cfg.Name, cfg.Port, err)
	}
	return nil
}

// PortFree returns a Check that succeeds once host:port can be bound.
func PortFree(host string, port int) Check {
	return func(ctx context.Context, _ int) (bool, error) {
		return netutil.PortFree(ctx, host, port), nil
	}
}

// HTTPAlive returns a Check that succeeds once a GET to url answers with
// wantStatus. Connection errors and other statuses keep polling.
func HTTPAlive(client *http.Client, url string, wantStatus int) Check {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, _ int) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, fmt.Errorf("build request for %s: %w", url, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, nil //nolint:nilerr // not answering yet; keep polling
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == wantStatus, nil
	}
}
