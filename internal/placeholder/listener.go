package placeholder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/giantswarm/portshim/internal/metrics"
	"github.com/giantswarm/portshim/internal/netutil"
	"github.com/giantswarm/portshim/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called on a running Listener.
const ErrAlreadyStarted = sentinel.Error("placeholder already started")

// ErrStopTimeout is returned by Stop when in-flight requests did not finish
// before the deadline and their connections were closed forcibly.
const ErrStopTimeout = sentinel.Error("placeholder stop exceeded deadline")

// serveExitTimeout bounds the wait for the accept goroutine after the
// listener has been closed. Serve returns as soon as Accept fails, so this
// only fires if the runtime is badly wedged.
const serveExitTimeout = time.Second

// Default values applied by New for zero-valued Config fields.
const (
	DefaultResponseStatus    = http.StatusOK
	DefaultReadHeaderTimeout = 2 * time.Second
)

// DefaultBody is the response body used when Config.Body is nil.
var DefaultBody = []byte("ok")

// Config holds the configuration for a Listener.
type Config struct {
	Host              string        // Bind host; empty means all interfaces
	ResponseStatus    int           // Status for every response (default 200)
	Body              []byte        // Body for every response (default "ok")
	ReadHeaderTimeout time.Duration // Per-request header read timeout
	AbandonInFlight   bool          // Stop closes connections without draining

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
	// Metrics (optional, nil records nothing)
	Metrics *metrics.Recorder
}

// Listener is a minimal HTTP responder bound to a single port.
// It is safe for concurrent use.
type Listener struct {
	cfg           Config
	log           *slog.Logger
	contentLength []string
	contentType   []string

	// beforeRespond runs at the start of every request. Tests use it to
	// inject handler failures.
	beforeRespond func()

	mu        sync.Mutex
	srv       *http.Server
	ln        *net.TCPListener
	conns     *connTracker
	serveDone chan struct{}
}

// New creates a Listener. It does not bind until Start is called.
func New(cfg Config) *Listener {
	if cfg.ResponseStatus == 0 {
		cfg.ResponseStatus = DefaultResponseStatus
	}
	if cfg.Body == nil {
		cfg.Body = DefaultBody
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Listener{
		cfg:           cfg,
		log:           cfg.Logger,
		contentLength: []string{strconv.Itoa(len(cfg.Body))},
		contentType:   []string{"text/plain; charset=utf-8"},
	}
}

// Start binds host:port and begins serving in a background goroutine.
// The port is bound when Start returns nil. Bind failures are returned as
// *netutil.BindError and leave the Listener stopped.
func (l *Listener) Start(ctx context.Context, port int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.srv != nil {
		return ErrAlreadyStarted
	}

	ln, err := netutil.Listen(ctx, l.cfg.Host, port)
	if err != nil {
		return fmt.Errorf("start placeholder: %w", err)
	}

	conns := newConnTracker()
	srv := &http.Server{
		Handler:           l,
		ReadHeaderTimeout: l.cfg.ReadHeaderTimeout,
		ConnState:         conns.track,
		ErrorLog:          slog.NewLogLogger(l.log.Handler(), slog.LevelDebug),
	}
	srv.SetKeepAlivesEnabled(false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Warn("placeholder serve loop exited", "addr", ln.Addr().String(), "error", err)
		}
	}()

	l.srv = srv
	l.ln = ln
	l.conns = conns
	l.serveDone = done
	l.log.Info("placeholder listening", "addr", ln.Addr().String())
	return nil
}

// Stop stops serving and releases the port. See the package documentation
// for the drain semantics. Stop on a Listener that is not running returns nil.
func (l *Listener) Stop(timeout time.Duration) error {
	l.mu.Lock()
	srv, ln, conns, done := l.srv, l.ln, l.conns, l.serveDone
	l.srv, l.ln, l.conns, l.serveDone = nil, nil, nil, nil
	l.mu.Unlock()

	if srv == nil {
		return nil
	}

	addr := ln.Addr().String()
	var stopErr error
	if l.cfg.AbandonInFlight || timeout <= 0 {
		if err := srv.Close(); err != nil {
			l.log.Debug("close placeholder server", "addr", addr, "error", err)
		}
	} else {
		// Shutdown would wait for connections that never sent a request.
		if n := conns.closeIdle(); n > 0 {
			l.log.Debug("closed placeholder connections without a request", "addr", addr, "count", n)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := srv.Shutdown(ctx)
		cancel()
		if err != nil {
			// Deadline passed with requests still running; drop them.
			_ = srv.Close()
			stopErr = fmt.Errorf("%w (%s): %w", ErrStopTimeout, timeout, err)
		}
	}

	t := time.NewTimer(serveExitTimeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		l.log.Warn("placeholder serve loop did not exit in time", "addr", addr)
	}

	// Serve closes the listener on exit; closing again guarantees the socket
	// is gone even when the serve loop never registered it.
	_ = ln.Close()

	l.log.Info("placeholder stopped", "addr", addr)
	return stopErr
}

// IsRunning reports whether the Listener currently holds its port.
func (l *Listener) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.srv != nil
}

// Addr returns the bound address, or nil when not running.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// ServeHTTP writes the fixed response. A panic raised while handling a
// request is recovered and logged; the listener keeps serving.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wrote := false
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		l.cfg.Metrics.IncPanics()
		l.log.Error("placeholder handler panic recovered",
			"method", r.Method, "path", r.URL.Path, "panic", rec)
		if !wrote {
			l.respond(w)
		}
	}()

	if l.beforeRespond != nil {
		l.beforeRespond()
	}
	wrote = true
	l.respond(w)
}

func (l *Listener) respond(w http.ResponseWriter) {
	l.cfg.Metrics.IncRequests()
	h := w.Header()
	h["Content-Length"] = l.contentLength
	h["Content-Type"] = l.contentType
	w.WriteHeader(l.cfg.ResponseStatus)
	_, _ = w.Write(l.cfg.Body)
}
