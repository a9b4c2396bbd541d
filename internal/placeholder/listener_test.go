package placeholder

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/portshim/internal/metrics"
	"github.com/giantswarm/portshim/internal/netutil"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var testPorts = netutil.NewPortRegistry(nil)

func freePort(t *testing.T) int {
	t.Helper()
	port, err := testPorts.AllocatePort()
	if err != nil {
		t.Fatalf("allocate port: %v", err)
	}
	t.Cleanup(func() { testPorts.Release(port) })
	return port
}

func newTestListener(t *testing.T, cfg Config) (*Listener, int) {
	t.Helper()
	cfg.Host = "127.0.0.1"
	l := New(cfg)
	port := freePort(t)
	if err := l.Start(context.Background(), port); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop(time.Second) })
	return l, port
}

func url(port int, path string) string {
	return "http://" + netutil.Address("127.0.0.1", port) + path
}

func requireBindable(t *testing.T, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", netutil.Address("127.0.0.1", port))
	if err != nil {
		t.Fatalf("port %d not released: %v", port, err)
	}
	_ = ln.Close()
}

func TestListener_AnswersEveryRequest(t *testing.T) {
	t.Parallel()

	_, port := newTestListener(t, Config{})

	tests := map[string]struct {
		method string
		path   string
		body   string
	}{
		"root GET":        {method: http.MethodGet, path: "/"},
		"deep path":       {method: http.MethodGet, path: "/api/v1/things?x=1"},
		"POST with body":  {method: http.MethodPost, path: "/submit", body: `{"a":1}`},
		"DELETE":          {method: http.MethodDelete, path: "/item/7"},
		"custom method":   {method: "PURGE", path: "/cache"},
		"health endpoint": {method: http.MethodGet, path: "/healthz"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequest(tc.method, url(port, tc.path), strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("build request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != "ok" {
				t.Errorf("body = %q, want %q", body, "ok")
			}
		})
	}
}

func TestListener_CustomResponse(t *testing.T) {
	t.Parallel()

	_, port := newTestListener(t, Config{ResponseStatus: http.StatusNoContent, Body: []byte{}})

	resp, err := http.Get(url(port, "/"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}

func TestListener_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	_, port := newTestListener(t, Config{})

	var g errgroup.Group
	for range 50 {
		g.Go(func() error {
			resp, err := http.Get(url(port, "/"))
			if err != nil {
				return err
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return errors.New("unexpected status " + resp.Status)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent requests: %v", err)
	}
}

func TestListener_StartPortInUse(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	holder, err := net.Listen("tcp", netutil.Address("127.0.0.1", port))
	if err != nil {
		t.Fatalf("hold port: %v", err)
	}
	defer holder.Close()

	l := New(Config{Host: "127.0.0.1"})
	err = l.Start(context.Background(), port)
	if !errors.Is(err, netutil.ErrBind) {
		t.Fatalf("expected ErrBind, got %v", err)
	}
	if l.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
	if l.Addr() != nil {
		t.Errorf("Addr() = %v after failed start, want nil", l.Addr())
	}
}

func TestListener_StartTwice(t *testing.T) {
	t.Parallel()

	l, port := newTestListener(t, Config{})
	if err := l.Start(context.Background(), port); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() = %v, want ErrAlreadyStarted", err)
	}
}

func TestListener_StopReleasesPort(t *testing.T) {
	t.Parallel()

	l, port := newTestListener(t, Config{})

	// Exercise the connection path before stopping.
	resp, err := http.Get(url(port, "/"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_ = resp.Body.Close()

	if err := l.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if l.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	requireBindable(t, port)
}

func TestListener_StopNotStarted(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	if err := l.Stop(time.Second); err != nil {
		t.Fatalf("Stop() on idle listener = %v, want nil", err)
	}
}

func TestListener_StopImmediatelyAfterStart(t *testing.T) {
	t.Parallel()

	l := New(Config{Host: "127.0.0.1"})
	port := freePort(t)
	if err := l.Start(context.Background(), port); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := l.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	requireBindable(t, port)
}

// blockingListener starts a listener whose handler blocks until the returned
// release function is called. arrived receives once per request that entered
// the handler.
func blockingListener(t *testing.T, cfg Config) (l *Listener, port int, arrived <-chan struct{}, release func()) {
	t.Helper()

	arrivedCh := make(chan struct{}, 8)
	gate := make(chan struct{})
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)

	cfg.Host = "127.0.0.1"
	l = New(cfg)
	l.beforeRespond = func() {
		arrivedCh <- struct{}{}
		<-gate
	}
	port = freePort(t)
	if err := l.Start(context.Background(), port); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return l, port, arrivedCh, release
}

func TestListener_StopDrainsInFlight(t *testing.T) {
	t.Parallel()

	l, port, arrived, release := blockingListener(t, Config{})

	result := make(chan int, 1)
	go func() {
		resp, err := http.Get(url(port, "/slow"))
		if err != nil {
			result <- 0
			return
		}
		_ = resp.Body.Close()
		result <- resp.StatusCode
	}()
	<-arrived

	go func() {
		time.Sleep(50 * time.Millisecond)
		release()
	}()

	if err := l.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if status := <-result; status != http.StatusOK {
		t.Errorf("drained request status = %d, want %d", status, http.StatusOK)
	}
	requireBindable(t, port)
}

func TestListener_StopDeadlineExceeded(t *testing.T) {
	t.Parallel()

	l, port, arrived, _ := blockingListener(t, Config{})

	go func() {
		resp, err := http.Get(url(port, "/stuck"))
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-arrived

	start := time.Now()
	err := l.Stop(100 * time.Millisecond)
	if !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("Stop() = %v, want ErrStopTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop took %v, want close to the deadline", elapsed)
	}
	requireBindable(t, port)
}

// dialIdle opens a connection that never sends a request.
func dialIdle(t *testing.T, port int) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", netutil.Address("127.0.0.1", port))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestListener_StopClosesConnectionsWithoutRequest(t *testing.T) {
	t.Parallel()

	l, port := newTestListener(t, Config{})
	idle := []net.Conn{dialIdle(t, port), dialIdle(t, port)}

	start := time.Now()
	if err := l.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop() = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop took %v with only idle connections", elapsed)
	}
	requireBindable(t, port)

	for i, conn := range idle {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := conn.Read(make([]byte, 1)); err == nil {
			t.Errorf("idle connection %d still open after Stop", i)
		}
	}
}

// An idle connection next to an in-flight request: the request is drained,
// the idle connection does not extend Stop to the deadline.
func TestListener_StopDrainsRequestAndDropsIdle(t *testing.T) {
	t.Parallel()

	l, port, arrived, release := blockingListener(t, Config{})
	dialIdle(t, port)

	result := make(chan int, 1)
	go func() {
		resp, err := http.Get(url(port, "/slow"))
		if err != nil {
			result <- 0
			return
		}
		_ = resp.Body.Close()
		result <- resp.StatusCode
	}()
	<-arrived

	go func() {
		time.Sleep(50 * time.Millisecond)
		release()
	}()

	start := time.Now()
	if err := l.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop() = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop took %v, want about the request duration", elapsed)
	}
	if status := <-result; status != http.StatusOK {
		t.Errorf("drained request status = %d, want %d", status, http.StatusOK)
	}
	requireBindable(t, port)
}

func TestListener_StopAbandonsInFlight(t *testing.T) {
	t.Parallel()

	l, port, arrived, _ := blockingListener(t, Config{AbandonInFlight: true})

	go func() {
		resp, err := http.Get(url(port, "/stuck"))
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-arrived

	start := time.Now()
	if err := l.Stop(10 * time.Second); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("abandoning Stop took %v", elapsed)
	}
	requireBindable(t, port)
}

func TestListener_HandlerPanicContained(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	l := New(Config{Host: "127.0.0.1", Metrics: metrics.New(reg)})
	var calls int
	var mu sync.Mutex
	l.beforeRespond = func() {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			panic("boom")
		}
	}
	port := freePort(t)
	if err := l.Start(context.Background(), port); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer l.Stop(time.Second)

	for i := range 2 {
		resp, err := http.Get(url(port, "/"))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d status = %d, want %d", i, resp.StatusCode, http.StatusOK)
		}
	}
	if !l.IsRunning() {
		t.Error("listener stopped after handler panic")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "portshim_handler_panics_total" {
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Errorf("panics counter = %v, want 1", got)
			}
			return
		}
	}
	t.Error("portshim_handler_panics_total not found")
}
