package core

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/portshim/internal/netutil"
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

func requireBindable(t *testing.T, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", netutil.Address("127.0.0.1", port))
	if err != nil {
		t.Fatalf("port %d not released: %v", port, err)
	}
	_ = ln.Close()
}

// fakeHolder is a PortHolder that records calls without touching sockets.
type fakeHolder struct {
	mu       sync.Mutex
	starts   int
	stops    int
	port     int
	startErr error
	stopErr  error
}

func (f *fakeHolder) Start(_ context.Context, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.port = port
	return f.startErr
}

func (f *fakeHolder) Stop(_ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return f.stopErr
}

func (f *fakeHolder) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: f.port}
}

func (f *fakeHolder) calls() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func newFakeCoordinator(t *testing.T, cfg ShimConfig) (*Coordinator, *fakeHolder) {
	t.Helper()
	h := &fakeHolder{}
	return NewCoordinator(CoordinatorParams{Config: cfg, Holder: h}), h
}

func loopbackConfig() ShimConfig {
	cfg := validShimConfig()
	cfg.Host = "127.0.0.1"
	return cfg
}
