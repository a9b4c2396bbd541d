package placeholder

import (
	"net"
	"net/http"
	"sync"
)

// connTracker follows every placeholder connection through http.ConnState.
// A connection that has not started a request (StateNew) or sits between
// requests (StateIdle) has nothing to drain, so closeIdle drops it and every
// later one in those states instead of letting it hold up Shutdown.
type connTracker struct {
	mu       sync.Mutex
	conns    map[net.Conn]http.ConnState
	draining bool
}

func newConnTracker() *connTracker {
	return &connTracker{conns: make(map[net.Conn]http.ConnState)}
}

// track is installed as http.Server.ConnState.
func (t *connTracker) track(c net.Conn, state http.ConnState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch state {
	case http.StateNew, http.StateIdle:
		if t.draining {
			_ = c.Close()
			delete(t.conns, c)
			return
		}
		t.conns[c] = state
	case http.StateActive:
		t.conns[c] = state
	case http.StateHijacked, http.StateClosed:
		delete(t.conns, c)
	}
}

// closeIdle closes every connection without a request in flight and makes
// track close any that reach such a state afterwards. It returns the number
// of connections closed.
func (t *connTracker) closeIdle() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.draining = true
	n := 0
	for c, state := range t.conns {
		if state == http.StateActive {
			continue
		}
		_ = c.Close()
		delete(t.conns, c)
		n++
	}
	return n
}
