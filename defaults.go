package portshim

import (
	"net/http"
	"time"
)

// Default configuration values for New.
const (
	// DefaultHost binds the placeholder on all interfaces.
	DefaultHost = ""

	// DefaultResponseStatus is the status returned for every placeholder
	// request.
	DefaultResponseStatus = http.StatusOK

	// DefaultStartTimeout bounds binding the placeholder, including the
	// handoff lock when one is configured.
	DefaultStartTimeout = 1 * time.Second

	// DefaultStopTimeout bounds draining in-flight requests on stop. The
	// socket is closed when it expires, whatever is still in flight.
	DefaultStopTimeout = 2 * time.Second

	// DefaultReadHeaderTimeout bounds how long an accepted connection may
	// take to send its request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// DefaultDrainPolicy lets in-flight requests finish until the stop
	// deadline.
	DefaultDrainPolicy = DrainInFlight
)

// DefaultResponseBody is the body returned for every placeholder request.
var DefaultResponseBody = []byte("ok")
