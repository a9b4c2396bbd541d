// Package placeholder implements the listener that holds the service port
// while the host application initializes.
//
// A Listener answers every HTTP request, whatever its method, path or body,
// with the same status and body, both encoded once at construction. Keep-alive
// is disabled so no placeholder connection outlives the request it carried.
//
// Stop has two deterministic modes. By default it closes connections that
// have not started a request, stops accepting, waits for in-flight requests
// until the deadline, then force-closes what remains and
// reports ErrStopTimeout. With Config.AbandonInFlight it closes the socket and
// every connection immediately. In both modes the listening socket is closed
// and the accept goroutine has exited before Stop returns.
package placeholder
