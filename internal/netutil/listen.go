package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/giantswarm/portshim/internal/sentinel"
)

// ErrBind matches every BindError via errors.Is.
const ErrBind = sentinel.Error("bind failed")

// ErrInvalidPort is returned when a port is outside 1-65535.
const ErrInvalidPort = sentinel.Error("port out of range")

// MinPort and MaxPort bound the ports accepted by Listen.
const (
	MinPort = 1
	MaxPort = 65535
)

// BindError describes a failed attempt to bind a TCP port. It unwraps to the
// underlying OS error and matches ErrBind.
type BindError struct {
	Host string
	Port int
	Err  error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", Address(e.Host, e.Port), e.Err)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBind.
func (e *BindError) Is(target error) bool {
	return target == ErrBind
}

// InUse reports whether the bind failed because another socket holds the port.
func (e *BindError) InUse() bool {
	return errors.Is(e.Err, syscall.EADDRINUSE)
}

// PermissionDenied reports whether the bind failed for lack of privileges,
// typically a port below 1024 without CAP_NET_BIND_SERVICE.
func (e *BindError) PermissionDenied() bool {
	return errors.Is(e.Err, syscall.EACCES) || errors.Is(e.Err, syscall.EPERM)
}

// ValidPort reports whether port is usable as a listen port.
func ValidPort(port int) bool {
	return port >= MinPort && port <= MaxPort
}

// Address joins host and port into a dialable/listenable address.
// An empty host means all interfaces.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Listen binds a TCP listener on host:port. Every failure, including an
// out-of-range port, is returned as a *BindError.
func Listen(ctx context.Context, host string, port int) (*net.TCPListener, error) {
	if !ValidPort(port) {
		return nil, &BindError{Host: host, Port: port, Err: fmt.Errorf("%w: %d", ErrInvalidPort, port)}
	}

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", Address(host, port))
	if err != nil {
		return nil, &BindError{Host: host, Port: port, Err: err}
	}
	tl, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, &BindError{Host: host, Port: port, Err: fmt.Errorf("unexpected listener type: %T", l)}
	}
	return tl, nil
}

// PortFree reports whether host:port can be bound right now. The probe
// listener is closed before returning, so a true result is only a snapshot.
func PortFree(ctx context.Context, host string, port int) bool {
	l, err := Listen(ctx, host, port)
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
