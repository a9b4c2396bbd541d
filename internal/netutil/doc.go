// Package netutil provides the socket-level helpers behind the placeholder
// listener: binding a TCP port with bind failures classified as BindError,
// probing whether a port is currently bindable, and a PortRegistry that hands
// out distinct ephemeral ports to concurrent callers within one process.
package netutil
