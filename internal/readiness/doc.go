// Package readiness polls a condition until it holds or a deadline passes.
//
// WaitReady wraps the apimachinery poll loop with argument validation and
// logging. PortFree and HTTPAlive are the two checks the shim needs: waiting
// for a port to become bindable after a handoff, and waiting for a listener
// to answer requests.
package readiness
