// Package core provides the internal implementation of the portshim liveness
// shim. It contains the Coordinator (the Idle/Listening/Stopped state machine
// that owns the placeholder listener and the optional cross-process handoff
// lock) and the Observer (which turns an unordered, possibly duplicated
// stream of lifecycle signals into at most one start and one stop request).
package core
