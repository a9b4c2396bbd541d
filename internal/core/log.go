package core

import (
	"log/slog"
	"sync/atomic"
)

// logger holds the logger installed with SetLogger, or nil.
var logger atomic.Pointer[slog.Logger]

// defaultLogger memoizes the fallback built from slog.Default(). SetLogger
// clears it, which is how a later slog.SetDefault reaches the shim.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the logger every shim component logs through. Coordinators
// capture it at construction, so placeholder and transition logs of one shim
// always go to the same handler.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "portshim")
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	// Lost the race to another Logger call or to SetLogger(nil).
	if cur := defaultLogger.Load(); cur != nil {
		return cur
	}
	return l
}

// SetLogger installs l for shims created afterwards. A nil l goes back to
// slog.Default() tagged with component=portshim.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
