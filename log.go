package portshim

import (
	"log/slog"

	"github.com/giantswarm/portshim/internal/core"
)

// SetLogger replaces the package-level logger used by portshim.
// The provided logger should already carry any desired attributes.
//
// If l is nil, the logger resets to slog.Default() with a "component"
// attribute. Call SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently, but a Shim captures the logger when
// it is created, so set it before calling New.
//
// Example:
//
//	portshim.SetLogger(myLogger.With("component", "portshim"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
