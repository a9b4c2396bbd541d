package portshim

import (
	"context"

	"github.com/giantswarm/portshim/internal/core"
)

// HandoffConfig configures AwaitHandoff.
//
//   - LockPath is the file passed to WithHandoffLock in the shim process.
//   - Host and Port are what the real service is about to bind. Port zero
//     skips the bind probe.
//   - Timeout bounds the whole wait.
type HandoffConfig = core.HandoffConfig

// AwaitHandoff blocks until a shim in another process has released the port.
// It waits for the handoff lock, which the shim holds for as long as its
// placeholder is bound, then polls until Host:Port is bindable.
//
// It returns immediately when no shim holds the lock, so it is safe to call
// unconditionally before binding.
func AwaitHandoff(ctx context.Context, cfg HandoffConfig) error {
	return core.AwaitHandoff(ctx, cfg)
}
