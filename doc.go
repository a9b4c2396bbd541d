// Package portshim keeps a required port answered while an application is
// still initializing.
//
// Hosting platforms often probe the application port shortly after launch and
// kill the process if nothing answers. portshim binds that port with a
// placeholder responder as soon as the host knows which port it will use, and
// releases it the moment the real service is ready to bind it.
//
// # Basic Usage
//
//	import "github.com/giantswarm/portshim"
//
//	cfg, err := portshim.ConfigFromEnv()
//	if err != nil {
//	    // A bad setting must not stop the application; run without the shim.
//	    slog.Warn("portshim disabled", "error", err)
//	    cfg = portshim.Config{}
//	}
//	shim := portshim.New(cfg)
//
//	// Configuration resolved; the port is known but nothing listens yet.
//	shim.EnvironmentReady(ctx, port)
//
//	// ... slow initialization ...
//
//	// About to bind the real server.
//	shim.ServiceReady()
//	srv.ListenAndServe()
//
// # Signals From Channels
//
// Hosts that publish lifecycle events on channels can attach them directly:
//
//	go shim.Watch(ctx, envReady, serviceReady)
//
// Duplicate and out-of-order signals are tolerated. Only the first
// EnvironmentReady starts the placeholder and only the first ServiceReady
// after it stops the placeholder. A ServiceReady that arrives first retires
// the shim without ever binding.
//
// # Failures
//
// The shim never blocks or aborts startup. A failed bind (port taken,
// permission denied) is logged as a warning, recorded in Err, and the shim
// moves to StateStopped. Stop always closes the socket before returning.
//
// # Separate Processes
//
// When the real service runs in another process, configure a handoff lock
// with WithHandoffLock and call AwaitHandoff in that process before it binds.
package portshim
