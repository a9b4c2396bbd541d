package portshim

import "github.com/giantswarm/portshim/internal/core"

// DrainPolicy controls what happens to in-flight placeholder requests when
// the real service is ready.
//
// DrainPolicy is a type alias so that the core methods IsValid and String are
// part of the public API without being redeclared here.
type DrainPolicy = core.DrainPolicy

const (
	// DrainInFlight stops accepting new connections and lets in-flight
	// requests finish until the stop timeout expires. Remaining connections
	// are then closed and ErrStopTimeout is recorded. This is the default.
	DrainInFlight = core.DrainInFlight

	// AbandonInFlight closes the listening socket and every open connection
	// immediately. Use it when the real service must bind without any delay.
	AbandonInFlight = core.AbandonInFlight
)
