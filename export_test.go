package portshim

import "time"

// ConfigSnapshot holds a copy of shimConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	Enabled           bool
	Port              int
	Host              string
	ResponseStatus    int
	ResponseBody      string
	StartTimeout      time.Duration
	StopTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	DrainPolicy       DrainPolicy
	HandoffLockPath   string
	HasRegisterer     bool
}

// ApplyOptionsForTesting builds the shimConfig New would use for cfg and
// opts, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(cfg Config, opts ...Option) ConfigSnapshot {
	sc := defaultShimConfig(cfg)
	for _, opt := range opts {
		opt(&sc)
	}

	return ConfigSnapshot{
		Enabled:           sc.Enabled,
		Port:              sc.Port,
		Host:              sc.Host,
		ResponseStatus:    sc.ResponseStatus,
		ResponseBody:      string(sc.ResponseBody),
		StartTimeout:      sc.StartTimeout,
		StopTimeout:       sc.StopTimeout,
		ReadHeaderTimeout: sc.ReadHeaderTimeout,
		DrainPolicy:       sc.DrainPolicy,
		HandoffLockPath:   sc.HandoffLockPath,
		HasRegisterer:     sc.registerer != nil,
	}
}
