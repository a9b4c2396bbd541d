package portshim

import (
	"fmt"

	"github.com/giantswarm/portshim/internal/core"
	"github.com/giantswarm/portshim/internal/netutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable read by ConfigFromEnv.
const envPrefix = "PORTSHIM"

// Config is the process-level shim configuration. It is read once at startup
// and not changed afterwards.
type Config struct {
	// Enabled turns the shim on. The zero Config is disabled: no signal
	// binds anything.
	Enabled bool

	// Port is used when EnvironmentReady carries no port. Zero means the
	// signal must supply it.
	Port int

	// ResponseStatus is returned for every placeholder request. Zero means
	// DefaultResponseStatus.
	ResponseStatus int
}

// ConfigFromEnv reads Config from the environment:
//
//	PORTSHIM_ENABLED  bool, default false
//	PORTSHIM_PORT     int,  default 0
//
// Unset or empty variables keep their defaults. A value that does not parse,
// or a port outside 1-65535, is an error. Callers should log it and continue
// with the zero Config rather than fail startup over the shim.
func ConfigFromEnv() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("enabled", false)
	v.SetDefault("port", 0)

	enabled, err := cast.ToBoolE(v.Get("enabled"))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s_ENABLED: %w", envPrefix, err)
	}
	port, err := cast.ToIntE(v.Get("port"))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s_PORT: %w", envPrefix, err)
	}
	if port != 0 && !netutil.ValidPort(port) {
		return Config{}, fmt.Errorf("parse %s_PORT: %w: %d", envPrefix, ErrInvalidPort, port)
	}

	return Config{
		Enabled:        enabled,
		Port:           port,
		ResponseStatus: DefaultResponseStatus,
	}, nil
}

// shimConfig holds the full configuration of a Shim. It embeds
// core.ShimConfig so options can set core fields directly, and carries the
// settings that never reach the core package.
type shimConfig struct {
	core.ShimConfig

	registerer prometheus.Registerer
}

// defaultShimConfig merges cfg with the package defaults.
func defaultShimConfig(cfg Config) shimConfig {
	status := cfg.ResponseStatus
	if status == 0 {
		status = DefaultResponseStatus
	}
	return shimConfig{
		ShimConfig: core.ShimConfig{
			Enabled:           cfg.Enabled,
			Port:              cfg.Port,
			Host:              DefaultHost,
			ResponseStatus:    status,
			ResponseBody:      DefaultResponseBody,
			StartTimeout:      DefaultStartTimeout,
			StopTimeout:       DefaultStopTimeout,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			DrainPolicy:       DefaultDrainPolicy,
		},
	}
}
