package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the Prometheus implementation of the shim metrics.
type Recorder struct {
	state         prometheus.Gauge
	requests      prometheus.Counter
	panics        prometheus.Counter
	startFailures prometheus.Counter
	stopDuration  prometheus.Histogram
}

// New registers the shim collectors on reg and returns a Recorder.
// Returns nil if reg is nil. Collectors already registered on reg, by an
// earlier Recorder for example, are reused, so several shims may share one
// registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return nil
	}

	return &Recorder{
		state: registerOrReuse(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portshim_state",
			Help: "Current shim state (0 idle, 1 listening, 2 stopped)",
		})),
		requests: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portshim_requests_total",
			Help: "Total number of requests answered by the placeholder listener",
		})),
		panics: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portshim_handler_panics_total",
			Help: "Total number of recovered panics in the placeholder handler",
		})),
		startFailures: registerOrReuse(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portshim_start_failures_total",
			Help: "Total number of placeholder starts that failed to bind",
		})),
		stopDuration: registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portshim_stop_duration_seconds",
			Help:    "Time taken to stop the placeholder listener and release the port",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		})),
	}
}

// registerOrReuse registers c on reg. If an equal collector is already
// registered it returns that one instead. Any other registration failure
// (a name clash with a different metric type or help) panics.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	panic(fmt.Sprintf("portshim: register metrics: %v", err))
}

// SetState records the current shim state as its numeric value.
func (r *Recorder) SetState(state int) {
	if r == nil {
		return
	}
	r.state.Set(float64(state))
}

// IncRequests counts one answered placeholder request.
func (r *Recorder) IncRequests() {
	if r == nil {
		return
	}
	r.requests.Inc()
}

// IncPanics counts one recovered handler panic.
func (r *Recorder) IncPanics() {
	if r == nil {
		return
	}
	r.panics.Inc()
}

// IncStartFailures counts one failed placeholder start.
func (r *Recorder) IncStartFailures() {
	if r == nil {
		return
	}
	r.startFailures.Inc()
}

// ObserveStop records how long a placeholder stop took.
func (r *Recorder) ObserveStop(d time.Duration) {
	if r == nil {
		return
	}
	r.stopDuration.Observe(d.Seconds())
}
