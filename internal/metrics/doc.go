// Package metrics exposes the shim's Prometheus collectors.
//
// A nil *Recorder is valid and records nothing, so callers never branch on
// whether metrics are enabled.
package metrics
