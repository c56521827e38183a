// Package metrics exposes organizer activity as Prometheus metrics.
//
// A nil *Organizer is valid and records nothing, so callers never need to
// check whether metrics are enabled. Serve exposes a registry over HTTP for
// the watch daemon.
package metrics
