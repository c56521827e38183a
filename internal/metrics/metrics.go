package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"shelver/internal/watch"
)

const namespace = "shelver"

// Organizer records transfers, failures and folder creation.
type Organizer struct {
	transfers        *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
	failures         *prometheus.CounterVec
	foldersCreated   *prometheus.CounterVec
	suppressedEvents prometheus.Counter
	externalEvents   *prometheus.CounterVec
}

// NewOrganizer registers organizer metrics with reg.
func NewOrganizer(reg prometheus.Registerer) *Organizer {
	factory := promauto.With(reg)
	return &Organizer{
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Completed transfers by operation, requested mode and actual outcome.",
			},
			[]string{"operation", "mode", "outcome"},
		),
		transferDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Wall time of organizer operations.",
				Buckets:   []float64{0.001, 0.01, 0.1, 1, 10, 60, 300},
			},
			[]string{"operation"},
		),
		bytesTransferred: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_transferred_total",
				Help:      "Bytes placed into the library by outcome.",
			},
			[]string{"outcome"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Failed organizer operations by reason.",
			},
			[]string{"operation", "reason"},
		),
		foldersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "folders_created_total",
				Help:      "Folders created while materializing destinations, by level.",
			},
			[]string{"level"},
		),
		suppressedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_suppressed_events_total",
			Help:      "Library watcher events recognized as self-inflicted.",
		}),
		externalEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_external_events_total",
				Help:      "Library watcher events caused by other processes, by operation.",
			},
			[]string{"op"},
		),
	}
}

// ObserveTransfer records a successful operation.
func (m *Organizer) ObserveTransfer(operation, mode, outcome string, size int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(operation, mode, outcome).Inc()
	m.transferDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if size > 0 {
		m.bytesTransferred.WithLabelValues(outcome).Add(float64(size))
	}
}

// ObserveFailure records a failed operation.
func (m *Organizer) ObserveFailure(operation, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(operation, reason).Inc()
}

// FolderCreated counts one created folder.
func (m *Organizer) FolderCreated(level watch.Level) {
	if m == nil {
		return
	}
	m.foldersCreated.WithLabelValues(string(level)).Inc()
}

// WatchSuppressed counts one suppressed watcher event.
func (m *Organizer) WatchSuppressed(string) {
	if m == nil {
		return
	}
	m.suppressedEvents.Inc()
}

// WatchExternal counts one external change reported by the library watcher.
func (m *Organizer) WatchExternal(op watch.Op) {
	if m == nil {
		return
	}
	m.externalEvents.WithLabelValues(string(op)).Inc()
}
