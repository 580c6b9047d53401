package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling
	SlotDecisions    *prometheus.CounterVec
	BookingConflicts prometheus.Counter

	// Status clock
	SweepRuns          *prometheus.CounterVec
	SweepTransitions   *prometheus.CounterVec
	SweepDuration      prometheus.Histogram
	LastSweepTimestamp prometheus.Gauge

	// Settlement
	Settlements      *prometheus.CounterVec
	CommissionAmount prometheus.Counter

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on the default registry.
func NewMetrics(namespace, subsystem string) *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer, namespace, subsystem)
}

// NewMetricsWithRegistry registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewMetricsWithRegistry(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SlotDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_decisions_total",
			Help:      "Slot validation outcomes by reason",
		}, []string{"reason"}),
		BookingConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_conflicts_total",
			Help:      "Bookings that lost an insert race",
		}),

		SweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_sweep_runs_total",
			Help:      "Status clock sweeps by result",
		}, []string{"result"}),
		SweepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions applied",
		}, []string{"source", "to"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_sweep_duration_seconds",
			Help:      "Time spent in a status clock sweep",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		LastSweepTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_sweep_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sweep",
		}),

		Settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlements_total",
			Help:      "Settlement attempts by outcome",
		}, []string{"outcome", "rate_source"}),
		CommissionAmount: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commission_amount_total",
			Help:      "Sum of commission amounts recorded",
		}),

		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

// NewNop returns metrics registered on a private registry, for tests and tools.
func NewNop() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry(), "test", "")
}
