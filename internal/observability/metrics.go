package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the credit engine and the
// reservation sweep.
type Metrics struct {
	TransactionsApplied  *prometheus.CounterVec
	TransactionsRejected *prometheus.CounterVec
	TransactionRetries   prometheus.Counter
	TransactionDuration  prometheus.Histogram

	ReservationsCreated  prometheus.Counter
	ReservationsResolved *prometheus.CounterVec

	SweepRuns        prometheus.Counter
	SweepRemovals    prometheus.Counter
	SweepFailures    prometheus.Counter
	SweepDuration    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firesale_credit_transactions_applied_total",
			Help: "Committed credit transactions by entry type.",
		}, []string{"type"}),
		TransactionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firesale_credit_transactions_rejected_total",
			Help: "Rejected credit transactions by reason.",
		}, []string{"reason"}),
		TransactionRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "firesale_credit_transaction_retries_total",
			Help: "Optimistic lock retries during credit transactions.",
		}),
		TransactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "firesale_credit_transaction_duration_seconds",
			Help:    "Wall time from request to commit for credit transactions.",
			Buckets: prometheus.DefBuckets,
		}),
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "firesale_reservations_created_total",
			Help: "Reservations successfully created.",
		}),
		ReservationsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firesale_reservations_resolved_total",
			Help: "Reservations resolved by the owning store, by outcome.",
		}, []string{"status"}),
		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "firesale_sweep_runs_total",
			Help: "Completed expiry sweep passes.",
		}),
		SweepRemovals: factory.NewCounter(prometheus.CounterOpts{
			Name: "firesale_sweep_removals_total",
			Help: "Cart entries removed because their reservation expired.",
		}),
		SweepFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "firesale_sweep_failures_total",
			Help: "Sweep passes that failed and were left for the next tick.",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "firesale_sweep_duration_seconds",
			Help:    "Duration of expiry sweep passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
