package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the issuance workflow.
type Metrics struct {
	// End-to-end issuance latency (render, store, commit)
	IssueLatency prometheus.Histogram

	// Storage store retries during issuance
	StoreRetries prometheus.Counter

	// Blobs unpinned after a rejected commit
	Rollbacks prometheus.Counter

	// Unpin attempts that reported failure
	UnpinFailures prometheus.Counter
}

// New creates a Metrics instance with all issuance metrics registered.
func New() *Metrics {
	return &Metrics{
		IssueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_issuance_duration_seconds",
			Help:    "End-to-end duration of certificate issuance",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		StoreRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_issuance_store_retries_total",
			Help: "Total storage store retries during issuance",
		}),

		Rollbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_issuance_rollbacks_total",
			Help: "Total blobs unpinned because the ledger rejected the commit",
		}),

		UnpinFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_issuance_unpin_failures_total",
			Help: "Total unpin attempts that reported failure",
		}),
	}
}

// ObserveIssue records an issuance duration.
func (m *Metrics) ObserveIssue(d time.Duration) {
	if m != nil {
		m.IssueLatency.Observe(d.Seconds())
	}
}

// IncrementStoreRetry records a storage store retry.
func (m *Metrics) IncrementStoreRetry() {
	if m != nil {
		m.StoreRetries.Inc()
	}
}

// IncrementRollback records a post-rejection blob unpin.
func (m *Metrics) IncrementRollback() {
	if m != nil {
		m.Rollbacks.Inc()
	}
}

// IncrementUnpinFailure records a failed unpin attempt.
func (m *Metrics) IncrementUnpinFailure() {
	if m != nil {
		m.UnpinFailures.Inc()
	}
}
