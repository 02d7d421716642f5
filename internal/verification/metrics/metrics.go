package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification engine.
type Metrics struct {
	// Verification outcomes by mode and status
	Outcomes *prometheus.CounterVec

	// Full verification latency by mode
	VerifyLatency *prometheus.HistogramVec

	// Second-chance storage fetches during document verification
	FallbackFetches prometheus.Counter

	// Cache hits and misses for document verification
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_verification_outcomes_total",
			Help: "Total verification outcomes by mode and status",
		}, []string{"mode", "status"}), // mode: "id", "document"

		VerifyLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certledger_verification_duration_seconds",
			Help:    "Duration of verification requests by mode",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"mode"}),

		FallbackFetches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_verification_fallback_fetches_total",
			Help: "Total storage fetches triggered by hash-index misses",
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_verification_cache_lookups_total",
			Help: "Verification cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
	}
}

// IncrementOutcome records a classification.
func (m *Metrics) IncrementOutcome(mode, status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(mode, status).Inc()
	}
}

// ObserveVerify records a verification duration.
func (m *Metrics) ObserveVerify(mode string, d time.Duration) {
	if m != nil {
		m.VerifyLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}

// IncrementFallbackFetch records a second-chance storage fetch.
func (m *Metrics) IncrementFallbackFetch() {
	if m != nil {
		m.FallbackFetches.Inc()
	}
}

// IncrementCache records a cache hit or miss.
func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
