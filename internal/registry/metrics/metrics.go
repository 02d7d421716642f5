package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the certificate registry.
type Metrics struct {
	// Issued certificates
	CertificatesIssued prometheus.Counter

	// Revoked certificates
	CertificatesRevoked prometheus.Counter

	// Rejected mutations by error code
	Rejections *prometheus.CounterVec

	// Ledger submit latency
	SubmitLatency prometheus.Histogram

	// Ledger read latency by operation
	LookupLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_registry_certificates_issued_total",
			Help: "Total certificates successfully issued",
		}),
		CertificatesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_registry_certificates_revoked_total",
			Help: "Total certificates revoked",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_registry_rejections_total",
			Help: "Total rejected registry mutations by error code",
		}, []string{"code"}),
		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_registry_submit_duration_seconds",
			Help:    "Duration of ledger transaction submission",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LookupLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certledger_registry_lookup_duration_seconds",
			Help:    "Duration of registry read operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}), // operation: "by_id", "by_hash", "is_authorized", "count"
	}
}

// IncrementIssued records a successful issuance.
func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.CertificatesIssued.Inc()
	}
}

// IncrementRevoked records a successful revocation.
func (m *Metrics) IncrementRevoked() {
	if m != nil {
		m.CertificatesRevoked.Inc()
	}
}

// IncrementRejection records a rejected mutation.
func (m *Metrics) IncrementRejection(code string) {
	if m != nil {
		m.Rejections.WithLabelValues(code).Inc()
	}
}

// ObserveSubmit records the duration of a ledger submission.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

// ObserveLookup records the duration of a read operation.
func (m *Metrics) ObserveLookup(operation string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
