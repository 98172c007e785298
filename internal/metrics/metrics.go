// Package metrics exposes counters for integrity decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the integrity layer counters. A nil *Metrics records nothing.
type Metrics struct {
	rateLimitDecisions     *prometheus.CounterVec
	csrfFailures           *prometheus.CounterVec
	signatureVerifications *prometheus.CounterVec
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_rate_limit_decisions_total",
				Help: "Rate limit decisions by endpoint class and outcome",
			},
			[]string{"class", "outcome"},
		),
		csrfFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_csrf_failures_total",
				Help: "Rejected state-changing requests by CSRF failure reason",
			},
			[]string{"reason"},
		),
		signatureVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_signature_verifications_total",
				Help: "Payment signature verifications by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RateLimitDecision records one rate limit outcome: allowed, denied or error.
func (m *Metrics) RateLimitDecision(class, outcome string) {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues(class, outcome).Inc()
}

// CSRFFailure records one CSRF rejection.
func (m *Metrics) CSRFFailure(reason string) {
	if m == nil {
		return
	}
	m.csrfFailures.WithLabelValues(reason).Inc()
}

// SignatureVerification records one signature check: valid or invalid.
func (m *Metrics) SignatureVerification(outcome string) {
	if m == nil {
		return
	}
	m.signatureVerifications.WithLabelValues(outcome).Inc()
}
