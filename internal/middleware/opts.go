package middleware

import (
	"log/slog"
	"time"

	"github.com/isometry/storefront-integrity/internal/metrics"
)

// WithLogger sets the logger instance for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Integrity) {
		i.logger = logger
	}
}

// WithProviderHeader sets the hosting provider's client address header.
func WithProviderHeader(header string) Option {
	return func(i *Integrity) {
		i.providerHeader = header
	}
}

// WithClock replaces the time source used for Retry-After.
func WithClock(now func() time.Time) Option {
	return func(i *Integrity) {
		i.now = now
	}
}

// WithMetrics records decisions in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Integrity) {
		i.metrics = m
	}
}
