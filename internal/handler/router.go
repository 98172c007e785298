package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/storefront-integrity/internal/middleware"
	"github.com/isometry/storefront-integrity/internal/ratelimit"
)

// Route paths.
const (
	PathCSRFToken      = "/api/csrf-token"
	PathCheckout       = "/api/payments/checkout"
	PathPaymentWebhook = "/api/webhooks/payment"
	PathHealthz        = "/healthz"
	PathMetrics        = "/metrics"
)

// Router mounts the endpoints behind integrity. metricsHandler may be nil.
func (h *Handler) Router(integrity *middleware.Integrity, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get(PathHealthz, h.Healthz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, PathMetrics, metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(integrity.Protect(ratelimit.ClassPublic))
		r.Get(PathCSRFToken, h.CSRFToken)
		r.Post(PathCheckout, h.Checkout)
	})
	r.With(integrity.Protect(ratelimit.ClassWebhook)).Post(PathPaymentWebhook, h.PaymentWebhook)

	return r
}
