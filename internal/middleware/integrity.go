// Package middleware composes the rate limiter and the CSRF guard in front of route handlers.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/isometry/storefront-integrity/internal/csrf"
	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/isometry/storefront-integrity/internal/metrics"
	"github.com/isometry/storefront-integrity/internal/models"
	"github.com/isometry/storefront-integrity/internal/ratelimit"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Response headers describing the rate limit state.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Option configures an Integrity.
type Option func(*Integrity)

// Integrity guards handlers with a per-class rate limit followed by CSRF verification.
type Integrity struct {
	logger         *slog.Logger
	store          ratelimit.Store
	policies       ratelimit.Policies
	guard          *csrf.Guard
	metrics        *metrics.Metrics
	providerHeader string
	now            func() time.Time
	unknownWarning *rate.Sometimes
}

// NewIntegrity returns an Integrity using store for counting, policies for limits and guard for
// CSRF verification.
func NewIntegrity(store ratelimit.Store, policies ratelimit.Policies, guard *csrf.Guard, opts ...Option) *Integrity {
	_inst := &Integrity{
		logger:         helpers.NewNoopLogger(),
		store:          store,
		policies:       policies,
		guard:          guard,
		providerHeader: ratelimit.DefaultProviderHeader,
		now:            time.Now,
		unknownWarning: helpers.OnceAMinute(),
	}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

// Protect applies the rate limit for class and then, for state-changing requests, the CSRF check.
func (i *Integrity) Protect(class ratelimit.Class) func(http.Handler) http.Handler {
	limit, verify := i.RateLimit(class), i.CSRF()
	return func(next http.Handler) http.Handler {
		return limit(verify(next))
	}
}

// RateLimit rejects requests over the class limit with 429. Store failures are rejected too.
func (i *Integrity) RateLimit(class ratelimit.Class) func(http.Handler) http.Handler {
	logger := i.logger.With("class", string(class))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, err := i.policies.Lookup(class)
			if err != nil {
				logger.Error("rate limit policy lookup failed", slog.Any("error", err))
				helpers.RespondError(w, r, err)
				return
			}

			clientID := ratelimit.ClientIdentifier(r, i.providerHeader)
			if clientID == ratelimit.UnknownClient {
				i.unknownWarning.Do(func() {
					logger.Warn("request without client address, using shared bucket")
				})
			}

			now := i.now()
			decision, err := i.store.Check(r.Context(), ratelimit.Key(policy.KeyPrefix, clientID), policy.MaxRequests, policy.Window)
			if err != nil {
				logger.Warn("rate limit store unavailable, rejecting request", slog.Any("error", err))
				i.metrics.RateLimitDecision(string(class), "error")
				decision = ratelimit.Decision{Limit: policy.MaxRequests, ResetAt: now.Add(policy.Window)}
			}

			h := w.Header()
			h.Set(HeaderLimit, strconv.Itoa(decision.Limit))
			h.Set(HeaderRemaining, strconv.Itoa(decision.Remaining))
			h.Set(HeaderReset, decision.ResetAt.UTC().Format(time.RFC3339))

			if !decision.Allowed {
				if err == nil {
					i.metrics.RateLimitDecision(string(class), "denied")
					logger.Info("rate limit exceeded", slog.String("client", clientID))
				}
				h.Set(HeaderRetryAfter, strconv.Itoa(decision.RetryAfter(now)))
				helpers.RespondError(w, r, models.NewRateLimited())
				return
			}
			i.metrics.RateLimitDecision(string(class), "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// CSRF rejects state-changing requests whose cookie and header tokens are missing or differ.
func (i *Integrity) CSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := i.guard.Verify(r)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, csrf.ErrTokenMissing):
				i.metrics.CSRFFailure("missing")
				i.logger.Info("csrf token missing", slog.String("method", r.Method), slog.String("path", r.URL.Path))
				helpers.RespondError(w, r, models.NewCSRFTokenMissing())
			case errors.Is(err, csrf.ErrTokenMismatch):
				i.metrics.CSRFFailure("mismatch")
				i.logger.Info("csrf token mismatch", slog.String("method", r.Method), slog.String("path", r.URL.Path))
				helpers.RespondError(w, r, models.NewCSRFTokenMismatch())
			default:
				i.logger.Error("csrf verification failed", slog.Any("error", err))
				helpers.RespondError(w, r, err)
			}
		})
	}
}
