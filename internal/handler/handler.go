// Package handler serves the storefront's CSRF token, checkout signing and payment notification
// endpoints.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/isometry/storefront-integrity/internal/csrf"
	"github.com/isometry/storefront-integrity/internal/gateway"
	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/isometry/storefront-integrity/internal/metrics"
	"github.com/isometry/storefront-integrity/internal/models"
	"github.com/isometry/storefront-integrity/internal/signature"
	"github.com/pkg/errors"
)

const defaultMaxBodyBytes = 64 << 10

// PaymentGateway is the gateway capability the payment endpoints need.
type PaymentGateway interface {
	gateway.Gateway
	CheckoutFields(fields signature.Fields) signature.Fields
	VerifyNotification(fields signature.Fields) error
}

// Option configures a Handler.
type Option func(*Handler)

// Handler holds the collaborators of the HTTP endpoints.
type Handler struct {
	logger       *slog.Logger
	gateway      PaymentGateway
	guard        *csrf.Guard
	notifier     Notifier
	metrics      *metrics.Metrics
	now          func() time.Time
	maxBodyBytes int64
}

// NewHandler returns a Handler signing with gw and issuing tokens with guard.
func NewHandler(gw PaymentGateway, guard *csrf.Guard, opts ...Option) *Handler {
	_inst := &Handler{
		logger:       helpers.NewNoopLogger(),
		gateway:      gw,
		guard:        guard,
		now:          time.Now,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.notifier == nil {
		_inst.notifier = NewLogNotifier(_inst.logger)
	}
	return _inst
}

type tokenResponse struct {
	Token string `json:"token"`
}

// CSRFToken issues a fresh token, sets it as a cookie and returns it in the body.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.guard.IssueToken()
	if err != nil {
		h.logger.Error("failed to issue csrf token", slog.Any("error", err))
		helpers.RespondError(w, r, models.NewInternal())
		return
	}
	http.SetCookie(w, token.Cookie)
	helpers.RespondJSON(w, r, http.StatusOK, tokenResponse{Token: token.Value})
}

type checkoutResponse struct {
	Endpoint string           `json:"endpoint"`
	Fields   signature.Fields `json:"fields"`
}

// Checkout adds the merchant identity to the submitted payment fields and signs them.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		h.logger.Debug("malformed checkout body", slog.Any("error", err))
		helpers.RespondError(w, r, models.NewBadRequest("malformed JSON body"))
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		h.logger.Debug("trailing data after checkout body")
		helpers.RespondError(w, r, models.NewBadRequest("malformed JSON body"))
		return
	}
	fields, err := stringFields(body)
	if err != nil {
		helpers.RespondError(w, r, models.NewBadRequest(err.Error()))
		return
	}

	signed := h.gateway.CheckoutFields(fields)
	h.logger.Debug("checkout signed", slog.Int("fields", len(signed)))
	helpers.RespondJSON(w, r, http.StatusOK, checkoutResponse{
		Endpoint: h.gateway.ProcessingEndpoint(),
		Fields:   signed,
	})
}

// stringFields converts a decoded JSON object into Fields. Null values are treated as absent.
func stringFields(body map[string]any) (signature.Fields, error) {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(signature.Fields, len(body))
	for _, k := range keys {
		switch v := body[k].(type) {
		case nil:
		case string:
			fields[k] = v
		default:
			return nil, errors.Errorf("field %q must be a string", k)
		}
	}
	return fields, nil
}

// PaymentWebhook verifies a form encoded payment notification and hands it to the Notifier.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.Info("unparsable payment notification", slog.Any("error", err))
		h.metrics.SignatureVerification("invalid")
		helpers.RespondError(w, r, models.NewInvalidSignature())
		return
	}

	fields := signature.FromValues(r.PostForm)
	if err := h.gateway.VerifyNotification(fields); err != nil {
		h.metrics.SignatureVerification("invalid")
		if errors.Is(err, gateway.ErrInvalidSignature) {
			helpers.RespondError(w, r, models.NewInvalidSignature())
			return
		}
		h.logger.Error("payment notification verification failed", slog.Any("error", err))
		helpers.RespondError(w, r, err)
		return
	}
	h.metrics.SignatureVerification("valid")

	notification := &models.PaymentNotification{
		Fields:     fields.Without(signature.FieldSignature),
		ReceivedAt: h.now(),
	}
	logger := h.logger.With(slog.String("paymentId", notification.PaymentID()), slog.String("status", notification.PaymentStatus()))
	if err := h.notifier.Notify(r.Context(), notification); err != nil {
		logger.Error("payment notification not delivered", slog.Any("error", err))
		helpers.RespondError(w, r, err)
		return
	}
	logger.Info("payment notification accepted")
	helpers.RespondHTTP(models.Response{Body: "OK", StatusCode: http.StatusOK}, w, r)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.RespondHTTP(models.Response{Body: "ok", StatusCode: http.StatusOK}, w, r)
}
