package handler

import (
	"context"
	"log/slog"

	"github.com/isometry/storefront-integrity/internal/models"
)

// Notifier receives verified payment notifications. Crediting orders and updating stock happen
// behind it.
type Notifier interface {
	Notify(ctx context.Context, n *models.PaymentNotification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n *models.PaymentNotification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n *models.PaymentNotification) error {
	return f(ctx, n)
}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return NotifierFunc(func(_ context.Context, n *models.PaymentNotification) error {
		logger.Info("payment notification received",
			slog.String("paymentId", n.PaymentID()),
			slog.String("gatewayId", n.GatewayID()),
			slog.String("status", n.PaymentStatus()),
			slog.String("amount", n.Amount()))
		return nil
	})
}
