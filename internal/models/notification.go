package models

import (
	"time"

	"github.com/isometry/storefront-integrity/internal/signature"
)

// Well-known notification fields.
const (
	FieldPaymentID     = "m_payment_id"
	FieldGatewayID     = "pf_payment_id"
	FieldPaymentStatus = "payment_status"
	FieldAmountGross   = "amount_gross"
)

// PaymentNotification is a verified gateway callback. It lives for a single delivery and is
// handed to the order subsystem; it is never stored here.
type PaymentNotification struct {
	Fields     signature.Fields
	ReceivedAt time.Time
}

// PaymentID returns the merchant's own payment reference.
func (n *PaymentNotification) PaymentID() string {
	return n.Fields[FieldPaymentID]
}

// GatewayID returns the gateway's transaction reference.
func (n *PaymentNotification) GatewayID() string {
	return n.Fields[FieldGatewayID]
}

// PaymentStatus returns the reported outcome, e.g. COMPLETE or CANCELLED.
func (n *PaymentNotification) PaymentStatus() string {
	return n.Fields[FieldPaymentStatus]
}

// Amount returns the gross amount as sent by the gateway.
func (n *PaymentNotification) Amount() string {
	return n.Fields[FieldAmountGross]
}
