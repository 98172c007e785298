// Package gateway binds the signature codec to a merchant identity and a processing environment.
package gateway

import (
	"log/slog"

	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/isometry/storefront-integrity/internal/signature"
	"github.com/pkg/errors"
)

// Processing endpoints of the payment provider.
const (
	SandboxEndpoint = "https://sandbox.payfast.co.za/eng/process"
	LiveEndpoint    = "https://www.payfast.co.za/eng/process"
)

// Fields the provider expects in every signed checkout.
const (
	FieldMerchantID  = "merchant_id"
	FieldMerchantKey = "merchant_key"
)

// ErrInvalidSignature is returned when a payload's signature does not match its fields.
var ErrInvalidSignature = errors.New("invalid signature")

// Gateway signs outbound payment fields, validates inbound notifications and resolves where
// checkouts are submitted. Alternative providers implement the same capability.
type Gateway interface {
	GenerateSignature(fields signature.Fields) string
	ValidateSignature(fields signature.Fields) bool
	ProcessingEndpoint() string
}

// Option configures a Merchant.
type Option func(*Merchant)

// Merchant is a Gateway for providers speaking the MD5 form signature protocol.
type Merchant struct {
	logger *slog.Logger

	credentials Credentials
	sandbox     bool
	sandboxURL  string
	liveURL     string
}

var _ Gateway = (*Merchant)(nil)

// NewMerchant returns a Merchant. A merchant id and key are required.
func NewMerchant(opts ...Option) (*Merchant, error) {
	_inst := &Merchant{
		logger:     helpers.NewNoopLogger(),
		sandboxURL: SandboxEndpoint,
		liveURL:    LiveEndpoint,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if err := _inst.credentials.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid merchant configuration")
	}
	_inst.logger = _inst.logger.With("component", "gateway")
	_inst.logger.Debug("merchant configured", slog.Any("merchant", _inst))
	return _inst, nil
}

// GenerateSignature signs fields as given with the merchant passphrase. Nothing is merged in.
func (m *Merchant) GenerateSignature(fields signature.Fields) string {
	return signature.Sign(fields, m.credentials.Passphrase)
}

// ValidateSignature reports whether the signature field of fields matches the rest.
func (m *Merchant) ValidateSignature(fields signature.Fields) bool {
	return signature.Verify(fields, m.credentials.Passphrase)
}

// VerifyNotification returns ErrInvalidSignature unless fields carry a valid signature.
func (m *Merchant) VerifyNotification(fields signature.Fields) error {
	if !m.ValidateSignature(fields) {
		m.logger.Info("notification signature rejected", slog.Int("fields", len(fields)))
		return ErrInvalidSignature
	}
	return nil
}

// ProcessingEndpoint returns the sandbox or live URL chosen at construction.
func (m *Merchant) ProcessingEndpoint() string {
	if m.sandbox {
		return m.sandboxURL
	}
	return m.liveURL
}

// CheckoutFields returns a copy of fields with the merchant identity added and signed.
func (m *Merchant) CheckoutFields(fields signature.Fields) signature.Fields {
	out := fields.Without(signature.FieldSignature)
	out[FieldMerchantID] = m.credentials.MerchantID
	out[FieldMerchantKey] = m.credentials.MerchantKey
	out[signature.FieldSignature] = m.GenerateSignature(out)
	return out
}

// MerchantID returns the merchant identifier.
func (m *Merchant) MerchantID() string { return m.credentials.MerchantID }

// MerchantKey returns the merchant key.
func (m *Merchant) MerchantKey() string { return m.credentials.MerchantKey }

// Sandbox reports whether the merchant targets the sandbox environment.
func (m *Merchant) Sandbox() bool { return m.sandbox }

// LogValue keeps the key and passphrase out of logs.
func (m *Merchant) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("merchantId", m.credentials.MerchantID),
		slog.Bool("sandbox", m.sandbox),
		slog.Bool("passphrase", m.credentials.Passphrase != ""),
	)
}
