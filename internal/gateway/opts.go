package gateway

import "log/slog"

// WithLogger sets the logger instance for the merchant.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merchant) {
		m.logger = logger
	}
}

// WithCredentials sets the merchant id, key and passphrase at once.
func WithCredentials(c Credentials) Option {
	return func(m *Merchant) {
		m.credentials = c
	}
}

// WithMerchantID sets the merchant identifier.
func WithMerchantID(id string) Option {
	return func(m *Merchant) {
		m.credentials.MerchantID = id
	}
}

// WithMerchantKey sets the merchant key.
func WithMerchantKey(key string) Option {
	return func(m *Merchant) {
		m.credentials.MerchantKey = key
	}
}

// WithPassphrase sets the optional signing passphrase.
func WithPassphrase(passphrase string) Option {
	return func(m *Merchant) {
		m.credentials.Passphrase = passphrase
	}
}

// WithSandbox selects the sandbox environment.
func WithSandbox(sandbox bool) Option {
	return func(m *Merchant) {
		m.sandbox = sandbox
	}
}

// WithEndpoints overrides the processing URLs.
func WithEndpoints(sandboxURL, liveURL string) Option {
	return func(m *Merchant) {
		if sandboxURL != "" {
			m.sandboxURL = sandboxURL
		}
		if liveURL != "" {
			m.liveURL = liveURL
		}
	}
}
