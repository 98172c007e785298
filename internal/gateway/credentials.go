package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// Credential source modes.
const (
	SourceEnv = "env"
	SourceSSM = "ssm"
)

// Credentials identify the merchant to the provider.
type Credentials struct {
	MerchantID  string `json:"merchant_id"`
	MerchantKey string `json:"merchant_key"`
	Passphrase  string `json:"passphrase,omitempty"`
}

// Validate requires a merchant id and key.
func (c Credentials) Validate() error {
	if c.MerchantID == "" {
		return errors.New("merchant id is required")
	}
	if c.MerchantKey == "" {
		return errors.New("merchant key is required")
	}
	return nil
}

// SecretGetter reads a secret by key.
type SecretGetter interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// CredentialSource resolves merchant credentials.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials are taken from configuration as is.
type StaticCredentials Credentials

// Credentials returns c.
func (c StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(c), nil
}

// SecretCredentials decode a JSON encoded Credentials secret. The first successful load is cached.
type SecretCredentials struct {
	getter SecretGetter
	key    string

	mu     sync.Mutex
	cached *Credentials
}

// NewSecretCredentials returns a source reading key through getter.
func NewSecretCredentials(getter SecretGetter, key string) *SecretCredentials {
	return &SecretCredentials{getter: getter, key: key}
}

// Credentials fetches and decodes the secret on first use.
func (s *SecretCredentials) Credentials(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}
	raw, err := s.getter.GetSecret(ctx, s.key)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "failed to fetch merchant credentials")
	}
	var c Credentials
	if err = json.Unmarshal([]byte(raw), &c); err != nil {
		return Credentials{}, errors.Wrap(err, "failed to decode merchant credentials")
	}
	if err = c.Validate(); err != nil {
		return Credentials{}, err
	}
	s.cached = &c
	return c, nil
}

// NewCredentialSource selects a source by mode. getter and key are only used by SourceSSM.
func NewCredentialSource(mode string, static Credentials, getter SecretGetter, key string) (CredentialSource, error) {
	switch mode {
	case SourceEnv:
		return StaticCredentials(static), nil
	case SourceSSM:
		if getter == nil {
			return nil, errors.New("ssm credentials require a secret getter")
		}
		if key == "" {
			return nil, errors.New("ssm credentials require a parameter key")
		}
		return NewSecretCredentials(getter, key), nil
	default:
		return nil, errors.Errorf("unsupported credentials mode: %s", mode)
	}
}
