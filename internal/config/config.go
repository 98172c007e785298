// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"github.com/isometry/storefront-integrity/internal/ratelimit"
	"go.yaml.in/yaml/v3"
)

// Credential sources for the payment gateway.
const (
	CredentialsEnv = "env"
	CredentialsSSM = "ssm"
)

// Rate limit counter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
	// Gateway is a struct that contains the payment gateway merchant configuration.
	Gateway gateway
	// Security is a struct that contains the CSRF and rate limiting configuration.
	Security security
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type service struct {
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"8080"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

type gateway struct {
	// CredentialsMode selects where merchant credentials are read from: env or ssm.
	CredentialsMode string `yaml:"credentialsMode,omitempty" default:"env"`
	// SSMKey is the SecureString parameter holding the JSON encoded credentials.
	SSMKey      string `yaml:"ssmKey,omitempty"`
	MerchantID  string `yaml:"merchantId,omitempty"`
	MerchantKey string `yaml:"merchantKey,omitempty"`
	Passphrase  string `yaml:"passphrase,omitempty"`
	// Sandbox routes checkouts to the gateway's test environment.
	Sandbox bool `yaml:"sandbox,omitempty" default:"true"`
}

type security struct {
	// Production marks CSRF cookies Secure.
	Production bool `yaml:"production,omitempty"`
	CSRF       struct {
		TokenBytes  int      `yaml:"tokenBytes,omitempty" default:"32"`
		ExemptPaths []string `yaml:"exemptPaths,omitempty" default:"[\"/api/webhooks/\", \"/api/csrf-token\"]"`
	} `yaml:"csrf,omitempty"`
	RateLimit struct {
		// Backend is memory or redis.
		Backend       string        `yaml:"backend,omitempty" default:"memory"`
		SweepInterval time.Duration `yaml:"sweepInterval,omitempty" default:"60s"`
		// ProviderHeader is the hosting provider's client address header.
		ProviderHeader string `yaml:"providerHeader,omitempty" default:"CF-Connecting-IP"`
		// Classes overrides the built-in per-class limits.
		Classes ratelimit.Policies `yaml:"classes,omitempty"`
		Redis   struct {
			Addr     string `yaml:"addr,omitempty" default:"localhost:6379"`
			Password string `yaml:"password,omitempty"`
			DB       int    `yaml:"db,omitempty"`
			Prefix   string `yaml:"prefix,omitempty" default:"rl"`
		} `yaml:"redis,omitempty"`
	} `yaml:"rateLimit,omitempty"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
		defaults.Set(&Gateway),
		defaults.Set(&Security),
	)
}

// Policies returns the built-in rate limit table with the configured overrides applied.
func Policies() (ratelimit.Policies, error) {
	policies := ratelimit.DefaultPolicies().Merge(Security.RateLimit.Classes)
	if err := policies.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	return policies, nil
}

// Validate checks the enumerated settings.
func Validate() error {
	var errs []error
	switch Gateway.CredentialsMode {
	case CredentialsEnv:
	case CredentialsSSM:
		if Gateway.SSMKey == "" {
			errs = append(errs, errors.New("gateway.ssmKey is required when credentialsMode is ssm"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported gateway credentials mode: %q", Gateway.CredentialsMode))
	}
	switch Security.RateLimit.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported rate limit backend: %q", Security.RateLimit.Backend))
	}
	return errors.Join(errs...)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global   global   `yaml:"global,omitempty"`
		Service  service  `yaml:"service,omitempty"`
		Lambda   lambda   `yaml:"lambda,omitempty"`
		Gateway  gateway  `yaml:"gateway,omitempty"`
		Security security `yaml:"security,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Service = a.Service
	Lambda = a.Lambda
	Gateway = a.Gateway
	Security = a.Security

	return nil
}
