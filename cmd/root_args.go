package cmd

import (
	"time"

	"github.com/isometry/storefront-integrity/internal/config"
	"github.com/isometry/storefront-integrity/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.Gateway.CredentialsMode: {
		Name:        "gateway-credentials-mode",
		Description: "Merchant credentials provider. Supported values are 'env' and 'ssm'",
		Short:       helpers.Ptr("A"),
	},
	&config.Gateway.SSMKey: {
		Name:        "gateway-ssm-key",
		Description: "The SSM parameter holding the JSON encoded merchant credentials",
	},
	&config.Gateway.MerchantID: {
		Name:        "gateway-merchant-id",
		Description: "The merchant identifier issued by the payment gateway",
		Env:         helpers.Ptr("PAYFAST_MERCHANT_ID"),
	},
	&config.Gateway.MerchantKey: {
		Name:        "gateway-merchant-key",
		Description: "The merchant key issued by the payment gateway",
		Env:         helpers.Ptr("PAYFAST_MERCHANT_KEY"),
		Hidden:      true,
	},
	&config.Gateway.Passphrase: {
		Name:        "gateway-passphrase",
		Description: "The optional passphrase appended to every signature",
		Env:         helpers.Ptr("PAYFAST_PASSPHRASE"),
		Hidden:      true,
	},
	&config.Security.RateLimit.Backend: {
		Name:        "rate-limit-backend",
		Description: "Where rate limit counters are kept. Supported values are 'memory' and 'redis'",
	},
	&config.Security.RateLimit.ProviderHeader: {
		Name:        "rate-limit-provider-header",
		Description: "The hosting provider header carrying the client address",
	},
	&config.Security.RateLimit.Redis.Addr: {
		Name:        "redis-addr",
		Description: "The redis address used by the redis rate limit backend",
		Env:         helpers.Ptr("REDIS_ADDR"),
	},
	&config.Security.RateLimit.Redis.Password: {
		Name:        "redis-password",
		Description: "The redis password",
		Env:         helpers.Ptr("REDIS_PASSWORD"),
		Hidden:      true,
	},
	&config.Security.RateLimit.Redis.Prefix: {
		Name:        "redis-key-prefix",
		Description: "The prefix of rate limit keys in redis",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Gateway.Sandbox: {
		Name:        "gateway-sandbox",
		Description: "Submit checkouts to the gateway sandbox",
	},
	&config.Security.Production: {
		Name:        "production",
		Description: "Mark CSRF cookies Secure",
	},
}

var envMapInt = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
		Count:       true,
	},
	&config.Security.CSRF.TokenBytes: {
		Name:        "csrf-token-bytes",
		Description: "Random bytes per CSRF token (minimum 16)",
	},
	&config.Security.RateLimit.Redis.DB: {
		Name:        "redis-db",
		Description: "The redis database number",
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Security.RateLimit.SweepInterval: {
		Name:        "rate-limit-sweep-interval",
		Description: "How often expired in-memory counters are removed",
	},
}

var envMapStringSlice = map[*[]string]boundEnvVar[[]string]{
	&config.Security.CSRF.ExemptPaths: {
		Name:        "csrf-exempt-paths",
		Description: "Paths exempt from CSRF verification. A trailing '/' exempts the whole prefix",
	},
}
