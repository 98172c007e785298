package cmd

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"

	awsctl "github.com/isometry/storefront-integrity/internal/controllers/aws"
	"github.com/isometry/storefront-integrity/internal/config"
	"github.com/isometry/storefront-integrity/internal/csrf"
	"github.com/isometry/storefront-integrity/internal/gateway"
	"github.com/isometry/storefront-integrity/internal/handler"
	"github.com/isometry/storefront-integrity/internal/metrics"
	"github.com/isometry/storefront-integrity/internal/middleware"
	"github.com/isometry/storefront-integrity/internal/ratelimit"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// app holds the assembled router and the resources whose lifetime is bound to the process.
type app struct {
	router http.Handler
	// sweeper is set when counters live in process memory.
	sweeper *ratelimit.MemoryStore
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func setup(ctx context.Context) (*app, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	a := &app{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	logger.Debug("creating rate limit store...", slog.String("backend", config.Security.RateLimit.Backend))
	store, err := newStore(ctx, a)
	if err != nil {
		return nil, err
	}
	policies, err := config.Policies()
	if err != nil {
		return nil, err
	}

	guard := csrf.NewGuard(
		csrf.WithLogger(logger.With("component", "csrf")),
		csrf.WithSecure(config.Security.Production),
		csrf.WithTokenBytes(config.Security.CSRF.TokenBytes),
		csrf.WithExemptPaths(config.Security.CSRF.ExemptPaths...))

	logger.Debug("resolving merchant credentials...", slog.String("mode", config.Gateway.CredentialsMode))
	creds, err := resolveCredentials(ctx)
	if err != nil {
		return nil, err
	}
	merchant, err := gateway.NewMerchant(
		gateway.WithCredentials(creds),
		gateway.WithSandbox(config.Gateway.Sandbox),
		gateway.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create merchant")
	}

	integrity := middleware.NewIntegrity(store, policies, guard,
		middleware.WithLogger(logger.With("component", "integrity")),
		middleware.WithProviderHeader(config.Security.RateLimit.ProviderHeader),
		middleware.WithMetrics(m))

	hdl := handler.NewHandler(merchant, guard,
		handler.WithLogger(logger.With("component", "handler")),
		handler.WithMetrics(m))
	a.router = hdl.Router(integrity, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return a, nil
}

func newStore(ctx context.Context, a *app) (ratelimit.Store, error) {
	rl := config.Security.RateLimit
	switch rl.Backend {
	case config.BackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{rl.Redis.Addr},
			Password: rl.Redis.Password,
			DB:       rl.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			// requests are rejected until redis is reachable
			logger.Warn("redis unreachable at startup", slog.String("addr", rl.Redis.Addr), slog.Any("error", err))
		}
		a.closers = append(a.closers, client.Close)
		return ratelimit.NewRedisStore(client, rl.Redis.Prefix), nil
	default:
		store := ratelimit.NewMemoryStore(
			ratelimit.WithSweepInterval(rl.SweepInterval),
			ratelimit.WithMemoryLogger(logger.With("component", "ratelimit")))
		a.sweeper = store
		return store, nil
	}
}

func resolveCredentials(ctx context.Context) (gateway.Credentials, error) {
	static := gateway.Credentials{
		MerchantID:  config.Gateway.MerchantID,
		MerchantKey: config.Gateway.MerchantKey,
		Passphrase:  config.Gateway.Passphrase,
	}
	var getter gateway.SecretGetter
	if config.Gateway.CredentialsMode == config.CredentialsSSM {
		ctl, err := awsctl.NewController(ctx, awsctl.WithLogger(logger))
		if err != nil {
			return gateway.Credentials{}, errors.Wrap(err, "failed to create AWS controller")
		}
		getter = ctl
	}
	source, err := gateway.NewCredentialSource(config.Gateway.CredentialsMode, static, getter, config.Gateway.SSMKey)
	if err != nil {
		return gateway.Credentials{}, err
	}
	return source.Credentials(ctx)
}
