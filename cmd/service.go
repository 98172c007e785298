package cmd

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/isometry/storefront-integrity/internal/config"
	"github.com/isometry/storefront-integrity/internal/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		PreRunE: func(_ *cobra.Command, _ []string) error {
			config.Global.Mode = ModeService
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("mode", ModeService)
			logger.Info("spawning...")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := setup(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to setup service")
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("failed to release resources", slog.Any("error", err))
				}
			}()

			if a.sweeper != nil {
				go a.sweeper.Run(ctx)
			}

			logger.Debug("creating runtime...")
			rt := runtime.NewRuntime(a.router,
				runtime.WithLogger(logger.With("component", "runtime")))

			s := &http.Server{
				Handler:           rt,
				Addr:              net.JoinHostPort(config.Service.Addr, config.Service.Port),
				WriteTimeout:      config.Service.Timeout,
				ReadTimeout:       config.Service.Timeout,
				ReadHeaderTimeout: config.Service.Timeout,
				IdleTimeout:       config.Service.Timeout,
			}
			return serve(ctx, s)
		},
	}

	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)
	return cmd
}

// serve runs s until it fails or ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, s *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving...", slog.String("address", s.Addr), slog.String("timeout", s.ReadTimeout.String()))
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down server")
	}
	return nil
}
