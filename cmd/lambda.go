package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/isometry/storefront-integrity/internal/config"
	"github.com/isometry/storefront-integrity/internal/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Supported Lambda payload types.
const (
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use: "lambda",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			config.Global.Mode = ModeLambda
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("mode", ModeLambda)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := setup(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}
			if a.sweeper != nil {
				go a.sweeper.Run(ctx)
			}

			rt := runtime.NewRuntime(a.router,
				runtime.WithLogger(logger.With("component", "runtime")))

			var fn any
			switch config.Lambda.PayloadType {
			case PayloadAPIGatewayV2:
				fn = rt.Lambda
			case PayloadLambdaURL:
				fn = rt.LambdaURL
			default:
				return fmt.Errorf("unsupported lambda payload type: %s", config.Lambda.PayloadType)
			}

			logger.Info("lambda starting...", "payloadType", config.Lambda.PayloadType)
			lambda.StartWithOptions(fn, lambda.WithContext(ctx))
			return nil
		},
	}

	bindEnvMap(cmd, lambdaEnvMapString)
	return cmd
}
