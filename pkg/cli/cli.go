package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/cli/config"
	"github.com/psteco/hnat/pkg/domain/types"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	// Optional .env for local runs, read before flag parsing so env
	// sourced flags see it. Absence is fine.
	dotenvErr := godotenv.Load()

	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
		sentryOn  bool
	)

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "hnat",
		Usage:   "Habitat network analysis toolkit",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			if dotenvErr != nil {
				logger.Debug("No .env file loaded", "reason", dotenvErr)
			}

			sentryOn, err = sentryCfg.Configure()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdAnalyze(),
			cmdDeploy(),
			cmdPackage(),
			cmdVerify(),
			cmdPublish(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if sentryOn {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
