package config

import (
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/domain/types"
)

// Sentry holds error tracking configuration
type Sentry struct {
	DSN string `masq:"secret"`
	Env string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN, error tracking is disabled when empty",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("HNAT_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Destination: &c.Env,
			Sources:     cli.EnvVars("HNAT_SENTRY_ENV"),
		},
	}
}

// Configure initializes the Sentry SDK. It is a no-op without a DSN.
func (c *Sentry) Configure() (bool, error) {
	if c.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
		Release:     types.Version,
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to initialize sentry")
	}
	return true, nil
}
