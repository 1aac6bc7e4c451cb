package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/cli/config"
	"github.com/psteco/hnat/pkg/usecase"
)

func cmdPublish() *cli.Command {
	var (
		releaseCfg config.Release
		githubCfg  config.GitHub
	)

	flags := append(releaseCfg.Flags(), githubCfg.Flags()...)

	return &cli.Command{
		Name:      "publish",
		Usage:     "Upload a verified release archive to a GitHub release",
		ArgsUsage: "<zip path>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			zipPath := c.Args().First()
			if zipPath == "" {
				return goerr.New("zip path argument is required")
			}

			manifest, err := releaseCfg.Load()
			if err != nil {
				return err
			}
			publisher, err := githubCfg.Publisher()
			if err != nil {
				return err
			}

			uc := usecase.NewRelease(manifest, usecase.WithPublisher(publisher))
			result, err := uc.Publish(ctx, zipPath)
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Publish finished",
				"tag", result.Tag,
				"release", result.ReleaseURL,
				"asset", result.AssetURL,
			)
			return nil
		},
	}
}
