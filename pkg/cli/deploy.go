package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/cli/config"
	"github.com/psteco/hnat/pkg/usecase"
)

func cmdDeploy() *cli.Command {
	var releaseCfg config.Release

	return &cli.Command{
		Name:    "deploy",
		Aliases: []string{"d"},
		Usage:   "Stage the plugin files into the target directory",
		Flags:   releaseCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			manifest, err := releaseCfg.Load()
			if err != nil {
				return err
			}

			result, err := usecase.NewRelease(manifest).Deploy(ctx)
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Deploy finished",
				"dir", result.Dir,
				"files", len(result.Files),
				"bytes", result.Size,
			)
			return nil
		},
	}
}
