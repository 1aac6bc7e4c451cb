package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/cli/config"
	"github.com/psteco/hnat/pkg/domain/model"
	"github.com/psteco/hnat/pkg/usecase"
	"github.com/psteco/hnat/pkg/utils/async"
)

func cmdPackage() *cli.Command {
	var (
		releaseCfg config.Release
		slackCfg   config.Slack
	)

	flags := append(releaseCfg.Flags(), slackCfg.Flags()...)

	return &cli.Command{
		Name:    "package",
		Aliases: []string{"pkg"},
		Usage:   "Zip the staged plugin files into a release archive",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			manifest, err := releaseCfg.Load()
			if err != nil {
				return err
			}

			result, err := usecase.NewRelease(manifest).Package(ctx)
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Package finished",
				"zip", result.ZipPath,
				"entries", len(result.Entries),
				"bytes", result.Size,
				"sha256", result.SHA256,
			)

			if slackCfg.Configured() {
				notifier, err := slackCfg.Notifier()
				if err != nil {
					return err
				}
				zipName := filepath.Base(result.ZipPath)
				notification := &model.Notification{
					Title: "Plugin package built",
					Text:  fmt.Sprintf("%s is ready for upload", zipName),
					Fields: []model.NotificationField{
						{Label: "Archive", Value: zipName},
						{Label: "Size", Value: fmt.Sprintf("%d bytes", result.Size)},
						{Label: "SHA256", Value: result.SHA256},
					},
				}
				<-async.Dispatch(ctx, "notify", func(ctx context.Context) error {
					return notifier.Notify(ctx, notification)
				})
			}
			return nil
		},
	}
}
