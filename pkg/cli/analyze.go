package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/cli/config"
	"github.com/psteco/hnat/pkg/usecase"
)

func cmdAnalyze() *cli.Command {
	var (
		analysisCfg config.Analysis
		slackCfg    config.Slack
	)

	flags := append(analysisCfg.Flags(), slackCfg.Flags()...)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Run the habitat network batch analysis",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var options []usecase.AnalyzeOption
			if slackCfg.Configured() {
				notifier, err := slackCfg.Notifier()
				if err != nil {
					return err
				}
				options = append(options, usecase.WithNotifier(notifier))
			}

			uc := usecase.NewAnalyze(options...)
			report, err := uc.Run(ctx, analysisCfg.Request())
			if err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Run complete",
				"run_id", report.ID,
				"networks", len(report.Networks),
				"output", report.OutputDir,
			)
			return nil
		},
	}
}
