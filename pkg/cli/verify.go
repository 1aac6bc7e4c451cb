package cli

import (
	"context"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/cli/config"
	"github.com/psteco/hnat/pkg/domain/model"
	"github.com/psteco/hnat/pkg/usecase"
)

func cmdVerify() *cli.Command {
	var releaseCfg config.Release

	return &cli.Command{
		Name:      "verify",
		Aliases:   []string{"v"},
		Usage:     "Check a release archive against the manifest",
		ArgsUsage: "<zip path>",
		Flags:     releaseCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			zipPath := c.Args().First()
			if zipPath == "" {
				return goerr.New("zip path argument is required")
			}

			manifest, err := releaseCfg.Load()
			if err != nil {
				return err
			}

			result, err := usecase.NewRelease(manifest).Verify(ctx, zipPath)
			if err != nil {
				return err
			}

			printVerifyResult(result)
			if !result.OK() {
				return goerr.New("archive verification failed", goerr.V("zip", zipPath))
			}
			return nil
		},
	}
}

func printVerifyResult(result *model.VerifyResult) {
	if result.OK() {
		color.Green("OK: %s (%s %s)", filepath.Base(result.ZipPath), result.Name, result.Version)
		return
	}

	color.Red("FAILED: %s", filepath.Base(result.ZipPath))
	for _, name := range result.Missing {
		color.Red("  missing:    %s", name)
	}
	for _, name := range result.Unexpected {
		color.Yellow("  unexpected: %s", name)
	}
	for _, name := range result.Invalid {
		color.Red("  invalid:    %s", name)
	}
}
