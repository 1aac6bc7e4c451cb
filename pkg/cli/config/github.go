package config

import (
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/domain/interfaces"
	"github.com/psteco/hnat/pkg/infra/github"
)

// GitHub holds the release target repository and its access token
type GitHub struct {
	Token string `masq:"secret"`
	Owner string
	Repo  string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub access token with contents:write on the release repository",
			Required:    true,
			Destination: &c.Token,
			Sources:     cli.EnvVars("HNAT_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-owner",
			Usage:       "Owner of the release repository",
			Required:    true,
			Destination: &c.Owner,
			Sources:     cli.EnvVars("HNAT_GITHUB_OWNER"),
		},
		&cli.StringFlag{
			Name:        "github-repo",
			Usage:       "Name of the release repository",
			Required:    true,
			Destination: &c.Repo,
			Sources:     cli.EnvVars("HNAT_GITHUB_REPO"),
		},
	}
}

// Publisher builds the release publisher client.
func (c *GitHub) Publisher() (interfaces.ReleasePublisher, error) {
	return github.NewClient(c.Token, c.Owner, c.Repo)
}
