package config

import (
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/domain/interfaces"
	"github.com/psteco/hnat/pkg/infra/notify"
)

// Slack holds the optional completion notification webhook
type Slack struct {
	WebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for run notifications",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("HNAT_SLACK_WEBHOOK_URL"),
		},
	}
}

// Configured reports whether a webhook URL was given.
func (c *Slack) Configured() bool { return c.WebhookURL != "" }

// Notifier builds the Slack notifier.
func (c *Slack) Notifier() (interfaces.Notifier, error) {
	return notify.NewSlack(c.WebhookURL)
}
