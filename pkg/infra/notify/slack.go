// Package notify delivers run notifications to operators.
package notify

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/psteco/hnat/pkg/domain/interfaces"
	"github.com/psteco/hnat/pkg/domain/model"
)

type slackNotifier struct {
	webhookURL string
}

// NewSlack creates a Notifier that posts to a Slack incoming webhook
func NewSlack(webhookURL string) (interfaces.Notifier, error) {
	if webhookURL == "" {
		return nil, goerr.New("Slack webhook URL is required")
	}
	return &slackNotifier{webhookURL: webhookURL}, nil
}

func (n *slackNotifier) Notify(ctx context.Context, msg *model.Notification) error {
	fields := make([]slack.AttachmentField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, slack.AttachmentField{
			Title: f.Label,
			Value: f.Value,
			Short: true,
		})
	}

	wm := &slack.WebhookMessage{
		Text: msg.Title,
		Attachments: []slack.Attachment{
			{
				Color:  "good",
				Text:   msg.Text,
				Fields: fields,
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, wm); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification")
	}
	return nil
}
