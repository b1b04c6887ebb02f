// Package notify posts activation run summaries to Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/callhubmcp/callhubmcp/internal/activation"
)

// SlackNotifier posts a summary message through an incoming webhook when
// an activation run finishes. A notifier with no webhook URL is a no-op,
// so callers never need to branch on configuration.
type SlackNotifier struct {
	webhookURL string
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// ActivationComplete implements activation.Notifier.
func (n *SlackNotifier) ActivationComplete(ctx context.Context, account string, result activation.BatchResult) error {
	if n.webhookURL == "" {
		return nil
	}

	text := fmt.Sprintf(
		"Agent activation finished for account *%s*: %d/%d successful, %d failed.",
		account, result.Successful, result.Total, result.Failed,
	)
	if result.Skipped > 0 {
		text += fmt.Sprintf(" (%d already activated on a previous run)", result.Skipped)
	}

	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	slog.Debug("slack notification sent", "account", account)
	return nil
}
