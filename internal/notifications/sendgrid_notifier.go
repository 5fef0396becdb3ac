package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridConfig struct {
	APIKey   string
	From     string
	FromName string
}

// SendGridNotifier delivers mail through the SendGrid v3 API. The client is
// built once from injected configuration and reused for every send.
type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridNotifier(cfg SendGridConfig) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.From),
	}
}

func (n *SendGridNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	text, html := welcomeBody(in.Name)
	msg := mail.NewSingleEmail(n.from, welcomeSubject, mail.NewEmail(in.Name, in.Email), text, html)

	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
