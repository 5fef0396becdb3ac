package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes welcome messages to the log instead of sending them.
// Used when no mail provider key is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text, _ := welcomeBody(in.Name)
	n.log.InfoContext(ctx, "notification.welcome", "email", in.Email, "subject", welcomeSubject, "body", text)
	return nil
}
