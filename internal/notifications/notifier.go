package notifications

import (
	"context"
	"fmt"
	"html"
)

type WelcomeInput struct {
	Email string
	Name  string
}

type Notifier interface {
	SendWelcome(ctx context.Context, input WelcomeInput) error
}

const welcomeSubject = "WorldofHackaton"

// welcomeBody renders both mail parts. Only the HTML part escapes the name.
func welcomeBody(name string) (text, htmlPart string) {
	text = fmt.Sprintf("Hola %s.\nBienvenido a WorldofHackaton.\n", name)
	htmlPart = fmt.Sprintf("Hola %s.<br><strong>Bienvenido a WorldofHackaton.</strong>", html.EscapeString(name))
	return text, htmlPart
}
