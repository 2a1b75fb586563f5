package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is a transactional email. LinkURL, when set, is rendered as the
// call-to-action.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	LinkText string `json:"link_text,omitempty"`
	LinkURL  string `json:"link_url,omitempty"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier only logs messages. Used when no SMTP server is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Bool("has_link", msg.LinkURL != "").
		Msg("email not sent: no SMTP configured")
	return nil
}
