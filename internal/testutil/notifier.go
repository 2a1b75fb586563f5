package testutil

import (
	"context"
	"sync"

	"github.com/BruksfildServices01/massage-booking/internal/notify"
)

// Notifier records every message it is asked to send.
type Notifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	Err  error
}

func (n *Notifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.Err
}

func (n *Notifier) Sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

// To returns the messages addressed to email.
func (n *Notifier) To(email string) []notify.Message {
	var out []notify.Message
	for _, m := range n.Sent() {
		if m.To == email {
			out = append(out, m)
		}
	}
	return out
}

var _ notify.Notifier = (*Notifier)(nil)
