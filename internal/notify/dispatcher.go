package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notification dispatcher closed")
)

// Dispatcher hands messages to a worker goroutine so callers never wait on
// the mail server. When the buffer is full the message is dropped.
type Dispatcher struct {
	next    Notifier
	log     zerolog.Logger
	queue   chan Message
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(next Notifier, log zerolog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 100
	}
	d := &Dispatcher{
		next:    next,
		log:     log,
		queue:   make(chan Message, buffer),
		timeout: 30 * time.Second,
		done:    make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.Send(ctx, msg); err != nil {
			d.log.Error().Err(err).Str("subject", msg.Subject).Msg("notification delivery failed")
		}
		cancel()
	}
}

func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn().Str("subject", msg.Subject).Msg("notification dispatcher closed, dropping message")
		return ErrClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.log.Warn().Str("subject", msg.Subject).Msg("notification queue full, dropping message")
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
	return nil
}
