package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Queue enqueues emails for the worker process.
type Queue struct {
	client *asynq.Client
}

func NewQueue(client *asynq.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(EmailSendPayload{Message: msg})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeEmailSend, data)
	if _, err := q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.Queue("critical"),
	); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeEmailSend, err)
	}
	return nil
}

// EmailHandler delivers queued emails in the worker.
type EmailHandler struct {
	mailer Notifier
}

func NewEmailHandler(mailer Notifier) *EmailHandler {
	return &EmailHandler{mailer: mailer}
}

func (h *EmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p EmailSendPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return h.mailer.Send(ctx, p.Message)
}
