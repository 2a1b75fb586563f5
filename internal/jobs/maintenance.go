package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/notify"
)

const (
	TypeAuditPurge    = "audit:purge"
	TypeTokensCleanup = "tokens:cleanup"
)

type AuditPurger interface {
	Purge(ctx context.Context, now time.Time) (int64, error)
}

type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Maintenance holds the periodic housekeeping tasks run by the worker.
type Maintenance struct {
	audit    AuditPurger
	tokens   Cleaner
	sessions Cleaner
	now      func() time.Time
}

func NewMaintenance(audit AuditPurger, tokens, sessions Cleaner) *Maintenance {
	return &Maintenance{audit: audit, tokens: tokens, sessions: sessions, now: time.Now}
}

// PurgeAudit drops audit entries past the retention period.
func (m *Maintenance) PurgeAudit(ctx context.Context, _ *asynq.Task) error {
	n, err := m.audit.Purge(ctx, m.now())
	if err != nil {
		return fmt.Errorf("purge audit log: %w", err)
	}
	zerolog.Ctx(ctx).Info().Int64("deleted", n).Msg("audit log purged")
	return nil
}

// CleanupTokens removes spent or expired link tokens and sessions.
func (m *Maintenance) CleanupTokens(ctx context.Context, _ *asynq.Task) error {
	tokens, err := m.tokens.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleanup tokens: %w", err)
	}
	sessions, err := m.sessions.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("tokens", tokens).
		Int64("sessions", sessions).
		Msg("expired credentials removed")
	return nil
}

// Register wires every task type handled by the worker.
func Register(mux *asynq.ServeMux, m *Maintenance, email asynq.Handler) {
	mux.Handle(notify.TypeEmailSend, email)
	mux.HandleFunc(TypeAuditPurge, m.PurgeAudit)
	mux.HandleFunc(TypeTokensCleanup, m.CleanupTokens)
}

// Schedule registers the periodic tasks: the purge nightly, cleanup hourly.
func Schedule(s *asynq.Scheduler) error {
	if _, err := s.Register("30 3 * * *", asynq.NewTask(TypeAuditPurge, nil), asynq.Queue("low"), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("schedule %s: %w", TypeAuditPurge, err)
	}
	if _, err := s.Register("@hourly", asynq.NewTask(TypeTokensCleanup, nil), asynq.Queue("low"), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("schedule %s: %w", TypeTokensCleanup, err)
	}
	return nil
}
