package token

import (
	"context"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type Purpose string

const (
	PurposeMagicLink         Purpose = "magic_link"
	PurposeEmailVerification Purpose = "email_verification"
)

// TTL is how long a freshly issued token stays valid.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeMagicLink:
		return 15 * time.Minute
	case PurposeEmailVerification:
		return 24 * time.Hour
	}
	return 0
}

type Repository interface {
	Create(ctx context.Context, t *models.AuthToken) error

	// InvalidateActive marks every unused token for email/purpose as used.
	InvalidateActive(ctx context.Context, email string, purpose Purpose, now time.Time) error

	// Consume marks the token used if it exists, is unused and unexpired, in
	// one statement. domain.ErrNotFound when nothing matched.
	Consume(ctx context.Context, hash string, purpose Purpose, now time.Time) (string, error)

	Find(ctx context.Context, hash string, purpose Purpose) (*models.AuthToken, error)

	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
