package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

// TokenService issues and consumes single-use email tokens.
type TokenService struct {
	repo token.Repository
	now  func() time.Time
}

func NewTokenService(repo token.Repository) *TokenService {
	return &TokenService{repo: repo, now: time.Now}
}

// Issue invalidates earlier unused tokens of the same purpose and returns a
// fresh raw token. Only its hash is stored.
func (s *TokenService) Issue(ctx context.Context, purpose token.Purpose, email string) (string, error) {
	email = identity.NormalizeEmail(email)
	now := s.now()

	raw, err := security.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	if err := s.repo.InvalidateActive(ctx, email, purpose, now); err != nil {
		return "", fmt.Errorf("invalidate tokens: %w", err)
	}

	if err := s.repo.Create(ctx, &models.AuthToken{
		TokenHash: security.HashToken(raw),
		Email:     email,
		Purpose:   string(purpose),
		ExpiresAt: now.Add(purpose.TTL()),
	}); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return raw, nil
}

// Consume marks the token used and returns its email. A token is accepted
// at most once.
func (s *TokenService) Consume(ctx context.Context, purpose token.Purpose, raw string) (string, error) {
	if raw == "" {
		return "", httperr.ErrBusiness(httperr.CodeTokenInvalid)
	}

	hash := security.HashToken(raw)
	now := s.now()

	email, err := s.repo.Consume(ctx, hash, purpose, now)
	if err == nil {
		return email, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	// Nothing was consumed; read once more only to pick the right message.
	t, err := s.repo.Find(ctx, hash, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", httperr.ErrBusiness(httperr.CodeTokenInvalid)
		}
		return "", err
	}
	if t.UsedAt != nil {
		return "", httperr.ErrBusiness(httperr.CodeTokenInvalid)
	}
	if !t.ExpiresAt.After(now) {
		return "", httperr.ErrBusiness(httperr.CodeTokenExpired)
	}
	return "", httperr.ErrBusiness(httperr.CodeTokenInvalid)
}

func (s *TokenService) Cleanup(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
