package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/domain/session"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Sessions backs every signed session token with a server-side row so a
// session can be revoked before the token expires.
type Sessions struct {
	repo   session.Repository
	users  identity.Repository
	audit  *audit.Logger
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(
	repo session.Repository,
	users identity.Repository,
	audit *audit.Logger,
	secret string,
	ttl time.Duration,
) *Sessions {
	return &Sessions{
		repo:   repo,
		users:  users,
		audit:  audit,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Sessions) Start(ctx context.Context, u *models.User, ip, userAgent string) (*IssuedSession, error) {
	if u.Suspended || !u.Active {
		return nil, httperr.ErrBusiness(httperr.CodeAccountSuspended)
	}

	now := s.now()
	row := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.ttl),
		IPAddress: audit.AnonymizeIP(ip),
		UserAgent: truncate(userAgent, 255),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	tok, err := security.IssueSessionToken(s.secret, u.ID, u.Role, row.ID, now, row.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &IssuedSession{Token: tok, ExpiresAt: row.ExpiresAt, User: u}, nil
}

// Verify resolves a session token into the calling principal.
func (s *Sessions) Verify(ctx context.Context, tok string) (*security.Principal, error) {
	unauthorized := httperr.ErrBusiness(httperr.CodeUnauthorized)

	userID, sessionID, err := security.ParseSessionToken(s.secret, tok)
	if err != nil {
		return nil, unauthorized
	}

	row, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, unauthorized
		}
		return nil, err
	}
	if row.UserID != userID || !row.ExpiresAt.After(s.now()) {
		return nil, unauthorized
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, unauthorized
		}
		return nil, err
	}
	if u.Suspended || !u.Active {
		return nil, httperr.ErrBusiness(httperr.CodeAccountSuspended)
	}

	names, err := s.users.ListRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	roles := make([]rbac.Role, 0, len(names))
	for _, n := range names {
		if r, ok := rbac.ParseRole(n); ok {
			roles = append(roles, r)
		}
	}

	return &security.Principal{
		UserID:    u.ID,
		SessionID: sessionID,
		Email:     u.Email,
		Roles:     roles,
	}, nil
}

func (s *Sessions) End(ctx context.Context, p *security.Principal, ip string) error {
	if err := s.repo.Delete(ctx, p.SessionID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:      &p.UserID,
		Action:       audit.ActionUserLogout,
		ResourceType: audit.ResourceSession,
		ResourceID:   p.SessionID,
		IP:           ip,
	})
	return nil
}

func (s *Sessions) Cleanup(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func userRef(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
