package auth

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

type LoginInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

type Login struct {
	users    identity.Repository
	sessions *Sessions
	audit    *audit.Logger
}

func NewLogin(users identity.Repository, sessions *Sessions, audit *audit.Logger) *Login {
	return &Login{users: users, sessions: sessions, audit: audit}
}

func (uc *Login) Execute(ctx context.Context, in LoginInput) (*IssuedSession, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}

	invalid := httperr.ErrBusiness(httperr.CodeInvalidCredentials)

	u, err := uc.users.FindByEmail(ctx, identity.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			security.CheckPassword(nil, in.Password)
			return nil, invalid
		}
		return nil, err
	}

	if !security.CheckPassword(u.PasswordHash, in.Password) {
		return nil, invalid
	}

	s, err := uc.sessions.Start(ctx, u, in.IP, in.UserAgent)
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &u.ID,
		Action:       audit.ActionUserLogin,
		ResourceType: audit.ResourceUser,
		ResourceID:   userRef(u.ID),
		Metadata:     map[string]any{"method": "password"},
		IP:           in.IP,
	})

	return s, nil
}
