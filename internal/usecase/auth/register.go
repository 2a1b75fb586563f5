package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	IP       string `json:"-"`
}

// RegisterMessage is returned for every accepted registration, whether or
// not the address was already known.
const RegisterMessage = "If the address can be used, a verification link is on its way."

type Register struct {
	users       identity.Repository
	tokens      *TokenService
	notifier    notify.Notifier
	links       notify.Links
	audit       *audit.Logger
	checkDomain func(ctx context.Context, email string) bool
}

func NewRegister(
	users identity.Repository,
	tokens *TokenService,
	notifier notify.Notifier,
	links notify.Links,
	audit *audit.Logger,
) *Register {
	return &Register{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		links:       links,
		audit:       audit,
		checkDomain: validators.EmailDomainResolves,
	}
}

func (uc *Register) Execute(ctx context.Context, in RegisterInput) error {
	if err := validators.Struct(in); err != nil {
		return err
	}
	in.Email = identity.NormalizeEmail(in.Email)

	if !uc.checkDomain(ctx, in.Email) {
		return httperr.ErrBusiness(httperr.CodeInvalidEmailDomain)
	}

	_, err := uc.users.FindByEmail(ctx, in.Email)
	if err == nil {
		// Known address: answer exactly like a new registration.
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        in.Email,
		PasswordHash: &hash,
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         string(rbac.RoleCustomer),
		Active:       true,
	}
	if err := uc.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil
		}
		return err
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &u.ID,
		Action:       audit.ActionUserRegistered,
		ResourceType: audit.ResourceUser,
		ResourceID:   userRef(u.ID),
		IP:           in.IP,
	})

	uc.sendVerification(ctx, u)
	return nil
}

func (uc *Register) sendVerification(ctx context.Context, u *models.User) {
	log := zerolog.Ctx(ctx)

	raw, err := uc.tokens.Issue(ctx, token.PurposeEmailVerification, u.Email)
	if err != nil {
		log.Error().Err(err).Uint("user_id", u.ID).Msg("issue verification token")
		return
	}

	if err := uc.notifier.Send(ctx, notify.Message{
		To:       u.Email,
		Subject:  "Confirm your email address",
		Body:     fmt.Sprintf("Hello %s,\n\nplease confirm your email address to finish setting up your account. The link is valid for 24 hours.", u.Name),
		LinkText: "Confirm email",
		LinkURL:  uc.links.VerifyEmail(raw),
	}); err != nil {
		log.Error().Err(err).Uint("user_id", u.ID).Msg("send verification email")
	}
}
