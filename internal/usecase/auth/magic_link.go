package auth

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/validators"

	identityuc "github.com/BruksfildServices01/massage-booking/internal/usecase/identity"
)

// ======================================================
// REQUEST
// ======================================================

type MagicLinkRequestInput struct {
	Email string `json:"email" validate:"required,email,max=255"`
	IP    string `json:"-"`
}

type MagicLinkRequestOutput struct {
	// Token is only filled outside production.
	Token string
}

type RequestMagicLink struct {
	tokens     *TokenService
	notifier   notify.Notifier
	links      notify.Links
	audit      *audit.Logger
	echoTokens bool
}

func NewRequestMagicLink(
	tokens *TokenService,
	notifier notify.Notifier,
	links notify.Links,
	audit *audit.Logger,
	echoTokens bool,
) *RequestMagicLink {
	return &RequestMagicLink{
		tokens:     tokens,
		notifier:   notifier,
		links:      links,
		audit:      audit,
		echoTokens: echoTokens,
	}
}

func (uc *RequestMagicLink) Execute(ctx context.Context, in MagicLinkRequestInput) (*MagicLinkRequestOutput, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	email := identity.NormalizeEmail(in.Email)

	raw, err := uc.tokens.Issue(ctx, token.PurposeMagicLink, email)
	if err != nil {
		return nil, err
	}

	if err := uc.notifier.Send(ctx, notify.Message{
		To:       email,
		Subject:  "Your sign-in link",
		Body:     "Use the button below to sign in. The link works once and expires in 15 minutes.",
		LinkText: "Sign in",
		LinkURL:  uc.links.MagicLink(raw),
	}); err != nil {
		logNotifyFailure(ctx, err, "magic link")
	}

	uc.audit.Record(ctx, audit.Entry{
		Action:       audit.ActionMagicLinkRequest,
		ResourceType: audit.ResourceUser,
		IP:           in.IP,
	})

	out := &MagicLinkRequestOutput{}
	if uc.echoTokens {
		out.Token = raw
	}
	return out, nil
}

// ======================================================
// VERIFY
// ======================================================

type VerifyLinkInput struct {
	Token     string
	IP        string
	UserAgent string
}

type VerifyMagicLink struct {
	tokens   *TokenService
	resolver *identityuc.Resolver
	users    identity.Repository
	sessions *Sessions
	audit    *audit.Logger
	now      func() time.Time
}

func NewVerifyMagicLink(
	tokens *TokenService,
	resolver *identityuc.Resolver,
	users identity.Repository,
	sessions *Sessions,
	audit *audit.Logger,
) *VerifyMagicLink {
	return &VerifyMagicLink{
		tokens:   tokens,
		resolver: resolver,
		users:    users,
		sessions: sessions,
		audit:    audit,
		now:      time.Now,
	}
}

// Execute consumes the link and signs the owner of the address in, creating
// a passwordless customer on first use. Receiving the link proves control of
// the address, so it is marked verified.
func (uc *VerifyMagicLink) Execute(ctx context.Context, in VerifyLinkInput) (*IssuedSession, error) {
	email, err := uc.tokens.Consume(ctx, token.PurposeMagicLink, in.Token)
	if err != nil {
		return nil, err
	}

	res, err := uc.resolver.ResolveOrCreateCustomer(ctx, identityuc.CustomerInput{Email: email, IP: in.IP})
	if err != nil {
		return nil, err
	}
	u := res.User

	if u.EmailVerifiedAt == nil {
		now := uc.now()
		if err := uc.users.MarkEmailVerified(ctx, u.ID, now); err != nil {
			return nil, err
		}
		u.EmailVerifiedAt = &now
	}

	s, err := uc.sessions.Start(ctx, u, in.IP, in.UserAgent)
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &u.ID,
		Action:       audit.ActionMagicLinkUsed,
		ResourceType: audit.ResourceUser,
		ResourceID:   userRef(u.ID),
		Metadata:     map[string]any{"new_user": res.IsNewUser},
		IP:           in.IP,
	})

	return s, nil
}

// ======================================================
// EMAIL VERIFICATION
// ======================================================

type VerifyEmail struct {
	tokens   *TokenService
	users    identity.Repository
	sessions *Sessions
	audit    *audit.Logger
	now      func() time.Time
}

func NewVerifyEmail(
	tokens *TokenService,
	users identity.Repository,
	sessions *Sessions,
	audit *audit.Logger,
) *VerifyEmail {
	return &VerifyEmail{
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		audit:    audit,
		now:      time.Now,
	}
}

func (uc *VerifyEmail) Execute(ctx context.Context, in VerifyLinkInput) (*IssuedSession, error) {
	email, err := uc.tokens.Consume(ctx, token.PurposeEmailVerification, in.Token)
	if err != nil {
		return nil, err
	}

	u, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeTokenInvalid)
		}
		return nil, err
	}

	now := uc.now()
	if err := uc.users.MarkEmailVerified(ctx, u.ID, now); err != nil {
		return nil, err
	}
	if u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = &now
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &u.ID,
		Action:       audit.ActionEmailVerified,
		ResourceType: audit.ResourceUser,
		ResourceID:   userRef(u.ID),
		IP:           in.IP,
	})

	return uc.sessions.Start(ctx, u, in.IP, in.UserAgent)
}
