package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	bookingdomain "github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/timezone"
	"github.com/BruksfildServices01/massage-booking/internal/validators"

	authuc "github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
	identityuc "github.com/BruksfildServices01/massage-booking/internal/usecase/identity"
)

// ======================================================
// INPUT
// ======================================================

type CreateInput struct {
	StudioID  uint  `json:"studioId" validate:"required"`
	ServiceID *uint `json:"serviceId"`

	CustomerName  string `json:"customerName" validate:"required,min=2,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"required,email,max=255"`
	CustomerPhone string `json:"customerPhone" validate:"required,phone"`

	PreferredDate string `json:"preferredDate" validate:"required,datetime=2006-01-02"`
	PreferredTime string `json:"preferredTime" validate:"required,hhmm"`

	Message               string `json:"message" validate:"max=2000"`
	ExplicitHealthConsent bool   `json:"explicitHealthConsent"`

	Principal *security.Principal `json:"-" validate:"-"`
	IP        string              `json:"-" validate:"-"`
}

// HealthConsentText is the wording the customer agrees to; a copy is stored
// with every booking that carries a message.
func HealthConsentText(version string) string {
	return fmt.Sprintf(
		"[%s] I explicitly consent to the processing of the health information in my message "+
			"by the studio for the purpose of preparing my treatment (Art. 9(2)(a) GDPR). "+
			"I can withdraw this consent at any time.",
		version,
	)
}

// ======================================================
// USE CASE
// ======================================================

type Create struct {
	bookings bookingdomain.Repository
	studios  studio.Repository
	users    identity.Repository
	resolver *identityuc.Resolver
	tokens   *authuc.TokenService
	notifier notify.Notifier
	links    notify.Links
	audit    *audit.Logger

	consentText string
	now         func() time.Time
}

func NewCreate(
	bookings bookingdomain.Repository,
	studios studio.Repository,
	users identity.Repository,
	resolver *identityuc.Resolver,
	tokens *authuc.TokenService,
	notifier notify.Notifier,
	links notify.Links,
	audit *audit.Logger,
	consentVersion string,
) *Create {
	return &Create{
		bookings:    bookings,
		studios:     studios,
		users:       users,
		resolver:    resolver,
		tokens:      tokens,
		notifier:    notifier,
		links:       links,
		audit:       audit,
		consentText: HealthConsentText(consentVersion),
		now:         time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *Create) Execute(ctx context.Context, in CreateInput) (*models.Booking, error) {
	now := uc.now()

	// --------------------------------------------------
	// 1. Structure
	// --------------------------------------------------
	if err := validators.Struct(in); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. Health consent gate
	// --------------------------------------------------
	consent, err := bookingdomain.CaptureConsent(in.Message, in.ExplicitHealthConsent, uc.consentText, now)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3. Studio, service, capacity
	// --------------------------------------------------
	st, err := uc.studios.Get(ctx, in.StudioID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeStudioNotFound)
		}
		return nil, err
	}
	if !st.Active {
		return nil, httperr.ErrBusiness(httperr.CodeStudioNotFound)
	}

	if timezone.IsPastDate(st.Timezone, in.PreferredDate, now) {
		return nil, httperr.Invalid("preferredDate", "must not be in the past")
	}

	var svc *models.Service
	if in.ServiceID != nil {
		svc, err = uc.studios.GetService(ctx, st.ID, *in.ServiceID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
			}
			return nil, err
		}
		if !svc.Active {
			return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
		}
	}

	slot := bookingdomain.Slot{StudioID: st.ID, Date: in.PreferredDate, Time: in.PreferredTime}
	confirmed, err := uc.bookings.CountConfirmed(ctx, slot)
	if err != nil {
		return nil, err
	}
	if bookingdomain.IsFull(confirmed, st.Capacity) {
		return nil, httperr.ErrBusiness(httperr.CodeSlotFull)
	}

	// --------------------------------------------------
	// 4. Identity (session wins over guest fields)
	// --------------------------------------------------
	customer, isNew, err := uc.identify(ctx, in)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5. Persist
	// --------------------------------------------------
	b := &models.Booking{
		StudioID:      st.ID,
		UserID:        customer.ID,
		CustomerName:  in.CustomerName,
		CustomerEmail: identity.NormalizeEmail(in.CustomerEmail),
		CustomerPhone: in.CustomerPhone,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
		Status:        string(bookingdomain.InitialStatus()),
		Message:       in.Message,
	}
	if svc != nil {
		b.ServiceID = &svc.ID
	}
	consent.ApplyTo(b)

	if err := uc.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	b.Service = svc

	// --------------------------------------------------
	// 6. Audit
	// --------------------------------------------------
	ref := strconv.FormatUint(uint64(b.ID), 10)
	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &customer.ID,
		Action:       audit.ActionBookingCreated,
		ResourceType: audit.ResourceBooking,
		ResourceID:   ref,
		Metadata: map[string]any{
			"studio_id": st.ID,
			"guest":     in.Principal == nil,
			"new_user":  isNew,
		},
		IP: in.IP,
	})
	if consent.Captured() {
		uc.audit.Record(ctx, audit.Entry{
			ActorID:      &customer.ID,
			Action:       audit.ActionHealthConsentGranted,
			ResourceType: audit.ResourceBooking,
			ResourceID:   ref,
			Metadata:     map[string]any{"consent_text": *consent.Text},
			IP:           in.IP,
		})
	}

	// --------------------------------------------------
	// 7. Notifications (best-effort)
	// --------------------------------------------------
	uc.notify(ctx, st, b, customer, isNew)

	return b, nil
}

func (uc *Create) identify(ctx context.Context, in CreateInput) (*models.User, bool, error) {
	if in.Principal != nil {
		u, err := uc.users.FindByID(ctx, in.Principal.UserID)
		if err != nil {
			return nil, false, err
		}
		return u, false, nil
	}

	res, err := uc.resolver.ResolveOrCreateCustomer(ctx, identityuc.CustomerInput{
		Email: in.CustomerEmail,
		Name:  in.CustomerName,
		Phone: in.CustomerPhone,
		IP:    in.IP,
	})
	if err != nil {
		return nil, false, err
	}
	return res.User, res.IsNewUser, nil
}

func (uc *Create) notify(ctx context.Context, st *models.Studio, b *models.Booking, customer *models.User, isNew bool) {
	log := zerolog.Ctx(ctx).With().Uint("booking_id", b.ID).Logger()
	when := b.PreferredDate + " " + b.PreferredTime

	owners, err := uc.studios.ListOwners(ctx, st.ID)
	if err != nil {
		log.Error().Err(err).Msg("list studio owners for notification")
	}
	for _, o := range owners {
		if err := uc.notifier.Send(ctx, notify.Message{
			To:       o.Email,
			Subject:  "New booking request for " + st.Name,
			Body:     fmt.Sprintf("%s requested %s. Please confirm or decline the request.", b.CustomerName, when),
			LinkText: "Review booking",
			LinkURL:  uc.links.StudioBookings(st.ID),
		}); err != nil {
			log.Error().Err(err).Uint("owner_id", o.ID).Msg("notify studio owner")
		}
	}

	ack := notify.Message{
		To:      b.CustomerEmail,
		Subject: "We received your booking request",
		Body: fmt.Sprintf("Hello %s,\n\n%s has received your request for %s. You will get another email once the studio confirms it.",
			b.CustomerName, st.Name, when),
	}

	if isNew && customer.EmailVerifiedAt == nil {
		raw, err := uc.tokens.Issue(ctx, token.PurposeEmailVerification, customer.Email)
		if err != nil {
			log.Error().Err(err).Msg("issue verification token")
		} else {
			ack.Body += "\n\nWe created an account for you so you can follow your bookings. Confirm your email address to sign in."
			ack.LinkText = "Confirm email and sign in"
			ack.LinkURL = uc.links.VerifyEmail(raw)
		}
	}

	if err := uc.notifier.Send(ctx, ack); err != nil {
		log.Error().Err(err).Msg("notify customer")
	}
}
