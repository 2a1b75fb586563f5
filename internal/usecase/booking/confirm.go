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
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

type TransitionInput struct {
	BookingID uint
	Principal *security.Principal
	IP        string
}

// ======================================================
// CONFIRM / DECLINE
// ======================================================

// Respond handles the owner's answer to a pending booking.
type Respond struct {
	bookings bookingdomain.Repository
	studios  studio.Repository
	notifier notify.Notifier
	audit    *audit.Logger
	now      func() time.Time
}

func NewRespond(
	bookings bookingdomain.Repository,
	studios studio.Repository,
	notifier notify.Notifier,
	audit *audit.Logger,
) *Respond {
	return &Respond{
		bookings: bookings,
		studios:  studios,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
	}
}

func (uc *Respond) Confirm(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := loadOwned(ctx, uc.bookings, uc.studios, in)
	if err != nil {
		return nil, err
	}
	if err := bookingdomain.CanConfirm(bookingdomain.Status(b.Status)); err != nil {
		return nil, err
	}

	updated, err := uc.bookings.Confirm(ctx, bookingdomain.ConfirmBy(b.ID, in.Principal.UserID, uc.now()))
	if err != nil {
		return nil, conflictAs(err, httperr.CodeAlreadyProcessed)
	}

	recordTransition(ctx, uc.audit, audit.ActionBookingConfirmed, updated, in)
	sendCustomer(ctx, uc.notifier, updated, "Your booking is confirmed",
		fmt.Sprintf("Good news: your booking for %s at %s is confirmed.", updated.PreferredDate, updated.PreferredTime))

	return updated, nil
}

func (uc *Respond) Decline(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := loadOwned(ctx, uc.bookings, uc.studios, in)
	if err != nil {
		return nil, err
	}
	if err := bookingdomain.CanDecline(bookingdomain.Status(b.Status)); err != nil {
		return nil, err
	}

	updated, err := uc.bookings.Apply(ctx, bookingdomain.DeclineBy(b.ID, in.Principal.UserID, uc.now()))
	if err != nil {
		return nil, conflictAs(err, httperr.CodeAlreadyProcessed)
	}

	recordTransition(ctx, uc.audit, audit.ActionBookingDeclined, updated, in)
	sendCustomer(ctx, uc.notifier, updated, "Your booking request was declined",
		fmt.Sprintf("Unfortunately the studio cannot take your booking for %s at %s. Please pick another time.", updated.PreferredDate, updated.PreferredTime))

	return updated, nil
}

// ======================================================
// COMPLETE
// ======================================================

type Complete struct {
	bookings bookingdomain.Repository
	studios  studio.Repository
	audit    *audit.Logger
	now      func() time.Time
}

func NewComplete(
	bookings bookingdomain.Repository,
	studios studio.Repository,
	audit *audit.Logger,
) *Complete {
	return &Complete{bookings: bookings, studios: studios, audit: audit, now: time.Now}
}

func (uc *Complete) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := loadOwned(ctx, uc.bookings, uc.studios, in)
	if err != nil {
		return nil, err
	}
	if err := bookingdomain.CanComplete(bookingdomain.Status(b.Status)); err != nil {
		return nil, err
	}

	updated, err := uc.bookings.Apply(ctx, bookingdomain.CompleteBy(b.ID, in.Principal.UserID, uc.now()))
	if err != nil {
		return nil, conflictAs(err, httperr.CodeInvalidState)
	}

	recordTransition(ctx, uc.audit, audit.ActionBookingCompleted, updated, in)
	return updated, nil
}

// ======================================================
// helpers
// ======================================================

// loadOwned fetches the booking and requires the caller to own its studio.
func loadOwned(
	ctx context.Context,
	bookings bookingdomain.Repository,
	studios studio.Repository,
	in TransitionInput,
) (*models.Booking, error) {
	if in.Principal == nil {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}

	b, err := bookings.Get(ctx, in.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
		}
		return nil, err
	}

	owner, err := studios.IsOwner(ctx, b.StudioID, in.Principal.UserID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, httperr.ErrBusiness(httperr.CodeForbidden)
	}
	return b, nil
}

// conflictAs maps a lost conditional update to a business code.
func conflictAs(err error, code string) error {
	if errors.Is(err, domain.ErrStatusConflict) {
		return httperr.ErrBusiness(code)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}
	return err
}

func recordTransition(ctx context.Context, l *audit.Logger, action audit.Action, b *models.Booking, in TransitionInput) {
	l.Record(ctx, audit.Entry{
		ActorID:      &in.Principal.UserID,
		Action:       action,
		ResourceType: audit.ResourceBooking,
		ResourceID:   strconv.FormatUint(uint64(b.ID), 10),
		Metadata:     map[string]any{"studio_id": b.StudioID, "status": b.Status},
		IP:           in.IP,
	})
}

func sendCustomer(ctx context.Context, n notify.Notifier, b *models.Booking, subject, body string) {
	if err := n.Send(ctx, notify.Message{
		To:      b.CustomerEmail,
		Subject: subject,
		Body:    fmt.Sprintf("Hello %s,\n\n%s", b.CustomerName, body),
	}); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("booking_id", b.ID).Msg("notify customer")
	}
}
