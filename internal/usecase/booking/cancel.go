package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	bookingdomain "github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
)

// Cancel lets a customer withdraw their own booking while it is pending.
type Cancel struct {
	bookings bookingdomain.Repository
	studios  studio.Repository
	notifier notify.Notifier
	audit    *audit.Logger
	now      func() time.Time
}

func NewCancel(
	bookings bookingdomain.Repository,
	studios studio.Repository,
	notifier notify.Notifier,
	audit *audit.Logger,
) *Cancel {
	return &Cancel{
		bookings: bookings,
		studios:  studios,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
	}
}

func (uc *Cancel) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	if in.Principal == nil {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}

	b, err := uc.bookings.Get(ctx, in.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
		}
		return nil, err
	}
	// someone else's booking looks exactly like a missing one
	if b.UserID != in.Principal.UserID {
		return nil, httperr.ErrBusiness(httperr.CodeBookingNotFound)
	}

	if err := bookingdomain.CanCancel(bookingdomain.Status(b.Status)); err != nil {
		return nil, err
	}

	updated, err := uc.bookings.Apply(ctx, bookingdomain.CancelBy(b.ID, in.Principal.UserID, uc.now()))
	if err != nil {
		return nil, conflictAs(err, httperr.CodeAlreadyProcessed)
	}

	recordTransition(ctx, uc.audit, audit.ActionBookingCancelled, updated, in)

	owners, err := uc.studios.ListOwners(ctx, updated.StudioID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("booking_id", updated.ID).Msg("list studio owners for notification")
	}
	for _, o := range owners {
		if err := uc.notifier.Send(ctx, notify.Message{
			To:      o.Email,
			Subject: "Booking request withdrawn",
			Body: fmt.Sprintf("%s withdrew the request for %s at %s.",
				updated.CustomerName, updated.PreferredDate, updated.PreferredTime),
		}); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Uint("owner_id", o.ID).Msg("notify studio owner")
		}
	}

	return updated, nil
}
