package booking

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

// ===============================
// Transitions
// ===============================

// Transition moves a booking out of From. Storage applies it with a
// conditional update so a booking leaves a state at most once.
type Transition struct {
	BookingID uint
	From      Status
	To        Status
	ActorID   *uint
	At        time.Time
}

func ConfirmBy(bookingID, actorID uint, at time.Time) Transition {
	return Transition{BookingID: bookingID, From: StatusPending, To: StatusConfirmed, ActorID: &actorID, At: at}
}

func DeclineBy(bookingID, actorID uint, at time.Time) Transition {
	return Transition{BookingID: bookingID, From: StatusPending, To: StatusCancelled, ActorID: &actorID, At: at}
}

// CancelBy is the customer withdrawing their own pending booking.
func CancelBy(bookingID, customerID uint, at time.Time) Transition {
	return Transition{BookingID: bookingID, From: StatusPending, To: StatusCancelled, ActorID: &customerID, At: at}
}

func CompleteBy(bookingID, actorID uint, at time.Time) Transition {
	return Transition{BookingID: bookingID, From: StatusConfirmed, To: StatusCompleted, ActorID: &actorID, At: at}
}

// Fields returns the column updates recorded on the booking row.
func (t Transition) Fields() map[string]any {
	f := map[string]any{
		"status":     string(t.To),
		"updated_at": t.At,
	}
	switch t.To {
	case StatusConfirmed:
		f["confirmed_at"] = t.At
		f["confirmed_by_id"] = t.ActorID
	case StatusCancelled:
		f["cancelled_at"] = t.At
		f["cancelled_by_id"] = t.ActorID
	case StatusCompleted:
		f["completed_at"] = t.At
	}
	return f
}

// Apply mirrors Fields on an in-memory booking.
func (t Transition) Apply(b *models.Booking) {
	at := t.At
	b.Status = string(t.To)
	b.UpdatedAt = at
	switch t.To {
	case StatusConfirmed:
		b.ConfirmedAt = &at
		b.ConfirmedByID = t.ActorID
	case StatusCancelled:
		b.CancelledAt = &at
		b.CancelledByID = t.ActorID
	case StatusCompleted:
		b.CompletedAt = &at
	}
}

// ===============================
// Health consent (GDPR Art. 9)
// ===============================

type Consent struct {
	Explicit *bool
	At       *time.Time
	Text     *string
}

// CaptureConsent applies the data-minimisation rule: without a message no
// consent is stored; a message without explicit consent is rejected.
func CaptureConsent(message string, granted bool, text string, now time.Time) (Consent, error) {
	if strings.TrimSpace(message) == "" {
		return Consent{}, nil
	}
	if !granted {
		return Consent{}, httperr.ErrBusiness(httperr.CodeHealthConsentRequired)
	}

	explicit := true
	at := now
	snapshot := text
	return Consent{Explicit: &explicit, At: &at, Text: &snapshot}, nil
}

func (c Consent) Captured() bool {
	return c.Explicit != nil && *c.Explicit
}

func (c Consent) ApplyTo(b *models.Booking) {
	b.ExplicitHealthConsent = c.Explicit
	b.HealthConsentAt = c.At
	b.HealthConsentText = c.Text
}
