package booking

import "github.com/BruksfildServices01/massage-booking/internal/httperr"

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ===============================
// Validations
// ===============================

// CanConfirm: only a pending booking can be confirmed, and only once.
func CanConfirm(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness(httperr.CodeAlreadyProcessed)
	}
	return nil
}

// CanDecline: owners decline pending bookings only.
func CanDecline(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness(httperr.CodeAlreadyProcessed)
	}
	return nil
}

// CanCancel: customers may withdraw a booking while it is still pending.
func CanCancel(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness(httperr.CodeAlreadyProcessed)
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusConfirmed {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func InitialStatus() Status {
	return StatusPending
}
