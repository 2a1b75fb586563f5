package booking

import (
	"context"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type Repository interface {
	// -------- Create / read --------
	Create(
		ctx context.Context,
		b *models.Booking,
	) error

	Get(
		ctx context.Context,
		id uint,
	) (*models.Booking, error)

	ListByUser(
		ctx context.Context,
		userID uint,
	) ([]models.Booking, error)

	ListByStudio(
		ctx context.Context,
		studioID uint,
		date string,
	) ([]models.Booking, error)

	// -------- Capacity --------
	CountConfirmed(
		ctx context.Context,
		slot Slot,
	) (int64, error)

	ListConfirmed(
		ctx context.Context,
		slot Slot,
	) ([]models.Booking, error)

	// -------- State change --------

	// Apply performs t only if the booking is still in t.From.
	// domain.ErrStatusConflict otherwise.
	Apply(
		ctx context.Context,
		t Transition,
	) (*models.Booking, error)

	// Confirm serialises confirmations per studio, rejects with slot_full
	// when the slot has no capacity left and then applies t.
	Confirm(
		ctx context.Context,
		t Transition,
	) (*models.Booking, error)
}
