package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// --------------------------------------------------
// Create / read
// --------------------------------------------------

func (r *BookingGormRepository) Create(
	ctx context.Context,
	b *models.Booking,
) error {
	return mapErr(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingGormRepository) Get(
	ctx context.Context,
	id uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Service").
		First(&b, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) ListByUser(
	ctx context.Context,
	userID uint,
) ([]models.Booking, error) {

	var list []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("user_id = ?", userID).
		Order("preferred_date DESC, preferred_time DESC").
		Find(&list).Error
	return list, err
}

func (r *BookingGormRepository) ListByStudio(
	ctx context.Context,
	studioID uint,
	date string,
) ([]models.Booking, error) {

	q := r.db.WithContext(ctx).
		Preload("Service").
		Where("studio_id = ?", studioID)
	if date != "" {
		q = q.Where("preferred_date = ?", date)
	}

	var list []models.Booking
	err := q.Order("preferred_date ASC, preferred_time ASC, id ASC").Find(&list).Error
	return list, err
}

// --------------------------------------------------
// Capacity
// --------------------------------------------------

func slotScope(slot booking.Slot) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"studio_id = ? AND preferred_date = ? AND preferred_time = ? AND status = ?",
			slot.StudioID, slot.Date, slot.Time, string(booking.StatusConfirmed),
		)
	}
}

func (r *BookingGormRepository) CountConfirmed(
	ctx context.Context,
	slot booking.Slot,
) (int64, error) {

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Scopes(slotScope(slot)).
		Count(&count).Error
	return count, err
}

func (r *BookingGormRepository) ListConfirmed(
	ctx context.Context,
	slot booking.Slot,
) ([]models.Booking, error) {

	var list []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Scopes(slotScope(slot)).
		Order("confirmed_at ASC").
		Find(&list).Error
	return list, err
}

// --------------------------------------------------
// State change
// --------------------------------------------------

func applyTransition(tx *gorm.DB, t booking.Transition) error {
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", t.BookingID, string(t.From)).
		Updates(t.Fields())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

func (r *BookingGormRepository) Apply(
	ctx context.Context,
	t booking.Transition,
) (*models.Booking, error) {

	if err := applyTransition(r.db.WithContext(ctx), t); err != nil {
		return nil, err
	}
	return r.Get(ctx, t.BookingID)
}

// Confirm takes a row lock on the studio so that concurrent confirmations
// for the same studio run one after another; the count and the update then
// see a consistent slot.
func (r *BookingGormRepository) Confirm(
	ctx context.Context,
	t booking.Transition,
) (*models.Booking, error) {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Select("id", "studio_id", "preferred_date", "preferred_time", "status").
			First(&b, t.BookingID).Error; err != nil {
			return mapErr(err)
		}

		var studio models.Studio
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "capacity").
			First(&studio, b.StudioID).Error; err != nil {
			return mapErr(err)
		}

		if booking.Status(b.Status) != t.From {
			return domain.ErrStatusConflict
		}

		var confirmed int64
		if err := tx.Model(&models.Booking{}).
			Scopes(slotScope(booking.Slot{StudioID: b.StudioID, Date: b.PreferredDate, Time: b.PreferredTime})).
			Count(&confirmed).Error; err != nil {
			return err
		}

		if booking.IsFull(confirmed, studio.Capacity) {
			return httperr.ErrBusiness(httperr.CodeSlotFull)
		}

		return applyTransition(tx, t)
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, t.BookingID)
}

// Compile-time check
var _ booking.Repository = (*BookingGormRepository)(nil)
