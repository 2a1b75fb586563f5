package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/massage-booking/internal/domain/account"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type AccountGormRepository struct {
	db *gorm.DB
}

func NewAccountGormRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) CountOwnedStudios(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudioOwnership{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *AccountGormRepository) Erase(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Select("id", "email").First(&u, userID).Error; err != nil {
			return mapErr(err)
		}

		steps := []struct {
			model any
			where string
			arg   any
		}{
			{&models.Session{}, "user_id = ?", userID},
			{&models.OAuthAccount{}, "user_id = ?", userID},
			{&models.StudioOwnership{}, "user_id = ?", userID},
			{&models.RoleAssignment{}, "user_id = ?", userID},
			{&models.Favorite{}, "user_id = ?", userID},
			{&models.Booking{}, "user_id = ?", userID},
			{&models.AuditLog{}, "user_id = ?", userID},
			{&models.AuthToken{}, "email = ?", u.Email},
			{&models.LegacyCustomer{}, "migrated_user_id = ?", userID},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, s.arg).Delete(s.model).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, userID).Error
	})
}

var _ account.Repository = (*AccountGormRepository)(nil)
