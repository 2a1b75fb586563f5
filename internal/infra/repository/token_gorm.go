package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type AuthTokenGormRepository struct {
	db *gorm.DB
}

func NewAuthTokenGormRepository(db *gorm.DB) *AuthTokenGormRepository {
	return &AuthTokenGormRepository{db: db}
}

func (r *AuthTokenGormRepository) Create(ctx context.Context, t *models.AuthToken) error {
	return mapErr(r.db.WithContext(ctx).Create(t).Error)
}

func (r *AuthTokenGormRepository) InvalidateActive(ctx context.Context, email string, purpose token.Purpose, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AuthToken{}).
		Where("email = ? AND purpose = ? AND used_at IS NULL", email, string(purpose)).
		Update("used_at", now).Error
}

// Consume flips used_at in a single UPDATE ... RETURNING, so two concurrent
// requests with the same token cannot both succeed.
func (r *AuthTokenGormRepository) Consume(ctx context.Context, hash string, purpose token.Purpose, now time.Time) (string, error) {
	var consumed []models.AuthToken
	res := r.db.WithContext(ctx).
		Model(&consumed).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "email"}}}).
		Where("token_hash = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", hash, string(purpose), now).
		Update("used_at", now)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 || len(consumed) == 0 {
		return "", domain.ErrNotFound
	}
	return consumed[0].Email, nil
}

func (r *AuthTokenGormRepository) Find(ctx context.Context, hash string, purpose token.Purpose) (*models.AuthToken, error) {
	var t models.AuthToken
	if err := r.db.WithContext(ctx).
		Where("token_hash = ? AND purpose = ?", hash, string(purpose)).
		First(&t).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *AuthTokenGormRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at < ?", before, before).
		Delete(&models.AuthToken{})
	return res.RowsAffected, res.Error
}

var _ token.Repository = (*AuthTokenGormRepository)(nil)
