package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type StudioGormRepository struct {
	db *gorm.DB
}

func NewStudioGormRepository(db *gorm.DB) *StudioGormRepository {
	return &StudioGormRepository{db: db}
}

func activeServices(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true).Order("name ASC")
}

// --------------------------------------------------
// Studio
// --------------------------------------------------

func (r *StudioGormRepository) Create(ctx context.Context, s *models.Studio, ownerID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Services").Create(s).Error; err != nil {
			return mapErr(err)
		}

		if err := tx.Create(&models.StudioOwnership{StudioID: s.ID, UserID: ownerID}).Error; err != nil {
			return mapErr(err)
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RoleAssignment{UserID: ownerID, Role: string(rbac.RoleStudioOwner)}).Error
	})
}

func (r *StudioGormRepository) Get(ctx context.Context, id uint) (*models.Studio, error) {
	var s models.Studio
	if err := r.db.WithContext(ctx).
		Preload("Services", activeServices).
		First(&s, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *StudioGormRepository) Update(ctx context.Context, s *models.Studio) error {
	return mapErr(r.db.WithContext(ctx).Omit("Services").Save(s).Error)
}

func (r *StudioGormRepository) Search(ctx context.Context, f studio.SearchFilter) ([]models.Studio, error) {
	tx := r.db.WithContext(ctx).
		Preload("Services", activeServices).
		Where("active = ?", true)

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ? OR city ILIKE ?", like, like, like)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		tx = tx.Where("LOWER(city) = LOWER(?)", city)
	}

	var list []models.Studio
	err := tx.Order("name ASC").Find(&list).Error
	return list, err
}

// --------------------------------------------------
// Ownership
// --------------------------------------------------

func (r *StudioGormRepository) IsOwner(ctx context.Context, studioID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudioOwnership{}).
		Where("studio_id = ? AND user_id = ?", studioID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *StudioGormRepository) AddOwner(ctx context.Context, studioID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.StudioOwnership{StudioID: studioID, UserID: userID}).Error; err != nil {
			return mapErr(err)
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RoleAssignment{UserID: userID, Role: string(rbac.RoleStudioOwner)}).Error
	})
}

func (r *StudioGormRepository) ListOwners(ctx context.Context, studioID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN studio_ownerships so ON so.user_id = users.id").
		Where("so.studio_id = ?", studioID).
		Order("so.created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *StudioGormRepository) ListOwned(ctx context.Context, userID uint) ([]models.Studio, error) {
	var list []models.Studio
	err := r.db.WithContext(ctx).
		Joins("JOIN studio_ownerships so ON so.studio_id = studios.id").
		Where("so.user_id = ?", userID).
		Order("studios.name ASC").
		Find(&list).Error
	return list, err
}

// --------------------------------------------------
// Services
// --------------------------------------------------

func (r *StudioGormRepository) CreateService(ctx context.Context, svc *models.Service) error {
	return mapErr(r.db.WithContext(ctx).Create(svc).Error)
}

func (r *StudioGormRepository) GetService(ctx context.Context, studioID, serviceID uint) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND studio_id = ?", serviceID, studioID).
		First(&svc).Error; err != nil {
		return nil, mapErr(err)
	}
	return &svc, nil
}

func (r *StudioGormRepository) UpdateService(ctx context.Context, svc *models.Service) error {
	return mapErr(r.db.WithContext(ctx).Save(svc).Error)
}

// DeleteService deactivates the service so past bookings keep their
// reference.
func (r *StudioGormRepository) DeleteService(ctx context.Context, studioID, serviceID uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ? AND studio_id = ?", serviceID, studioID).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --------------------------------------------------
// Favorites
// --------------------------------------------------

func (r *StudioGormRepository) AddFavorite(ctx context.Context, userID, studioID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, StudioID: studioID}).Error
}

func (r *StudioGormRepository) RemoveFavorite(ctx context.Context, userID, studioID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND studio_id = ?", userID, studioID).
		Delete(&models.Favorite{}).Error
}

func (r *StudioGormRepository) ListFavorites(ctx context.Context, userID uint) ([]models.Studio, error) {
	var list []models.Studio
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites f ON f.studio_id = studios.id").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC").
		Find(&list).Error
	return list, err
}

var _ studio.Repository = (*StudioGormRepository)(nil)
