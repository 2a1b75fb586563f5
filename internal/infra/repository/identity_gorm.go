package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", identity.NormalizeEmail(email)).
		First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserGormRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserGormRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = identity.NormalizeEmail(u.Email)
	return mapErr(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserGormRepository) Update(ctx context.Context, u *models.User) error {
	return mapErr(r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error)
}

func (r *UserGormRepository) MarkEmailVerified(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND email_verified_at IS NULL", userID).
		Update("email_verified_at", at).Error
}

// ListRoles returns the primary role followed by any extra assignments.
func (r *UserGormRepository) ListRoles(ctx context.Context, userID uint) ([]string, error) {
	u, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var extra []string
	if err := r.db.WithContext(ctx).
		Model(&models.RoleAssignment{}).
		Where("user_id = ?", userID).
		Order("role ASC").
		Pluck("role", &extra).Error; err != nil {
		return nil, err
	}

	roles := []string{u.Role}
	for _, role := range extra {
		if role != u.Role {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (r *UserGormRepository) AssignRole(ctx context.Context, userID uint, role string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RoleAssignment{UserID: userID, Role: role}).Error
}

func (r *UserGormRepository) List(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{})

	if q := strings.TrimSpace(query); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := tx.
		Preload("RoleAssignments").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

var _ identity.Repository = (*UserGormRepository)(nil)

// --------------------------------------------------
// Legacy customers
// --------------------------------------------------

type LegacyCustomerGormRepository struct {
	db *gorm.DB
}

func NewLegacyCustomerGormRepository(db *gorm.DB) *LegacyCustomerGormRepository {
	return &LegacyCustomerGormRepository{db: db}
}

func (r *LegacyCustomerGormRepository) FindUnmigratedByEmail(ctx context.Context, email string) (*models.LegacyCustomer, error) {
	var c models.LegacyCustomer
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? AND migrated_user_id IS NULL", identity.NormalizeEmail(email)).
		Order("id ASC").
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *LegacyCustomerGormRepository) ListUnmigrated(ctx context.Context, limit int) ([]models.LegacyCustomer, error) {
	var list []models.LegacyCustomer
	err := r.db.WithContext(ctx).
		Where("migrated_user_id IS NULL AND email <> ''").
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *LegacyCustomerGormRepository) MarkMigrated(ctx context.Context, legacyID, userID uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.LegacyCustomer{}).
		Where("id = ? AND migrated_user_id IS NULL", legacyID).
		Updates(map[string]any{"migrated_user_id": userID, "migrated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

var _ identity.LegacyRepository = (*LegacyCustomerGormRepository)(nil)
