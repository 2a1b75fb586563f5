package identity

import (
	"context"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)

	// Create returns domain.ErrDuplicate when the email is taken.
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error

	MarkEmailVerified(ctx context.Context, userID uint, at time.Time) error

	ListRoles(ctx context.Context, userID uint) ([]string, error)
	// AssignRole is idempotent.
	AssignRole(ctx context.Context, userID uint, role string) error

	List(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error)
}

type LegacyRepository interface {
	FindUnmigratedByEmail(ctx context.Context, email string) (*models.LegacyCustomer, error)
	ListUnmigrated(ctx context.Context, limit int) ([]models.LegacyCustomer, error)
	MarkMigrated(ctx context.Context, legacyID, userID uint, at time.Time) error
}
