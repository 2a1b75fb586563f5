package studio

import (
	"context"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

const (
	MinCapacity = 1
	MaxCapacity = 10

	MinDurationMin = 15
	MaxDurationMin = 240

	MinPrice = 5.0
	MaxPrice = 500.0
)

type SearchFilter struct {
	Query string
	City  string
}

type Repository interface {
	// -------- Studio --------

	// Create stores the studio, the ownership row and the STUDIO_OWNER role
	// assignment together.
	Create(ctx context.Context, s *models.Studio, ownerID uint) error
	Get(ctx context.Context, id uint) (*models.Studio, error)
	Update(ctx context.Context, s *models.Studio) error
	Search(ctx context.Context, f SearchFilter) ([]models.Studio, error)

	// -------- Ownership --------
	IsOwner(ctx context.Context, studioID, userID uint) (bool, error)
	// AddOwner returns domain.ErrDuplicate if the user already owns it.
	AddOwner(ctx context.Context, studioID, userID uint) error
	ListOwners(ctx context.Context, studioID uint) ([]models.User, error)
	ListOwned(ctx context.Context, userID uint) ([]models.Studio, error)

	// -------- Services --------
	CreateService(ctx context.Context, svc *models.Service) error
	GetService(ctx context.Context, studioID, serviceID uint) (*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) error
	DeleteService(ctx context.Context, studioID, serviceID uint) error

	// -------- Favorites --------
	AddFavorite(ctx context.Context, userID, studioID uint) error
	RemoveFavorite(ctx context.Context, userID, studioID uint) error
	ListFavorites(ctx context.Context, userID uint) ([]models.Studio, error)
}
