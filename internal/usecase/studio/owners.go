package studio

import (
	"context"
	"errors"
	"strconv"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

type AddOwnerInput struct {
	Email string `json:"email" validate:"required,email"`
}

type Owners struct {
	repo  studio.Repository
	users identity.Repository
	audit *audit.Logger
}

func NewOwners(repo studio.Repository, users identity.Repository, audit *audit.Logger) *Owners {
	return &Owners{repo: repo, users: users, audit: audit}
}

// Add grants an existing user co-ownership of the studio.
func (uc *Owners) Add(ctx context.Context, p *security.Principal, studioID uint, in AddOwnerInput, ip string) ([]models.User, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	if _, err := requireOwner(ctx, uc.repo, studioID, p); err != nil {
		return nil, err
	}

	u, err := uc.users.FindByEmail(ctx, identity.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeUserNotFound)
		}
		return nil, err
	}

	if err := uc.repo.AddOwner(ctx, studioID, u.ID); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, httperr.ErrBusiness(httperr.CodeAlreadyOwner)
		}
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &p.UserID,
		Action:       audit.ActionStudioOwnerAdded,
		ResourceType: audit.ResourceStudio,
		ResourceID:   strconv.FormatUint(uint64(studioID), 10),
		Metadata:     map[string]any{"owner_id": u.ID},
		IP:           ip,
	})

	return uc.repo.ListOwners(ctx, studioID)
}

func (uc *Owners) List(ctx context.Context, p *security.Principal, studioID uint) ([]models.User, error) {
	if _, err := requireOwner(ctx, uc.repo, studioID, p); err != nil {
		return nil, err
	}
	return uc.repo.ListOwners(ctx, studioID)
}

// ======================================================
// FAVORITES
// ======================================================

type Favorites struct {
	repo studio.Repository
}

func NewFavorites(repo studio.Repository) *Favorites {
	return &Favorites{repo: repo}
}

func (uc *Favorites) Add(ctx context.Context, userID, studioID uint) error {
	s, err := uc.repo.Get(ctx, studioID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return httperr.ErrBusiness(httperr.CodeStudioNotFound)
		}
		return err
	}
	if !s.Active {
		return httperr.ErrBusiness(httperr.CodeStudioNotFound)
	}
	return uc.repo.AddFavorite(ctx, userID, studioID)
}

func (uc *Favorites) Remove(ctx context.Context, userID, studioID uint) error {
	return uc.repo.RemoveFavorite(ctx, userID, studioID)
}

func (uc *Favorites) List(ctx context.Context, userID uint) ([]models.Studio, error) {
	return uc.repo.ListFavorites(ctx, userID)
}
