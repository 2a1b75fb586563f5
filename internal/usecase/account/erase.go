package account

import (
	"context"
	"errors"
	"strconv"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/account"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
)

// Erase deletes an account and everything linked to it (GDPR Art. 17).
type Erase struct {
	repo  account.Repository
	audit *audit.Logger
}

func NewErase(repo account.Repository, audit *audit.Logger) *Erase {
	return &Erase{repo: repo, audit: audit}
}

func (uc *Erase) Execute(ctx context.Context, userID uint, ip string) error {
	owned, err := uc.repo.CountOwnedStudios(ctx, userID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return httperr.ErrBusiness(httperr.CodeOwnsStudios)
	}

	if err := uc.repo.Erase(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return httperr.ErrBusiness(httperr.CodeUserNotFound)
		}
		return err
	}

	// The user's own entries are gone; this one stays without an actor.
	uc.audit.Record(ctx, audit.Entry{
		Action:       audit.ActionAccountDeleted,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatUint(uint64(userID), 10),
		IP:           ip,
	})
	return nil
}
