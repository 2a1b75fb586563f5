package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type CustomerInput struct {
	Email string
	Name  string
	Phone string
	IP    string
}

// Resolver maps an email to exactly one unified user, creating a
// passwordless customer on first contact.
type Resolver struct {
	users  identity.Repository
	legacy identity.LegacyRepository
	audit  *audit.Logger
	now    func() time.Time
}

func NewResolver(
	users identity.Repository,
	legacy identity.LegacyRepository,
	audit *audit.Logger,
) *Resolver {
	return &Resolver{
		users:  users,
		legacy: legacy,
		audit:  audit,
		now:    time.Now,
	}
}

// Lookup returns what is stored for email without creating anything.
// domain.ErrNotFound when neither a user nor a legacy row exists.
func (r *Resolver) Lookup(ctx context.Context, email string) (identity.Record, error) {
	email = identity.NormalizeEmail(email)

	u, err := r.users.FindByEmail(ctx, email)
	if err == nil {
		return identity.UnifiedRecord{User: u}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if r.legacy == nil {
		return nil, domain.ErrNotFound
	}

	c, err := r.legacy.FindUnmigratedByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return identity.LegacyRecord{Customer: c}, nil
}

func (r *Resolver) ResolveOrCreateCustomer(ctx context.Context, in CustomerInput) (*identity.Resolution, error) {
	in.Email = identity.NormalizeEmail(in.Email)

	rec, err := r.Lookup(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	switch v := rec.(type) {
	case identity.UnifiedRecord:
		if err := usable(v.User); err != nil {
			return nil, err
		}
		return &identity.Resolution{User: v.User}, nil

	case identity.LegacyRecord:
		u, err := r.migrate(ctx, v.Customer, in.IP)
		if err != nil {
			return nil, err
		}
		return &identity.Resolution{User: u, IsNewUser: true}, nil
	}

	return r.create(ctx, in)
}

func (r *Resolver) create(ctx context.Context, in CustomerInput) (*identity.Resolution, error) {
	u := &models.User{
		Email:  in.Email,
		Name:   in.Name,
		Phone:  in.Phone,
		Role:   string(rbac.RoleCustomer),
		Active: true,
	}

	err := r.users.Create(ctx, u)
	if errors.Is(err, domain.ErrDuplicate) {
		// a concurrent request created the same email first
		existing, ferr := r.users.FindByEmail(ctx, in.Email)
		if ferr != nil {
			return nil, fmt.Errorf("refetch user after duplicate: %w", ferr)
		}
		if err := usable(existing); err != nil {
			return nil, err
		}
		return &identity.Resolution{User: existing}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	r.audit.Record(ctx, audit.Entry{
		ActorID:      &u.ID,
		Action:       audit.ActionUserRegistered,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatUint(uint64(u.ID), 10),
		Metadata:     map[string]any{"passwordless": true},
		IP:           in.IP,
	})

	return &identity.Resolution{User: u, IsNewUser: true}, nil
}

// migrate folds a legacy customer row into a unified user.
func (r *Resolver) migrate(ctx context.Context, c *models.LegacyCustomer, ip string) (*models.User, error) {
	res, err := r.create(ctx, CustomerInput{
		Email: c.Email,
		Name:  c.Name,
		Phone: c.Phone,
		IP:    ip,
	})
	if err != nil {
		return nil, err
	}

	if err := r.legacy.MarkMigrated(ctx, c.ID, res.User.ID, r.now()); err != nil && !errors.Is(err, domain.ErrStatusConflict) {
		return nil, fmt.Errorf("mark legacy customer migrated: %w", err)
	}

	r.audit.Record(ctx, audit.Entry{
		ActorID:      &res.User.ID,
		Action:       audit.ActionLegacyCustomerMig,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatUint(uint64(res.User.ID), 10),
		Metadata:     map[string]any{"legacy_customer_id": c.ID},
		IP:           ip,
	})

	return res.User, nil
}

func usable(u *models.User) error {
	if u.Suspended || !u.Active {
		return httperr.ErrBusiness(httperr.CodeAccountSuspended)
	}
	return nil
}
