package booking

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	bookingdomain "github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

type CapacityInput struct {
	StudioID uint   `json:"studioId" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,hhmm"`

	Principal *security.Principal `validate:"-"`
}

type SlotBooking struct {
	ID           uint   `json:"id"`
	CustomerName string `json:"customerName"`
	ServiceName  string `json:"serviceName,omitempty"`
}

type CapacityReport struct {
	Current  int64         `json:"current"`
	Max      int           `json:"max"`
	IsFull   bool          `json:"isFull"`
	Bookings []SlotBooking `json:"bookings"`
}

// ======================================================
// CAPACITY
// ======================================================

type CheckCapacity struct {
	bookings bookingdomain.Repository
	studios  studio.Repository
}

func NewCheckCapacity(bookings bookingdomain.Repository, studios studio.Repository) *CheckCapacity {
	return &CheckCapacity{bookings: bookings, studios: studios}
}

func (uc *CheckCapacity) Execute(ctx context.Context, in CapacityInput) (*CapacityReport, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}

	st, err := requireStudioAccess(ctx, uc.studios, in.StudioID, in.Principal)
	if err != nil {
		return nil, err
	}

	slot := bookingdomain.Slot{StudioID: st.ID, Date: in.Date, Time: in.Time}
	list, err := uc.bookings.ListConfirmed(ctx, slot)
	if err != nil {
		return nil, err
	}

	rep := &CapacityReport{
		Current:  int64(len(list)),
		Max:      st.Capacity,
		IsFull:   bookingdomain.IsFull(int64(len(list)), st.Capacity),
		Bookings: make([]SlotBooking, 0, len(list)),
	}
	for _, b := range list {
		sb := SlotBooking{ID: b.ID, CustomerName: b.CustomerName}
		if b.Service != nil {
			sb.ServiceName = b.Service.Name
		}
		rep.Bookings = append(rep.Bookings, sb)
	}
	return rep, nil
}

// ======================================================
// LISTS
// ======================================================

type List struct {
	bookings bookingdomain.Repository
	studios  studio.Repository
}

func NewList(bookings bookingdomain.Repository, studios studio.Repository) *List {
	return &List{bookings: bookings, studios: studios}
}

func (uc *List) Mine(ctx context.Context, p *security.Principal) ([]models.Booking, error) {
	if p == nil {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}
	return uc.bookings.ListByUser(ctx, p.UserID)
}

// ForStudio lists a studio's bookings, optionally for one day.
func (uc *List) ForStudio(ctx context.Context, studioID uint, date string, p *security.Principal) ([]models.Booking, error) {
	if date != "" {
		if err := validators.Struct(struct {
			Date string `json:"date" validate:"datetime=2006-01-02"`
		}{date}); err != nil {
			return nil, err
		}
	}

	if _, err := requireStudioAccess(ctx, uc.studios, studioID, p); err != nil {
		return nil, err
	}
	return uc.bookings.ListByStudio(ctx, studioID, date)
}

// requireStudioAccess lets owners and platform admins read studio data.
func requireStudioAccess(ctx context.Context, studios studio.Repository, studioID uint, p *security.Principal) (*models.Studio, error) {
	if p == nil {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}

	st, err := studios.Get(ctx, studioID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeStudioNotFound)
		}
		return nil, err
	}

	if p.Can(rbac.PermAdminStudios) {
		return st, nil
	}

	owner, err := studios.IsOwner(ctx, studioID, p.UserID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, httperr.ErrBusiness(httperr.CodeForbidden)
	}
	return st, nil
}
