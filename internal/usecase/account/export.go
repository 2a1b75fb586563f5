package account

import (
	"context"
	"strconv"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/dto"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type Controller struct {
	Name    string
	Email   string
	Address string
}

// Export assembles everything stored about a user (GDPR Art. 15).
type Export struct {
	users      identity.Repository
	bookings   booking.Repository
	studios    studio.Repository
	audit      *audit.Logger
	controller Controller
	now        func() time.Time
}

func NewExport(
	users identity.Repository,
	bookings booking.Repository,
	studios studio.Repository,
	audit *audit.Logger,
	controller Controller,
) *Export {
	return &Export{
		users:      users,
		bookings:   bookings,
		studios:    studios,
		audit:      audit,
		controller: controller,
		now:        time.Now,
	}
}

func (uc *Export) Execute(ctx context.Context, userID uint, ip string) (*dto.DataExport, error) {
	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := uc.users.ListRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	bookings, err := uc.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	favorites, err := uc.studios.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := uc.studios.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}

	logs, err := uc.audit.Export(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &dto.DataExport{
		ExportDate: uc.now().UTC(),
		DataController: dto.DataController{
			Name:    uc.controller.Name,
			Email:   uc.controller.Email,
			Address: uc.controller.Address,
		},
		PersonalData: dto.PersonalData{
			ID:              u.ID,
			Email:           u.Email,
			Name:            u.Name,
			Phone:           u.Phone,
			HasPassword:     !u.Passwordless(),
			EmailVerifiedAt: u.EmailVerifiedAt,
			CreatedAt:       u.CreatedAt,
		},
		Roles:        roles,
		Bookings:     exportBookings(bookings),
		Favorites:    exportStudios(favorites),
		OwnedStudios: exportStudios(owned),
		AuditLog:     exportAudit(logs),
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &userID,
		Action:       audit.ActionDataExported,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatUint(uint64(userID), 10),
		IP:           ip,
	})

	return out, nil
}

func exportBookings(list []models.Booking) []dto.ExportBooking {
	out := make([]dto.ExportBooking, 0, len(list))
	for _, b := range list {
		e := dto.ExportBooking{
			ID:                    b.ID,
			StudioID:              b.StudioID,
			PreferredDate:         b.PreferredDate,
			PreferredTime:         b.PreferredTime,
			Status:                b.Status,
			CustomerName:          b.CustomerName,
			CustomerEmail:         b.CustomerEmail,
			CustomerPhone:         b.CustomerPhone,
			Message:               b.Message,
			ExplicitHealthConsent: b.ExplicitHealthConsent,
			HealthConsentAt:       b.HealthConsentAt,
			HealthConsentText:     b.HealthConsentText,
			CreatedAt:             b.CreatedAt,
		}
		if b.Service != nil {
			e.ServiceName = b.Service.Name
		}
		out = append(out, e)
	}
	return out
}

func exportStudios(list []models.Studio) []dto.ExportStudio {
	out := make([]dto.ExportStudio, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ExportStudio{ID: s.ID, Name: s.Name, City: s.City})
	}
	return out
}

func exportAudit(list []models.AuditLog) []dto.ExportAuditEntry {
	out := make([]dto.ExportAuditEntry, 0, len(list))
	for _, l := range list {
		out = append(out, dto.ExportAuditEntry{
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			IPAddress:    l.IPAddress,
			CreatedAt:    l.CreatedAt,
		})
	}
	return out
}
