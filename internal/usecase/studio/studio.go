package studio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/geo"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/timezone"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateInput struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Street      string `json:"street" validate:"required,max=255"`
	PostalCode  string `json:"postalCode" validate:"required,max=10"`
	City        string `json:"city" validate:"required,max=100"`
	Country     string `json:"country" validate:"omitempty,len=2"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Website     string `json:"website" validate:"omitempty,url,max=255"`
	Capacity    int    `json:"capacity" validate:"gte=1,lte=10"`
	Timezone    string `json:"timezone" validate:"max=50"`
}

type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Street      *string `json:"street" validate:"omitempty,max=255"`
	PostalCode  *string `json:"postalCode" validate:"omitempty,max=10"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Country     *string `json:"country" validate:"omitempty,len=2"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Website     *string `json:"website" validate:"omitempty,url,max=255"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gte=1,lte=10"`
	Timezone    *string `json:"timezone" validate:"omitempty,max=50"`
	Active      *bool   `json:"active"`
}

// ======================================================
// USE CASE
// ======================================================

// Studios covers the studio record itself: create, read, update.
type Studios struct {
	repo     studio.Repository
	geocoder geo.Geocoder
	audit    *audit.Logger
}

func NewStudios(repo studio.Repository, geocoder geo.Geocoder, audit *audit.Logger) *Studios {
	return &Studios{repo: repo, geocoder: geocoder, audit: audit}
}

func (uc *Studios) Create(ctx context.Context, p *security.Principal, in CreateInput, ip string) (*models.Studio, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	tz, err := checkTimezone(in.Timezone)
	if err != nil {
		return nil, err
	}

	country := strings.ToUpper(in.Country)
	if country == "" {
		country = "DE"
	}

	s := &models.Studio{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Street:      in.Street,
		PostalCode:  in.PostalCode,
		City:        in.City,
		Country:     country,
		Phone:       in.Phone,
		Email:       in.Email,
		Website:     in.Website,
		Capacity:    in.Capacity,
		Timezone:    tz,
		Active:      true,
	}
	uc.locate(ctx, s)

	if err := uc.repo.Create(ctx, s, p.UserID); err != nil {
		return nil, fmt.Errorf("create studio: %w", err)
	}

	uc.record(ctx, p, audit.ActionStudioCreated, s.ID, nil, ip)
	return s, nil
}

func (uc *Studios) Get(ctx context.Context, id uint) (*models.Studio, error) {
	s, err := uc.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeStudioNotFound)
		}
		return nil, err
	}
	if !s.Active {
		return nil, httperr.ErrBusiness(httperr.CodeStudioNotFound)
	}
	return s, nil
}

func (uc *Studios) Update(ctx context.Context, p *security.Principal, id uint, in UpdateInput, ip string) (*models.Studio, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}

	s, err := requireOwner(ctx, uc.repo, id, p)
	if err != nil {
		return nil, err
	}

	addressChanged := false
	setStr := func(dst *string, v *string, address bool) {
		if v != nil && *v != *dst {
			*dst = *v
			addressChanged = addressChanged || address
		}
	}
	setStr(&s.Name, in.Name, false)
	setStr(&s.Description, in.Description, false)
	setStr(&s.Street, in.Street, true)
	setStr(&s.PostalCode, in.PostalCode, true)
	setStr(&s.City, in.City, true)
	setStr(&s.Country, in.Country, true)
	setStr(&s.Phone, in.Phone, false)
	setStr(&s.Email, in.Email, false)
	setStr(&s.Website, in.Website, false)

	if in.Capacity != nil {
		s.Capacity = *in.Capacity
	}
	if in.Timezone != nil {
		tz, err := checkTimezone(*in.Timezone)
		if err != nil {
			return nil, err
		}
		s.Timezone = tz
	}
	if in.Active != nil {
		s.Active = *in.Active
	}

	if addressChanged {
		s.Latitude, s.Longitude = nil, nil
		uc.locate(ctx, s)
	}

	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}

	uc.record(ctx, p, audit.ActionStudioUpdated, s.ID, map[string]any{"address_changed": addressChanged}, ip)
	return s, nil
}

// locate geocodes the address. A failure leaves the studio without
// coordinates; it is then only found by text search.
func (uc *Studios) locate(ctx context.Context, s *models.Studio) {
	if uc.geocoder == nil {
		return
	}

	address := fmt.Sprintf("%s, %s %s, %s", s.Street, s.PostalCode, s.City, s.Country)
	pt, err := uc.geocoder.Geocode(ctx, address)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("city", s.City).Msg("geocoding failed")
		return
	}

	lat, lng := pt.Lat, pt.Lng
	s.Latitude, s.Longitude = &lat, &lng
}

func (uc *Studios) record(ctx context.Context, p *security.Principal, action audit.Action, studioID uint, meta any, ip string) {
	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &p.UserID,
		Action:       action,
		ResourceType: audit.ResourceStudio,
		ResourceID:   strconv.FormatUint(uint64(studioID), 10),
		Metadata:     meta,
		IP:           ip,
	})
}

// ======================================================
// helpers
// ======================================================

func checkTimezone(tz string) (string, error) {
	if tz == "" {
		return timezone.DefaultTimezone, nil
	}
	if !timezone.IsValid(tz) {
		return "", httperr.Invalid("timezone", "is not a known time zone")
	}
	return tz, nil
}

// requireOwner loads the studio and checks the caller owns it.
func requireOwner(ctx context.Context, repo studio.Repository, studioID uint, p *security.Principal) (*models.Studio, error) {
	if p == nil {
		return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
	}

	s, err := repo.Get(ctx, studioID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeStudioNotFound)
		}
		return nil, err
	}

	owner, err := repo.IsOwner(ctx, studioID, p.UserID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, httperr.ErrBusiness(httperr.CodeForbidden)
	}
	return s, nil
}
