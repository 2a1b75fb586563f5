package studio

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

type ServiceInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"max=255"`
	DurationMin int     `json:"durationMin" validate:"gte=15,lte=240"`
	Price       float64 `json:"price" validate:"gte=5,lte=500"`
}

type ServiceUpdateInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=255"`
	DurationMin *int     `json:"durationMin" validate:"omitempty,gte=15,lte=240"`
	Price       *float64 `json:"price" validate:"omitempty,gte=5,lte=500"`
	Active      *bool    `json:"active"`
}

type Services struct {
	repo  studio.Repository
	audit *audit.Logger
}

func NewServices(repo studio.Repository, audit *audit.Logger) *Services {
	return &Services{repo: repo, audit: audit}
}

func (uc *Services) Create(ctx context.Context, p *security.Principal, studioID uint, in ServiceInput, ip string) (*models.Service, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	if _, err := requireOwner(ctx, uc.repo, studioID, p); err != nil {
		return nil, err
	}

	svc := &models.Service{
		StudioID:    studioID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		DurationMin: in.DurationMin,
		Price:       in.Price,
		Active:      true,
	}
	if err := uc.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}

	uc.record(ctx, p, audit.ActionServiceCreated, svc, ip)
	return svc, nil
}

func (uc *Services) Update(ctx context.Context, p *security.Principal, studioID, serviceID uint, in ServiceUpdateInput, ip string) (*models.Service, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	if _, err := requireOwner(ctx, uc.repo, studioID, p); err != nil {
		return nil, err
	}

	svc, err := uc.repo.GetService(ctx, studioID, serviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeServiceNotFound)
		}
		return nil, err
	}

	if in.Name != nil {
		svc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		svc.Description = *in.Description
	}
	if in.DurationMin != nil {
		svc.DurationMin = *in.DurationMin
	}
	if in.Price != nil {
		svc.Price = *in.Price
	}
	if in.Active != nil {
		svc.Active = *in.Active
	}

	if err := uc.repo.UpdateService(ctx, svc); err != nil {
		return nil, err
	}

	uc.record(ctx, p, audit.ActionServiceUpdated, svc, ip)
	return svc, nil
}

func (uc *Services) Delete(ctx context.Context, p *security.Principal, studioID, serviceID uint, ip string) error {
	if _, err := requireOwner(ctx, uc.repo, studioID, p); err != nil {
		return err
	}

	if err := uc.repo.DeleteService(ctx, studioID, serviceID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return httperr.ErrBusiness(httperr.CodeServiceNotFound)
		}
		return err
	}

	uc.record(ctx, p, audit.ActionServiceDeleted, &models.Service{ID: serviceID, StudioID: studioID}, ip)
	return nil
}

func (uc *Services) record(ctx context.Context, p *security.Principal, action audit.Action, svc *models.Service, ip string) {
	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &p.UserID,
		Action:       action,
		ResourceType: audit.ResourceService,
		ResourceID:   strconv.FormatUint(uint64(svc.ID), 10),
		Metadata:     map[string]any{"studio_id": svc.StudioID},
		IP:           ip,
	})
}
