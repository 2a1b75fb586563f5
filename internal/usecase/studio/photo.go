package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/media"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

type Photos struct {
	repo     studio.Repository
	uploader media.Uploader
	audit    *audit.Logger
}

// NewPhotos accepts a nil uploader when no object storage is configured.
func NewPhotos(repo studio.Repository, uploader media.Uploader, audit *audit.Logger) *Photos {
	return &Photos{repo: repo, uploader: uploader, audit: audit}
}

func (uc *Photos) Upload(ctx context.Context, p *security.Principal, studioID uint, file io.Reader, ip string) (*models.Studio, error) {
	if uc.uploader == nil {
		return nil, httperr.ErrBusiness(httperr.CodeMediaDisabled)
	}

	s, err := requireOwner(ctx, uc.repo, studioID, p)
	if err != nil {
		return nil, err
	}

	img, err := media.Process(file)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) || errors.Is(err, media.ErrImageTooLarge) {
			return nil, httperr.ErrBusiness(httperr.CodeInvalidImage)
		}
		return nil, err
	}

	url, err := uc.uploader.Upload(ctx, fmt.Sprintf("studios/%d", s.ID), img)
	if err != nil {
		return nil, err
	}

	s.PhotoURL = url
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &p.UserID,
		Action:       audit.ActionStudioPhotoUpload,
		ResourceType: audit.ResourceStudio,
		ResourceID:   strconv.FormatUint(uint64(s.ID), 10),
		Metadata:     map[string]any{"width": img.Width, "height": img.Height, "bytes": len(img.Data)},
		IP:           ip,
	})

	return s, nil
}
