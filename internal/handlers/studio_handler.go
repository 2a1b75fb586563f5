package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/media"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/studio"
)

type StudioHandler struct {
	studios *studio.Studios
	owners  *studio.Owners
	photos  *studio.Photos
}

func NewStudioHandler(studios *studio.Studios, owners *studio.Owners, photos *studio.Photos) *StudioHandler {
	return &StudioHandler{studios: studios, owners: owners, photos: photos}
}

func (h *StudioHandler) Create(c *gin.Context) {
	var in studio.CreateInput
	if !bindJSON(c, &in) {
		return
	}

	s, err := h.studios.Create(c.Request.Context(), middleware.Principal(c), in, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.Created(c, s)
}

func (h *StudioHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in studio.UpdateInput
	if !bindJSON(c, &in) {
		return
	}

	s, err := h.studios.Update(c.Request.Context(), middleware.Principal(c), id, in, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, s)
}

// --------- Owners ---------

func (h *StudioHandler) ListOwners(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	list, err := h.owners.List(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, list)
}

func (h *StudioHandler) AddOwner(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in studio.AddOwnerInput
	if !bindJSON(c, &in) {
		return
	}

	list, err := h.owners.Add(c.Request.Context(), middleware.Principal(c), id, in, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"owners": list})
}

// --------- Photo ---------

// UploadPhoto expects a multipart form with a "photo" file.
func (h *StudioHandler) UploadPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("photo")
	if err != nil {
		httperr.Respond(c, httperr.Invalid("photo", "is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		httperr.Respond(c, httperr.ErrBusiness(httperr.CodeInvalidImage))
		return
	}
	defer f.Close()

	s, err := h.photos.Upload(c.Request.Context(), middleware.Principal(c), id, f, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, s)
}
