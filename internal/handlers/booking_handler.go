package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/dto"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	create   *booking.Create
	respond  *booking.Respond
	complete *booking.Complete
	cancel   *booking.Cancel
	list     *booking.List
	capacity *booking.CheckCapacity
}

func NewBookingHandler(
	create *booking.Create,
	respond *booking.Respond,
	complete *booking.Complete,
	cancel *booking.Cancel,
	list *booking.List,
	capacity *booking.CheckCapacity,
) *BookingHandler {
	return &BookingHandler{
		create:   create,
		respond:  respond,
		complete: complete,
		cancel:   cancel,
		list:     list,
		capacity: capacity,
	}
}

type TransitionResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Booking *models.Booking `json:"booking"`
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var in booking.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	in.Principal = middleware.Principal(c)
	in.IP = c.ClientIP()

	b, err := h.create.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, b)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, h.respond.Confirm, "Booking confirmed.")
}

func (h *BookingHandler) Decline(c *gin.Context) {
	h.transition(c, h.respond.Decline, "Booking declined.")
}

func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, h.complete.Execute, "Booking completed.")
}

func (h *BookingHandler) CancelMine(c *gin.Context) {
	h.transition(c, h.cancel.Execute, "Booking cancelled.")
}

func (h *BookingHandler) transition(
	c *gin.Context,
	run func(context.Context, booking.TransitionInput) (*models.Booking, error),
	message string,
) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	b, err := run(c.Request.Context(), booking.TransitionInput{
		BookingID: id,
		Principal: middleware.Principal(c),
		IP:        c.ClientIP(),
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, TransitionResponse{Success: true, Message: message, Booking: b})
}

// ======================================================
// LIST
// ======================================================

func (h *BookingHandler) ListMine(c *gin.Context) {
	list, err := h.list.Mine(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, dto.BookingList(list))
}

// ListForStudio returns full rows; owners need the message to prepare the
// treatment.
func (h *BookingHandler) ListForStudio(c *gin.Context) {
	studioID, ok := paramID(c, "id")
	if !ok {
		return
	}

	list, err := h.list.ForStudio(c.Request.Context(), studioID, c.Query("date"), middleware.Principal(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.List(c, list)
}

func (h *BookingHandler) Capacity(c *gin.Context) {
	studioID, ok := paramID(c, "id")
	if !ok {
		return
	}

	rep, err := h.capacity.Execute(c.Request.Context(), booking.CapacityInput{
		StudioID:  studioID,
		Date:      c.Query("date"),
		Time:      c.Query("time"),
		Principal: middleware.Principal(c),
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, rep)
}
