package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/studio"
)

// ServiceHandler manages the treatments a studio offers.
type ServiceHandler struct {
	services *studio.Services
}

func NewServiceHandler(services *studio.Services) *ServiceHandler {
	return &ServiceHandler{services: services}
}

func (h *ServiceHandler) Create(c *gin.Context) {
	studioID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in studio.ServiceInput
	if !bindJSON(c, &in) {
		return
	}

	svc, err := h.services.Create(c.Request.Context(), middleware.Principal(c), studioID, in, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.Created(c, svc)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	studioID, ok := paramID(c, "id")
	if !ok {
		return
	}
	serviceID, ok := paramID(c, "serviceId")
	if !ok {
		return
	}

	var in studio.ServiceUpdateInput
	if !bindJSON(c, &in) {
		return
	}

	svc, err := h.services.Update(c.Request.Context(), middleware.Principal(c), studioID, serviceID, in, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, svc)
}

// Delete deactivates the service; past bookings keep referencing it.
func (h *ServiceHandler) Delete(c *gin.Context) {
	studioID, ok := paramID(c, "id")
	if !ok {
		return
	}
	serviceID, ok := paramID(c, "serviceId")
	if !ok {
		return
	}

	if err := h.services.Delete(c.Request.Context(), middleware.Principal(c), studioID, serviceID, c.ClientIP()); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
