package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/admin"
)

type AdminHandler struct {
	users *admin.Users
}

func NewAdminHandler(users *admin.Users) *AdminHandler {
	return &AdminHandler{users: users}
}

// ======================================================
// LIST USERS
// ======================================================
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := httpresp.Pagination(c, 50, 200)
	query := strings.TrimSpace(c.Query("query"))

	users, total, err := h.users.List(c.Request.Context(), query, limit, (page-1)*limit)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.Page(c, users, total, page, limit)
}

func (h *AdminHandler) Suspend(c *gin.Context) {
	h.setSuspended(c, true)
}

func (h *AdminHandler) Unsuspend(c *gin.Context) {
	h.setSuspended(c, false)
}

func (h *AdminHandler) setSuspended(c *gin.Context, suspended bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	u, err := h.users.SetSuspended(c.Request.Context(), middleware.Principal(c), id, suspended, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, u)
}

func (h *AdminHandler) AssignRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in admin.AssignRoleInput
	if !bindJSON(c, &in) {
		return
	}

	roles, err := h.users.AssignRole(c.Request.Context(), middleware.Principal(c), id, in, c.ClientIP())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	httpresp.OK(c, gin.H{"user_id": id, "roles": roles})
}
