package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/admin"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	logs *admin.AuditLogs
}

func NewAuditLogsHandler(logs *admin.AuditLogs) *AuditLogsHandler {
	return &AuditLogsHandler{logs: logs}
}

// List filters by user_id, action, resource_type and a from/to day range.
func (h *AuditLogsHandler) List(c *gin.Context) {
	page, limit := httpresp.Pagination(c, 50, 200)

	q := admin.AuditLogQuery{
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		From:         c.Query("from"),
		To:           c.Query("to"),
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}

	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.Respond(c, httperr.Invalid("user_id", "must be a positive integer"))
			return
		}
		uid := uint(id)
		q.UserID = &uid
	}

	logs, total, err := h.logs.Execute(c.Request.Context(), q)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Page(c, logs, total, page, limit)
}
