package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
)

// paramID reads a positive numeric path parameter. On failure the response
// is already written.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.Respond(c, httperr.Invalid(name, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body; field rules are checked by the use case.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httperr.Respond(c, httperr.ErrBusiness(httperr.CodeInvalidRequest))
		return false
	}
	return true
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		httperr.Respond(c, httperr.Invalid(name, "must be a number"))
		return nil, false
	}
	return &v, true
}
