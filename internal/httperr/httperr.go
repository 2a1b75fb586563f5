package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const ContextRequestID = "requestID"

type HTTPError struct {
	Code      string            `json:"error_code"`
	Kind      string            `json:"error_kind,omitempty"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Validation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, HTTPError{
		Code:    CodeValidationFailed,
		Kind:    "validation",
		Message: "Some fields are invalid.",
		Fields:  fields,
	})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, HTTPError{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(ContextRequestID),
	})
}
