package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type mapping struct {
	status  int
	kind    string
	message string
}

var businessMappings = map[string]mapping{
	CodeInvalidRequest:        {http.StatusBadRequest, "validation", "The request could not be read."},
	CodeHealthConsentRequired: {http.StatusBadRequest, "consent", "Explicit consent is required before a message with health information can be stored."},
	CodeInvalidEmailDomain:    {http.StatusBadRequest, "validation", "The email domain does not accept mail."},
	CodeInvalidImage:          {http.StatusBadRequest, "validation", "The uploaded file is not a supported image."},
	CodeOwnsStudios:           {http.StatusBadRequest, "conflict", "Transfer or close your studios before deleting the account."},
	CodeTokenInvalid:          {http.StatusBadRequest, "validation", "The link is invalid or was already used."},
	CodeTokenExpired:          {http.StatusBadRequest, "validation", "The link has expired."},

	CodeUnauthorized:       {http.StatusUnauthorized, "authorization", "Authentication required."},
	CodeInvalidCredentials: {http.StatusUnauthorized, "authorization", "Invalid email or password."},
	CodeForbidden:          {http.StatusForbidden, "authorization", "You are not allowed to perform this action."},
	CodeAccountSuspended:   {http.StatusForbidden, "authorization", "This account is suspended."},

	CodeBookingNotFound: {http.StatusNotFound, "not_found", "Booking not found."},
	CodeStudioNotFound:  {http.StatusNotFound, "not_found", "Studio not found."},
	CodeServiceNotFound: {http.StatusNotFound, "not_found", "Service not found."},
	CodeUserNotFound:    {http.StatusNotFound, "not_found", "User not found."},

	CodeAlreadyProcessed: {http.StatusConflict, "conflict", "This booking was already processed."},
	CodeInvalidState:     {http.StatusConflict, "conflict", "The booking is not in a state that allows this action."},
	CodeSlotFull:         {http.StatusConflict, "conflict", "This time slot is fully booked."},
	CodeAlreadyOwner:     {http.StatusConflict, "conflict", "The user already owns this studio."},

	CodeMediaDisabled: {http.StatusServiceUnavailable, "infrastructure", "Photo uploads are not available."},
	CodeRateLimited:   {http.StatusTooManyRequests, "rate_limit", "Too many requests."},
}

// StatusFor returns the HTTP status a business code maps to.
func StatusFor(code string) int {
	if m, ok := businessMappings[code]; ok {
		return m.status
	}
	return http.StatusBadRequest
}

// Respond translates a use-case error into the JSON envelope. Anything that
// is neither a validation nor a business error is logged and answered with a
// generic 500.
func Respond(c *gin.Context, err error) {
	requestID := c.GetString(ContextRequestID)

	var ve ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, HTTPError{
			Code:      CodeValidationFailed,
			Kind:      "validation",
			Message:   "Some fields are invalid.",
			Fields:    ve.Fields,
			RequestID: requestID,
		})
		return
	}

	var be BusinessError
	if errors.As(err, &be) {
		m, ok := businessMappings[be.Code]
		if !ok {
			m = mapping{http.StatusBadRequest, "business", be.Code}
		}
		c.JSON(m.status, HTTPError{
			Code:      be.Code,
			Kind:      m.kind,
			Message:   m.message,
			RequestID: requestID,
		})
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("path", c.FullPath()).
		Msg("request failed")

	c.JSON(http.StatusInternalServerError, HTTPError{
		Code:      CodeInternal,
		Kind:      "infrastructure",
		Message:   "Something went wrong. Please try again later.",
		RequestID: requestID,
	})
}
