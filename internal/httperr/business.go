package httperr

import (
	"errors"
	"sort"
	"strings"
)

const (
	CodeInvalidRequest        = "invalid_request"
	CodeValidationFailed      = "validation_failed"
	CodeHealthConsentRequired = "health_consent_required"

	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountSuspended   = "account_suspended"

	CodeAlreadyProcessed = "already_processed"
	CodeInvalidState     = "invalid_state"
	CodeSlotFull         = "slot_full"
	CodeAlreadyOwner     = "already_owner"
	CodeOwnsStudios      = "owns_studios"

	CodeBookingNotFound = "booking_not_found"
	CodeStudioNotFound  = "studio_not_found"
	CodeServiceNotFound = "service_not_found"
	CodeUserNotFound    = "user_not_found"

	CodeTokenInvalid = "token_invalid"
	CodeTokenExpired = "token_expired"

	CodeInvalidEmailDomain = "invalid_email_domain"
	CodeInvalidImage       = "invalid_image"
	CodeMediaDisabled      = "media_storage_disabled"

	CodeRateLimited = "rate_limited"
	CodeInternal    = "internal_error"
)

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func Invalid(field, message string) error {
	return ValidationError{Fields: map[string]string{field: message}}
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
