package notify

import (
	"fmt"
	"net/url"
	"strings"
)

// Links builds the absolute URLs placed in emails.
type Links struct {
	BaseURL string
}

func (l Links) base() string {
	return strings.TrimRight(l.BaseURL, "/")
}

func (l Links) MagicLink(token string) string {
	return fmt.Sprintf("%s/api/auth/magic-link/verify?token=%s", l.base(), url.QueryEscape(token))
}

func (l Links) VerifyEmail(token string) string {
	return fmt.Sprintf("%s/api/auth/verify-email?token=%s", l.base(), url.QueryEscape(token))
}

func (l Links) Dashboard() string {
	return l.base() + "/dashboard"
}

func (l Links) StudioBookings(studioID uint) string {
	return fmt.Sprintf("%s/dashboard/studios/%d/bookings", l.base(), studioID)
}

// LoginError is where a failed link verification lands; reason is
// "expired" or "invalid".
func (l Links) LoginError(reason string) string {
	return fmt.Sprintf("%s/login?error=%s", l.base(), url.QueryEscape(reason))
}
