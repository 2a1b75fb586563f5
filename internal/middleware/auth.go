package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

const (
	ContextPrincipal = "principal"
	SessionCookie    = "session"
)

type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*security.Principal, error)
}

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session.
func AuthMiddleware(v SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := sessionToken(c)
		if tok == "" {
			c.Abort()
			httperr.Respond(c, httperr.ErrBusiness(httperr.CodeUnauthorized))
			return
		}

		p, err := v.Verify(c.Request.Context(), tok)
		if err != nil {
			c.Abort()
			httperr.Respond(c, err)
			return
		}

		c.Set(ContextPrincipal, p)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid session is presented and
// otherwise lets the request through as a guest.
func OptionalAuth(v SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := sessionToken(c); tok != "" {
			if p, err := v.Verify(c.Request.Context(), tok); err == nil {
				c.Set(ContextPrincipal, p)
			}
		}
		c.Next()
	}
}

// RequirePermission checks the role table. Callers without a session are
// checked as GUEST; a denial is 401 for them and 403 otherwise.
func RequirePermission(perm rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)

		if p == nil {
			if rbac.HasPermission(rbac.RoleGuest, perm) {
				c.Next()
				return
			}
			c.Abort()
			httperr.Respond(c, httperr.ErrBusiness(httperr.CodeUnauthorized))
			return
		}

		if !p.Can(perm) {
			c.Abort()
			httperr.Respond(c, httperr.ErrBusiness(httperr.CodeForbidden))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, nil for guests.
func Principal(c *gin.Context) *security.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*security.Principal)
	return p
}
