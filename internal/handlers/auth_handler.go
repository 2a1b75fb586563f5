package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/httpresp"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
)

// CookieConfig controls the session cookie written on sign-in.
type CookieConfig struct {
	Domain string
	Secure bool
}

type AuthHandler struct {
	register    *auth.Register
	login       *auth.Login
	sessions    *auth.Sessions
	requestLink *auth.RequestMagicLink
	verifyLink  *auth.VerifyMagicLink
	verifyEmail *auth.VerifyEmail
	links       notify.Links
	cookie      CookieConfig
}

func NewAuthHandler(
	register *auth.Register,
	login *auth.Login,
	sessions *auth.Sessions,
	requestLink *auth.RequestMagicLink,
	verifyLink *auth.VerifyMagicLink,
	verifyEmail *auth.VerifyEmail,
	links notify.Links,
	cookie CookieConfig,
) *AuthHandler {
	return &AuthHandler{
		register:    register,
		login:       login,
		sessions:    sessions,
		requestLink: requestLink,
		verifyLink:  verifyLink,
		verifyEmail: verifyEmail,
		links:       links,
		cookie:      cookie,
	}
}

// --------- Responses ---------

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type linkRequest struct {
	Token string `json:"token"`
}

// --------- Password ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var in auth.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	in.IP = c.ClientIP()

	if err := h.register.Execute(c.Request.Context(), in); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": auth.RegisterMessage})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in auth.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	in.IP = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	s, err := h.login.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	h.setCookie(c, s.Token, s.ExpiresAt)
	httpresp.OK(c, SessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: s.User})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.End(c.Request.Context(), middleware.Principal(c), c.ClientIP()); err != nil {
		httperr.Respond(c, err)
		return
	}

	h.clearCookie(c)
	c.Status(http.StatusNoContent)
}

// --------- Links ---------

func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var in auth.MagicLinkRequestInput
	if !bindJSON(c, &in) {
		return
	}
	in.IP = c.ClientIP()

	out, err := h.requestLink.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	resp := gin.H{"message": "If the address is valid, a sign-in link is on its way."}
	if out.Token != "" {
		resp["token"] = out.Token
	}
	httpresp.OK(c, resp)
}

// VerifyMagicLink accepts the token from the query string (email click) or
// a JSON body, and always answers with a redirect.
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	tok := c.Query("token")
	if tok == "" && c.Request.Method == http.MethodPost {
		var body linkRequest
		_ = c.ShouldBindJSON(&body)
		tok = body.Token
	}

	h.finishLink(c, func() (*auth.IssuedSession, error) {
		return h.verifyLink.Execute(c.Request.Context(), auth.VerifyLinkInput{
			Token:     tok,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	h.finishLink(c, func() (*auth.IssuedSession, error) {
		return h.verifyEmail.Execute(c.Request.Context(), auth.VerifyLinkInput{
			Token:     c.Query("token"),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
	})
}

func (h *AuthHandler) finishLink(c *gin.Context, run func() (*auth.IssuedSession, error)) {
	status := http.StatusFound
	if c.Request.Method == http.MethodPost {
		status = http.StatusSeeOther
	}

	s, err := run()
	if err != nil {
		reason := "invalid"
		switch {
		case httperr.IsBusiness(err, httperr.CodeTokenExpired):
			reason = "expired"
		case httperr.IsBusiness(err, httperr.CodeAccountSuspended):
			reason = "suspended"
		case !httperr.IsBusiness(err, httperr.CodeTokenInvalid):
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("link verification failed")
		}
		c.Redirect(status, h.links.LoginError(reason))
		return
	}

	h.setCookie(c, s.Token, s.ExpiresAt)
	c.Redirect(status, h.links.Dashboard())
}

// --------- Cookie ---------

func (h *AuthHandler) setCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
}
