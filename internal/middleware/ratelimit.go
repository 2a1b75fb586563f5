package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/ratelimit"
)

// RateLimit applies policy per client IP. A failing limiter store lets the
// request through.
func RateLimit(l ratelimit.Limiter, p ratelimit.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := l.Allow(c.Request.Context(), c.ClientIP(), p)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("policy", p.Name).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			h.Set("Retry-After", strconv.Itoa(res.RetryAfter(time.Now())))
			c.Abort()
			httperr.Respond(c, httperr.ErrBusiness(httperr.CodeRateLimited))
			return
		}

		c.Next()
	}
}
