package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/ratelimit"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]*security.Principal

func (s stubVerifier) Verify(_ context.Context, tok string) (*security.Principal, error) {
	if p, ok := s[tok]; ok {
		return p, nil
	}
	return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
}

var verifier = stubVerifier{
	"customer": {UserID: 1, Roles: []rbac.Role{rbac.RoleCustomer}},
	"owner":    {UserID: 2, Roles: []rbac.Role{rbac.RoleCustomer, rbac.RoleStudioOwner}},
}

func ok(c *gin.Context) { c.Status(http.StatusNoContent) }

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.Use(OptionalAuth(verifier))
	r.POST("/bookings", RequirePermission(rbac.PermBookingCreate), ok)
	r.PATCH("/confirm", RequirePermission(rbac.PermBookingConfirm), ok)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"guest may book", http.MethodPost, "/bookings", "", http.StatusNoContent},
		{"guest cannot confirm", http.MethodPatch, "/confirm", "", http.StatusUnauthorized},
		{"unknown token is a guest", http.MethodPatch, "/confirm", "garbage", http.StatusUnauthorized},
		{"customer cannot confirm", http.MethodPatch, "/confirm", "customer", http.StatusForbidden},
		{"owner confirms", http.MethodPatch, "/confirm", "owner", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.token)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": Principal(c).UserID})
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "nope").Code)

	w := do(r, http.MethodGet, "/me", "owner")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "customer"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	policy := ratelimit.Policy{Name: "test", Limit: 2, Window: time.Minute}
	r := gin.New()
	r.POST("/x", RateLimit(ratelimit.NewMemoryLimiter(), policy), ok)

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/x", "")
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := do(r, http.MethodPost, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 60)
	assert.Contains(t, w.Body.String(), httperr.CodeRateLimited)
}

func TestRateLimit_KeysOnPeerAddress(t *testing.T) {
	policy := ratelimit.Policy{Name: "test", Limit: 2, Window: time.Minute}
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/x", RateLimit(ratelimit.NewMemoryLimiter(), policy), ok)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i+1))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{
		http.StatusNoContent, http.StatusNoContent,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, ratelimit.Policy) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/x", RateLimit(brokenLimiter{}, ratelimit.AuthPolicy), ok)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/x", "").Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()))
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(httperr.ContextRequestID))
	})

	w := do(r, http.MethodGet, "/x", "")
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "3f2b8f4e-6a7c-4f0e-9a51-2d8c1b7e9f00")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f2b8f4e-6a7c-4f0e-9a51-2d8c1b7e9f00", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(HeaderRequestID))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example"}))
	r.GET("/x", ok)

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
