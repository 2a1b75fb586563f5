package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/config"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/ratelimit"
	"github.com/BruksfildServices01/massage-booking/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// keyLimiter counts requests per key and denies once a key is over limit.
type keyLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func (l *keyLimiter) Allow(_ context.Context, key string, p ratelimit.Policy) (ratelimit.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[key]++
	n := l.seen[key]
	return ratelimit.Result{
		Allowed:   n <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-n, 0),
		ResetAt:   time.Now().Add(p.Window),
	}, nil
}

type noSessions struct{}

func (noSessions) Verify(context.Context, string) (*security.Principal, error) {
	return nil, httperr.ErrBusiness(httperr.CodeUnauthorized)
}

func newTestRouter(t *testing.T, proxies []string, limiter ratelimit.Limiter) *gin.Engine {
	t.Helper()
	r, err := NewRouter(Params{
		Config:   &config.Config{AppBaseURL: "http://localhost:3000", TrustedProxies: proxies},
		Logger:   zerolog.Nop(),
		Limiter:  limiter,
		Sessions: noSessions{},
	})
	require.NoError(t, err)
	return r
}

func postBooking(r http.Handler, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	req.RemoteAddr = "203.0.113.9:41234"
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	limiter := &keyLimiter{limit: 0, seen: map[string]int{}}
	r := newTestRouter(t, nil, limiter)

	for _, xff := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3", "10.0.0.7"} {
		w := postBooking(r, xff)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	}

	assert.Equal(t, map[string]int{"203.0.113.9": 4}, limiter.seen)
}

func TestNewRouter_HonoursForwardedForFromTrustedProxy(t *testing.T) {
	limiter := &keyLimiter{limit: 0, seen: map[string]int{}}
	r := newTestRouter(t, []string{"203.0.113.0/24"}, limiter)

	postBooking(r, "198.51.100.1")
	postBooking(r, "198.51.100.2")

	assert.Equal(t, map[string]int{"198.51.100.1": 1, "198.51.100.2": 1}, limiter.seen)
}

func TestNewRouter_InvalidTrustedProxy(t *testing.T) {
	_, err := NewRouter(Params{
		Config:   &config.Config{TrustedProxies: []string{"not-an-ip"}},
		Logger:   zerolog.Nop(),
		Limiter:  ratelimit.NewMemoryLimiter(),
		Sessions: noSessions{},
	})
	assert.Error(t, err)
}
