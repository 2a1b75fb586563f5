package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/ratelimit"
	"github.com/BruksfildServices01/massage-booking/internal/testutil"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/booking"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLinks = notify.Links{BaseURL: "https://app.example"}

type harness struct {
	mem      *testutil.Memory
	notifier *testutil.Notifier
	sessions *auth.Sessions
	router   *gin.Engine

	owner  *models.User
	studio *models.Studio
}

func newHarness(t *testing.T, bookingLimit int) *harness {
	t.Helper()

	mem := testutil.NewMemory()
	notifier := &testutil.Notifier{}
	logger := mem.AuditLogger()

	owner := mem.AddUser(models.User{Email: "owner@studio.example", Role: string(rbac.RoleStudioOwner)})
	st := mem.AddStudio(models.Studio{Name: "Calm Hands", City: "Berlin", Capacity: 1}, owner.ID)

	resolver := identity.NewResolver(mem.Users(), mem.Legacy(), logger)
	tokens := auth.NewTokenService(mem.Tokens())
	sessions := auth.NewSessions(mem.Sessions(), mem.Users(), logger, "handler-test-secret", time.Hour)

	bh := NewBookingHandler(
		booking.NewCreate(mem.Bookings(), mem.Studios(), mem.Users(), resolver, tokens, notifier, testLinks, logger, "v1"),
		booking.NewRespond(mem.Bookings(), mem.Studios(), notifier, logger),
		booking.NewComplete(mem.Bookings(), mem.Studios(), logger),
		booking.NewCancel(mem.Bookings(), mem.Studios(), notifier, logger),
		booking.NewList(mem.Bookings(), mem.Studios()),
		booking.NewCheckCapacity(mem.Bookings(), mem.Studios()),
	)
	ah := NewAuthHandler(
		auth.NewRegister(mem.Users(), tokens, notifier, testLinks, logger),
		auth.NewLogin(mem.Users(), sessions, logger),
		sessions,
		auth.NewRequestMagicLink(tokens, notifier, testLinks, logger, true),
		auth.NewVerifyMagicLink(tokens, resolver, mem.Users(), sessions, logger),
		auth.NewVerifyEmail(tokens, mem.Users(), sessions, logger),
		testLinks,
		CookieConfig{},
	)

	limiter := ratelimit.NewMemoryLimiter()
	policy := ratelimit.Policy{Name: "booking", Limit: bookingLimit, Window: time.Hour}

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api")
	api.POST("/bookings",
		middleware.OptionalAuth(sessions),
		middleware.RateLimit(limiter, policy),
		middleware.RequirePermission(rbac.PermBookingCreate),
		bh.Create)
	api.GET("/me/bookings", middleware.AuthMiddleware(sessions), middleware.RequirePermission(rbac.PermBookingViewOwn), bh.ListMine)
	api.PATCH("/bookings/:id/confirm", middleware.AuthMiddleware(sessions), middleware.RequirePermission(rbac.PermBookingConfirm), bh.Confirm)
	api.GET("/studios/:id/capacity", middleware.AuthMiddleware(sessions), middleware.RequirePermission(rbac.PermBookingViewStudio), bh.Capacity)
	api.POST("/auth/magic-link", ah.RequestMagicLink)
	api.GET("/auth/magic-link/verify", ah.VerifyMagicLink)

	return &harness{
		mem:      mem,
		notifier: notifier,
		sessions: sessions,
		router:   r,
		owner:    owner,
		studio:   st,
	}
}

func (h *harness) login(t *testing.T, u *models.User) string {
	t.Helper()
	s, err := h.sessions.Start(context.Background(), u, "", "")
	require.NoError(t, err)
	return s.Token
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e httperr.HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e.Code
}

func bookingBody(studioID uint) map[string]any {
	return map[string]any{
		"studioId":      studioID,
		"customerName":  "Lena Guest",
		"customerEmail": "lena@example.com",
		"customerPhone": "+49 151 2345678",
		"preferredDate": "2030-06-01",
		"preferredTime": "14:30",
	}
}

// ======================================================
// BOOKINGS
// ======================================================

func TestCreateBooking_Guest(t *testing.T) {
	h := newHarness(t, 10)

	w := h.do(http.MethodPost, "/api/bookings", bookingBody(h.studio.ID), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var b models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, "PENDING", b.Status)
	assert.Equal(t, h.studio.ID, b.StudioID)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
}

func TestCreateBooking_HealthConsentRequired(t *testing.T) {
	h := newHarness(t, 10)

	body := bookingBody(h.studio.ID)
	body["message"] = "knee surgery in March"

	w := h.do(http.MethodPost, "/api/bookings", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, httperr.CodeHealthConsentRequired, errorCode(t, w))
	assert.Empty(t, h.mem.AllBookings())

	body["explicitHealthConsent"] = true
	w = h.do(http.MethodPost, "/api/bookings", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var b models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	require.NotNil(t, b.HealthConsentText)
	assert.Equal(t, booking.HealthConsentText("v1"), *b.HealthConsentText)
}

func TestCreateBooking_Validation(t *testing.T) {
	h := newHarness(t, 10)

	body := bookingBody(h.studio.ID)
	body["customerEmail"] = "nope"
	body["preferredTime"] = "9am"

	w := h.do(http.MethodPost, "/api/bookings", body, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var e httperr.HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, httperr.CodeValidationFailed, e.Code)
	assert.Contains(t, e.Fields, "customerEmail")
	assert.Contains(t, e.Fields, "preferredTime")

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httperr.CodeInvalidRequest, errorCode(t, rec))
}

func TestCreateBooking_RateLimited(t *testing.T) {
	h := newHarness(t, 2)

	for i := 0; i < 2; i++ {
		body := bookingBody(h.studio.ID)
		body["customerEmail"] = fmt.Sprintf("guest%d@example.com", i)
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/bookings", body, "").Code)
	}

	w := h.do(http.MethodPost, "/api/bookings", bookingBody(h.studio.ID), "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, httperr.CodeRateLimited, errorCode(t, w))
	assert.Len(t, h.mem.AllBookings(), 2)
}

func TestConfirmBooking(t *testing.T) {
	h := newHarness(t, 10)
	ownerToken := h.login(t, h.owner)
	customer := h.mem.AddUser(models.User{Email: "cust@example.com"})
	customerToken := h.login(t, customer)

	w := h.do(http.MethodPost, "/api/bookings", bookingBody(h.studio.ID), customerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, customer.ID, created.UserID)

	path := fmt.Sprintf("/api/bookings/%d/confirm", created.ID)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPatch, path, nil, "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPatch, path, nil, customerToken).Code)

	w = h.do(http.MethodPatch, path, nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TransitionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "CONFIRMED", resp.Booking.Status)

	w = h.do(http.MethodPatch, path, nil, ownerToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, httperr.CodeAlreadyProcessed, errorCode(t, w))

	w = h.do(http.MethodPatch, "/api/bookings/abc/confirm", nil, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/studios/%d/capacity?date=2030-06-01&time=14:30", h.studio.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rep booking.CapacityReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, int64(1), rep.Current)
	assert.True(t, rep.IsFull)

	w = h.do(http.MethodPost, "/api/bookings", bookingBody(h.studio.ID), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, httperr.CodeSlotFull, errorCode(t, w))
}

func TestListMyBookings_HidesHealthData(t *testing.T) {
	h := newHarness(t, 10)
	customer := h.mem.AddUser(models.User{Email: "cust@example.com"})
	token := h.login(t, customer)

	body := bookingBody(h.studio.ID)
	body["message"] = "shoulder injury"
	body["explicitHealthConsent"] = true
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/bookings", body, token).Code)

	w := h.do(http.MethodGet, "/api/me/bookings", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.NotContains(t, w.Body.String(), "shoulder injury")
}

// ======================================================
// MAGIC LINK
// ======================================================

func TestMagicLinkFlow(t *testing.T) {
	h := newHarness(t, 10)

	w := h.do(http.MethodPost, "/api/auth/magic-link", map[string]string{"email": "new@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	token := out["token"]
	require.NotEmpty(t, token)

	path := "/api/auth/magic-link/verify?token=" + url.QueryEscape(token)

	w = h.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testLinks.Dashboard(), w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	p, err := h.sessions.Verify(context.Background(), session.Value)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)

	w = h.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testLinks.LoginError("invalid"), w.Header().Get("Location"))
}
