package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/BruksfildServices01/massage-booking/internal/config"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/handlers"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/ratelimit"
)

type Params struct {
	fx.In

	Config   *config.Config
	Logger   zerolog.Logger
	Limiter  ratelimit.Limiter
	Sessions middleware.SessionVerifier

	Auth     *handlers.AuthHandler
	Me       *handlers.MeHandler
	Booking  *handlers.BookingHandler
	Public   *handlers.PublicHandler
	Studio   *handlers.StudioHandler
	Service  *handlers.ServiceHandler
	Admin    *handlers.AdminHandler
	AuditLog *handlers.AuditLogsHandler
	Health   *handlers.HealthHandler
}

func NewRouter(p Params) (*gin.Engine, error) {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ClientIP feeds rate limiting and the audit log, so forwarded headers
	// are only believed when they come from a configured proxy.
	if err := r.SetTrustedProxies(p.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(p.Logger))
	r.Use(middleware.CORSMiddleware([]string{p.Config.AppBaseURL}))

	Register(r, p)
	return r, nil
}

// Register mounts every route on r.
func Register(r *gin.Engine, p Params) {
	perm := middleware.RequirePermission
	limit := func(policy ratelimit.Policy) gin.HandlerFunc {
		return middleware.RateLimit(p.Limiter, policy)
	}

	r.GET("/health", p.Health.Health)
	r.GET("/ready", p.Health.Ready)

	api := r.Group("/api")

	// ------------------------------
	// PUBLIC (session optional)
	// ------------------------------
	public := api.Group("/")
	public.Use(middleware.OptionalAuth(p.Sessions))
	{
		public.POST("/bookings", limit(ratelimit.BookingPolicy), perm(rbac.PermBookingCreate), p.Booking.Create)

		public.GET("/studios", perm(rbac.PermStudioView), p.Public.Search)
		public.GET("/studios/:id", perm(rbac.PermStudioView), p.Public.GetStudio)
	}

	// ------------------------------
	// AUTH
	// ------------------------------
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limit(ratelimit.AuthPolicy), p.Auth.Register)
		authGroup.POST("/login", limit(ratelimit.AuthPolicy), p.Auth.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(p.Sessions), p.Auth.Logout)

		authGroup.POST("/magic-link", limit(ratelimit.MagicLinkPolicy), p.Auth.RequestMagicLink)
		authGroup.GET("/magic-link/verify", p.Auth.VerifyMagicLink)
		authGroup.POST("/magic-link/verify", p.Auth.VerifyMagicLink)
		authGroup.GET("/verify-email", p.Auth.VerifyEmail)
	}

	// ------------------------------
	// AUTHENTICATED
	// ------------------------------
	secured := api.Group("/")
	secured.Use(middleware.AuthMiddleware(p.Sessions))
	{
		secured.GET("/me", p.Me.GetMe)
		secured.DELETE("/me", perm(rbac.PermAccountDelete), p.Me.Delete)
		secured.GET("/me/export", perm(rbac.PermAccountExport), p.Me.Export)

		secured.GET("/me/bookings", perm(rbac.PermBookingViewOwn), p.Booking.ListMine)
		secured.PATCH("/me/bookings/:id/cancel", perm(rbac.PermBookingCancelOwn), p.Booking.CancelMine)

		secured.GET("/me/favorites", perm(rbac.PermFavoriteManage), p.Me.ListFavorites)
		secured.POST("/me/favorites/:studioId", perm(rbac.PermFavoriteManage), p.Me.AddFavorite)
		secured.DELETE("/me/favorites/:studioId", perm(rbac.PermFavoriteManage), p.Me.RemoveFavorite)

		// studios
		secured.POST("/studios", perm(rbac.PermStudioCreate), p.Studio.Create)
		secured.PATCH("/studios/:id", perm(rbac.PermStudioUpdate), p.Studio.Update)
		secured.POST("/studios/:id/photo", perm(rbac.PermStudioUpdate), p.Studio.UploadPhoto)
		secured.GET("/studios/:id/owners", perm(rbac.PermStudioManageOwners), p.Studio.ListOwners)
		secured.POST("/studios/:id/owners", perm(rbac.PermStudioManageOwners), p.Studio.AddOwner)

		secured.POST("/studios/:id/services", perm(rbac.PermStudioManageServices), p.Service.Create)
		secured.PATCH("/studios/:id/services/:serviceId", perm(rbac.PermStudioManageServices), p.Service.Update)
		secured.DELETE("/studios/:id/services/:serviceId", perm(rbac.PermStudioManageServices), p.Service.Delete)

		secured.GET("/studios/:id/bookings", perm(rbac.PermBookingViewStudio), p.Booking.ListForStudio)
		secured.GET("/studios/:id/capacity", perm(rbac.PermBookingViewStudio), p.Booking.Capacity)

		// bookings
		secured.PATCH("/bookings/:id/confirm", perm(rbac.PermBookingConfirm), p.Booking.Confirm)
		secured.PATCH("/bookings/:id/decline", perm(rbac.PermBookingConfirm), p.Booking.Decline)
		secured.PATCH("/bookings/:id/complete", perm(rbac.PermBookingConfirm), p.Booking.Complete)
	}

	// ------------------------------
	// ADMIN
	// ------------------------------
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthMiddleware(p.Sessions))
	{
		adminGroup.GET("/users", perm(rbac.PermAdminUsers), p.Admin.ListUsers)
		adminGroup.PATCH("/users/:id/suspend", perm(rbac.PermAdminUsers), p.Admin.Suspend)
		adminGroup.PATCH("/users/:id/unsuspend", perm(rbac.PermAdminUsers), p.Admin.Unsuspend)
		adminGroup.POST("/users/:id/roles", perm(rbac.PermAdminUsers), p.Admin.AssignRole)

		adminGroup.GET("/audit-logs", perm(rbac.PermAdminAudit), p.AuditLog.List)
	}
}
