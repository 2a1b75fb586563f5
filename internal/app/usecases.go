package app

import (
	"go.uber.org/fx"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/config"
	bookingdomain "github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/session"
	studiodomain "github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/account"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/admin"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/booking"
	identityuc "github.com/BruksfildServices01/massage-booking/internal/usecase/identity"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/studio"
)

// UsecaseModule provides every use case of the platform.
var UsecaseModule = fx.Options(
	fx.Provide(
		// identity
		identityuc.NewResolver,
		identityuc.NewMigrator,

		// auth
		auth.NewTokenService,
		provideSessions,
		auth.NewRegister,
		auth.NewLogin,
		provideRequestMagicLink,
		auth.NewVerifyMagicLink,
		auth.NewVerifyEmail,

		// booking
		provideCreateBooking,
		booking.NewRespond,
		booking.NewComplete,
		booking.NewCancel,
		booking.NewList,
		booking.NewCheckCapacity,

		// studio
		studio.NewStudios,
		studio.NewServices,
		studio.NewSearch,
		studio.NewOwners,
		studio.NewFavorites,
		studio.NewPhotos,

		// account
		account.NewExport,
		account.NewErase,

		// admin
		admin.NewUsers,
		admin.NewAuditLogs,
	),
)

func provideSessions(
	repo session.Repository,
	users identity.Repository,
	audit *audit.Logger,
	cfg *config.Config,
) *auth.Sessions {
	return auth.NewSessions(repo, users, audit, cfg.JWTSecret, cfg.SessionTTL)
}

// Tokens are echoed in responses only outside production.
func provideRequestMagicLink(
	tokens *auth.TokenService,
	notifier notify.Notifier,
	links notify.Links,
	audit *audit.Logger,
	cfg *config.Config,
) *auth.RequestMagicLink {
	return auth.NewRequestMagicLink(tokens, notifier, links, audit, !cfg.IsProduction())
}

func provideCreateBooking(
	bookings bookingdomain.Repository,
	studios studiodomain.Repository,
	users identity.Repository,
	resolver *identityuc.Resolver,
	tokens *auth.TokenService,
	notifier notify.Notifier,
	links notify.Links,
	audit *audit.Logger,
	cfg *config.Config,
) *booking.Create {
	return booking.NewCreate(bookings, studios, users, resolver, tokens, notifier, links, audit, cfg.ConsentVersion)
}
