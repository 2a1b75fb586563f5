package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/BruksfildServices01/massage-booking/internal/config"
	"github.com/BruksfildServices01/massage-booking/internal/handlers"
	"github.com/BruksfildServices01/massage-booking/internal/middleware"
	"github.com/BruksfildServices01/massage-booking/internal/routes"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
)

// HTTPModule provides the handlers, the router and the server lifecycle.
var HTTPModule = fx.Options(
	fx.Provide(
		provideSessionVerifier,
		provideCookieConfig,

		handlers.NewAuthHandler,
		handlers.NewMeHandler,
		handlers.NewBookingHandler,
		handlers.NewPublicHandler,
		handlers.NewStudioHandler,
		handlers.NewServiceHandler,
		handlers.NewAdminHandler,
		handlers.NewAuditLogsHandler,
		handlers.NewHealthHandler,

		routes.NewRouter,
	),
	fx.Invoke(StartServer),
)

func provideSessionVerifier(s *auth.Sessions) middleware.SessionVerifier {
	return s
}

func provideCookieConfig(cfg *config.Config) handlers.CookieConfig {
	return handlers.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.IsProduction()}
}

func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, engine *gin.Engine, log zerolog.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}

			go func() {
				log.Info().Str("addr", srv.Addr).Msg("http server started")
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping http server")
			return srv.Shutdown(ctx)
		},
	})
}
