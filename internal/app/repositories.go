package app

import (
	"go.uber.org/fx"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain/account"
	"github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/session"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	infraRepo "github.com/BruksfildServices01/massage-booking/internal/infra/repository"
)

// RepositoryModule binds the gorm repositories to their domain interfaces.
var RepositoryModule = fx.Options(
	fx.Provide(
		fx.Annotate(infraRepo.NewUserGormRepository, fx.As(new(identity.Repository))),
		fx.Annotate(infraRepo.NewLegacyCustomerGormRepository, fx.As(new(identity.LegacyRepository))),
		fx.Annotate(infraRepo.NewSessionGormRepository, fx.As(new(session.Repository))),
		fx.Annotate(infraRepo.NewAuthTokenGormRepository, fx.As(new(token.Repository))),
		fx.Annotate(infraRepo.NewStudioGormRepository, fx.As(new(studio.Repository))),
		fx.Annotate(infraRepo.NewBookingGormRepository, fx.As(new(booking.Repository))),
		fx.Annotate(infraRepo.NewAccountGormRepository, fx.As(new(account.Repository))),
		fx.Annotate(infraRepo.NewAuditLogGormRepository, fx.As(new(audit.Store))),
		provideAudit,
	),
)
