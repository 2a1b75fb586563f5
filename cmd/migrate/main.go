package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/massage-booking/internal/db"
	infraRepo "github.com/BruksfildServices01/massage-booking/internal/infra/repository"
	"github.com/BruksfildServices01/massage-booking/internal/logger"
	identityuc "github.com/BruksfildServices01/massage-booking/internal/usecase/identity"
)

// migrate moves every remaining legacy customer row into the unified user
// table. It is safe to run repeatedly.
func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = log.WithContext(ctx)

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	legacy := infraRepo.NewLegacyCustomerGormRepository(db)
	resolver := identityuc.NewResolver(
		infraRepo.NewUserGormRepository(db),
		legacy,
		audit.New(infraRepo.NewAuditLogGormRepository(db)),
	)

	report, err := identityuc.NewMigrator(resolver, legacy).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("legacy migration aborted")
	}

	log.Info().
		Int("migrated", report.Migrated).
		Int("linked", report.Linked).
		Int("failed", report.Failed).
		Msg("legacy migration finished")

	if report.Failed > 0 {
		os.Exit(1)
	}
}
