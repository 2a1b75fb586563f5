package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
)

// Migrator converts every unmigrated legacy customer into a unified user.
// Safe to run repeatedly; already migrated rows are skipped.
type Migrator struct {
	resolver *Resolver
	legacy   identity.LegacyRepository
	batch    int
}

func NewMigrator(resolver *Resolver, legacy identity.LegacyRepository) *Migrator {
	return &Migrator{resolver: resolver, legacy: legacy, batch: 200}
}

type MigrationReport struct {
	Migrated int
	Linked   int
	Failed   int
}

func (m *Migrator) Run(ctx context.Context) (MigrationReport, error) {
	log := zerolog.Ctx(ctx)
	var rep MigrationReport
	failed := map[uint]struct{}{}

	for {
		rows, err := m.legacy.ListUnmigrated(ctx, m.batch+len(failed))
		if err != nil {
			return rep, fmt.Errorf("list legacy customers: %w", err)
		}

		progressed := false
		for i := range rows {
			c := &rows[i]
			if _, skip := failed[c.ID]; skip {
				continue
			}
			progressed = true

			existing, err := m.resolver.users.FindByEmail(ctx, c.Email)
			switch {
			case err == nil:
				// the customer already signed up; only link the rows
				if err := m.legacy.MarkMigrated(ctx, c.ID, existing.ID, m.resolver.now()); err != nil && !errors.Is(err, domain.ErrStatusConflict) {
					return rep, err
				}
				rep.Linked++
			case errors.Is(err, domain.ErrNotFound):
				if _, err := m.resolver.migrate(ctx, c, ""); err != nil {
					log.Warn().Err(err).Uint("legacy_customer_id", c.ID).Msg("legacy customer not migrated")
					failed[c.ID] = struct{}{}
					rep.Failed++
					continue
				}
				rep.Migrated++
			default:
				return rep, err
			}
		}

		if !progressed {
			return rep, nil
		}
	}
}
