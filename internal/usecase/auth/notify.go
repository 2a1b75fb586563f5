package auth

import (
	"context"

	"github.com/rs/zerolog"
)

func logNotifyFailure(ctx context.Context, err error, kind string) {
	zerolog.Ctx(ctx).Error().Err(err).Str("kind", kind).Msg("notification failed")
}
