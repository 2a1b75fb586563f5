package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/config"
)

// New builds the process logger. Outside production it writes
// human-readable console output.
func New(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var l zerolog.Logger
	if cfg.IsProduction() {
		l = zerolog.New(os.Stdout)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	l = l.Level(level).With().Timestamp().Str("env", cfg.AppEnv).Logger()
	zerolog.DefaultContextLogger = &l

	return l
}
