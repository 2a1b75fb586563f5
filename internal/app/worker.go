package app

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/config"
	"github.com/BruksfildServices01/massage-booking/internal/jobs"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
)

// WorkerModule runs the asynq server for queued emails and the scheduler
// for housekeeping.
var WorkerModule = fx.Options(
	fx.Provide(provideMaintenance),
	fx.Invoke(StartWorker),
)

func provideMaintenance(l *audit.Logger, tokens *auth.TokenService, sessions *auth.Sessions) *jobs.Maintenance {
	return jobs.NewMaintenance(l, tokens, sessions)
}

func StartWorker(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger, m *jobs.Maintenance) error {
	srv := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		BaseContext: func() context.Context {
			return log.WithContext(context.Background())
		},
	})

	mux := asynq.NewServeMux()
	jobs.Register(mux, m, notify.NewEmailHandler(Mailer(cfg, log)))

	scheduler := asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{Location: time.UTC})
	if err := jobs.Schedule(scheduler); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Msg("worker started")
			if err := srv.Start(mux); err != nil {
				return err
			}
			return scheduler.Start()
		},
		OnStop: func(context.Context) error {
			scheduler.Shutdown()
			srv.Shutdown()
			log.Info().Msg("worker stopped")
			return nil
		},
	})
	return nil
}
