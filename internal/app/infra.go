package app

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/massage-booking/internal/db"
	"github.com/BruksfildServices01/massage-booking/internal/geo"
	"github.com/BruksfildServices01/massage-booking/internal/logger"
	"github.com/BruksfildServices01/massage-booking/internal/media"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/ratelimit"
	"github.com/BruksfildServices01/massage-booking/internal/usecase/account"
)

// InfraModule provides configuration, storage and outbound clients.
var InfraModule = fx.Options(
	fx.Provide(
		provideConfig,
		logger.New,
		provideDB,
		provideRedis,
		provideLimiter,
		provideNotifier,
		provideGeocoder,
		provideUploader,
		provideLinks,
		provideController,
	),
)

func provideConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideDB(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

// UsesRedis reports whether any component needs the Redis connection.
func UsesRedis(cfg *config.Config) bool {
	return cfg.RateLimitStore == "redis" || cfg.NotifyMode == "queue"
}

// provideRedis returns nil when nothing is configured to use Redis.
func provideRedis(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if !UsesRedis(cfg) {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return rdb.Close() },
	})
	return rdb
}

func provideLimiter(lc fx.Lifecycle, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) ratelimit.Limiter {
	if cfg.RateLimitStore == "redis" && rdb != nil {
		log.Info().Msg("rate limiter backed by redis")
		return ratelimit.NewRedisLimiter(rdb)
	}

	l := ratelimit.NewMemoryLimiter()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			l.StartSweeper(time.Minute)
			return nil
		},
		OnStop: func(context.Context) error { return l.Close() },
	})
	return l
}

// RedisOpt is the asynq connection shared by the API and the worker.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func SMTPConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		Timeout:  cfg.SMTPTimeout,
	}
}

// Mailer delivers directly, or only logs when no SMTP host is configured.
func Mailer(cfg *config.Config, log zerolog.Logger) notify.Notifier {
	if cfg.SMTPHost == "" {
		return notify.NewLogNotifier(log)
	}
	return notify.NewSMTPMailer(SMTPConfig(cfg))
}

// provideNotifier hands mail to the worker queue in "queue" mode and to an
// in-process dispatcher otherwise.
func provideNotifier(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) notify.Notifier {
	if cfg.NotifyMode == "queue" {
		client := asynq.NewClient(RedisOpt(cfg))
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return client.Close() },
		})
		return notify.NewQueue(client)
	}

	d := notify.NewDispatcher(Mailer(cfg, log), log, 100)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return d.Close() },
	})
	return d
}

func provideGeocoder(cfg *config.Config) geo.Geocoder {
	if cfg.GeocoderURL == "" {
		return nil
	}
	return geo.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)
}

// provideUploader returns a nil interface when object storage is not
// configured so photo uploads report media_storage_disabled.
func provideUploader(cfg *config.Config) media.Uploader {
	if !cfg.MediaEnabled() {
		return nil
	}
	return media.NewS3Uploader(media.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
}

func provideLinks(cfg *config.Config) notify.Links {
	return notify.Links{BaseURL: cfg.AppBaseURL}
}

func provideController(cfg *config.Config) account.Controller {
	return account.Controller{
		Name:    cfg.ControllerName,
		Email:   cfg.ControllerEmail,
		Address: cfg.ControllerAddress,
	}
}

func provideAudit(store audit.Store) *audit.Logger {
	return audit.New(store)
}
