package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/massage-booking/internal/config"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.IsProduction() {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RoleAssignment{},
		&models.Session{},
		&models.OAuthAccount{},
		&models.LegacyCustomer{},
		&models.Studio{},
		&models.StudioOwnership{},
		&models.Service{},
		&models.Favorite{},
		&models.Booking{},
		&models.AuditLog{},
		&models.AuthToken{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	db.Exec(`
        UPDATE studios
        SET timezone = 'Europe/Berlin'
        WHERE timezone IS NULL OR timezone = ''
    `)
	db.Exec(`ALTER TABLE studios DROP CONSTRAINT IF EXISTS chk_studios_capacity`)
	db.Exec(`ALTER TABLE studios ADD CONSTRAINT chk_studios_capacity CHECK (capacity BETWEEN 1 AND 10)`)

	return nil
}
