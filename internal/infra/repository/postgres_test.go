package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/massage-booking/internal/db"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

// openTestDB connects to the database named by TEST_DATABASE_URL and skips
// the test when it is not set.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func uniqueEmail(prefix string) string {
	return prefix + "+" + uuid.NewString()[:8] + "@example.com"
}

func TestPostgres_ConcurrentConfirmRespectsCapacity(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()

	const capacity = 2
	studio := models.Studio{Name: "Integration " + uuid.NewString()[:8], Capacity: capacity, Active: true}
	require.NoError(t, gdb.Create(&studio).Error)
	t.Cleanup(func() {
		gdb.Where("studio_id = ?", studio.ID).Delete(&models.Booking{})
		gdb.Delete(&studio)
	})

	var ids []uint
	for i := 0; i < 8; i++ {
		b := models.Booking{
			StudioID:      studio.ID,
			UserID:        1,
			CustomerName:  "Load Test",
			CustomerEmail: "load@example.com",
			CustomerPhone: "+49 30 000",
			PreferredDate: "2031-01-15",
			PreferredTime: "10:00",
			Status:        string(booking.StatusPending),
		}
		require.NoError(t, gdb.Create(&b).Error)
		ids = append(ids, b.ID)
	}

	repo := NewBookingGormRepository(gdb)

	var (
		wg        sync.WaitGroup
		confirmed atomic.Int32
		full      atomic.Int32
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := repo.Confirm(ctx, booking.ConfirmBy(id, 99, time.Now()))
			switch {
			case err == nil:
				confirmed.Add(1)
			case httperr.IsBusiness(err, httperr.CodeSlotFull):
				full.Add(1)
			default:
				t.Errorf("confirm %d: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	assert.EqualValues(t, capacity, confirmed.Load())
	assert.EqualValues(t, len(ids)-capacity, full.Load())

	n, err := repo.CountConfirmed(ctx, booking.Slot{StudioID: studio.ID, Date: "2031-01-15", Time: "10:00"})
	require.NoError(t, err)
	assert.EqualValues(t, capacity, n)

	_, err = repo.Confirm(ctx, booking.ConfirmBy(ids[0], 99, time.Now()))
	assert.True(t, errors.Is(err, domain.ErrStatusConflict) || httperr.IsBusiness(err, httperr.CodeSlotFull))
}

func TestPostgres_TokenConsumedOnce(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := NewAuthTokenGormRepository(gdb)

	email := uniqueEmail("token")
	hash := uuid.NewString()
	require.NoError(t, repo.Create(ctx, &models.AuthToken{
		TokenHash: hash,
		Email:     email,
		Purpose:   string(token.PurposeMagicLink),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}))
	t.Cleanup(func() { gdb.Where("email = ?", email).Delete(&models.AuthToken{}) })

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.Consume(ctx, hash, token.PurposeMagicLink, time.Now())
			if err == nil {
				assert.Equal(t, email, got)
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())

	_, err := repo.Consume(ctx, hash, token.PurposeMagicLink, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_DuplicateEmailMapped(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := NewUserGormRepository(gdb)

	email := uniqueEmail("dup")
	require.NoError(t, repo.Create(ctx, &models.User{Email: email, Role: "CUSTOMER", Active: true}))
	t.Cleanup(func() { gdb.Where("email = ?", email).Delete(&models.User{}) })

	err := repo.Create(ctx, &models.User{Email: email, Role: "CUSTOMER", Active: true})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = repo.FindByEmail(ctx, uniqueEmail("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
