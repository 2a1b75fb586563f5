package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockStore) ListByUser(ctx context.Context, userID uint) ([]models.AuditLog, error) {
	args := m.Called(ctx, userID)
	logs, _ := args.Get(0).([]models.AuditLog)
	return logs, args.Error(1)
}

func (m *MockStore) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]models.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

func (m *MockStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.57":                         "203.0.113.0",
		"203.0.113.57:52814":                   "203.0.113.0",
		"::ffff:198.51.100.23":                 "198.51.100.0",
		"2001:db8:85a3:8d3:1319:8a2e:370:7348": "2001:db8:85a3:8d3::",
		"[2001:db8::1]:443":                    "2001:db8::",
		"fe80::1%eth0":                         "fe80::",
		"":                                     "",
		"unknown":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, AnonymizeIP(in), in)
	}
}

func TestRecord_StoresAnonymizedEntry(t *testing.T) {
	store := new(MockStore)
	actor := uint(9)

	store.On("Create", mock.Anything, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.Action == "BOOKING_CREATED" &&
			l.IPAddress == "192.0.2.0" &&
			l.ResourceID == "17" &&
			l.Metadata == `{"studio_id":3}` &&
			*l.UserID == actor
	})).Return(nil).Once()

	New(store).Record(context.Background(), Entry{
		ActorID:      &actor,
		Action:       ActionBookingCreated,
		ResourceType: ResourceBooking,
		ResourceID:   "17",
		Metadata:     map[string]any{"studio_id": 3},
		IP:           "192.0.2.44",
	})

	store.AssertExpectations(t)
}

func TestRecord_FailureIsSwallowed(t *testing.T) {
	store := new(MockStore)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		New(store).Record(context.Background(), Entry{Action: ActionUserLogin})
	})
}

func TestPurge_UsesThreeYearCutoff(t *testing.T) {
	store := new(MockStore)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store.On("DeleteBefore", mock.Anything, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)).Return(int64(4), nil)

	n, err := New(store).Purge(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestExport_DelegatesToStore(t *testing.T) {
	store := new(MockStore)
	newer := models.AuditLog{ID: 2, CreatedAt: time.Now()}
	older := models.AuditLog{ID: 1, CreatedAt: time.Now().Add(-time.Hour)}
	store.On("ListByUser", mock.Anything, uint(5)).Return([]models.AuditLog{newer, older}, nil)

	logs, err := New(store).Export(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, uint(2), logs[0].ID)
}
