package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type Action string

const (
	ActionBookingCreated       Action = "BOOKING_CREATED"
	ActionHealthConsentGranted Action = "HEALTH_CONSENT_GRANTED"
	ActionBookingConfirmed     Action = "BOOKING_CONFIRMED"
	ActionBookingDeclined      Action = "BOOKING_DECLINED"
	ActionBookingCancelled     Action = "BOOKING_CANCELLED"
	ActionBookingCompleted     Action = "BOOKING_COMPLETED"

	ActionUserRegistered    Action = "USER_REGISTERED"
	ActionUserLogin         Action = "USER_LOGIN"
	ActionUserLogout        Action = "USER_LOGOUT"
	ActionMagicLinkRequest  Action = "MAGIC_LINK_REQUESTED"
	ActionMagicLinkUsed     Action = "MAGIC_LINK_USED"
	ActionEmailVerified     Action = "EMAIL_VERIFIED"
	ActionDataExported      Action = "DATA_EXPORTED"
	ActionAccountDeleted    Action = "ACCOUNT_DELETED"
	ActionUserSuspended     Action = "USER_SUSPENDED"
	ActionUserUnsuspended   Action = "USER_UNSUSPENDED"
	ActionRoleAssigned      Action = "ROLE_ASSIGNED"
	ActionLegacyCustomerMig Action = "LEGACY_CUSTOMER_MIGRATED"

	ActionStudioCreated     Action = "STUDIO_CREATED"
	ActionStudioUpdated     Action = "STUDIO_UPDATED"
	ActionStudioOwnerAdded  Action = "STUDIO_OWNER_ADDED"
	ActionStudioPhotoUpload Action = "STUDIO_PHOTO_UPLOADED"
	ActionServiceCreated    Action = "SERVICE_CREATED"
	ActionServiceUpdated    Action = "SERVICE_UPDATED"
	ActionServiceDeleted    Action = "SERVICE_DELETED"
)

const (
	ResourceBooking = "booking"
	ResourceUser    = "user"
	ResourceStudio  = "studio"
	ResourceService = "service"
	ResourceSession = "session"
)

// RetentionYears bounds how long entries are kept before Purge removes them.
const RetentionYears = 3

type Entry struct {
	ActorID      *uint
	Action       Action
	ResourceType string
	ResourceID   string
	Metadata     any
	IP           string
}

type Filter struct {
	UserID       *uint
	Action       string
	ResourceType string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

type Store interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListByUser(ctx context.Context, userID uint) ([]models.AuditLog, error)
	List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Logger struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

// Record writes an entry synchronously. Failures are logged and swallowed so
// an audit outage never blocks the operation being audited.
func (l *Logger) Record(ctx context.Context, e Entry) {
	var metaJSON string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	entry := models.AuditLog{
		UserID:       e.ActorID,
		Action:       string(e.Action),
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Metadata:     metaJSON,
		IPAddress:    AnonymizeIP(e.IP),
		CreatedAt:    l.now(),
	}

	if err := l.store.Create(ctx, &entry); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("action", entry.Action).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Msg("audit write failed")
	}
}

// Export returns a user's entries, newest first.
func (l *Logger) Export(ctx context.Context, userID uint) ([]models.AuditLog, error) {
	return l.store.ListByUser(ctx, userID)
}

func (l *Logger) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	return l.store.List(ctx, f)
}

// Purge deletes entries older than the retention window relative to now.
func (l *Logger) Purge(ctx context.Context, now time.Time) (int64, error) {
	return l.store.DeleteBefore(ctx, now.AddDate(-RetentionYears, 0, 0))
}
