package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	bookingdomain "github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/notify"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/testutil"

	authuc "github.com/BruksfildServices01/massage-booking/internal/usecase/auth"
	identityuc "github.com/BruksfildServices01/massage-booking/internal/usecase/identity"
)

const slotDate = "2030-05-10"

type fixture struct {
	mem      *testutil.Memory
	notifier *testutil.Notifier
	owner    *models.User
	studio   *models.Studio

	create   *Create
	respond  *Respond
	complete *Complete
	cancel   *Cancel
	capacity *CheckCapacity
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()

	mem := testutil.NewMemory()
	notifier := &testutil.Notifier{}
	logger := mem.AuditLogger()

	owner := mem.AddUser(models.User{Email: "owner@studio.example", Name: "Owner", Role: string(rbac.RoleStudioOwner)})
	st := mem.AddStudio(models.Studio{Name: "Calm Hands", City: "Berlin", Capacity: capacity}, owner.ID)

	resolver := identityuc.NewResolver(mem.Users(), mem.Legacy(), logger)
	tokens := authuc.NewTokenService(mem.Tokens())
	links := notify.Links{BaseURL: "https://app.example"}

	return &fixture{
		mem:      mem,
		notifier: notifier,
		owner:    owner,
		studio:   st,
		create:   NewCreate(mem.Bookings(), mem.Studios(), mem.Users(), resolver, tokens, notifier, links, logger, "v1"),
		respond:  NewRespond(mem.Bookings(), mem.Studios(), notifier, logger),
		complete: NewComplete(mem.Bookings(), mem.Studios(), logger),
		cancel:   NewCancel(mem.Bookings(), mem.Studios(), notifier, logger),
		capacity: NewCheckCapacity(mem.Bookings(), mem.Studios()),
	}
}

func (f *fixture) principal(u *models.User) *security.Principal {
	return &security.Principal{UserID: u.ID, Email: u.Email, Roles: []rbac.Role{rbac.Role(u.Role)}}
}

func (f *fixture) ownerPrincipal() *security.Principal {
	return f.principal(f.owner)
}

func (f *fixture) pending(email string) *models.Booking {
	return f.mem.AddBooking(models.Booking{
		StudioID:      f.studio.ID,
		UserID:        99,
		CustomerName:  "Guest",
		CustomerEmail: email,
		CustomerPhone: "+49 30 1234567",
		PreferredDate: slotDate,
		PreferredTime: "10:00",
	})
}

func guestInput(studioID uint) CreateInput {
	return CreateInput{
		StudioID:      studioID,
		CustomerName:  "Mira Guest",
		CustomerEmail: "Mira@Example.com",
		CustomerPhone: "+49 170 1234567",
		PreferredDate: slotDate,
		PreferredTime: "10:00",
		IP:            "203.0.113.77",
	}
}

// ======================================================
// CREATE
// ======================================================

func TestCreate_GuestWithoutMessage(t *testing.T) {
	f := newFixture(t, 1)

	b, err := f.create.Execute(context.Background(), guestInput(f.studio.ID))
	require.NoError(t, err)

	assert.Equal(t, string(bookingdomain.StatusPending), b.Status)
	assert.Equal(t, "mira@example.com", b.CustomerEmail)
	assert.Nil(t, b.ExplicitHealthConsent)
	assert.Nil(t, b.HealthConsentAt)
	assert.Nil(t, b.HealthConsentText)

	users := f.mem.AllUsers()
	require.Len(t, users, 2)
	guest := users[1]
	assert.Equal(t, "mira@example.com", guest.Email)
	assert.True(t, guest.Passwordless())
	assert.Equal(t, guest.ID, b.UserID)

	actions := f.mem.AuditActions()
	assert.Contains(t, actions, string(audit.ActionUserRegistered))
	assert.Contains(t, actions, string(audit.ActionBookingCreated))
	assert.NotContains(t, actions, string(audit.ActionHealthConsentGranted))

	require.Len(t, f.notifier.To(f.owner.Email), 1)
	ack := f.notifier.To("mira@example.com")
	require.Len(t, ack, 1)
	assert.Contains(t, ack[0].LinkURL, "/api/auth/verify-email?token=")
}

func TestCreate_MessageWithoutConsentPersistsNothing(t *testing.T) {
	f := newFixture(t, 1)

	in := guestInput(f.studio.ID)
	in.Message = "lower back pain, pregnant"

	_, err := f.create.Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeHealthConsentRequired))

	assert.Empty(t, f.mem.AllBookings())
	assert.Len(t, f.mem.AllUsers(), 1)
	assert.Empty(t, f.mem.AuditActions())
	assert.Empty(t, f.notifier.Sent())
}

func TestCreate_MessageWithConsentStoresSnapshot(t *testing.T) {
	f := newFixture(t, 1)
	at := time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC)
	f.create.now = func() time.Time { return at }

	in := guestInput(f.studio.ID)
	in.Message = "lower back pain"
	in.ExplicitHealthConsent = true

	b, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, b.ExplicitHealthConsent)
	assert.True(t, *b.ExplicitHealthConsent)
	require.NotNil(t, b.HealthConsentAt)
	assert.Equal(t, at, *b.HealthConsentAt)
	require.NotNil(t, b.HealthConsentText)
	assert.Equal(t, HealthConsentText("v1"), *b.HealthConsentText)

	assert.Contains(t, f.mem.AuditActions(), string(audit.ActionHealthConsentGranted))
}

func TestCreate_OwnerNotificationOmitsHealthData(t *testing.T) {
	f := newFixture(t, 1)

	in := guestInput(f.studio.ID)
	in.Message = "migraine since Tuesday"
	in.ExplicitHealthConsent = true

	_, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)

	for _, m := range f.notifier.Sent() {
		assert.NotContains(t, m.Body, "migraine")
		assert.NotContains(t, m.Subject, "migraine")
	}
}

func TestCreate_SessionWinsOverGuestFields(t *testing.T) {
	f := newFixture(t, 1)
	member := f.mem.AddUser(models.User{Email: "member@example.com", Name: "Member"})

	in := guestInput(f.studio.ID)
	in.Principal = f.principal(member)

	b, err := f.create.Execute(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, member.ID, b.UserID)
	assert.Len(t, f.mem.AllUsers(), 2, "no user is created for the typed email")
}

func TestCreate_ExistingEmailIsReused(t *testing.T) {
	f := newFixture(t, 1)
	existing := f.mem.AddUser(models.User{Email: "mira@example.com", Name: "Mira"})

	b, err := f.create.Execute(context.Background(), guestInput(f.studio.ID))
	require.NoError(t, err)

	assert.Equal(t, existing.ID, b.UserID)
	ack := f.notifier.To("mira@example.com")
	require.Len(t, ack, 1)
	assert.Empty(t, ack[0].LinkURL)
}

func TestCreate_SuspendedAccountRejected(t *testing.T) {
	f := newFixture(t, 1)
	f.mem.AddUser(models.User{Email: "mira@example.com", Suspended: true})

	_, err := f.create.Execute(context.Background(), guestInput(f.studio.ID))
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAccountSuspended))
	assert.Empty(t, f.mem.AllBookings())
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t, 1)
	inactive := f.mem.AddService(models.Service{StudioID: f.studio.ID, Name: "Hot stone", DurationMin: 60, Price: 80})
	require.NoError(t, f.mem.Studios().DeleteService(context.Background(), f.studio.ID, inactive.ID))

	t.Run("unknown studio", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(), guestInput(9999))
		assert.True(t, httperr.IsBusiness(err, httperr.CodeStudioNotFound))
	})

	t.Run("inactive service", func(t *testing.T) {
		in := guestInput(f.studio.ID)
		in.ServiceID = &inactive.ID
		_, err := f.create.Execute(context.Background(), in)
		assert.True(t, httperr.IsBusiness(err, httperr.CodeServiceNotFound))
	})

	t.Run("past date", func(t *testing.T) {
		in := guestInput(f.studio.ID)
		in.PreferredDate = "2001-01-01"
		_, err := f.create.Execute(context.Background(), in)
		assert.True(t, httperr.IsValidation(err))
	})

	t.Run("malformed time", func(t *testing.T) {
		in := guestInput(f.studio.ID)
		in.PreferredTime = "25:00"
		_, err := f.create.Execute(context.Background(), in)
		assert.True(t, httperr.IsValidation(err))
	})

	t.Run("full slot", func(t *testing.T) {
		f.mem.AddBooking(models.Booking{
			StudioID: f.studio.ID, UserID: 50, PreferredDate: slotDate, PreferredTime: "10:00",
			Status: string(bookingdomain.StatusConfirmed),
		})
		_, err := f.create.Execute(context.Background(), guestInput(f.studio.ID))
		assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotFull))
	})

	assert.Empty(t, f.notifier.Sent())
}

// ======================================================
// CONFIRM / DECLINE / COMPLETE
// ======================================================

func TestConfirm_RequiresOwnership(t *testing.T) {
	f := newFixture(t, 1)
	b := f.pending("a@example.com")
	stranger := f.mem.AddUser(models.User{Email: "other@studio.example", Role: string(rbac.RoleStudioOwner)})

	_, err := f.respond.Confirm(context.Background(), TransitionInput{BookingID: b.ID, Principal: f.principal(stranger)})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	_, err = f.respond.Confirm(context.Background(), TransitionInput{BookingID: b.ID})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnauthorized))

	_, err = f.respond.Confirm(context.Background(), TransitionInput{BookingID: 4242, Principal: f.ownerPrincipal()})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeBookingNotFound))
}

func TestConfirm_ThenAgain(t *testing.T) {
	f := newFixture(t, 1)
	b := f.pending("a@example.com")
	in := TransitionInput{BookingID: b.ID, Principal: f.ownerPrincipal(), IP: "198.51.100.4"}

	got, err := f.respond.Confirm(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, string(bookingdomain.StatusConfirmed), got.Status)
	require.NotNil(t, got.ConfirmedByID)
	assert.Equal(t, f.owner.ID, *got.ConfirmedByID)
	assert.NotNil(t, got.ConfirmedAt)

	_, err = f.respond.Confirm(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAlreadyProcessed))

	_, err = f.respond.Decline(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAlreadyProcessed))

	require.Len(t, f.notifier.To("a@example.com"), 1)

	entries := f.mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, string(audit.ActionBookingConfirmed), entries[0].Action)
	assert.Equal(t, "198.51.100.0", entries[0].IPAddress)
}

func TestConfirm_SlotFull(t *testing.T) {
	f := newFixture(t, 1)
	first := f.pending("a@example.com")
	second := f.pending("b@example.com")

	_, err := f.respond.Confirm(context.Background(), TransitionInput{BookingID: first.ID, Principal: f.ownerPrincipal()})
	require.NoError(t, err)

	_, err = f.respond.Confirm(context.Background(), TransitionInput{BookingID: second.ID, Principal: f.ownerPrincipal()})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotFull))

	stored, err := f.mem.Bookings().Get(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, string(bookingdomain.StatusPending), stored.Status)

	// declining still works on a full slot
	declined, err := f.respond.Decline(context.Background(), TransitionInput{BookingID: second.ID, Principal: f.ownerPrincipal()})
	require.NoError(t, err)
	assert.Equal(t, string(bookingdomain.StatusCancelled), declined.Status)
}

func TestConfirm_ConcurrentNeverOverbooks(t *testing.T) {
	const capacity = 3
	f := newFixture(t, capacity)

	ids := make([]uint, 20)
	for i := range ids {
		ids[i] = f.pending("c@example.com").ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		full      int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := f.respond.Confirm(context.Background(), TransitionInput{BookingID: id, Principal: f.ownerPrincipal()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case httperr.IsBusiness(err, httperr.CodeSlotFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, capacity, confirmed)
	assert.Equal(t, len(ids)-capacity, full)

	rep, err := f.capacity.Execute(context.Background(), CapacityInput{
		StudioID: f.studio.ID, Date: slotDate, Time: "10:00", Principal: f.ownerPrincipal(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(capacity), rep.Current)
	assert.True(t, rep.IsFull)
	assert.Len(t, rep.Bookings, capacity)
}

func TestComplete(t *testing.T) {
	f := newFixture(t, 1)
	b := f.pending("a@example.com")
	in := TransitionInput{BookingID: b.ID, Principal: f.ownerPrincipal()}

	_, err := f.complete.Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidState))

	_, err = f.respond.Confirm(context.Background(), in)
	require.NoError(t, err)

	done, err := f.complete.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, string(bookingdomain.StatusCompleted), done.Status)
	assert.NotNil(t, done.CompletedAt)
}

// ======================================================
// CANCEL / CAPACITY
// ======================================================

func TestCancel_OwnPendingOnly(t *testing.T) {
	f := newFixture(t, 1)
	customer := f.mem.AddUser(models.User{Email: "cust@example.com"})
	b := f.mem.AddBooking(models.Booking{
		StudioID: f.studio.ID, UserID: customer.ID, CustomerEmail: customer.Email,
		PreferredDate: slotDate, PreferredTime: "11:00",
	})
	other := f.mem.AddUser(models.User{Email: "other@example.com"})

	_, err := f.cancel.Execute(context.Background(), TransitionInput{BookingID: b.ID, Principal: f.principal(other)})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeBookingNotFound))

	got, err := f.cancel.Execute(context.Background(), TransitionInput{BookingID: b.ID, Principal: f.principal(customer)})
	require.NoError(t, err)
	assert.Equal(t, string(bookingdomain.StatusCancelled), got.Status)
	require.NotNil(t, got.CancelledByID)
	assert.Equal(t, customer.ID, *got.CancelledByID)
	assert.Len(t, f.notifier.To(f.owner.Email), 1)

	_, err = f.cancel.Execute(context.Background(), TransitionInput{BookingID: b.ID, Principal: f.principal(customer)})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAlreadyProcessed))
}

func TestCheckCapacity_Access(t *testing.T) {
	f := newFixture(t, 2)
	customer := f.mem.AddUser(models.User{Email: "cust@example.com"})
	admin := f.mem.AddUser(models.User{Email: "root@example.com", Role: string(rbac.RoleSuperAdmin)})

	in := CapacityInput{StudioID: f.studio.ID, Date: slotDate, Time: "10:00"}

	in.Principal = f.principal(customer)
	_, err := f.capacity.Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	in.Principal = f.principal(admin)
	rep, err := f.capacity.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Max)
	assert.Zero(t, rep.Current)
	assert.False(t, rep.IsFull)
}
