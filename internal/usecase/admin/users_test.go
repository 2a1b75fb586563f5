package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/testutil"
)

func TestSetSuspended_EndsSessions(t *testing.T) {
	mem := testutil.NewMemory()
	ctx := context.Background()
	root := mem.AddUser(models.User{Email: "root@example.com", Role: string(rbac.RoleSuperAdmin)})
	target := mem.AddUser(models.User{Email: "user@example.com"})
	require.NoError(t, mem.Sessions().Create(ctx, &models.Session{ID: "s1", UserID: target.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	uc := NewUsers(mem.Users(), mem.Sessions(), mem.AuditLogger())
	admin := &security.Principal{UserID: root.ID, Roles: []rbac.Role{rbac.RoleSuperAdmin}}

	u, err := uc.SetSuspended(ctx, admin, target.ID, true, "")
	require.NoError(t, err)
	assert.True(t, u.Suspended)
	assert.Zero(t, mem.SessionCount())

	u, err = uc.SetSuspended(ctx, admin, target.ID, false, "")
	require.NoError(t, err)
	assert.False(t, u.Suspended)

	_, err = uc.SetSuspended(ctx, admin, root.ID, true, "")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	_, err = uc.SetSuspended(ctx, admin, 777, true, "")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUserNotFound))

	assert.Equal(t, []string{string(audit.ActionUserSuspended), string(audit.ActionUserUnsuspended)}, mem.AuditActions())
}

func TestAssignRole(t *testing.T) {
	mem := testutil.NewMemory()
	ctx := context.Background()
	root := mem.AddUser(models.User{Email: "root@example.com", Role: string(rbac.RoleSuperAdmin)})
	target := mem.AddUser(models.User{Email: "user@example.com"})

	uc := NewUsers(mem.Users(), mem.Sessions(), mem.AuditLogger())
	admin := &security.Principal{UserID: root.ID, Roles: []rbac.Role{rbac.RoleSuperAdmin}}

	roles, err := uc.AssignRole(ctx, admin, target.ID, AssignRoleInput{Role: "STUDIO_OWNER"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMER", "STUDIO_OWNER"}, roles)

	_, err = uc.AssignRole(ctx, admin, target.ID, AssignRoleInput{Role: "GUEST"}, "")
	assert.True(t, httperr.IsValidation(err))
}

func TestAuditLogs_Filter(t *testing.T) {
	mem := testutil.NewMemory()
	ctx := context.Background()
	store := mem.AuditStore()

	uid := uint(5)
	day := func(d int) time.Time { return time.Date(2030, 3, d, 12, 0, 0, 0, time.UTC) }
	for _, e := range []models.AuditLog{
		{UserID: &uid, Action: "BOOKING_CREATED", ResourceType: "booking", CreatedAt: day(1)},
		{UserID: &uid, Action: "BOOKING_CONFIRMED", ResourceType: "booking", CreatedAt: day(2)},
		{Action: "USER_LOGIN", ResourceType: "user", CreatedAt: day(3)},
	} {
		e := e
		require.NoError(t, store.Create(ctx, &e))
	}

	uc := NewAuditLogs(audit.New(store))

	list, total, err := uc.Execute(ctx, AuditLogQuery{ResourceType: "booking"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "BOOKING_CONFIRMED", list[0].Action)

	_, total, err = uc.Execute(ctx, AuditLogQuery{From: "2030-03-02", To: "2030-03-02"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = uc.Execute(ctx, AuditLogQuery{UserID: &uid, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, _, err = uc.Execute(ctx, AuditLogQuery{From: "03/02/2030"})
	assert.True(t, httperr.IsValidation(err))
}
