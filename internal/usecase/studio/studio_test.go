package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/geo"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/testutil"
)

type fixedGeocoder struct {
	pt  geo.Point
	err error
}

func (g fixedGeocoder) Geocode(context.Context, string) (geo.Point, error) {
	return g.pt, g.err
}

func principalOf(u *models.User) *security.Principal {
	return &security.Principal{UserID: u.ID, Email: u.Email, Roles: []rbac.Role{rbac.Role(u.Role)}}
}

func validCreate() CreateInput {
	return CreateInput{
		Name:       "Calm Hands",
		Street:     "Torstraße 1",
		PostalCode: "10119",
		City:       "Berlin",
		Capacity:   2,
	}
}

func ptr[T any](v T) *T { return &v }

func TestStudios_CreateMakesCallerOwner(t *testing.T) {
	mem := testutil.NewMemory()
	u := mem.AddUser(models.User{Email: "founder@example.com"})
	uc := NewStudios(mem.Studios(), fixedGeocoder{pt: geo.Point{Lat: 52.53, Lng: 13.40}}, mem.AuditLogger())

	s, err := uc.Create(context.Background(), principalOf(u), validCreate(), "")
	require.NoError(t, err)

	assert.Equal(t, "DE", s.Country)
	assert.Equal(t, "Europe/Berlin", s.Timezone)
	require.NotNil(t, s.Latitude)
	assert.InDelta(t, 52.53, *s.Latitude, 1e-9)

	owner, err := mem.Studios().IsOwner(context.Background(), s.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, owner)

	roles, err := mem.Users().ListRoles(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Contains(t, roles, string(rbac.RoleStudioOwner))
	assert.Contains(t, mem.AuditActions(), string(audit.ActionStudioCreated))
}

func TestStudios_CreateValidation(t *testing.T) {
	mem := testutil.NewMemory()
	u := mem.AddUser(models.User{Email: "founder@example.com"})
	uc := NewStudios(mem.Studios(), nil, mem.AuditLogger())

	in := validCreate()
	in.Capacity = 11
	_, err := uc.Create(context.Background(), principalOf(u), in, "")
	assert.True(t, httperr.IsValidation(err))

	in = validCreate()
	in.Timezone = "Mars/Olympus"
	_, err = uc.Create(context.Background(), principalOf(u), in, "")
	assert.True(t, httperr.IsValidation(err))
}

func TestStudios_GeocoderFailureKeepsStudio(t *testing.T) {
	mem := testutil.NewMemory()
	u := mem.AddUser(models.User{Email: "founder@example.com"})
	uc := NewStudios(mem.Studios(), fixedGeocoder{err: errors.New("timeout")}, mem.AuditLogger())

	s, err := uc.Create(context.Background(), principalOf(u), validCreate(), "")
	require.NoError(t, err)
	assert.Nil(t, s.Latitude)
	assert.Nil(t, s.Longitude)
}

func TestStudios_UpdateRequiresOwner(t *testing.T) {
	mem := testutil.NewMemory()
	owner := mem.AddUser(models.User{Email: "owner@example.com", Role: string(rbac.RoleStudioOwner)})
	other := mem.AddUser(models.User{Email: "other@example.com", Role: string(rbac.RoleStudioOwner)})
	st := mem.AddStudio(models.Studio{Name: "Calm Hands", City: "Berlin"}, owner.ID)
	uc := NewStudios(mem.Studios(), nil, mem.AuditLogger())

	_, err := uc.Update(context.Background(), principalOf(other), st.ID, UpdateInput{Name: ptr("Hijacked")}, "")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	got, err := uc.Update(context.Background(), principalOf(owner), st.ID, UpdateInput{Name: ptr("Calmer Hands"), Capacity: ptr(4)}, "")
	require.NoError(t, err)
	assert.Equal(t, "Calmer Hands", got.Name)
	assert.Equal(t, 4, got.Capacity)

	got, err = uc.Update(context.Background(), principalOf(owner), st.ID, UpdateInput{Active: ptr(false)}, "")
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = uc.Get(context.Background(), st.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeStudioNotFound))
}

func TestSearch_RadiusFilter(t *testing.T) {
	mem := testutil.NewMemory()
	mem.AddStudio(models.Studio{Name: "Mitte", City: "Berlin", Latitude: ptr(52.520), Longitude: ptr(13.405)}, 0)
	mem.AddStudio(models.Studio{Name: "Potsdam", City: "Potsdam", Latitude: ptr(52.391), Longitude: ptr(13.064)}, 0)
	mem.AddStudio(models.Studio{Name: "Hamburg", City: "Hamburg", Latitude: ptr(53.551), Longitude: ptr(9.993)}, 0)
	mem.AddStudio(models.Studio{Name: "Nowhere", City: "Berlin"}, 0)

	uc := NewSearch(mem.Studios())

	all, err := uc.Execute(context.Background(), SearchInput{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	near, err := uc.Execute(context.Background(), SearchInput{Lat: ptr(52.52), Lng: ptr(13.40), RadiusKm: 40})
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "Mitte", near[0].Name)
	assert.Equal(t, "Potsdam", near[1].Name)
	require.NotNil(t, near[1].DistanceKm)
	assert.InDelta(t, 26.5, *near[1].DistanceKm, 2)

	city, err := uc.Execute(context.Background(), SearchInput{City: "berlin"})
	require.NoError(t, err)
	assert.Len(t, city, 2)

	_, err = uc.Execute(context.Background(), SearchInput{Lat: ptr(52.52)})
	assert.True(t, httperr.IsValidation(err))

	_, err = uc.Execute(context.Background(), SearchInput{Lat: ptr(95.0), Lng: ptr(13.0)})
	assert.True(t, httperr.IsValidation(err))
}

func TestOwners_AddAndServices(t *testing.T) {
	mem := testutil.NewMemory()
	ctx := context.Background()
	owner := mem.AddUser(models.User{Email: "owner@example.com", Role: string(rbac.RoleStudioOwner)})
	partner := mem.AddUser(models.User{Email: "partner@example.com"})
	st := mem.AddStudio(models.Studio{Name: "Calm Hands"}, owner.ID)
	logger := mem.AuditLogger()

	owners := NewOwners(mem.Studios(), mem.Users(), logger)

	list, err := owners.Add(ctx, principalOf(owner), st.ID, AddOwnerInput{Email: "Partner@example.com"}, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = owners.Add(ctx, principalOf(owner), st.ID, AddOwnerInput{Email: "partner@example.com"}, "")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAlreadyOwner))

	_, err = owners.Add(ctx, principalOf(owner), st.ID, AddOwnerInput{Email: "ghost@example.com"}, "")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUserNotFound))

	services := NewServices(mem.Studios(), logger)
	svc, err := services.Create(ctx, principalOf(partner), st.ID, ServiceInput{Name: "Thai massage", DurationMin: 90, Price: 95}, "")
	require.NoError(t, err)

	_, err = services.Create(ctx, principalOf(partner), st.ID, ServiceInput{Name: "Too short", DurationMin: 5, Price: 95}, "")
	assert.True(t, httperr.IsValidation(err))

	require.NoError(t, services.Delete(ctx, principalOf(owner), st.ID, svc.ID, ""))
	got, err := mem.Studios().Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Services)
}

func TestFavorites(t *testing.T) {
	mem := testutil.NewMemory()
	ctx := context.Background()
	u := mem.AddUser(models.User{Email: "fan@example.com"})
	st := mem.AddStudio(models.Studio{Name: "Calm Hands"}, 0)
	fav := NewFavorites(mem.Studios())

	require.NoError(t, fav.Add(ctx, u.ID, st.ID))
	require.NoError(t, fav.Add(ctx, u.ID, st.ID))
	list, err := fav.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.True(t, httperr.IsBusiness(fav.Add(ctx, u.ID, 999), httperr.CodeStudioNotFound))

	require.NoError(t, fav.Remove(ctx, u.ID, st.ID))
	list, err = fav.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
