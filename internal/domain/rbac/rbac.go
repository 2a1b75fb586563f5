package rbac

import "sort"

type Role string

const (
	RoleGuest       Role = "GUEST"
	RoleCustomer    Role = "CUSTOMER"
	RoleStudioOwner Role = "STUDIO_OWNER"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
)

type Permission string

const (
	PermStudioView           Permission = "studio:view"
	PermStudioCreate         Permission = "studio:create"
	PermStudioUpdate         Permission = "studio:update"
	PermStudioManageServices Permission = "studio:manage_services"
	PermStudioManageOwners   Permission = "studio:manage_owners"

	PermBookingCreate     Permission = "booking:create"
	PermBookingViewOwn    Permission = "booking:view_own"
	PermBookingCancelOwn  Permission = "booking:cancel_own"
	PermBookingViewStudio Permission = "booking:view_studio"
	PermBookingConfirm    Permission = "booking:confirm"

	PermAccountExport  Permission = "account:export"
	PermAccountDelete  Permission = "account:delete"
	PermFavoriteManage Permission = "favorite:manage"

	PermAdminUsers   Permission = "admin:users"
	PermAdminAudit   Permission = "admin:audit"
	PermAdminStudios Permission = "admin:studios"
)

// Each role is enumerated on its own; nothing is inherited through the
// hierarchy. Anything not listed here is denied.
var table = map[Role]map[Permission]struct{}{
	RoleGuest: set(
		PermStudioView,
		PermBookingCreate,
	),
	RoleCustomer: set(
		PermStudioView,
		PermStudioCreate,
		PermBookingCreate,
		PermBookingViewOwn,
		PermBookingCancelOwn,
		PermAccountExport,
		PermAccountDelete,
		PermFavoriteManage,
	),
	RoleStudioOwner: set(
		PermStudioView,
		PermStudioCreate,
		PermStudioUpdate,
		PermStudioManageServices,
		PermStudioManageOwners,
		PermBookingCreate,
		PermBookingViewOwn,
		PermBookingCancelOwn,
		PermBookingViewStudio,
		PermBookingConfirm,
		PermAccountExport,
		PermAccountDelete,
		PermFavoriteManage,
	),
	RoleSuperAdmin: set(
		PermStudioView,
		PermStudioCreate,
		PermStudioUpdate,
		PermStudioManageServices,
		PermStudioManageOwners,
		PermBookingCreate,
		PermBookingViewOwn,
		PermBookingCancelOwn,
		PermBookingViewStudio,
		PermBookingConfirm,
		PermAccountExport,
		PermAccountDelete,
		PermFavoriteManage,
		PermAdminUsers,
		PermAdminAudit,
		PermAdminStudios,
	),
}

var levels = map[Role]int{
	RoleGuest:       0,
	RoleCustomer:    1,
	RoleStudioOwner: 2,
	RoleSuperAdmin:  3,
}

func set(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

func HasPermission(role Role, perm Permission) bool {
	perms, ok := table[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// HasAnyPermission checks the union of all roles a user holds.
func HasAnyPermission(roles []Role, perm Permission) bool {
	for _, r := range roles {
		if HasPermission(r, perm) {
			return true
		}
	}
	return false
}

// Effective lists the union of permissions, sorted.
func Effective(roles []Role) []Permission {
	seen := map[Permission]struct{}{}
	for _, r := range roles {
		for p := range table[r] {
			seen[p] = struct{}{}
		}
	}

	out := make([]Permission, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := levels[r]
	return r, ok
}

// AtLeast is a coarse comparison on the GUEST < CUSTOMER < STUDIO_OWNER <
// SUPER_ADMIN order. Unknown roles never qualify.
func AtLeast(role, min Role) bool {
	l, ok := levels[role]
	if !ok {
		return false
	}
	return l >= levels[min]
}

// Highest returns the top role of the set, GUEST for an empty set.
func Highest(roles []Role) Role {
	best := RoleGuest
	for _, r := range roles {
		if l, ok := levels[r]; ok && l > levels[best] {
			best = r
		}
	}
	return best
}
