package admin

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/domain/session"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
	"github.com/BruksfildServices01/massage-booking/internal/security"
	"github.com/BruksfildServices01/massage-booking/internal/validators"
)

type AssignRoleInput struct {
	Role string `json:"role" validate:"required,oneof=CUSTOMER STUDIO_OWNER SUPER_ADMIN"`
}

type Users struct {
	users    identity.Repository
	sessions session.Repository
	audit    *audit.Logger
}

func NewUsers(users identity.Repository, sessions session.Repository, audit *audit.Logger) *Users {
	return &Users{users: users, sessions: sessions, audit: audit}
}

func (uc *Users) List(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	return uc.users.List(ctx, query, limit, offset)
}

// SetSuspended suspends or reinstates a user. Suspension also ends every
// open session of that user.
func (uc *Users) SetSuspended(ctx context.Context, p *security.Principal, userID uint, suspended bool, ip string) (*models.User, error) {
	if p.UserID == userID {
		return nil, httperr.ErrBusiness(httperr.CodeForbidden)
	}

	u, err := uc.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.Suspended = suspended
	if err := uc.users.Update(ctx, u); err != nil {
		return nil, err
	}

	action := audit.ActionUserUnsuspended
	if suspended {
		action = audit.ActionUserSuspended
		if err := uc.sessions.DeleteByUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	uc.record(ctx, p, action, userID, nil, ip)
	return u, nil
}

func (uc *Users) AssignRole(ctx context.Context, p *security.Principal, userID uint, in AssignRoleInput, ip string) ([]string, error) {
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	role, ok := rbac.ParseRole(in.Role)
	if !ok || role == rbac.RoleGuest {
		return nil, httperr.Invalid("role", "is not assignable")
	}

	if _, err := uc.find(ctx, userID); err != nil {
		return nil, err
	}

	if err := uc.users.AssignRole(ctx, userID, string(role)); err != nil {
		return nil, err
	}

	uc.record(ctx, p, audit.ActionRoleAssigned, userID, map[string]any{"role": role}, ip)
	return uc.users.ListRoles(ctx, userID)
}

func (uc *Users) find(ctx context.Context, userID uint) (*models.User, error) {
	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeUserNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (uc *Users) record(ctx context.Context, p *security.Principal, action audit.Action, userID uint, meta any, ip string) {
	uc.audit.Record(ctx, audit.Entry{
		ActorID:      &p.UserID,
		Action:       action,
		ResourceType: audit.ResourceUser,
		ResourceID:   strconv.FormatUint(uint64(userID), 10),
		Metadata:     meta,
		IP:           ip,
	})
}

// ======================================================
// AUDIT LOG
// ======================================================

type AuditLogQuery struct {
	UserID       *uint
	Action       string
	ResourceType string
	From         string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit        int
	Offset       int
}

type AuditLogs struct {
	audit *audit.Logger
}

func NewAuditLogs(audit *audit.Logger) *AuditLogs {
	return &AuditLogs{audit: audit}
}

// Execute lists entries; To is inclusive of the whole day.
func (uc *AuditLogs) Execute(ctx context.Context, q AuditLogQuery) ([]models.AuditLog, int64, error) {
	if err := validators.Struct(q); err != nil {
		return nil, 0, err
	}

	f := audit.Filter{
		UserID:       q.UserID,
		Action:       q.Action,
		ResourceType: q.ResourceType,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.From != "" {
		from, _ := time.Parse("2006-01-02", q.From)
		f.From = &from
	}
	if q.To != "" {
		to, _ := time.Parse("2006-01-02", q.To)
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}

	return uc.audit.List(ctx, f)
}
