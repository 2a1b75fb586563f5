// Package testutil holds in-memory repositories for use-case and handler
// tests. They keep the contracts of the gorm implementations, including the
// conditional updates and the serialised confirm.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/audit"
	"github.com/BruksfildServices01/massage-booking/internal/domain"
	"github.com/BruksfildServices01/massage-booking/internal/domain/account"
	"github.com/BruksfildServices01/massage-booking/internal/domain/booking"
	"github.com/BruksfildServices01/massage-booking/internal/domain/identity"
	"github.com/BruksfildServices01/massage-booking/internal/domain/rbac"
	"github.com/BruksfildServices01/massage-booking/internal/domain/session"
	"github.com/BruksfildServices01/massage-booking/internal/domain/studio"
	"github.com/BruksfildServices01/massage-booking/internal/domain/token"
	"github.com/BruksfildServices01/massage-booking/internal/httperr"
	"github.com/BruksfildServices01/massage-booking/internal/models"
)

// Memory is one shared data set; the repository views below read and write
// it under a single lock.
type Memory struct {
	mu     sync.Mutex
	nextID uint

	users       map[uint]*models.User
	assignments map[uint]map[string]struct{}
	legacy      map[uint]*models.LegacyCustomer
	sessions    map[string]*models.Session
	tokens      []*models.AuthToken
	studios     map[uint]*models.Studio
	owners      map[uint]map[uint]struct{}
	services    map[uint]*models.Service
	favorites   map[uint]map[uint]struct{}
	bookings    map[uint]*models.Booking
	audit       []models.AuditLog

	// BeforeUserCreate runs outside the lock before a user is inserted.
	BeforeUserCreate func(u *models.User)
}

func NewMemory() *Memory {
	return &Memory{
		users:       map[uint]*models.User{},
		assignments: map[uint]map[string]struct{}{},
		legacy:      map[uint]*models.LegacyCustomer{},
		sessions:    map[string]*models.Session{},
		studios:     map[uint]*models.Studio{},
		owners:      map[uint]map[uint]struct{}{},
		services:    map[uint]*models.Service{},
		favorites:   map[uint]map[uint]struct{}{},
		bookings:    map[uint]*models.Booking{},
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) Users() *Users              { return &Users{m} }
func (m *Memory) Legacy() *Legacy            { return &Legacy{m} }
func (m *Memory) Sessions() *Sessions        { return &Sessions{m} }
func (m *Memory) Tokens() *Tokens            { return &Tokens{m} }
func (m *Memory) Studios() *Studios          { return &Studios{m} }
func (m *Memory) Bookings() *Bookings        { return &Bookings{m} }
func (m *Memory) Accounts() *Accounts        { return &Accounts{m} }
func (m *Memory) AuditStore() *AuditStore    { return &AuditStore{m} }
func (m *Memory) AuditLogger() *audit.Logger { return audit.New(m.AuditStore()) }

// ======================================================
// SEEDING / INSPECTION
// ======================================================

func (m *Memory) AddUser(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.Email = identity.NormalizeEmail(u.Email)
	if u.ID == 0 {
		u.ID = m.id()
	}
	if u.Role == "" {
		u.Role = string(rbac.RoleCustomer)
	}
	u.Active = true
	m.users[u.ID] = &u
	out := u
	return &out
}

func (m *Memory) AddLegacy(c models.LegacyCustomer) *models.LegacyCustomer {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.id()
	m.legacy[c.ID] = &c
	out := c
	return &out
}

// AddStudio stores an active studio owned by ownerID (0 for none).
func (m *Memory) AddStudio(s models.Studio, ownerID uint) *models.Studio {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.id()
	if s.Capacity == 0 {
		s.Capacity = 1
	}
	if s.Timezone == "" {
		s.Timezone = "Europe/Berlin"
	}
	s.Active = true
	s.Services = nil
	m.studios[s.ID] = &s
	if ownerID != 0 {
		m.addOwner(s.ID, ownerID)
	}
	out := s
	return &out
}

func (m *Memory) AddService(svc models.Service) *models.Service {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc.ID = m.id()
	svc.Active = true
	m.services[svc.ID] = &svc
	out := svc
	return &out
}

func (m *Memory) AddBooking(b models.Booking) *models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()

	b.ID = m.id()
	if b.Status == "" {
		b.Status = string(booking.StatusPending)
	}
	m.bookings[b.ID] = &b
	out := b
	return &out
}

func (m *Memory) AllBookings() []models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) AllUsers() []models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) AuditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.audit))
	for _, e := range m.audit {
		out = append(out, e.Action)
	}
	return out
}

func (m *Memory) AuditEntries() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.audit...)
}

func (m *Memory) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Memory) addOwner(studioID, userID uint) {
	if m.owners[studioID] == nil {
		m.owners[studioID] = map[uint]struct{}{}
	}
	m.owners[studioID][userID] = struct{}{}
	m.assign(userID, string(rbac.RoleStudioOwner))
}

func (m *Memory) assign(userID uint, role string) {
	if u, ok := m.users[userID]; ok && u.Role == role {
		return
	}
	if m.assignments[userID] == nil {
		m.assignments[userID] = map[string]struct{}{}
	}
	m.assignments[userID][role] = struct{}{}
}

// ======================================================
// USERS
// ======================================================

type Users struct{ m *Memory }

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email = identity.NormalizeEmail(email)
	for _, u := range r.m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Users) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *Users) Create(_ context.Context, u *models.User) error {
	if hook := r.m.BeforeUserCreate; hook != nil {
		hook(u)
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u.Email = identity.NormalizeEmail(u.Email)
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}

	u.ID = r.m.id()
	if u.Role == "" {
		u.Role = string(rbac.RoleCustomer)
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	r.m.users[u.ID] = &stored
	return nil
}

func (r *Users) Update(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *u
	stored.RoleAssignments = nil
	r.m.users[u.ID] = &stored
	return nil
}

func (r *Users) MarkEmailVerified(_ context.Context, userID uint, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.EmailVerifiedAt == nil {
		t := at
		u.EmailVerifiedAt = &t
	}
	return nil
}

func (r *Users) ListRoles(_ context.Context, userID uint) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	roles := []string{u.Role}
	extra := make([]string, 0, len(r.m.assignments[userID]))
	for role := range r.m.assignments[userID] {
		if role != u.Role {
			extra = append(extra, role)
		}
	}
	sort.Strings(extra)
	return append(roles, extra...), nil
}

func (r *Users) AssignRole(_ context.Context, userID uint, role string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.assign(userID, role)
	return nil
}

func (r *Users) List(_ context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var all []models.User
	for _, u := range r.m.users {
		if q == "" || strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.Name), q) {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return []models.User{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// ======================================================
// LEGACY CUSTOMERS
// ======================================================

type Legacy struct{ m *Memory }

func (r *Legacy) FindUnmigratedByEmail(_ context.Context, email string) (*models.LegacyCustomer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email = identity.NormalizeEmail(email)
	var found *models.LegacyCustomer
	for _, c := range r.m.legacy {
		if c.MigratedUserID == nil && identity.NormalizeEmail(c.Email) == email {
			if found == nil || c.ID < found.ID {
				found = c
			}
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	out := *found
	return &out, nil
}

func (r *Legacy) ListUnmigrated(_ context.Context, limit int) ([]models.LegacyCustomer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.LegacyCustomer
	for _, c := range r.m.legacy {
		if c.MigratedUserID == nil {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Legacy) MarkMigrated(_ context.Context, legacyID, userID uint, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.legacy[legacyID]
	if !ok || c.MigratedUserID != nil {
		return domain.ErrStatusConflict
	}
	uid, t := userID, at
	c.MigratedUserID, c.MigratedAt = &uid, &t
	return nil
}

// ======================================================
// SESSIONS
// ======================================================

type Sessions struct{ m *Memory }

func (r *Sessions) Create(_ context.Context, s *models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored := *s
	r.m.sessions[s.ID] = &stored
	return nil
}

func (r *Sessions) Get(_ context.Context, id string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (r *Sessions) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.sessions, id)
	return nil
}

func (r *Sessions) DeleteByUser(_ context.Context, userID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for id, s := range r.m.sessions {
		if s.UserID == userID {
			delete(r.m.sessions, id)
		}
	}
	return nil
}

func (r *Sessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for id, s := range r.m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.m.sessions, id)
			n++
		}
	}
	return n, nil
}

// ======================================================
// TOKENS
// ======================================================

type Tokens struct{ m *Memory }

func (r *Tokens) Create(_ context.Context, t *models.AuthToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.tokens {
		if existing.TokenHash == t.TokenHash {
			return domain.ErrDuplicate
		}
	}
	t.ID = r.m.id()
	stored := *t
	r.m.tokens = append(r.m.tokens, &stored)
	return nil
}

func (r *Tokens) InvalidateActive(_ context.Context, email string, purpose token.Purpose, now time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, t := range r.m.tokens {
		if t.Email == email && t.Purpose == string(purpose) && t.UsedAt == nil {
			at := now
			t.UsedAt = &at
		}
	}
	return nil
}

func (r *Tokens) Consume(_ context.Context, hash string, purpose token.Purpose, now time.Time) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, t := range r.m.tokens {
		if t.TokenHash == hash && t.Purpose == string(purpose) && t.UsedAt == nil && t.ExpiresAt.After(now) {
			at := now
			t.UsedAt = &at
			return t.Email, nil
		}
	}
	return "", domain.ErrNotFound
}

func (r *Tokens) Find(_ context.Context, hash string, purpose token.Purpose) (*models.AuthToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, t := range r.m.tokens {
		if t.TokenHash == hash && t.Purpose == string(purpose) {
			out := *t
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Tokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	kept := r.m.tokens[:0]
	var n int64
	for _, t := range r.m.tokens {
		if t.ExpiresAt.Before(before) || (t.UsedAt != nil && t.UsedAt.Before(before)) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.m.tokens = kept
	return n, nil
}

// ======================================================
// STUDIOS
// ======================================================

type Studios struct{ m *Memory }

// withServices copies s and attaches its active services by name.
func (r *Studios) withServices(s *models.Studio) *models.Studio {
	out := *s
	out.Services = nil
	for _, svc := range r.m.services {
		if svc.StudioID == s.ID && svc.Active {
			out.Services = append(out.Services, *svc)
		}
	}
	sort.Slice(out.Services, func(i, j int) bool { return out.Services[i].Name < out.Services[j].Name })
	return &out
}

func (r *Studios) Create(_ context.Context, s *models.Studio, ownerID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s.ID = r.m.id()
	stored := *s
	stored.Services = nil
	r.m.studios[s.ID] = &stored
	r.m.addOwner(s.ID, ownerID)
	return nil
}

func (r *Studios) Get(_ context.Context, id uint) (*models.Studio, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.studios[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.withServices(s), nil
}

func (r *Studios) Update(_ context.Context, s *models.Studio) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.studios[s.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *s
	stored.Services = nil
	r.m.studios[s.ID] = &stored
	return nil
}

func (r *Studios) Search(_ context.Context, f studio.SearchFilter) ([]models.Studio, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	city := strings.TrimSpace(f.City)

	var out []models.Studio
	for _, s := range r.m.studios {
		if !s.Active {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Description), q) &&
			!strings.Contains(strings.ToLower(s.City), q) {
			continue
		}
		if city != "" && !strings.EqualFold(s.City, city) {
			continue
		}
		out = append(out, *r.withServices(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Studios) IsOwner(_ context.Context, studioID, userID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, ok := r.m.owners[studioID][userID]
	return ok, nil
}

func (r *Studios) AddOwner(_ context.Context, studioID, userID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.owners[studioID][userID]; ok {
		return domain.ErrDuplicate
	}
	r.m.addOwner(studioID, userID)
	return nil
}

func (r *Studios) ListOwners(_ context.Context, studioID uint) ([]models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.User
	for uid := range r.m.owners[studioID] {
		if u, ok := r.m.users[uid]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Studios) ListOwned(_ context.Context, userID uint) ([]models.Studio, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.Studio
	for sid, owners := range r.m.owners {
		if _, ok := owners[userID]; ok {
			if s, ok := r.m.studios[sid]; ok {
				out = append(out, *s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Studios) CreateService(_ context.Context, svc *models.Service) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	svc.ID = r.m.id()
	stored := *svc
	r.m.services[svc.ID] = &stored
	return nil
}

func (r *Studios) GetService(_ context.Context, studioID, serviceID uint) (*models.Service, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	svc, ok := r.m.services[serviceID]
	if !ok || svc.StudioID != studioID {
		return nil, domain.ErrNotFound
	}
	out := *svc
	return &out, nil
}

func (r *Studios) UpdateService(_ context.Context, svc *models.Service) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.services[svc.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *svc
	r.m.services[svc.ID] = &stored
	return nil
}

func (r *Studios) DeleteService(_ context.Context, studioID, serviceID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	svc, ok := r.m.services[serviceID]
	if !ok || svc.StudioID != studioID {
		return domain.ErrNotFound
	}
	svc.Active = false
	return nil
}

func (r *Studios) AddFavorite(_ context.Context, userID, studioID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.favorites[userID] == nil {
		r.m.favorites[userID] = map[uint]struct{}{}
	}
	r.m.favorites[userID][studioID] = struct{}{}
	return nil
}

func (r *Studios) RemoveFavorite(_ context.Context, userID, studioID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.favorites[userID], studioID)
	return nil
}

func (r *Studios) ListFavorites(_ context.Context, userID uint) ([]models.Studio, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.Studio
	for sid := range r.m.favorites[userID] {
		if s, ok := r.m.studios[sid]; ok {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ======================================================
// BOOKINGS
// ======================================================

type Bookings struct{ m *Memory }

func (r *Bookings) load(b *models.Booking) models.Booking {
	out := *b
	if b.ServiceID != nil {
		if svc, ok := r.m.services[*b.ServiceID]; ok {
			s := *svc
			out.Service = &s
		}
	}
	return out
}

func (r *Bookings) Create(_ context.Context, b *models.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b.ID = r.m.id()
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	stored := *b
	stored.Service = nil
	r.m.bookings[b.ID] = &stored
	return nil
}

func (r *Bookings) Get(_ context.Context, id uint) (*models.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := r.load(b)
	return &out, nil
}

func (r *Bookings) ListByUser(_ context.Context, userID uint) ([]models.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.Booking
	for _, b := range r.m.bookings {
		if b.UserID == userID {
			out = append(out, r.load(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Bookings) ListByStudio(_ context.Context, studioID uint, date string) ([]models.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.Booking
	for _, b := range r.m.bookings {
		if b.StudioID == studioID && (date == "" || b.PreferredDate == date) {
			out = append(out, r.load(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PreferredDate != out[j].PreferredDate {
			return out[i].PreferredDate < out[j].PreferredDate
		}
		if out[i].PreferredTime != out[j].PreferredTime {
			return out[i].PreferredTime < out[j].PreferredTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Bookings) confirmedIn(slot booking.Slot) []models.Booking {
	var out []models.Booking
	for _, b := range r.m.bookings {
		if b.StudioID == slot.StudioID &&
			b.PreferredDate == slot.Date &&
			b.PreferredTime == slot.Time &&
			b.Status == string(booking.StatusConfirmed) {
			out = append(out, r.load(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Bookings) CountConfirmed(_ context.Context, slot booking.Slot) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.confirmedIn(slot))), nil
}

func (r *Bookings) ListConfirmed(_ context.Context, slot booking.Slot) ([]models.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.confirmedIn(slot), nil
}

func (r *Bookings) apply(t booking.Transition) (*models.Booking, error) {
	b, ok := r.m.bookings[t.BookingID]
	if !ok || b.Status != string(t.From) {
		return nil, domain.ErrStatusConflict
	}
	t.Apply(b)
	out := r.load(b)
	return &out, nil
}

func (r *Bookings) Apply(_ context.Context, t booking.Transition) (*models.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.apply(t)
}

// Confirm holds the lock across count and update, like the studio row lock
// in the database.
func (r *Bookings) Confirm(_ context.Context, t booking.Transition) (*models.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.bookings[t.BookingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s, ok := r.m.studios[b.StudioID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if b.Status != string(t.From) {
		return nil, domain.ErrStatusConflict
	}

	confirmed := r.confirmedIn(booking.Slot{StudioID: b.StudioID, Date: b.PreferredDate, Time: b.PreferredTime})
	if booking.IsFull(int64(len(confirmed)), s.Capacity) {
		return nil, httperr.ErrBusiness(httperr.CodeSlotFull)
	}
	return r.apply(t)
}

// ======================================================
// ACCOUNTS
// ======================================================

type Accounts struct{ m *Memory }

func (r *Accounts) CountOwnedStudios(_ context.Context, userID uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for _, owners := range r.m.owners {
		if _, ok := owners[userID]; ok {
			n++
		}
	}
	return n, nil
}

func (r *Accounts) Erase(_ context.Context, userID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}

	for id, s := range r.m.sessions {
		if s.UserID == userID {
			delete(r.m.sessions, id)
		}
	}
	for _, owners := range r.m.owners {
		delete(owners, userID)
	}
	delete(r.m.assignments, userID)
	delete(r.m.favorites, userID)
	for id, b := range r.m.bookings {
		if b.UserID == userID {
			delete(r.m.bookings, id)
		}
	}

	kept := r.m.audit[:0]
	for _, e := range r.m.audit {
		if e.UserID == nil || *e.UserID != userID {
			kept = append(kept, e)
		}
	}
	r.m.audit = kept

	tokens := r.m.tokens[:0]
	for _, t := range r.m.tokens {
		if t.Email != u.Email {
			tokens = append(tokens, t)
		}
	}
	r.m.tokens = tokens

	for id, c := range r.m.legacy {
		if c.MigratedUserID != nil && *c.MigratedUserID == userID {
			delete(r.m.legacy, id)
		}
	}

	delete(r.m.users, userID)
	return nil
}

// ======================================================
// AUDIT
// ======================================================

type AuditStore struct{ m *Memory }

func (r *AuditStore) Create(_ context.Context, e *models.AuditLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	e.ID = r.m.id()
	r.m.audit = append(r.m.audit, *e)
	return nil
}

func (r *AuditStore) ListByUser(_ context.Context, userID uint) ([]models.AuditLog, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.AuditLog
	for i := len(r.m.audit) - 1; i >= 0; i-- {
		e := r.m.audit[i]
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *AuditStore) List(_ context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var all []models.AuditLog
	for i := len(r.m.audit) - 1; i >= 0; i-- {
		e := r.m.audit[i]
		switch {
		case f.UserID != nil && (e.UserID == nil || *e.UserID != *f.UserID):
		case f.Action != "" && e.Action != f.Action:
		case f.ResourceType != "" && e.ResourceType != f.ResourceType:
		case f.From != nil && e.CreatedAt.Before(*f.From):
		case f.To != nil && !e.CreatedAt.Before(*f.To):
		default:
			all = append(all, e)
		}
	}

	total := int64(len(all))
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if f.Offset >= len(all) {
		return []models.AuditLog{}, total, nil
	}
	end := f.Offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], total, nil
}

func (r *AuditStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	kept := r.m.audit[:0]
	var n int64
	for _, e := range r.m.audit {
		if e.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.m.audit = kept
	return n, nil
}

// Compile-time checks
var (
	_ identity.Repository       = (*Users)(nil)
	_ identity.LegacyRepository = (*Legacy)(nil)
	_ session.Repository        = (*Sessions)(nil)
	_ token.Repository          = (*Tokens)(nil)
	_ studio.Repository         = (*Studios)(nil)
	_ booking.Repository        = (*Bookings)(nil)
	_ account.Repository        = (*Accounts)(nil)
	_ audit.Store               = (*AuditStore)(nil)
)
