package service_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

// fakeStore is an in-memory stand-in for the Postgres store with the same
// conditional-write semantics: every method takes the store lock, evaluates
// its condition and applies its effect before releasing it. That mirrors the
// atomicity of the single-statement SQL writes and lets the concurrency
// tests drive real goroutine races through the service layer.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	codes    map[string]string
	members  map[string]map[int32]*domain.Membership
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*domain.Session),
		codes:    make(map[string]string),
		members:  make(map[string]map[int32]*domain.Membership),
	}
}

func (f *fakeStore) Create(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.codes[s.JoinCode]; taken {
		return repository.ErrCodeTaken
	}
	cp := *s
	f.sessions[s.ID] = &cp
	f.codes[s.JoinCode] = s.ID
	f.members[s.ID] = make(map[int32]*domain.Membership)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) GetByCode(ctx context.Context, code string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.codes[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *f.sessions[id]
	return &cp, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID int32) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Session
	for _, s := range f.sessions {
		if s.OwnerID == userID {
			out = append(out, *s)
			continue
		}
		if m, ok := f.members[s.ID][userID]; ok && m.State == domain.MembershipStateApproved {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return sql.ErrNoRows
	}
	if status == domain.SessionStatusCompleted {
		delete(f.codes, s.JoinCode)
	}
	s.Status = status
	return nil
}

func (f *fakeStore) Get(ctx context.Context, sessionID string, userID int32) (*domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[sessionID][userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) CreatePending(ctx context.Context, m *domain.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.members[m.SessionID][m.UserID]; exists {
		return repository.ErrDuplicateMember
	}
	m.State = domain.MembershipStatePending
	m.JoinedOn = time.Now().Format(time.RFC3339)
	cp := *m
	f.members[m.SessionID][m.UserID] = &cp
	return nil
}

func (f *fakeStore) CreateApproved(ctx context.Context, m *domain.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.members[m.SessionID][m.UserID]; exists {
		return repository.ErrDuplicateMember
	}
	sess, ok := f.sessions[m.SessionID]
	if !ok {
		return sql.ErrNoRows
	}
	if f.approvedCountLocked(m.SessionID) >= sess.Capacity {
		return repository.ErrCapacityFull
	}
	now := time.Now().Format(time.RFC3339)
	m.State = domain.MembershipStateApproved
	m.JoinedOn = now
	m.DecidedOn = &now
	cp := *m
	f.members[m.SessionID][m.UserID] = &cp
	return nil
}

func (f *fakeStore) Approve(ctx context.Context, sessionID string, userID int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[sessionID][userID]
	if !ok || m.State != domain.MembershipStatePending {
		return repository.ErrNotPending
	}
	if f.approvedCountLocked(sessionID) >= f.sessions[sessionID].Capacity {
		return repository.ErrCapacityFull
	}
	now := time.Now().Format(time.RFC3339)
	m.State = domain.MembershipStateApproved
	m.DecidedOn = &now
	return nil
}

func (f *fakeStore) Reject(ctx context.Context, sessionID string, userID int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[sessionID][userID]
	if !ok || m.State != domain.MembershipStatePending {
		return repository.ErrNotPending
	}
	now := time.Now().Format(time.RFC3339)
	m.State = domain.MembershipStateRejected
	m.DecidedOn = &now
	return nil
}

func (f *fakeStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Membership
	for _, m := range f.members[sessionID] {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) CountApproved(ctx context.Context, sessionID string) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.approvedCountLocked(sessionID), nil
}

func (f *fakeStore) approvedCountLocked(sessionID string) int32 {
	var n int32
	for _, m := range f.members[sessionID] {
		if m.State == domain.MembershipStateApproved {
			n++
		}
	}
	return n
}

// fakeAttendance records admissions without an assertion surface beyond the
// entry count.
type fakeAttendance struct {
	mu      sync.Mutex
	entries []domain.AttendanceEntry
}

func (f *fakeAttendance) Record(ctx context.Context, entry *domain.AttendanceEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAttendance) ListBySession(ctx context.Context, sessionID string) ([]domain.AttendanceEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AttendanceEntry
	for _, e := range f.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeUsers serves the notification lookups in the join path.
type fakeUsers struct{}

func (fakeUsers) Create(ctx context.Context, user *domain.User) error { return nil }
func (fakeUsers) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	return &domain.User{ID: id, FullName: "Student", Email: "student@example.com"}, nil
}
func (fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, sql.ErrNoRows
}
func (fakeUsers) GetByRollNo(ctx context.Context, rollNo string) (*domain.User, error) {
	return nil, sql.ErrNoRows
}

// nopEmail swallows notifications.
type nopEmail struct{}

func (nopEmail) SendJoinRequestNotification(ctx context.Context, ownerEmail, applicantName, sessionTitle string) error {
	return nil
}
func (nopEmail) SendAdmissionDecision(ctx context.Context, email, name, sessionTitle string, approved bool) error {
	return nil
}
func (nopEmail) SendPendingApprovalsReminder(ctx context.Context, ownerEmail, sessionTitle string, pendingCount int) error {
	return nil
}
