package repository

import (
	"context"
	"errors"

	"studyhub-backend/internal/domain"
)

// Sentinel errors for the conditional writes. The store evaluates the
// condition and applies the effect as one indivisible unit; these are how
// the failed condition comes back to the caller.
var (
	// ErrCodeTaken reports that the chosen join code is already held by a
	// non-completed session.
	ErrCodeTaken = errors.New("join code already in use")

	// ErrDuplicateMember reports that a membership row already exists for
	// the (session, user) pair.
	ErrDuplicateMember = errors.New("membership already exists")

	// ErrCapacityFull reports that the capacity-guarded insert or update
	// did not apply because the session has no approved seats left.
	ErrCapacityFull = errors.New("session is at capacity")

	// ErrNotPending reports that an approve/reject did not apply because
	// the membership is no longer PENDING.
	ErrNotPending = errors.New("membership is not pending")

	// ErrDuplicateUser reports a signup with an email or roll number that
	// is already registered.
	ErrDuplicateUser = errors.New("user already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRollNo(ctx context.Context, rollNo string) (*domain.User, error)
}

type ProfileRepository interface {
	Get(ctx context.Context, userID int32) (*domain.Profile, error)
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	TouchLastActive(ctx context.Context, userID int32) error
}

type SessionRepository interface {
	// Create persists the session. Returns ErrCodeTaken when the join
	// code is already reserved by another non-completed session.
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// GetByCode resolves a join code among non-completed sessions only.
	GetByCode(ctx context.Context, code string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID int32) ([]domain.Session, error)
	UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error
}

type MembershipRepository interface {
	Get(ctx context.Context, sessionID string, userID int32) (*domain.Membership, error)
	// CreatePending inserts a PENDING row. Returns ErrDuplicateMember if a
	// row for the pair already exists.
	CreatePending(ctx context.Context, m *domain.Membership) error
	// CreateApproved inserts an APPROVED row only if the approved count is
	// below the session capacity; condition and insert are applied as one
	// indivisible unit. Returns ErrCapacityFull when the condition fails
	// and ErrDuplicateMember on a pre-existing row.
	CreateApproved(ctx context.Context, m *domain.Membership) error
	// Approve transitions PENDING -> APPROVED guarded by the same capacity
	// condition. Returns ErrCapacityFull when the session is full (the row
	// stays PENDING) and ErrNotPending when the state already changed.
	Approve(ctx context.Context, sessionID string, userID int32) error
	// Reject transitions PENDING -> REJECTED. Returns ErrNotPending when
	// the row is absent or already decided.
	Reject(ctx context.Context, sessionID string, userID int32) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Membership, error)
	CountApproved(ctx context.Context, sessionID string) (int32, error)
}

type MemoryRepository interface {
	Create(ctx context.Context, memory *domain.Memory) error
	GetByID(ctx context.Context, id string) (*domain.Memory, error)
	ListByUser(ctx context.Context, userID int32) ([]domain.Memory, error)
	// SetFavorite flips the flag on the caller's own memory; reports
	// sql.ErrNoRows when the memory is absent or owned by someone else.
	SetFavorite(ctx context.Context, id string, userID int32, favorite bool) error
}

type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	ListBySession(ctx context.Context, sessionID string, limit int32) ([]domain.Message, error)
}

type AttendanceRepository interface {
	Record(ctx context.Context, entry *domain.AttendanceEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.AttendanceEntry, error)
}
