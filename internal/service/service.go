package service

import (
	"context"

	"studyhub-backend/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, string, string, error)
	// Login accepts either the registered email or the roll number.
	Login(ctx context.Context, identifier, password string) (*domain.User, string, string, error)
	RefreshToken(ctx context.Context, refresh string) (string, string, error)
}

type SignupInput struct {
	Semester   string
	Department string
	RollNo     string
	FullName   string
	Email      string
	Password   string
}

type UserService interface {
	GetProfile(ctx context.Context, userID int32) (*domain.User, *domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
}

// AdmissionService is the caller-facing orchestration for session creation
// and joining. It owns the join-code reserve loop and drives the membership
// state machine.
type AdmissionService interface {
	CreateSession(ctx context.Context, ownerID int32, session *domain.Session) error
	JoinByCode(ctx context.Context, code string, userID int32) (*JoinResult, error)
	Approve(ctx context.Context, sessionID string, userID, actingUserID int32) (domain.MembershipState, error)
	Reject(ctx context.Context, sessionID string, userID, actingUserID int32) (domain.MembershipState, error)
	ListMembers(ctx context.Context, sessionID string) ([]domain.Membership, error)
	ListMySessions(ctx context.Context, userID int32) ([]domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	CompleteSession(ctx context.Context, sessionID string, actingUserID int32) error
	ListAttendance(ctx context.Context, sessionID string, actingUserID int32) ([]domain.AttendanceEntry, error)
}

// JoinResult reports the outcome of a join request. Repeated joins by the
// same user return the same outcome with AlreadyMember set.
type JoinResult struct {
	SessionID     string                 `json:"session_id"`
	State         domain.MembershipState `json:"state"`
	AlreadyMember bool                   `json:"already_member"`
}

type MemoryService interface {
	CreateMemory(ctx context.Context, memory *domain.Memory) error
	ListMemories(ctx context.Context, userID int32) ([]domain.Memory, error)
	ToggleFavorite(ctx context.Context, id string, userID int32) (*domain.Memory, error)
}

type MessageService interface {
	PostMessage(ctx context.Context, sessionID string, userID int32, body string) (*domain.Message, error)
	ListMessages(ctx context.Context, sessionID string, userID int32, limit int32) ([]domain.Message, error)
}

type EmailService interface {
	SendJoinRequestNotification(ctx context.Context, ownerEmail, applicantName, sessionTitle string) error
	SendAdmissionDecision(ctx context.Context, email, name, sessionTitle string, approved bool) error
	SendPendingApprovalsReminder(ctx context.Context, ownerEmail, sessionTitle string, pendingCount int) error
}
