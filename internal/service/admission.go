package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/joincode"
	"studyhub-backend/internal/logger"
	"studyhub-backend/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("only the session owner may do this")
	// ErrAlreadyRejected reports a re-join after the owner rejected the
	// user. Rejection is terminal; the user cannot reapply.
	ErrAlreadyRejected  = errors.New("join request was previously rejected")
	ErrInvalidState     = errors.New("membership is not pending")
	ErrCapacityExceeded = errors.New("session is full")
	// ErrCodeSpaceExhausted means the generator could not reserve a free
	// join code within the attempt budget. Operational fault, not a user
	// error.
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique join code")
	ErrValidation         = errors.New("invalid input")
)

type admissionService struct {
	sessionRepo    repository.SessionRepository
	memberRepo     repository.MembershipRepository
	attendanceRepo repository.AttendanceRepository
	userRepo       repository.UserRepository
	emailSvc       EmailService
	codes          *joincode.Generator
	maxAttempts    int
}

func NewAdmissionService(
	sessionRepo repository.SessionRepository,
	memberRepo repository.MembershipRepository,
	attendanceRepo repository.AttendanceRepository,
	userRepo repository.UserRepository,
	emailSvc EmailService,
	codes *joincode.Generator,
	maxCodeAttempts int,
) AdmissionService {
	if maxCodeAttempts <= 0 {
		maxCodeAttempts = 10
	}
	return &admissionService{
		sessionRepo:    sessionRepo,
		memberRepo:     memberRepo,
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		emailSvc:       emailSvc,
		codes:          codes,
		maxAttempts:    maxCodeAttempts,
	}
}

// CreateSession assigns the session id and join code and persists the
// session. The code reserve is an insert-if-absent: a collision fails the
// insert and a fresh candidate is drawn, up to the attempt budget.
func (s *admissionService) CreateSession(ctx context.Context, ownerID int32, sess *domain.Session) error {
	if sess.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if sess.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be positive", ErrValidation)
	}

	sess.ID = uuid.NewString()
	sess.OwnerID = ownerID
	sess.Status = domain.SessionStatusActive

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		sess.JoinCode = s.codes.Generate()
		err := withRetryNoResult(ctx, func() error {
			return s.sessionRepo.Create(ctx, sess)
		})
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		return err
	}

	logger.Error("join code space exhausted",
		"attempts", s.maxAttempts, "code_length", s.codes.Length())
	return ErrCodeSpaceExhausted
}

func (s *admissionService) JoinByCode(ctx context.Context, code string, userID int32) (*JoinResult, error) {
	sess, err := withRetry(ctx, func() (*domain.Session, error) {
		return s.sessionRepo.GetByCode(ctx, code)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The owner is approved from the moment the session exists and never
	// holds a membership row, so capacity is spent on joiners only.
	if userID == sess.OwnerID {
		return &JoinResult{SessionID: sess.ID, State: domain.MembershipStateApproved, AlreadyMember: true}, nil
	}

	// Re-issuing a join request is always safe: an existing row is
	// reported back without mutation.
	existing, err := withRetry(ctx, func() (*domain.Membership, error) {
		return s.memberRepo.Get(ctx, sess.ID, userID)
	})
	if err == nil {
		return s.repeatOutcome(sess.ID, existing)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if sess.RequiresApproval {
		return s.queuePending(ctx, sess, userID)
	}
	return s.admit(ctx, sess, userID)
}

func (s *admissionService) repeatOutcome(sessionID string, m *domain.Membership) (*JoinResult, error) {
	if m.State == domain.MembershipStateRejected {
		return nil, ErrAlreadyRejected
	}
	return &JoinResult{SessionID: sessionID, State: m.State, AlreadyMember: true}, nil
}

func (s *admissionService) queuePending(ctx context.Context, sess *domain.Session, userID int32) (*JoinResult, error) {
	m := &domain.Membership{SessionID: sess.ID, UserID: userID}
	err := withRetryNoResult(ctx, func() error {
		return s.memberRepo.CreatePending(ctx, m)
	})
	if errors.Is(err, repository.ErrDuplicateMember) {
		// Lost a race against another request from the same user.
		return s.rereadOutcome(ctx, sess.ID, userID)
	}
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, sess, userID)
	return &JoinResult{SessionID: sess.ID, State: domain.MembershipStatePending}, nil
}

func (s *admissionService) admit(ctx context.Context, sess *domain.Session, userID int32) (*JoinResult, error) {
	m := &domain.Membership{SessionID: sess.ID, UserID: userID}
	err := withRetryNoResult(ctx, func() error {
		return s.memberRepo.CreateApproved(ctx, m)
	})
	switch {
	case errors.Is(err, repository.ErrCapacityFull):
		return nil, ErrCapacityExceeded
	case errors.Is(err, repository.ErrDuplicateMember):
		return s.rereadOutcome(ctx, sess.ID, userID)
	case err != nil:
		return nil, err
	}

	s.recordAttendance(ctx, sess.ID, userID)
	return &JoinResult{SessionID: sess.ID, State: domain.MembershipStateApproved}, nil
}

func (s *admissionService) rereadOutcome(ctx context.Context, sessionID string, userID int32) (*JoinResult, error) {
	m, err := withRetry(ctx, func() (*domain.Membership, error) {
		return s.memberRepo.Get(ctx, sessionID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.repeatOutcome(sessionID, m)
}

func (s *admissionService) Approve(ctx context.Context, sessionID string, userID, actingUserID int32) (domain.MembershipState, error) {
	sess, m, err := s.loadForDecision(ctx, sessionID, userID, actingUserID)
	if err != nil {
		return "", err
	}
	if m.State != domain.MembershipStatePending {
		return m.State, ErrInvalidState
	}

	err = withRetryNoResult(ctx, func() error {
		return s.memberRepo.Approve(ctx, sessionID, userID)
	})
	switch {
	case errors.Is(err, repository.ErrCapacityFull):
		// Capacity filled while the request waited; the membership
		// stays PENDING.
		return domain.MembershipStatePending, ErrCapacityExceeded
	case errors.Is(err, repository.ErrNotPending):
		return m.State, ErrInvalidState
	case err != nil:
		return "", err
	}

	s.recordAttendance(ctx, sessionID, userID)
	s.notifyDecision(ctx, sess, userID, true)
	return domain.MembershipStateApproved, nil
}

func (s *admissionService) Reject(ctx context.Context, sessionID string, userID, actingUserID int32) (domain.MembershipState, error) {
	sess, m, err := s.loadForDecision(ctx, sessionID, userID, actingUserID)
	if err != nil {
		return "", err
	}
	if m.State != domain.MembershipStatePending {
		return m.State, ErrInvalidState
	}

	err = withRetryNoResult(ctx, func() error {
		return s.memberRepo.Reject(ctx, sessionID, userID)
	})
	if errors.Is(err, repository.ErrNotPending) {
		return m.State, ErrInvalidState
	}
	if err != nil {
		return "", err
	}

	s.notifyDecision(ctx, sess, userID, false)
	return domain.MembershipStateRejected, nil
}

// loadForDecision fetches the session and membership for an approve/reject
// and enforces the owner-only rule before any mutation.
func (s *admissionService) loadForDecision(ctx context.Context, sessionID string, userID, actingUserID int32) (*domain.Session, *domain.Membership, error) {
	sess, err := withRetry(ctx, func() (*domain.Session, error) {
		return s.sessionRepo.GetByID(ctx, sessionID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if sess.OwnerID != actingUserID {
		return nil, nil, ErrUnauthorized
	}

	m, err := withRetry(ctx, func() (*domain.Membership, error) {
		return s.memberRepo.Get(ctx, sessionID, userID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return sess, m, nil
}

func (s *admissionService) ListMembers(ctx context.Context, sessionID string) ([]domain.Membership, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return withRetry(ctx, func() ([]domain.Membership, error) {
		return s.memberRepo.ListBySession(ctx, sessionID)
	})
}

func (s *admissionService) ListMySessions(ctx context.Context, userID int32) ([]domain.Session, error) {
	return withRetry(ctx, func() ([]domain.Session, error) {
		return s.sessionRepo.ListByUser(ctx, userID)
	})
}

func (s *admissionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := withRetry(ctx, func() (*domain.Session, error) {
		return s.sessionRepo.GetByID(ctx, sessionID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

func (s *admissionService) CompleteSession(ctx context.Context, sessionID string, actingUserID int32) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.OwnerID != actingUserID {
		return ErrUnauthorized
	}
	err = withRetryNoResult(ctx, func() error {
		return s.sessionRepo.UpdateStatus(ctx, sessionID, domain.SessionStatusCompleted)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *admissionService) ListAttendance(ctx context.Context, sessionID string, actingUserID int32) ([]domain.AttendanceEntry, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != actingUserID {
		return nil, ErrUnauthorized
	}
	return withRetry(ctx, func() ([]domain.AttendanceEntry, error) {
		return s.attendanceRepo.ListBySession(ctx, sessionID)
	})
}

// recordAttendance logs the admission moment. Best effort; the admission
// itself already committed.
func (s *admissionService) recordAttendance(ctx context.Context, sessionID string, userID int32) {
	entry := &domain.AttendanceEntry{SessionID: sessionID, UserID: userID}
	if err := s.attendanceRepo.Record(ctx, entry); err != nil {
		logger.Warn("failed to record attendance", "session_id", sessionID, "user_id", userID, "error", err)
	}
}

func (s *admissionService) notifyOwner(ctx context.Context, sess *domain.Session, applicantID int32) {
	owner, err := s.userRepo.GetByID(ctx, sess.OwnerID)
	if err != nil {
		logger.Warn("failed to load owner for notification", "session_id", sess.ID, "error", err)
		return
	}
	applicant, err := s.userRepo.GetByID(ctx, applicantID)
	if err != nil {
		logger.Warn("failed to load applicant for notification", "session_id", sess.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendJoinRequestNotification(ctx, owner.Email, applicant.FullName, sess.Title); err != nil {
		logger.Warn("failed to send join request notification", "session_id", sess.ID, "error", err)
	}
}

func (s *admissionService) notifyDecision(ctx context.Context, sess *domain.Session, userID int32, approved bool) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("failed to load user for decision notification", "session_id", sess.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendAdmissionDecision(ctx, user.Email, user.FullName, sess.Title, approved); err != nil {
		logger.Warn("failed to send admission decision", "session_id", sess.ID, "error", err)
	}
}
