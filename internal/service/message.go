package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

const defaultTranscriptLimit = 200

type messageService struct {
	messageRepo repository.MessageRepository
	memberRepo  repository.MembershipRepository
	sessionRepo repository.SessionRepository
}

func NewMessageService(messageRepo repository.MessageRepository, memberRepo repository.MembershipRepository, sessionRepo repository.SessionRepository) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		sessionRepo: sessionRepo,
	}
}

func (s *messageService) PostMessage(ctx context.Context, sessionID string, userID int32, body string) (*domain.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}
	if err := s.requireApprovedMember(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	msg := &domain.Message{SessionID: sessionID, UserID: userID, Body: body}
	if err := withRetryNoResult(ctx, func() error {
		return s.messageRepo.Append(ctx, msg)
	}); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) ListMessages(ctx context.Context, sessionID string, userID int32, limit int32) ([]domain.Message, error) {
	if limit <= 0 || limit > defaultTranscriptLimit {
		limit = defaultTranscriptLimit
	}
	if err := s.requireApprovedMember(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return withRetry(ctx, func() ([]domain.Message, error) {
		return s.messageRepo.ListBySession(ctx, sessionID, limit)
	})
}

// Only approved members (the owner included, via the implicit membership)
// may read or write a session's transcript.
func (s *messageService) requireApprovedMember(ctx context.Context, sessionID string, userID int32) error {
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if sess.OwnerID == userID {
		return nil
	}
	m, err := s.memberRepo.Get(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnauthorized
		}
		return err
	}
	if m.State != domain.MembershipStateApproved {
		return ErrUnauthorized
	}
	return nil
}
