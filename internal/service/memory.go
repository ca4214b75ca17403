package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"

	"github.com/google/uuid"
)

type memoryService struct {
	memoryRepo repository.MemoryRepository
}

func NewMemoryService(memoryRepo repository.MemoryRepository) MemoryService {
	return &memoryService{memoryRepo: memoryRepo}
}

func (s *memoryService) CreateMemory(ctx context.Context, m *domain.Memory) error {
	if m.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if m.FileURL == "" || m.FileName == "" {
		return fmt.Errorf("%w: file url and name are required", ErrValidation)
	}
	switch m.Type {
	case domain.MemoryTypePDF, domain.MemoryTypeNote, domain.MemoryTypeOther:
	default:
		return fmt.Errorf("%w: unknown memory type %q", ErrValidation, m.Type)
	}

	m.ID = uuid.NewString()
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return withRetryNoResult(ctx, func() error {
		return s.memoryRepo.Create(ctx, m)
	})
}

func (s *memoryService) ListMemories(ctx context.Context, userID int32) ([]domain.Memory, error) {
	return withRetry(ctx, func() ([]domain.Memory, error) {
		return s.memoryRepo.ListByUser(ctx, userID)
	})
}

func (s *memoryService) ToggleFavorite(ctx context.Context, id string, userID int32) (*domain.Memory, error) {
	m, err := s.memoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrNotFound
	}

	if err := s.memoryRepo.SetFavorite(ctx, id, userID, !m.Favorite); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Favorite = !m.Favorite
	return m, nil
}
