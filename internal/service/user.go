package service

import (
	"context"
	"database/sql"
	"errors"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

type userService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
}

func NewUserService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository) UserService {
	return &userService{userRepo: userRepo, profileRepo: profileRepo}
}

// GetProfile returns the user and their public profile, creating the profile
// with defaults on first read. Accounts created before profiles existed have
// no row yet.
func (s *userService) GetProfile(ctx context.Context, userID int32) (*domain.User, *domain.Profile, error) {
	user, err := withRetry(ctx, func() (*domain.User, error) {
		return s.userRepo.GetByID(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		profile = &domain.Profile{
			UserID:       userID,
			DisplayName:  user.FullName,
			ProfileImage: "/DefaultPic.png",
		}
		err = s.profileRepo.Create(ctx, profile)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.profileRepo.TouchLastActive(ctx, userID); err != nil {
		// Stale last_active is not worth failing the read.
		return user, profile, nil
	}
	return user, profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if _, _, err := s.GetProfile(ctx, profile.UserID); err != nil {
		return nil, err
	}
	if err := withRetryNoResult(ctx, func() error {
		return s.profileRepo.Update(ctx, profile)
	}); err != nil {
		return nil, err
	}
	return profile, nil
}
