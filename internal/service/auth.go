package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
	"studyhub-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("email or roll number already registered")
)

type authService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tokens      security.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, tokens security.TokenManager) AuthService {
	return &authService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokens:      tokens,
	}
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*domain.User, string, string, error) {
	if err := validateSignup(in); err != nil {
		return nil, "", "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}

	user := &domain.User{
		RollNo:       in.RollNo,
		FullName:     in.FullName,
		Email:        strings.ToLower(in.Email),
		Semester:     in.Semester,
		Department:   in.Department,
		PasswordHash: string(hash),
	}
	if err := withRetryNoResult(ctx, func() error {
		return s.userRepo.Create(ctx, user)
	}); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, "", "", ErrUserExists
		}
		return nil, "", "", err
	}

	// Seed the public profile with defaults.
	profile := &domain.Profile{
		UserID:       user.ID,
		DisplayName:  user.FullName,
		ProfileImage: "/DefaultPic.png",
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, "", "", err
	}

	access, refresh, err := s.tokenPair(user)
	return user, access, refresh, err
}

func validateSignup(in SignupInput) error {
	switch {
	case in.RollNo == "":
		return fmt.Errorf("%w: roll number is required", ErrValidation)
	case in.FullName == "":
		return fmt.Errorf("%w: full name is required", ErrValidation)
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	case in.Semester == "":
		return fmt.Errorf("%w: semester is required", ErrValidation)
	case in.Department == "":
		return fmt.Errorf("%w: department is required", ErrValidation)
	case len(in.Password) < 6:
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*domain.User, string, string, error) {
	user, err := withRetry(ctx, func() (*domain.User, error) {
		if strings.Contains(identifier, "@") {
			return s.userRepo.GetByEmail(ctx, identifier)
		}
		return s.userRepo.GetByRollNo(ctx, identifier)
	})
	if err != nil {
		// Only an absent account is a credential problem; a failing
		// store must not masquerade as one.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := s.tokenPair(user)
	return user, access, refresh, err
}

func (s *authService) RefreshToken(ctx context.Context, refresh string) (string, string, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return "", "", err
	}
	if claims.Type != security.TokenTypeRefresh {
		return "", "", security.ErrWrongTokenType
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", "", security.ErrInvalidToken
	}
	return s.tokenPair(user)
}

func (s *authService) tokenPair(user *domain.User) (string, string, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
