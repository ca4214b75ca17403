package postgres

import (
	"context"
	"database/sql"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID int32) (*domain.Profile, error) {
	p := &domain.Profile{}
	query := `SELECT user_id, username, display_name, bio, website, social_handle, profile_image, cover_image, last_active
	          FROM profiles WHERE user_id = $1`
	var lastActive time.Time
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Username, &p.DisplayName, &p.Bio, &p.Website,
		&p.SocialHandle, &p.ProfileImage, &p.CoverImage, &lastActive)
	if err != nil {
		return nil, err
	}
	p.LastActive = lastActive.Format(time.RFC3339)
	return p, nil
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (user_id, username, display_name, bio, website, social_handle, profile_image, cover_image, last_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now()
	p.LastActive = now.Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.Username, p.DisplayName,
		p.Bio, p.Website, p.SocialHandle, p.ProfileImage, p.CoverImage, now)
	return err
}

func (r *profileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := `UPDATE profiles SET username=$1, display_name=$2, bio=$3, website=$4, social_handle=$5, profile_image=$6, cover_image=$7, last_active=$8
	          WHERE user_id=$9`
	now := time.Now()
	p.LastActive = now.Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, p.Username, p.DisplayName, p.Bio,
		p.Website, p.SocialHandle, p.ProfileImage, p.CoverImage, now, p.UserID)
	return err
}

func (r *profileRepository) TouchLastActive(ctx context.Context, userID int32) error {
	query := `UPDATE profiles SET last_active = $1 WHERE user_id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}
