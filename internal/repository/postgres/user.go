package postgres

import (
	"context"
	"database/sql"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (roll_no, full_name, email, semester, department, password_hash, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	u.CreatedOn = now.Format("2006-01-02")
	err := r.db.QueryRowContext(ctx, query, u.RollNo, u.FullName, u.Email, u.Semester, u.Department, u.PasswordHash, now).Scan(&u.ID)
	if err != nil && isUniqueViolation(err) {
		return repository.ErrDuplicateUser
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT id, roll_no, full_name, email, semester, department, password_hash, created_on FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, roll_no, full_name, email, semester, department, password_hash, created_on FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetByRollNo(ctx context.Context, rollNo string) (*domain.User, error) {
	query := `SELECT id, roll_no, full_name, email, semester, department, password_hash, created_on FROM users WHERE roll_no = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, rollNo))
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var createdOn time.Time
	err := row.Scan(&u.ID, &u.RollNo, &u.FullName, &u.Email, &u.Semester, &u.Department, &u.PasswordHash, &createdOn)
	if err != nil {
		return nil, err
	}
	u.CreatedOn = createdOn.Format("2006-01-02")
	return u, nil
}
