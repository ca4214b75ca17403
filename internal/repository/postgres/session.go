package postgres

import (
	"context"
	"database/sql"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, owner_id, join_code, title, description, department, course_code, topic, location, capacity, requires_approval, status, scheduled_end, created_on`

// Create persists the session. The partial unique index on join_code
// (status <> 'COMPLETED') is the atomic reserve: a colliding candidate fails
// the insert instead of passing a separate existence check first.
func (r *sessionRepository) Create(ctx context.Context, s *domain.Session) error {
	now := time.Now()
	s.CreatedOn = now.Format("2006-01-02")

	query := `INSERT INTO sessions (id, owner_id, join_code, title, description, department, course_code, topic, location, capacity, requires_approval, status, scheduled_end, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.JoinCode, s.Title, s.Description, s.Department,
		s.CourseCode, s.Topic, s.Location, s.Capacity, s.RequiresApproval,
		s.Status, s.ScheduledEnd, now)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrCodeTaken
		}
		return err
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *sessionRepository) GetByCode(ctx context.Context, code string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE join_code = $1 AND status <> $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, code, domain.SessionStatusCompleted))
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID int32) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
	          WHERE owner_id = $1
	             OR id IN (SELECT session_id FROM memberships WHERE user_id = $1 AND state = $2)
	          ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, domain.MembershipStateApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	query := `UPDATE sessions SET status = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *sessionRepository) scanOne(row rowScanner) (*domain.Session, error) {
	return scanSession(row)
}

func scanSession(row rowScanner) (*domain.Session, error) {
	s := &domain.Session{}
	var createdOn time.Time
	var scheduledEnd sql.NullTime
	err := row.Scan(&s.ID, &s.OwnerID, &s.JoinCode, &s.Title, &s.Description,
		&s.Department, &s.CourseCode, &s.Topic, &s.Location, &s.Capacity,
		&s.RequiresApproval, &s.Status, &scheduledEnd, &createdOn)
	if err != nil {
		return nil, err
	}
	s.CreatedOn = createdOn.Format("2006-01-02")
	if scheduledEnd.Valid {
		end := scheduledEnd.Time.Format(time.RFC3339)
		s.ScheduledEnd = &end
	}
	return s, nil
}
