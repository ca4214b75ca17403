package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Get(ctx context.Context, sessionID string, userID int32) (*domain.Membership, error) {
	m := &domain.Membership{}
	query := `SELECT session_id, user_id, state, joined_on, decided_on FROM memberships WHERE session_id = $1 AND user_id = $2`
	var joinedOn time.Time
	var decidedOn sql.NullTime
	err := r.db.QueryRowContext(ctx, query, sessionID, userID).Scan(&m.SessionID, &m.UserID, &m.State, &joinedOn, &decidedOn)
	if err != nil {
		return nil, err
	}
	m.JoinedOn = joinedOn.Format(time.RFC3339)
	if decidedOn.Valid {
		d := decidedOn.Time.Format(time.RFC3339)
		m.DecidedOn = &d
	}
	return m, nil
}

func (r *membershipRepository) CreatePending(ctx context.Context, m *domain.Membership) error {
	now := time.Now()
	query := `INSERT INTO memberships (session_id, user_id, state, joined_on) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, m.SessionID, m.UserID, domain.MembershipStatePending, now)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateMember
		}
		return err
	}
	m.State = domain.MembershipStatePending
	m.JoinedOn = now.Format(time.RFC3339)
	return nil
}

// lockSessionCapacity takes the per-session row lock that serializes admits.
// Concurrent admits to the same session queue on this lock; the caller's
// subsequent statements run after any lock holder has committed and, under
// read committed, each gets a fresh snapshot that sees those commits. The
// count must therefore run as its own statement after this one, never folded
// into the write.
func lockSessionCapacity(ctx context.Context, tx *sql.Tx, sessionID string) (int32, error) {
	var capacity int32
	err := tx.QueryRowContext(ctx,
		`SELECT capacity FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&capacity)
	return capacity, err
}

func countApprovedTx(ctx context.Context, tx *sql.Tx, sessionID string) (int32, error) {
	var approved int32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE session_id = $1 AND state = $2`,
		sessionID, domain.MembershipStateApproved).Scan(&approved)
	return approved, err
}

// CreateApproved is the atomic admit: lock the session row, count approved
// members, insert only if a seat remains, all in one transaction.
func (r *membershipRepository) CreateApproved(ctx context.Context, m *domain.Membership) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	capacity, err := lockSessionCapacity(ctx, tx, m.SessionID)
	if err != nil {
		return err
	}
	approved, err := countApprovedTx(ctx, tx, m.SessionID)
	if err != nil {
		return err
	}
	if approved >= capacity {
		return repository.ErrCapacityFull
	}

	now := time.Now()
	query := `INSERT INTO memberships (session_id, user_id, state, joined_on, decided_on)
	          VALUES ($1, $2, $3, $4, $4)`
	_, err = tx.ExecContext(ctx, query, m.SessionID, m.UserID, domain.MembershipStateApproved, now)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateMember
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.State = domain.MembershipStateApproved
	m.JoinedOn = now.Format(time.RFC3339)
	decided := m.JoinedOn
	m.DecidedOn = &decided
	return nil
}

// Approve applies the PENDING -> APPROVED transition under the same
// lock-then-count guard used by CreateApproved. A full session reports
// ErrCapacityFull and leaves the row PENDING; an absent or already decided
// row reports ErrNotPending.
func (r *membershipRepository) Approve(ctx context.Context, sessionID string, userID int32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	capacity, err := lockSessionCapacity(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	var state domain.MembershipState
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM memberships WHERE session_id = $1 AND user_id = $2 FOR UPDATE`,
		sessionID, userID).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotPending
		}
		return err
	}
	if state != domain.MembershipStatePending {
		return repository.ErrNotPending
	}

	approved, err := countApprovedTx(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if approved >= capacity {
		return repository.ErrCapacityFull
	}

	query := `UPDATE memberships SET state = $3, decided_on = $4 WHERE session_id = $1 AND user_id = $2`
	if _, err := tx.ExecContext(ctx, query, sessionID, userID,
		domain.MembershipStateApproved, time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *membershipRepository) Reject(ctx context.Context, sessionID string, userID int32) error {
	query := `UPDATE memberships SET state = $3, decided_on = $4 WHERE session_id = $1 AND user_id = $2 AND state = $5`
	res, err := r.db.ExecContext(ctx, query, sessionID, userID,
		domain.MembershipStateRejected, time.Now(), domain.MembershipStatePending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotPending
	}
	return nil
}

func (r *membershipRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Membership, error) {
	query := `SELECT session_id, user_id, state, joined_on, decided_on FROM memberships WHERE session_id = $1 ORDER BY joined_on`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var joinedOn time.Time
		var decidedOn sql.NullTime
		if err := rows.Scan(&m.SessionID, &m.UserID, &m.State, &joinedOn, &decidedOn); err != nil {
			return nil, err
		}
		m.JoinedOn = joinedOn.Format(time.RFC3339)
		if decidedOn.Valid {
			d := decidedOn.Time.Format(time.RFC3339)
			m.DecidedOn = &d
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *membershipRepository) CountApproved(ctx context.Context, sessionID string) (int32, error) {
	var count int32
	query := `SELECT COUNT(*) FROM memberships WHERE session_id = $1 AND state = $2`
	err := r.db.QueryRowContext(ctx, query, sessionID, domain.MembershipStateApproved).Scan(&count)
	return count, err
}
