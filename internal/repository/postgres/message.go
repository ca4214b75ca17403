package postgres

import (
	"context"
	"database/sql"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Append(ctx context.Context, m *domain.Message) error {
	query := `INSERT INTO messages (session_id, user_id, body, sent_on) VALUES ($1, $2, $3, $4) RETURNING id`
	now := time.Now()
	m.SentOn = now.Format(time.RFC3339)
	return r.db.QueryRowContext(ctx, query, m.SessionID, m.UserID, m.Body, now).Scan(&m.ID)
}

func (r *messageRepository) ListBySession(ctx context.Context, sessionID string, limit int32) ([]domain.Message, error) {
	query := `SELECT id, session_id, user_id, body, sent_on FROM messages
	          WHERE session_id = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var sentOn time.Time
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Body, &sentOn); err != nil {
			return nil, err
		}
		m.SentOn = sentOn.Format(time.RFC3339)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for transcript rendering.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

type attendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Record(ctx context.Context, e *domain.AttendanceEntry) error {
	query := `INSERT INTO attendance (session_id, user_id, admitted_on) VALUES ($1, $2, $3)`
	now := time.Now()
	e.AdmittedOn = now.Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, e.SessionID, e.UserID, now)
	return err
}

func (r *attendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.AttendanceEntry, error) {
	query := `SELECT session_id, user_id, admitted_on FROM attendance WHERE session_id = $1 ORDER BY admitted_on`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AttendanceEntry
	for rows.Next() {
		var e domain.AttendanceEntry
		var admittedOn time.Time
		if err := rows.Scan(&e.SessionID, &e.UserID, &admittedOn); err != nil {
			return nil, err
		}
		e.AdmittedOn = admittedOn.Format(time.RFC3339)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
