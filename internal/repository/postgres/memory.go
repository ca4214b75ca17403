package postgres

import (
	"context"
	"database/sql"
	"time"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/repository"

	"github.com/lib/pq"
)

type memoryRepository struct {
	db *sql.DB
}

func NewMemoryRepository(db *sql.DB) repository.MemoryRepository {
	return &memoryRepository{db: db}
}

func (r *memoryRepository) Create(ctx context.Context, m *domain.Memory) error {
	query := `INSERT INTO memories (id, user_id, title, type, description, file_url, file_name, file_size, tags, favorite, uploaded_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now()
	m.UploadedOn = now.Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.UserID, m.Title, m.Type,
		m.Description, m.FileURL, m.FileName, m.FileSize, pq.Array(m.Tags), m.Favorite, now)
	return err
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*domain.Memory, error) {
	m := &domain.Memory{}
	query := `SELECT id, user_id, title, type, description, file_url, file_name, file_size, tags, favorite, uploaded_on
	          FROM memories WHERE id = $1`
	var uploadedOn time.Time
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.UserID, &m.Title,
		&m.Type, &m.Description, &m.FileURL, &m.FileName, &m.FileSize,
		pq.Array(&m.Tags), &m.Favorite, &uploadedOn)
	if err != nil {
		return nil, err
	}
	m.UploadedOn = uploadedOn.Format(time.RFC3339)
	return m, nil
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID int32) ([]domain.Memory, error) {
	query := `SELECT id, user_id, title, type, description, file_url, file_name, file_size, tags, favorite, uploaded_on
	          FROM memories WHERE user_id = $1 ORDER BY uploaded_on DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []domain.Memory
	for rows.Next() {
		var m domain.Memory
		var uploadedOn time.Time
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Type, &m.Description,
			&m.FileURL, &m.FileName, &m.FileSize, pq.Array(&m.Tags), &m.Favorite, &uploadedOn); err != nil {
			return nil, err
		}
		m.UploadedOn = uploadedOn.Format(time.RFC3339)
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func (r *memoryRepository) SetFavorite(ctx context.Context, id string, userID int32, favorite bool) error {
	query := `UPDATE memories SET favorite = $1 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, favorite, id, userID)
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
