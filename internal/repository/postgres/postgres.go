package postgres

import (
	"database/sql"
	"errors"

	"studyhub-backend/internal/repository"

	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ProfileRepository
	repository.SessionRepository
	repository.MembershipRepository
	repository.MemoryRepository
	repository.MessageRepository
	repository.AttendanceRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                   db,
		UserRepository:       NewUserRepository(db),
		ProfileRepository:    NewProfileRepository(db),
		SessionRepository:    NewSessionRepository(db),
		MembershipRepository: NewMembershipRepository(db),
		MemoryRepository:     NewMemoryRepository(db),
		MessageRepository:    NewMessageRepository(db),
		AttendanceRepository: NewAttendanceRepository(db),
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
