package jobs

import (
	"context"
	"time"

	"studyhub-backend/internal/logger"
)

// CompleteExpiredSessions marks ACTIVE sessions COMPLETED once their
// scheduled end has passed. Completion frees the join code for reuse and
// closes the session to further joins.
func (jr *JobRunner) CompleteExpiredSessions() {
	jr.runWithRecovery("CompleteExpiredSessions", func() {
		ctx := context.Background()

		query := `
			UPDATE sessions
			SET status = 'COMPLETED'
			WHERE status = 'ACTIVE'
			  AND scheduled_end IS NOT NULL
			  AND scheduled_end < $1
			RETURNING id, join_code
		`

		rows, err := jr.db.QueryContext(ctx, query, time.Now())
		if err != nil {
			logger.Error("Failed to complete expired sessions", "error", err)
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var id, code string
			if err := rows.Scan(&id, &code); err != nil {
				logger.Error("Failed to scan expired session", "error", err)
				continue
			}
			logger.Debug("Session completed", "session_id", id, "join_code", code)
			count++
		}

		if err := rows.Err(); err != nil {
			logger.Error("Error iterating expired sessions", "error", err)
			return
		}

		logger.Info("Marked sessions as completed", "count", count)
	})
}

// RemindPendingApprovals emails owners of active approval-required sessions
// that have join requests waiting for more than a day.
func (jr *JobRunner) RemindPendingApprovals() {
	jr.runWithRecovery("RemindPendingApprovals", func() {
		ctx := context.Background()

		query := `
			SELECT s.id, s.title, u.email, COUNT(m.user_id)
			FROM sessions s
			JOIN users u ON u.id = s.owner_id
			JOIN memberships m ON m.session_id = s.id
			WHERE s.status = 'ACTIVE'
			  AND m.state = 'PENDING'
			  AND m.joined_on < $1
			GROUP BY s.id, s.title, u.email
		`

		rows, err := jr.db.QueryContext(ctx, query, time.Now().Add(-24*time.Hour))
		if err != nil {
			logger.Error("Failed to query pending approvals", "error", err)
			return
		}
		defer rows.Close()

		sent := 0
		for rows.Next() {
			var sessionID, title, ownerEmail string
			var pending int
			if err := rows.Scan(&sessionID, &title, &ownerEmail, &pending); err != nil {
				logger.Error("Failed to scan pending approval row", "error", err)
				continue
			}
			if err := jr.email.SendPendingApprovalsReminder(ctx, ownerEmail, title, pending); err != nil {
				logger.Error("Failed to send pending approvals reminder", "session_id", sessionID, "error", err)
				continue
			}
			sent++
		}

		if err := rows.Err(); err != nil {
			logger.Error("Error iterating pending approvals", "error", err)
			return
		}

		logger.Info("Sent pending approval reminders", "count", sent)
	})
}
