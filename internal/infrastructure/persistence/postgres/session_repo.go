package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/session"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
// Sessions are append-only; there is no update or delete path.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

// Insert appends one session record and returns its ID.
func (r *SessionRepository) Insert(ctx context.Context, s *session.StudySession) (string, error) {
	query := `
		INSERT INTO study_sessions (id, user_id, duration_minutes, xp_earned, session_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.DurationMinutes,
		s.XPEarned,
		s.SessionType,
		createdAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return "", shared.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to insert study session: %w", err)
	}

	return s.ID, nil
}

// ListByUser returns a user's sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*session.StudySession, error) {
	query := `
		SELECT id, user_id, duration_minutes, xp_earned, session_type, created_at
		FROM study_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list study sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.StudySession
	for rows.Next() {
		var s session.StudySession
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.DurationMinutes,
			&s.XPEarned,
			&s.SessionType,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return sessions, nil
}

// CountSince returns the number of sessions for a user since a time.
func (r *SessionRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM study_sessions WHERE user_id = $1 AND created_at >= $2",
		userID,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count study sessions: %w", err)
	}
	return count, nil
}
