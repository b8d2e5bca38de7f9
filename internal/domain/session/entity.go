// Package session contains the study session record: the append-only audit
// trail of XP-granting events. Sessions are never mutated or deleted.
package session

import (
	"context"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// TypeStudy is the session type tag written for plan-completion awards.
const TypeStudy = "study"

// DefaultDurationMinutes is the placeholder duration recorded per award.
const DefaultDurationMinutes = 30

// StudySession is one XP-granting event. Exactly one record is appended
// per successful award.
type StudySession struct {
	// ID is the generated identifier (UUID in string form).
	ID string

	// UserID identifies the owning user.
	UserID string

	// DurationMinutes is the session length.
	DurationMinutes int

	// XPEarned is the XP granted by this event.
	XPEarned int

	// SessionType tags the kind of session, e.g. "study".
	SessionType string

	// CreatedAt is when the record was appended.
	CreatedAt time.Time
}

// NewStudySession creates a validated session record.
func NewStudySession(id, userID string, durationMinutes, xpEarned int, sessionType string) (*StudySession, error) {
	if id == "" || userID == "" {
		return nil, shared.ErrInvalidID
	}
	if durationMinutes <= 0 || xpEarned <= 0 {
		return nil, shared.ErrInvalidSession
	}
	if sessionType == "" {
		sessionType = TypeStudy
	}

	return &StudySession{
		ID:              id,
		UserID:          userID,
		DurationMinutes: durationMinutes,
		XPEarned:        xpEarned,
		SessionType:     sessionType,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Repository defines the storage contract for sessions. Append-only:
// there is deliberately no update or delete operation.
type Repository interface {
	// Insert appends one session record and returns its ID.
	Insert(ctx context.Context, s *StudySession) (string, error)

	// ListByUser returns a user's sessions, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*StudySession, error)

	// CountSince returns the number of sessions for a user since a time.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}
