package query

import (
	"context"
	"fmt"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/session"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Returns a user's progression profile with their recent study sessions.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecentSessions is how many sessions are returned by default.
const DefaultRecentSessions = 10

// GetProfileQuery contains the profile request parameters.
type GetProfileQuery struct {
	// UserID is the user whose profile is requested.
	UserID string

	// SessionLimit caps the recent sessions list. Zero means the default.
	SessionLimit int
}

// Validate checks the query parameters and applies defaults.
func (q *GetProfileQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("user_id is required: %w", shared.ErrInvalidInput)
	}
	if q.SessionLimit < 0 {
		return fmt.Errorf("session_limit cannot be negative: %w", shared.ErrInvalidInput)
	}
	if q.SessionLimit == 0 {
		q.SessionLimit = DefaultRecentSessions
	}
	return nil
}

// GetProfileResult contains the profile and recent activity.
type GetProfileResult struct {
	// Profile is the progression state.
	Profile *profile.Profile

	// LevelProgress is XP within the current level, 0-99.
	LevelProgress int

	// RecentSessions are the most recent study sessions, newest first.
	RecentSessions []*session.StudySession
}

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	profileRepo profile.Repository
	sessionRepo session.Repository
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(profileRepo profile.Repository, sessionRepo session.Repository) *GetProfileHandler {
	return &GetProfileHandler{
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
	}
}

// Handle executes the profile query.
//
// A user with no profile row reads as the zero progression state, so the
// UI can always render the profile page.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*GetProfileResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	prof, err := h.profileRepo.GetByUser(ctx, q.UserID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("get_profile: failed to get profile: %w", err)
		}
		prof = profile.Zero(q.UserID)
	}

	sessions, err := h.sessionRepo.ListByUser(ctx, q.UserID, q.SessionLimit)
	if err != nil {
		return nil, fmt.Errorf("get_profile: failed to list sessions: %w", err)
	}

	return &GetProfileResult{
		Profile:        prof,
		LevelProgress:  profile.ProgressWithinLevel(prof.TotalXP),
		RecentSessions: sessions,
	}, nil
}
