// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/leaderboard"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns the top-N ranked profiles, served read-through from the cache
// when one is configured. The returned slice is a snapshot: concurrent
// awards taken after the read are not reflected in it.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// Limit is the number of entries (default 50, maximum 100).
	Limit int

	// UserID optionally names a user whose own rank should be resolved,
	// even when they fall outside the returned page.
	UserID string
}

// Validate checks the query parameters and applies defaults.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative: %w", shared.ErrInvalidInput)
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = leaderboard.DefaultLimit
	}
	return nil
}

// GetLeaderboardResult contains the ranked entries.
type GetLeaderboardResult struct {
	// Entries are the ranked profiles, best first.
	Entries []leaderboard.Entry

	// UserRank is the requesting user's 1-based rank within the returned
	// entries, 0 when absent or no UserID was given.
	UserRank int

	// FromCache reports whether the snapshot came from the cache.
	FromCache bool
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	profileRepo profile.Repository
	cache       leaderboard.Cache
	log         *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// cache may be nil when caching is disabled.
func NewGetLeaderboardHandler(profileRepo profile.Repository, cache leaderboard.Cache, log *logger.Logger) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		profileRepo: profileRepo,
		cache:       cache,
		log:         log.With(logger.Component("leaderboard")),
	}
}

// Handle executes the leaderboard query.
//
// Cache failures are never fatal: a miss or error falls through to the
// profile store and the fresh snapshot is written back best-effort.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	if h.cache != nil {
		if entries, err := h.cache.Get(ctx, q.Limit); err == nil {
			return &GetLeaderboardResult{
				Entries:   entries,
				UserRank:  leaderboard.RankOf(entries, q.UserID),
				FromCache: true,
			}, nil
		}
	}

	profiles, err := h.profileRepo.ListByXP(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to list profiles: %w", err)
	}

	entries, err := leaderboard.Rank(profiles, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, q.Limit, entries); err != nil {
			h.log.Warn("leaderboard cache write failed", logger.Err(err))
		}
	}

	return &GetLeaderboardResult{
		Entries:  entries,
		UserRank: leaderboard.RankOf(entries, q.UserID),
	}, nil
}
