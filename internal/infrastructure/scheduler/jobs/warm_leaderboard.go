// Package jobs contains the scheduled jobs run by the scheduler.
package jobs

import (
	"context"
	"fmt"

	"github.com/studyplan-hub/studyplan-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// WarmLeaderboardJob keeps the leaderboard cache populated so reads after an
// invalidation rarely fall through to PostgreSQL. The job reads through the
// normal query path, which re-fills the cache on a miss.
type WarmLeaderboardJob struct {
	leaderboard *query.GetLeaderboardHandler
	limit       int
}

// NewWarmLeaderboardJob creates a new WarmLeaderboardJob warming the top
// limit entries.
func NewWarmLeaderboardJob(leaderboard *query.GetLeaderboardHandler, limit int) *WarmLeaderboardJob {
	return &WarmLeaderboardJob{
		leaderboard: leaderboard,
		limit:       limit,
	}
}

// Name returns the unique name of the job.
func (j *WarmLeaderboardJob) Name() string {
	return "warm_leaderboard"
}

// Description returns a human-readable description of the job.
func (j *WarmLeaderboardJob) Description() string {
	return fmt.Sprintf("warms the leaderboard cache with the top %d entries", j.limit)
}

// Run executes the job.
func (j *WarmLeaderboardJob) Run(ctx context.Context) error {
	_, err := j.leaderboard.Handle(ctx, query.GetLeaderboardQuery{Limit: j.limit})
	if err != nil {
		return fmt.Errorf("failed to warm leaderboard cache: %w", err)
	}
	return nil
}
