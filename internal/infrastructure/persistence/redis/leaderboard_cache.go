package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/leaderboard"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache on Redis.
//
// Rankings are stored as one JSON document per requested limit under
// "leaderboard:top:{limit}". Awards invalidate every stored limit, so a
// stale ranking never outlives the next XP change by more than the TTL.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// keyLeaderboardTop is the key prefix for cached rankings, suffixed by limit.
const keyLeaderboardTop = PrefixLeaderboard + "top:"

// NewLeaderboardCache creates a new LeaderboardCache. A non-positive ttl
// falls back to TTLLeaderboardCache.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// cachedEntry is the wire form of a leaderboard entry.
type cachedEntry struct {
	Rank          int       `json:"rank"`
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	TotalXP       int       `json:"total_xp"`
	Level         int       `json:"level"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Get returns the cached ranking for limit, or shared.ErrNotFound on a miss.
func (l *LeaderboardCache) Get(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	var cached []cachedEntry
	err := l.cache.Get(ctx, l.key(limit), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cached leaderboard: %w", err)
	}

	entries := make([]leaderboard.Entry, len(cached))
	for i, c := range cached {
		entries[i] = leaderboard.Entry{
			Rank: c.Rank,
			Profile: &profile.Profile{
				UserID:        c.UserID,
				Username:      c.Username,
				DisplayName:   c.DisplayName,
				TotalXP:       profile.XP(c.TotalXP),
				Level:         profile.Level(c.Level),
				CurrentStreak: c.CurrentStreak,
				LongestStreak: c.LongestStreak,
				CreatedAt:     c.CreatedAt,
				UpdatedAt:     c.UpdatedAt,
			},
		}
	}

	return entries, nil
}

// Set stores the ranking for limit with the configured TTL.
func (l *LeaderboardCache) Set(ctx context.Context, limit int, entries []leaderboard.Entry) error {
	cached := make([]cachedEntry, len(entries))
	for i, e := range entries {
		cached[i] = cachedEntry{
			Rank:          e.Rank,
			UserID:        e.Profile.UserID,
			Username:      e.Profile.Username,
			DisplayName:   e.Profile.DisplayName,
			TotalXP:       int(e.Profile.TotalXP),
			Level:         int(e.Profile.Level),
			CurrentStreak: e.Profile.CurrentStreak,
			LongestStreak: e.Profile.LongestStreak,
			CreatedAt:     e.Profile.CreatedAt,
			UpdatedAt:     e.Profile.UpdatedAt,
		}
	}

	if err := l.cache.Set(ctx, l.key(limit), cached, l.ttl); err != nil {
		return fmt.Errorf("failed to cache leaderboard: %w", err)
	}

	return nil
}

// Invalidate drops every cached ranking regardless of limit.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := l.cache.DeleteByPattern(ctx, keyLeaderboardTop+"*"); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

func (l *LeaderboardCache) key(limit int) string {
	return fmt.Sprintf("%s%d", keyLeaderboardTop, limit)
}
