// Package leaderboard produces the deterministic ranking view over all
// progression profiles. Ranking is a pure read: it has no side effects
// and never mutates the profiles it is given.
package leaderboard

import (
	"context"
	"sort"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// DefaultLimit is the number of entries returned when no limit is given.
const DefaultLimit = 50

// PodiumSize is the number of top ranks presented as a podium.
const PodiumSize = 3

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one row of the leaderboard: a 1-based rank and the profile
// snapshot it was computed from.
type Entry struct {
	// Rank is the position in the ordering, starting at 1, contiguous.
	Rank int

	// Profile is the ranked profile snapshot.
	Profile *profile.Profile
}

// IsPodium reports whether the entry is in the top three. Presentation
// only; podium entries carry no different data contract.
func (e Entry) IsPodium() bool {
	return e.Rank >= 1 && e.Rank <= PodiumSize
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKER
// ══════════════════════════════════════════════════════════════════════════════

// Rank orders the given profiles by total XP descending and assigns
// contiguous 1-based ranks, truncated to limit entries.
//
// Tie-break for equal total XP: profile creation time ascending (the
// longer-standing profile ranks higher), then user ID ascending. This
// makes the ordering fully deterministic.
func Rank(profiles []*profile.Profile, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, shared.ErrInvalidLimit
	}

	sorted := make([]*profile.Profile, len(profiles))
	copy(sorted, profiles)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalXP != b.TotalXP {
			return a.TotalXP > b.TotalXP
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.UserID < b.UserID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]Entry, len(sorted))
	for i, p := range sorted {
		entries[i] = Entry{Rank: i + 1, Profile: p}
	}

	return entries, nil
}

// RankOf returns the 1-based rank of the given user within the entries,
// or 0 when the user is not ranked.
func RankOf(entries []Entry, userID string) int {
	for _, e := range entries {
		if e.Profile.UserID == userID {
			return e.Rank
		}
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines the optional read-through cache for ranked snapshots.
// Implementations live in infrastructure (Redis). A cache failure is
// never fatal: readers fall through to the profile store.
type Cache interface {
	// Get returns the cached entries for limit, or shared.ErrNotFound
	// on a miss.
	Get(ctx context.Context, limit int) ([]Entry, error)

	// Set stores entries for limit with the cache's configured TTL.
	Set(ctx context.Context, limit int, entries []Entry) error

	// Invalidate drops all cached rankings. Called after XP awards.
	Invalidate(ctx context.Context) error
}
