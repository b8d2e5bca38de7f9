package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

func testProfile(userID string, xp int, createdAt time.Time) *profile.Profile {
	p := profile.Zero(userID)
	p.TotalXP = profile.XP(xp)
	p.Level = profile.CalculateLevel(p.TotalXP)
	p.CreatedAt = createdAt
	return p
}

func TestRank_OrdersByXPDescending(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles := []*profile.Profile{
		testProfile("low", 50, base),
		testProfile("high", 500, base),
		testProfile("mid", 250, base),
	}

	entries, err := Rank(profiles, DefaultLimit)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "high", entries[0].Profile.UserID)
	assert.Equal(t, "mid", entries[1].Profile.UserID)
	assert.Equal(t, "low", entries[2].Profile.UserID)

	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank, "ranks must be contiguous and 1-based")
	}
}

func TestRank_TieBreakByCreationTimeThenUserID(t *testing.T) {
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	profiles := []*profile.Profile{
		{UserID: "newer", TotalXP: 300, CreatedAt: late},
		{UserID: "older", TotalXP: 300, CreatedAt: early},
		{UserID: "b", TotalXP: 300, CreatedAt: late},
	}

	entries, err := Rank(profiles, DefaultLimit)
	require.NoError(t, err)

	assert.Equal(t, "older", entries[0].Profile.UserID)
	// Same XP and same creation time: user ID decides.
	assert.Equal(t, "b", entries[1].Profile.UserID)
	assert.Equal(t, "newer", entries[2].Profile.UserID)
}

func TestRank_TruncatesToLimit(t *testing.T) {
	base := time.Now().UTC()
	profiles := make([]*profile.Profile, 0, 60)
	for i := 0; i < 60; i++ {
		profiles = append(profiles, testProfile(string(rune('a'+i%26))+string(rune('0'+i/26)), i*10, base))
	}

	entries, err := Rank(profiles, 50)
	require.NoError(t, err)

	assert.Len(t, entries, 50)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 50, entries[49].Rank)

	// Strictly descending XP across distinct values.
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Profile.TotalXP, entries[i].Profile.TotalXP)
	}
}

func TestRank_RejectsNonPositiveLimit(t *testing.T) {
	_, err := Rank(nil, 0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = Rank(nil, -1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestRank_EmptyInput(t *testing.T) {
	entries, err := Rank(nil, DefaultLimit)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	base := time.Now().UTC()
	profiles := []*profile.Profile{
		testProfile("a", 10, base),
		testProfile("b", 20, base),
	}

	_, err := Rank(profiles, DefaultLimit)
	require.NoError(t, err)

	assert.Equal(t, "a", profiles[0].UserID, "input order must be preserved")
	assert.Equal(t, "b", profiles[1].UserID)
}

func TestEntry_IsPodium(t *testing.T) {
	assert.True(t, Entry{Rank: 1}.IsPodium())
	assert.True(t, Entry{Rank: 3}.IsPodium())
	assert.False(t, Entry{Rank: 4}.IsPodium())
}

func TestRankOf(t *testing.T) {
	base := time.Now().UTC()
	entries, err := Rank([]*profile.Profile{
		testProfile("a", 100, base),
		testProfile("b", 200, base),
	}, DefaultLimit)
	require.NoError(t, err)

	assert.Equal(t, 1, RankOf(entries, "b"))
	assert.Equal(t, 2, RankOf(entries, "a"))
	assert.Equal(t, 0, RankOf(entries, "missing"))
}
