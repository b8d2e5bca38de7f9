package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		xp    XP
		level Level
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{130, 2},
		{199, 2},
		{200, 3},
		{1000, 11},
		{-5, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, CalculateLevel(tt.xp), "xp=%d", tt.xp)
	}
}

func TestProgressWithinLevel(t *testing.T) {
	assert.Equal(t, 0, ProgressWithinLevel(0))
	assert.Equal(t, 30, ProgressWithinLevel(130))
	assert.Equal(t, 99, ProgressWithinLevel(199))
}

func TestApplyCompletion_ReferenceAward(t *testing.T) {
	// total_xp=80 plus the fixed 50 XP award: 130 total, level 2.
	p := Zero("user-1")
	_, err := p.ApplyCompletion(80)
	require.NoError(t, err)

	award, err := p.ApplyCompletion(50)
	require.NoError(t, err)

	assert.Equal(t, XP(130), p.TotalXP)
	assert.Equal(t, Level(2), p.Level)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, XP(80), award.OldTotal)
	assert.Equal(t, XP(130), award.NewTotal)
	assert.True(t, award.LeveledUp())
	assert.NoError(t, p.Validate())
}

func TestApplyCompletion_RejectsNonPositiveAmount(t *testing.T) {
	p := Zero("user-1")

	_, err := p.ApplyCompletion(0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = p.ApplyCompletion(-10)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	assert.Equal(t, XP(0), p.TotalXP, "rejected award must not mutate")
	assert.Equal(t, 0, p.CurrentStreak)
}

func TestApplyCompletion_StreakIncrementsUnconditionally(t *testing.T) {
	p := Zero("user-1")

	for i := 1; i <= 5; i++ {
		award, err := p.ApplyCompletion(50)
		require.NoError(t, err)
		assert.Equal(t, i, award.Streak)
		assert.Equal(t, i, award.LongestStreak)
	}
}

func TestApplyCompletion_LongestStreakPreserved(t *testing.T) {
	p := Zero("user-1")
	p.CurrentStreak = 2
	p.LongestStreak = 9

	award, err := p.ApplyCompletion(50)
	require.NoError(t, err)

	assert.Equal(t, 3, award.Streak)
	assert.Equal(t, 9, award.LongestStreak, "shorter streak must not shrink the record")
	assert.GreaterOrEqual(t, p.LongestStreak, p.CurrentStreak)
	assert.NoError(t, p.Validate())
}

func TestInvariants_HoldAcrossAwardSequences(t *testing.T) {
	p := Zero("user-1")
	prevXP := p.TotalXP

	amounts := []XP{50, 50, 25, 100, 1, 50}
	for _, amount := range amounts {
		_, err := p.ApplyCompletion(amount)
		require.NoError(t, err)

		assert.Equal(t, CalculateLevel(p.TotalXP), p.Level)
		assert.GreaterOrEqual(t, p.LongestStreak, p.CurrentStreak)
		assert.GreaterOrEqual(t, p.TotalXP, prevXP, "total xp never decreases")
		prevXP = p.TotalXP
	}
}

func TestValidate_CatchesBrokenInvariants(t *testing.T) {
	p := Zero("user-1")
	p.TotalXP = 250
	p.Level = 1 // stale derivation
	assert.Error(t, p.Validate())

	p = Zero("user-1")
	p.CurrentStreak = 5
	p.LongestStreak = 3
	assert.Error(t, p.Validate())

	p = Zero("user-1")
	p.TotalXP = -1
	assert.Error(t, p.Validate())
}

func TestNewProfile_TrimsNames(t *testing.T) {
	p, err := NewProfile("user-1", "  scholar ", " Ada Lovelace ")
	require.NoError(t, err)

	assert.Equal(t, "scholar", p.Username)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
	assert.Equal(t, Level(1), p.Level)

	_, err = NewProfile("", "a", "b")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestRename_DoesNotTouchProgression(t *testing.T) {
	p := Zero("user-1")
	_, err := p.ApplyCompletion(130)
	require.NoError(t, err)

	require.NoError(t, p.Rename("newname", "New Name"))

	assert.Equal(t, XP(130), p.TotalXP)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, "newname", p.Username)
}
