package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/leaderboard"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

func newAwardHandler(repo *memProfileRepo, cache leaderboard.Cache, pub *memPublisher) *AwardCompletionHandler {
	return newAwardHandlerWithConfig(repo, cache, pub, DefaultAwardCompletionConfig())
}

func newAwardHandlerWithConfig(repo *memProfileRepo, cache leaderboard.Cache, pub *memPublisher, cfg AwardCompletionConfig) *AwardCompletionHandler {
	return NewAwardCompletionHandler(repo, cache, pub, logger.New(logger.Options{Level: logger.LevelFatal}), cfg)
}

func TestAwardCompletion_FirstAwardCreatesProfile(t *testing.T) {
	repo := newMemProfileRepo()
	pub := &memPublisher{}
	h := newAwardHandler(repo, nil, pub)

	result, err := h.Handle(context.Background(), AwardCompletionCommand{
		UserID: "user-1",
		PlanID: "plan-1",
	})
	require.NoError(t, err)

	assert.Equal(t, profile.XP(50), result.Profile.TotalXP)
	assert.Equal(t, profile.Level(1), result.Profile.Level)
	assert.Equal(t, 1, result.Profile.CurrentStreak)
	assert.Equal(t, 1, repo.sessionCount())

	stored, err := repo.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile.XP(50), stored.TotalXP)
}

func TestAwardCompletion_SecondAwardLevelsUp(t *testing.T) {
	repo := newMemProfileRepo()
	pub := &memPublisher{}
	h := newAwardHandler(repo, nil, pub)

	_, err := h.Handle(context.Background(), AwardCompletionCommand{UserID: "user-1", PlanID: "plan-1"})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), AwardCompletionCommand{UserID: "user-1", PlanID: "plan-2"})
	require.NoError(t, err)

	assert.Equal(t, profile.XP(100), result.Profile.TotalXP)
	assert.Equal(t, profile.Level(2), result.Profile.Level)
	assert.True(t, result.Award.LeveledUp())
	assert.Equal(t, 2, result.Profile.CurrentStreak)

	assert.Len(t, pub.byType(shared.EventXPAwarded), 2)
	assert.Len(t, pub.byType(shared.EventLevelUp), 1)
	assert.Len(t, pub.byType(shared.EventStreakExtended), 2)
}

func TestAwardCompletion_ConcurrentAwardsSum(t *testing.T) {
	const workers = 8

	repo := newMemProfileRepo()
	pub := &memPublisher{}

	// Worst case every worker loses the compare-and-set race to all of its
	// peers, so the retry budget must cover the worker count.
	cfg := DefaultAwardCompletionConfig()
	cfg.MaxRetries = 2 * workers
	h := newAwardHandlerWithConfig(repo, nil, pub, cfg)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), AwardCompletionCommand{
				UserID: "user-1",
				PlanID: "plan",
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	stored, err := repo.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile.XP(50*workers), stored.TotalXP, "no award may be lost")
	assert.Equal(t, workers, stored.CurrentStreak)
	assert.Equal(t, workers, repo.sessionCount())
}

func TestAwardCompletion_InvalidatesLeaderboardCache(t *testing.T) {
	repo := newMemProfileRepo()
	cache := &memCache{}
	h := newAwardHandler(repo, cache, &memPublisher{})

	_, err := h.Handle(context.Background(), AwardCompletionCommand{UserID: "user-1", PlanID: "plan-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.count())
}

func TestAwardCompletion_CustomAmount(t *testing.T) {
	repo := newMemProfileRepo()
	h := newAwardHandler(repo, nil, &memPublisher{})

	result, err := h.Handle(context.Background(), AwardCompletionCommand{
		UserID: "user-1",
		PlanID: "plan-1",
		Amount: 130,
	})
	require.NoError(t, err)
	assert.Equal(t, profile.XP(130), result.Profile.TotalXP)
	assert.Equal(t, profile.Level(2), result.Profile.Level)
}

func TestAwardCompletion_Validation(t *testing.T) {
	h := newAwardHandler(newMemProfileRepo(), nil, &memPublisher{})

	_, err := h.Handle(context.Background(), AwardCompletionCommand{})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), AwardCompletionCommand{UserID: "u", Amount: -5})
	assert.Error(t, err)
}
