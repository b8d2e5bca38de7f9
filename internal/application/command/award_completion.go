package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/leaderboard"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/session"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
	"github.com/studyplan-hub/studyplan-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD COMPLETION COMMAND
// The progression engine: grants XP for a completed plan, recomputes the
// level, extends the streak, and appends the audit session record. The
// whole read-compute-write cycle runs under optimistic concurrency: the
// write carries the total_xp the engine read, and a concurrent award
// forces a re-read and re-compute instead of a lost update.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultXPPerCompletion is the XP granted per completed study plan.
const DefaultXPPerCompletion = 50

// AwardCompletionCommand contains the data to award a completion.
type AwardCompletionCommand struct {
	// UserID is the user being awarded.
	UserID string

	// PlanID is the completed plan, recorded for tracing.
	PlanID string

	// Amount is the XP to grant. Zero means the configured default.
	Amount int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardCompletionCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("award_completion: user_id is required: %w", shared.ErrInvalidInput)
	}
	if c.Amount < 0 {
		return fmt.Errorf("award_completion: amount cannot be negative: %w", shared.ErrInvalidInput)
	}
	return nil
}

// AwardCompletionResult contains the outcome of an award.
type AwardCompletionResult struct {
	// Profile is the profile after the award.
	Profile *profile.Profile

	// Award describes the progression delta.
	Award profile.Award

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardCompletionConfig contains configuration for the handler.
type AwardCompletionConfig struct {
	// XPPerCompletion is the default XP grant.
	XPPerCompletion int

	// SessionMinutes is the duration recorded on the audit session.
	SessionMinutes int

	// MaxRetries bounds retries on optimistic-lock conflicts.
	MaxRetries int
}

// DefaultAwardCompletionConfig returns default configuration.
func DefaultAwardCompletionConfig() AwardCompletionConfig {
	return AwardCompletionConfig{
		XPPerCompletion: DefaultXPPerCompletion,
		SessionMinutes:  session.DefaultDurationMinutes,
		MaxRetries:      5,
	}
}

// AwardCompletionHandler handles the AwardCompletionCommand.
type AwardCompletionHandler struct {
	profileRepo    profile.Repository
	cache          leaderboard.Cache
	eventPublisher shared.EventPublisher
	log            *logger.Logger
	config         AwardCompletionConfig
}

// NewAwardCompletionHandler creates a new AwardCompletionHandler.
// cache may be nil when leaderboard caching is disabled.
func NewAwardCompletionHandler(
	profileRepo profile.Repository,
	cache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
	config AwardCompletionConfig,
) *AwardCompletionHandler {
	if config.XPPerCompletion == 0 {
		config = DefaultAwardCompletionConfig()
	}
	if log == nil {
		log = logger.Default()
	}

	return &AwardCompletionHandler{
		profileRepo:    profileRepo,
		cache:          cache,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("progression")),
		config:         config,
	}
}

// Handle executes the award command.
//
// Each attempt re-reads the profile, applies the award to the fresh copy,
// and writes back conditioned on the previously read total_xp. A conflict
// means another completion landed in between; the attempt is discarded and
// the cycle runs again against the new state, so concurrent awards always
// sum instead of overwriting each other.
func (h *AwardCompletionHandler) Handle(ctx context.Context, cmd AwardCompletionCommand) (*AwardCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("award_completion: validation failed: %w", err)
	}

	amount := profile.XP(cmd.Amount)
	if amount == 0 {
		amount = profile.XP(h.config.XPPerCompletion)
	}

	var (
		prof  *profile.Profile
		award profile.Award
	)

	attempt := func(ctx context.Context) error {
		var err error
		prof, award, err = h.attemptAward(ctx, cmd, amount)
		return err
	}

	err := retry.Do(ctx, attempt,
		retry.WithMaxAttempts(h.config.MaxRetries),
		retry.WithInitialDelay(5*time.Millisecond),
		retry.WithMaxDelay(200*time.Millisecond),
		retry.WithJitter(0.3),
		retry.WithOnRetry(func(n int, err error, _ time.Duration) {
			h.log.Warn("award conflict, retrying",
				logger.UserID(cmd.UserID), logger.Int("attempt", n), logger.Err(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("award_completion: %w", err)
	}

	result := &AwardCompletionResult{
		Profile: prof,
		Award:   award,
		Events:  h.buildEvents(cmd, award),
	}

	// The award is already persisted; announcement failures must not undo it.
	for _, e := range result.Events {
		if err := h.eventPublisher.Publish(e); err != nil {
			h.log.Warn("failed to publish award event",
				logger.String("event_type", string(e.EventType())), logger.Err(err))
		}
	}

	// A new total reshuffles the rankings; drop any cached snapshot.
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.log.Warn("leaderboard cache invalidation failed", logger.Err(err))
		}
	}

	h.log.Info("completion awarded",
		logger.UserID(cmd.UserID),
		logger.PlanID(cmd.PlanID),
		logger.XPAmount(int(award.Amount)),
		logger.LevelValue(int(award.NewLevel)),
	)

	return result, nil
}

// attemptAward runs one read-compute-write cycle.
func (h *AwardCompletionHandler) attemptAward(
	ctx context.Context,
	cmd AwardCompletionCommand,
	amount profile.XP,
) (*profile.Profile, profile.Award, error) {
	prof, err := h.profileRepo.GetByUser(ctx, cmd.UserID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, profile.Award{}, fmt.Errorf("failed to get profile: %w", err)
		}
		// First ever award for this user: start from the zero state and
		// let the store create the row.
		prof = profile.Zero(cmd.UserID)
	}

	expected := prof.TotalXP

	award, err := prof.ApplyCompletion(amount)
	if err != nil {
		return nil, profile.Award{}, err
	}

	record := profile.SessionRecord{
		ID:              uuid.New().String(),
		UserID:          cmd.UserID,
		DurationMinutes: h.config.SessionMinutes,
		XPEarned:        int(award.Amount),
		SessionType:     session.TypeStudy,
	}

	if err := h.profileRepo.ApplyAward(ctx, prof, expected, record); err != nil {
		if errors.Is(err, shared.ErrOptimisticLock) {
			return nil, profile.Award{}, retry.Retryable(err)
		}
		return nil, profile.Award{}, fmt.Errorf("failed to persist award: %w", err)
	}

	return prof, award, nil
}

// buildEvents assembles the events for a successful award.
func (h *AwardCompletionHandler) buildEvents(cmd AwardCompletionCommand, award profile.Award) []shared.Event {
	events := make([]shared.Event, 0, 3)

	xpEvent := shared.NewXPAwardedEvent(cmd.UserID, int(award.Amount), int(award.NewTotal), cmd.PlanID)
	if cmd.CorrelationID != "" {
		xpEvent.BaseEvent = xpEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	events = append(events, xpEvent)

	if award.LeveledUp() {
		levelEvent := shared.NewLevelUpEvent(cmd.UserID, int(award.OldLevel), int(award.NewLevel))
		if cmd.CorrelationID != "" {
			levelEvent.BaseEvent = levelEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		events = append(events, levelEvent)
	}

	streakEvent := shared.NewStreakExtendedEvent(cmd.UserID, award.Streak, award.LongestStreak)
	if cmd.CorrelationID != "" {
		streakEvent.BaseEvent = streakEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	events = append(events, streakEvent)

	return events
}
