package eventhandler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/application/command"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/messaging"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

type casProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
}

func (r *casProfileRepo) GetByUser(_ context.Context, userID string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *casProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *casProfileRepo) ApplyAward(_ context.Context, p *profile.Profile, expectedXP profile.XP, _ profile.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.UserID]
	if !ok {
		if expectedXP != 0 {
			return shared.ErrProfileConflict
		}
		r.profiles[p.UserID] = p.Clone()
		return nil
	}
	if existing.TotalXP != expectedXP {
		return shared.ErrProfileConflict
	}
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *casProfileRepo) UpdateIdentity(context.Context, *profile.Profile) error { return nil }

func (r *casProfileRepo) ListByXP(context.Context, int) ([]*profile.Profile, error) {
	return nil, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(shared.Event) error { return nil }

func newHandler(repo *casProfileRepo) *OnPlanCompletedHandler {
	log := logger.New(logger.Options{Level: logger.LevelFatal})
	award := command.NewAwardCompletionHandler(repo, nil, noopPublisher{}, log, command.DefaultAwardCompletionConfig())
	return NewOnPlanCompletedHandler(award, log)
}

func TestOnPlanCompleted_AwardsXP(t *testing.T) {
	repo := &casProfileRepo{profiles: make(map[string]*profile.Profile)}
	h := newHandler(repo)

	event := shared.NewPlanCompletedEvent("plan-1", "user-1", "Mathematics", time.Now().UTC())
	require.NoError(t, h.Handle(event))

	stored, err := repo.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile.XP(50), stored.TotalXP)
	assert.Equal(t, 1, stored.CurrentStreak)
}

func TestOnPlanCompleted_IgnoresStatusAnnouncements(t *testing.T) {
	repo := &casProfileRepo{profiles: make(map[string]*profile.Profile)}
	h := newHandler(repo)

	// Same event type, different concrete type: no award.
	announcement := shared.NewPlanStatusChangedEvent(
		shared.EventPlanCompleted, "plan-1", "user-1", "in_progress", "completed",
	)
	require.NoError(t, h.Handle(announcement))

	_, err := repo.GetByUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// stuckProfileRepo refuses every award, as a store out of retries would.
type stuckProfileRepo struct {
	casProfileRepo
}

func (r *stuckProfileRepo) ApplyAward(context.Context, *profile.Profile, profile.XP, profile.SessionRecord) error {
	return shared.ErrProfileConflict
}

type singlePlanRepo struct {
	mu sync.Mutex
	p  *plan.StudyPlan
}

func (r *singlePlanRepo) Create(_ context.Context, p *plan.StudyPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p.Clone()
	return nil
}

func (r *singlePlanRepo) GetByID(_ context.Context, id string) (*plan.StudyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.p == nil || r.p.ID != id {
		return nil, shared.ErrPlanNotFound
	}
	return r.p.Clone(), nil
}

func (r *singlePlanRepo) ListByUser(context.Context, string) ([]*plan.StudyPlan, error) {
	return nil, nil
}

func (r *singlePlanRepo) UpdateStatus(_ context.Context, id string, status plan.Status, completedAt *time.Time) (*plan.StudyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.p == nil || r.p.ID != id {
		return nil, shared.ErrPlanNotFound
	}
	r.p.Status = status
	r.p.CompletedAt = completedAt
	return r.p.Clone(), nil
}

func (r *singlePlanRepo) CountByStatus(context.Context, string) (map[plan.Status]int, error) {
	return nil, nil
}

// A completion transition over a synchronous bus must not report success
// when the award behind it fails.
func TestTransitionOverSyncBus_AwardFailureSurfaces(t *testing.T) {
	log := logger.New(logger.Options{Level: logger.LevelFatal})

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    log,
	})
	defer bus.Close()

	profiles := &stuckProfileRepo{casProfileRepo{profiles: make(map[string]*profile.Profile)}}
	award := command.NewAwardCompletionHandler(profiles, nil, bus, log, command.DefaultAwardCompletionConfig())
	require.NoError(t, NewOnPlanCompletedHandler(award, log).Register(bus))

	planRepo := &singlePlanRepo{}
	p, err := plan.NewStudyPlan(plan.NewPlanParams{
		ID:             "plan-1",
		UserID:         "user-1",
		Title:          "Linear Algebra",
		EstimatedHours: 4,
	})
	require.NoError(t, err)
	require.NoError(t, planRepo.Create(context.Background(), p))

	transition := command.NewTransitionPlanHandler(planRepo, bus)

	_, err = transition.Handle(context.Background(), command.TransitionPlanCommand{
		PlanID: "plan-1",
		UserID: "user-1",
		Target: plan.StatusInProgress,
	})
	require.NoError(t, err)

	_, err = transition.Handle(context.Background(), command.TransitionPlanCommand{
		PlanID: "plan-1",
		UserID: "user-1",
		Target: plan.StatusCompleted,
	})
	require.Error(t, err, "failed award must not look like a completed transition")
	assert.ErrorIs(t, err, shared.ErrProfileConflict)

	_, err = profiles.GetByUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, shared.ErrNotFound, "no XP may have been granted")
}
