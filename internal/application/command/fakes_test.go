package command

import (
	"context"
	"sync"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/leaderboard"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// memPlanRepo is an in-memory plan.Repository.
type memPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*plan.StudyPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[string]*plan.StudyPlan)}
}

func (r *memPlanRepo) Create(_ context.Context, p *plan.StudyPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.ID]; ok {
		return shared.ErrPlanAlreadyExists
	}
	r.plans[p.ID] = p.Clone()
	return nil
}

func (r *memPlanRepo) GetByID(_ context.Context, id string) (*plan.StudyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, shared.ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (r *memPlanRepo) ListByUser(_ context.Context, userID string) ([]*plan.StudyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*plan.StudyPlan
	for _, p := range r.plans {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memPlanRepo) UpdateStatus(_ context.Context, id string, status plan.Status, completedAt *time.Time) (*plan.StudyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, shared.ErrPlanNotFound
	}
	p.Status = status
	p.CompletedAt = completedAt
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}

func (r *memPlanRepo) CountByStatus(_ context.Context, userID string) (map[plan.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[plan.Status]int)
	for _, p := range r.plans {
		if p.UserID == userID {
			counts[p.Status]++
		}
	}
	return counts, nil
}

// memProfileRepo is an in-memory profile.Repository with the same
// compare-and-set semantics as the Postgres implementation.
type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
	sessions []profile.SessionRecord
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*profile.Profile)}
}

func (r *memProfileRepo) GetByUser(_ context.Context, userID string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *memProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; ok {
		return shared.ErrProfileExists
	}
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *memProfileRepo) ApplyAward(_ context.Context, p *profile.Profile, expectedXP profile.XP, rec profile.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.profiles[p.UserID]
	if !ok {
		if expectedXP != 0 {
			return shared.ErrProfileConflict
		}
		r.profiles[p.UserID] = p.Clone()
		r.sessions = append(r.sessions, rec)
		return nil
	}

	if existing.TotalXP != expectedXP {
		return shared.ErrProfileConflict
	}

	r.profiles[p.UserID] = p.Clone()
	r.sessions = append(r.sessions, rec)
	return nil
}

func (r *memProfileRepo) UpdateIdentity(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.UserID]
	if !ok {
		return shared.ErrProfileNotFound
	}
	existing.Username = p.Username
	existing.DisplayName = p.DisplayName
	existing.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *memProfileRepo) ListByXP(_ context.Context, limit int) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memProfileRepo) sessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// memPublisher records published events.
type memPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// memCache counts leaderboard invalidations.
type memCache struct {
	mu            sync.Mutex
	invalidations int
}

var _ leaderboard.Cache = (*memCache)(nil)

func (c *memCache) Get(context.Context, int) ([]leaderboard.Entry, error) {
	return nil, shared.ErrNotFound
}

func (c *memCache) Set(context.Context, int, []leaderboard.Entry) error { return nil }

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	return nil
}

func (c *memCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}
