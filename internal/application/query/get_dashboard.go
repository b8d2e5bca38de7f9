package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/profile"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/session"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Assembles the dashboard summary for one user: progression state, plan
// counts, today's and this week's study activity, and the plan list.
// A user with no profile row yet reads as the zero progression state,
// never as an error.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery contains the dashboard request parameters.
type GetDashboardQuery struct {
	// UserID is the user whose dashboard is requested.
	UserID string

	// IncludePlans controls whether the full plan list is returned.
	IncludePlans bool
}

// Validate checks the query parameters.
func (q *GetDashboardQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("user_id is required: %w", shared.ErrInvalidInput)
	}
	return nil
}

// GetDashboardResult contains the assembled dashboard.
type GetDashboardResult struct {
	// Profile is the user's progression state.
	Profile *profile.Profile

	// LevelProgress is XP within the current level, 0-99.
	LevelProgress int

	// PlanCounts maps each status to the number of plans in it.
	PlanCounts map[plan.Status]int

	// TotalPlans is the sum over all statuses.
	TotalPlans int

	// SessionsToday is the number of study sessions recorded today.
	SessionsToday int

	// SessionsThisWeek is the number of study sessions since Monday.
	SessionsThisWeek int

	// OverduePlans counts plans past their due date and not completed.
	OverduePlans int

	// Plans is the user's plan list, newest first. Nil unless requested.
	Plans []*plan.StudyPlan
}

// GetDashboardHandler handles the GetDashboardQuery.
type GetDashboardHandler struct {
	profileRepo profile.Repository
	planRepo    plan.Repository
	sessionRepo session.Repository
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(
	profileRepo profile.Repository,
	planRepo plan.Repository,
	sessionRepo session.Repository,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		profileRepo: profileRepo,
		planRepo:    planRepo,
		sessionRepo: sessionRepo,
	}
}

// Handle executes the dashboard query.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*GetDashboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_dashboard: %w", err)
	}

	prof, err := h.profileRepo.GetByUser(ctx, q.UserID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("get_dashboard: failed to get profile: %w", err)
		}
		prof = profile.Zero(q.UserID)
	}

	counts, err := h.planRepo.CountByStatus(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: failed to count plans: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	now := timeutil.Now()

	sessionsToday, err := h.sessionRepo.CountSince(ctx, q.UserID, timeutil.StartOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: failed to count sessions: %w", err)
	}

	sessionsThisWeek, err := h.sessionRepo.CountSince(ctx, q.UserID, timeutil.StartOfWeek(now))
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: failed to count sessions: %w", err)
	}

	result := &GetDashboardResult{
		Profile:          prof,
		LevelProgress:    profile.ProgressWithinLevel(prof.TotalXP),
		PlanCounts:       counts,
		TotalPlans:       total,
		SessionsToday:    sessionsToday,
		SessionsThisWeek: sessionsThisWeek,
	}

	if q.IncludePlans {
		plans, err := h.planRepo.ListByUser(ctx, q.UserID)
		if err != nil {
			return nil, fmt.Errorf("get_dashboard: failed to list plans: %w", err)
		}
		sort.SliceStable(plans, func(i, j int) bool {
			return plans[i].CreatedAt.After(plans[j].CreatedAt)
		})
		result.Plans = plans
		for _, p := range plans {
			if p.IsOverdue(now) {
				result.OverduePlans++
			}
		}
	}

	return result, nil
}
