package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST PLANS QUERY
// Returns a user's study plans, optionally filtered by status.
// ══════════════════════════════════════════════════════════════════════════════

// ListPlansQuery contains the plan list request parameters.
type ListPlansQuery struct {
	// UserID is the owner whose plans are listed.
	UserID string

	// Status optionally filters to a single lifecycle status.
	Status plan.Status
}

// Validate checks the query parameters.
func (q *ListPlansQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("user_id is required: %w", shared.ErrInvalidInput)
	}
	if q.Status != "" && !q.Status.IsValid() {
		return fmt.Errorf("unknown plan status %q: %w", string(q.Status), shared.ErrInvalidInput)
	}
	return nil
}

// ListPlansResult contains the plan list.
type ListPlansResult struct {
	// Plans are the user's plans, newest first.
	Plans []*plan.StudyPlan
}

// ListPlansHandler handles the ListPlansQuery.
type ListPlansHandler struct {
	planRepo plan.Repository
}

// NewListPlansHandler creates a new ListPlansHandler.
func NewListPlansHandler(planRepo plan.Repository) *ListPlansHandler {
	return &ListPlansHandler{planRepo: planRepo}
}

// Handle executes the query.
func (h *ListPlansHandler) Handle(ctx context.Context, q ListPlansQuery) (*ListPlansResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("list_plans: %w", err)
	}

	plans, err := h.planRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("list_plans: failed to list plans: %w", err)
	}

	if q.Status != "" {
		filtered := plans[:0]
		for _, p := range plans {
			if p.Status == q.Status {
				filtered = append(filtered, p)
			}
		}
		plans = filtered
	}

	// Newest first regardless of repository ordering.
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})

	return &ListPlansResult{Plans: plans}, nil
}
