package plan

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage contract for study plans.
type Repository interface {
	// Create inserts a new study plan.
	// Returns shared.ErrPlanAlreadyExists if the ID is taken.
	Create(ctx context.Context, p *StudyPlan) error

	// GetByID returns a plan by its ID.
	// Returns shared.ErrPlanNotFound when absent.
	GetByID(ctx context.Context, id string) (*StudyPlan, error)

	// ListByUser returns all plans of a user, newest first (created_at desc).
	ListByUser(ctx context.Context, userID string) ([]*StudyPlan, error)

	// UpdateStatus persists a status change together with completed_at.
	// completedAt must be nil unless status is StatusCompleted.
	// Returns shared.ErrPlanNotFound when the plan is absent.
	UpdateStatus(ctx context.Context, id string, status Status, completedAt *time.Time) (*StudyPlan, error)

	// CountByStatus returns the number of plans per status for a user.
	CountByStatus(ctx context.Context, userID string) (map[Status]int, error)
}
