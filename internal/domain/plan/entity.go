// Package plan contains the study plan domain model and its lifecycle
// state machine. This is pure business logic with no external dependencies.
package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Status defines the lifecycle status of a study plan.
type Status string

const (
	// StatusPending - plan is created but not started yet.
	StatusPending Status = "pending"
	// StatusInProgress - plan is actively being worked on.
	StatusInProgress Status = "in_progress"
	// StatusPaused - plan is temporarily on hold.
	StatusPaused Status = "paused"
	// StatusCompleted - plan is finished. Terminal status.
	StatusCompleted Status = "completed"
)

// IsValid reports whether the status is one of the four known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPaused, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition leads out of this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Priority defines how urgent a study plan is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE STATE MACHINE
// ══════════════════════════════════════════════════════════════════════════════

// legalEdges enumerates every allowed (current, target) status pair.
// pending → in_progress → completed, with in_progress ⇄ paused.
// There is no edge out of completed and no shortcut from pending.
var legalEdges = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusPaused},
	StatusPaused:     {StatusInProgress},
	StatusCompleted:  {},
}

// CanTransition reports whether the edge from → to is legal.
// A same-status transition is not a legal edge; callers treat it as a no-op.
func CanTransition(from, to Status) bool {
	for _, allowed := range legalEdges[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDY PLAN
// ══════════════════════════════════════════════════════════════════════════════

// StudyPlan is the aggregate for a single unit of planned study work.
// It is created in StatusPending and mutated only through Transition.
type StudyPlan struct {
	// ID is the unique identifier (UUID in string form).
	ID string

	// UserID identifies the owning user. Immutable after creation.
	UserID string

	// Title is a short name for the plan.
	Title string

	// Description holds free-form details.
	Description string

	// Subject is free text, e.g. "Mathematics".
	Subject string

	// Priority is the urgency of the plan.
	Priority Priority

	// Status is the current lifecycle status.
	Status Status

	// DueDate is the optional target date. Nil when not set.
	DueDate *time.Time

	// EstimatedHours is the planned effort. Always positive.
	EstimatedHours float64

	// ActualHours is the logged effort so far.
	ActualHours float64

	// CompletedAt is set if and only if Status == StatusCompleted.
	CompletedAt *time.Time

	// CreatedAt is when the plan record was created.
	CreatedAt time.Time

	// UpdatedAt is when the plan record was last modified.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyTitle - plan title is required.
	ErrEmptyTitle = fmt.Errorf("plan title is required: %w", shared.ErrValidation)

	// ErrEmptyUserID - owning user is required.
	ErrEmptyUserID = fmt.Errorf("plan user id is required: %w", shared.ErrValidation)

	// ErrInvalidPriority - priority is not one of low/medium/high/urgent.
	ErrInvalidPriority = fmt.Errorf("invalid plan priority: %w", shared.ErrValidation)

	// ErrInvalidEstimatedHours - estimated hours must be positive.
	ErrInvalidEstimatedHours = fmt.Errorf("estimated hours must be positive: %w", shared.ErrValidation)
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewPlanParams contains the parameters for creating a new study plan.
type NewPlanParams struct {
	ID             string
	UserID         string
	Title          string
	Description    string
	Subject        string
	Priority       Priority
	DueDate        *time.Time
	EstimatedHours float64
}

// NewStudyPlan creates a study plan in StatusPending with a nil CompletedAt.
func NewStudyPlan(params NewPlanParams) (*StudyPlan, error) {
	if params.ID == "" {
		return nil, shared.ErrInvalidID
	}
	if params.UserID == "" {
		return nil, ErrEmptyUserID
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	if params.EstimatedHours <= 0 {
		return nil, ErrInvalidEstimatedHours
	}

	now := time.Now().UTC()

	return &StudyPlan{
		ID:             params.ID,
		UserID:         params.UserID,
		Title:          title,
		Description:    strings.TrimSpace(params.Description),
		Subject:        strings.TrimSpace(params.Subject),
		Priority:       priority,
		Status:         StatusPending,
		DueDate:        params.DueDate,
		EstimatedHours: params.EstimatedHours,
		ActualHours:    0,
		CompletedAt:    nil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// TransitionResult describes the outcome of a Transition call.
type TransitionResult struct {
	// Plan is the updated plan. On a no-op it is the unchanged plan.
	Plan *StudyPlan

	// Changed is false when the target status equalled the current status.
	Changed bool

	// Completed is the completion event, non-nil exactly when this call
	// moved the plan into StatusCompleted. A repeated transition into
	// completed never re-fires it.
	Completed *shared.PlanCompletedEvent
}

// Transition applies a status change to the plan and returns the result.
//
// Legal edges: pending→in_progress, in_progress→completed,
// in_progress→paused, paused→in_progress. Transitioning to the current
// status is an idempotent no-op that fires no event. Every other pair
// fails with shared.ErrInvalidTransition and leaves the plan untouched.
//
// The completed_at invariant is maintained here: it is set on entry into
// completed and cleared on entry into any other status, so it holds even
// for edges added later (e.g. reopening).
func (p *StudyPlan) Transition(target Status) (TransitionResult, error) {
	if !target.IsValid() {
		return TransitionResult{}, shared.ErrInvalidPlanStatus
	}

	if target == p.Status {
		return TransitionResult{Plan: p, Changed: false}, nil
	}

	if !CanTransition(p.Status, target) {
		return TransitionResult{}, shared.WrapError(
			"plan", "Transition", shared.ErrStateTransition,
			string(p.Status)+" -> "+string(target), shared.ErrInvalidTransition,
		)
	}

	now := time.Now().UTC()
	p.Status = target
	p.UpdatedAt = now

	result := TransitionResult{Plan: p, Changed: true}

	if target == StatusCompleted {
		completedAt := now
		p.CompletedAt = &completedAt
		event := shared.NewPlanCompletedEvent(p.ID, p.UserID, p.Subject, completedAt)
		result.Completed = &event
	} else {
		p.CompletedAt = nil
	}

	return result, nil
}

// IsCompleted reports whether the plan is in the terminal completed status.
func (p *StudyPlan) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// IsOverdue reports whether the plan has a due date in the past and is not done.
func (p *StudyPlan) IsOverdue(now time.Time) bool {
	return p.DueDate != nil && now.After(*p.DueDate) && !p.IsCompleted()
}

// LogHours adds worked hours to the plan.
func (p *StudyPlan) LogHours(hours float64) error {
	if hours < 0 {
		return shared.ErrNegativeValue
	}
	p.ActualHours += hours
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate checks the completed_at invariant and field constraints.
// Used by repositories before persisting.
func (p *StudyPlan) Validate() error {
	if p.ID == "" {
		return shared.ErrInvalidID
	}
	if p.UserID == "" {
		return ErrEmptyUserID
	}
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if !p.Status.IsValid() {
		return shared.ErrInvalidPlanStatus
	}
	if !p.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if p.EstimatedHours <= 0 {
		return ErrInvalidEstimatedHours
	}

	// completed_at iff completed
	if p.Status == StatusCompleted && p.CompletedAt == nil {
		return shared.ErrInvalidState
	}
	if p.Status != StatusCompleted && p.CompletedAt != nil {
		return shared.ErrInvalidState
	}

	return nil
}

// Clone creates a deep copy of the plan.
func (p *StudyPlan) Clone() *StudyPlan {
	if p == nil {
		return nil
	}

	clone := *p
	if p.DueDate != nil {
		due := *p.DueDate
		clone.DueDate = &due
	}
	if p.CompletedAt != nil {
		completed := *p.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}
