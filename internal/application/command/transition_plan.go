package command

import (
	"context"
	"fmt"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITION PLAN COMMAND
// Moves a study plan through its lifecycle: start, pause, resume, complete.
// Completion is reported back as an explicit event so the progression
// engine can react to it; this handler never touches XP itself.
// ══════════════════════════════════════════════════════════════════════════════

// TransitionPlanCommand contains the data to change a plan's status.
type TransitionPlanCommand struct {
	// PlanID is the plan to transition.
	PlanID string

	// UserID is the requesting user. Must own the plan.
	UserID string

	// Target is the desired status.
	Target plan.Status

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c TransitionPlanCommand) Validate() error {
	if c.PlanID == "" {
		return fmt.Errorf("transition_plan: plan_id is required: %w", shared.ErrInvalidInput)
	}
	if c.UserID == "" {
		return fmt.Errorf("transition_plan: user_id is required: %w", shared.ErrInvalidInput)
	}
	if !c.Target.IsValid() {
		return fmt.Errorf("transition_plan: unknown target status %q: %w", string(c.Target), shared.ErrInvalidInput)
	}
	return nil
}

// TransitionPlanResult contains the result of a transition.
type TransitionPlanResult struct {
	// Plan is the plan after the transition.
	Plan *plan.StudyPlan

	// Changed is false when the plan was already in the target status.
	Changed bool

	// Completed is the completion event, non-nil exactly when this call
	// completed the plan.
	Completed *shared.PlanCompletedEvent

	// Events contains all domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// statusEventTypes maps a target status to the event type announcing it.
var statusEventTypes = map[plan.Status]shared.EventType{
	plan.StatusInProgress: shared.EventPlanStarted,
	plan.StatusPaused:     shared.EventPlanPaused,
	plan.StatusCompleted:  shared.EventPlanCompleted,
}

// TransitionPlanHandler handles the TransitionPlanCommand.
type TransitionPlanHandler struct {
	planRepo       plan.Repository
	eventPublisher shared.EventPublisher
}

// NewTransitionPlanHandler creates a new TransitionPlanHandler.
func NewTransitionPlanHandler(planRepo plan.Repository, eventPublisher shared.EventPublisher) *TransitionPlanHandler {
	return &TransitionPlanHandler{
		planRepo:       planRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the transition command.
//
// Re-requesting the current status is an idempotent no-op: nothing is
// persisted, no event fires, and Changed is false in the result.
func (h *TransitionPlanHandler) Handle(ctx context.Context, cmd TransitionPlanCommand) (*TransitionPlanResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("transition_plan: validation failed: %w", err)
	}

	p, err := h.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, fmt.Errorf("transition_plan: failed to get plan: %w", err)
	}

	if p.UserID != cmd.UserID {
		return nil, shared.ErrNotPlanOwner
	}

	oldStatus := p.Status

	tr, err := p.Transition(cmd.Target)
	if err != nil {
		return nil, err
	}

	result := &TransitionPlanResult{
		Plan:    tr.Plan,
		Changed: tr.Changed,
		Events:  make([]shared.Event, 0, 2),
	}

	if !tr.Changed {
		return result, nil
	}

	persisted, err := h.planRepo.UpdateStatus(ctx, p.ID, p.Status, p.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("transition_plan: failed to save status: %w", err)
	}
	result.Plan = persisted

	// A resume is a pause-to-in_progress edge, not a start.
	eventType := statusEventTypes[cmd.Target]
	if cmd.Target == plan.StatusInProgress && oldStatus == plan.StatusPaused {
		eventType = shared.EventPlanResumed
	}

	statusEvent := shared.NewPlanStatusChangedEvent(
		eventType, p.ID, p.UserID, string(oldStatus), string(p.Status),
	)
	if cmd.CorrelationID != "" {
		statusEvent.BaseEvent = statusEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, statusEvent)

	if tr.Completed != nil {
		completed := *tr.Completed
		if cmd.CorrelationID != "" {
			completed.BaseEvent = completed.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		result.Completed = &completed
		result.Events = append(result.Events, completed)
	}

	// With a synchronous bus the completion handler awards XP in-line, so a
	// failed publish means the caller must not be told the transition fully
	// succeeded. The status change itself is already persisted at this point.
	if h.eventPublisher != nil {
		for _, e := range result.Events {
			if err := h.eventPublisher.Publish(e); err != nil {
				return nil, fmt.Errorf("transition_plan: failed to process %s event: %w", e.EventType(), err)
			}
		}
	}

	return result, nil
}
