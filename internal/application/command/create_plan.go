// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE PLAN COMMAND
// Creates a new study plan in the pending status.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePlanCommand contains the data to create a study plan.
type CreatePlanCommand struct {
	// UserID is the owner of the plan.
	UserID string

	// Title is the plan title (required).
	Title string

	// Description is an optional free-form description.
	Description string

	// Subject is the study subject, e.g. "Mathematics".
	Subject string

	// Priority is one of low, medium, high, urgent. Defaults to medium.
	Priority string

	// DueDate is an optional target date.
	DueDate *time.Time

	// EstimatedHours is the planned effort. Must be positive when set.
	EstimatedHours float64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreatePlanCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("create_plan: user_id is required: %w", shared.ErrInvalidInput)
	}
	if c.Title == "" {
		return fmt.Errorf("create_plan: title is required: %w", shared.ErrInvalidInput)
	}
	return nil
}

// CreatePlanResult contains the result of creating a plan.
type CreatePlanResult struct {
	// Plan is the created study plan.
	Plan *plan.StudyPlan

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreatePlanHandler handles the CreatePlanCommand.
type CreatePlanHandler struct {
	planRepo       plan.Repository
	eventPublisher shared.EventPublisher
}

// NewCreatePlanHandler creates a new CreatePlanHandler.
func NewCreatePlanHandler(planRepo plan.Repository, eventPublisher shared.EventPublisher) *CreatePlanHandler {
	return &CreatePlanHandler{
		planRepo:       planRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create plan command.
func (h *CreatePlanHandler) Handle(ctx context.Context, cmd CreatePlanCommand) (*CreatePlanResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_plan: validation failed: %w", err)
	}

	p, err := plan.NewStudyPlan(plan.NewPlanParams{
		ID:             uuid.New().String(),
		UserID:         cmd.UserID,
		Title:          cmd.Title,
		Description:    cmd.Description,
		Subject:        cmd.Subject,
		Priority:       plan.Priority(cmd.Priority),
		DueDate:        cmd.DueDate,
		EstimatedHours: cmd.EstimatedHours,
	})
	if err != nil {
		return nil, fmt.Errorf("create_plan: %w", err)
	}

	if err := h.planRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create_plan: failed to save plan: %w", err)
	}

	event := shared.NewPlanStatusChangedEvent(
		shared.EventPlanCreated, p.ID, p.UserID, "", string(p.Status),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}

	result := &CreatePlanResult{
		Plan:   p,
		Events: []shared.Event{event},
	}

	if h.eventPublisher != nil {
		for _, e := range result.Events {
			if err := h.eventPublisher.Publish(e); err != nil {
				return nil, fmt.Errorf("create_plan: failed to process %s event: %w", e.EventType(), err)
			}
		}
	}

	return result, nil
}
