// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"context"
	"fmt"

	"github.com/studyplan-hub/studyplan-hub/internal/application/command"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON PLAN COMPLETED HANDLER
// Reacts to a plan entering the completed status by running the
// progression engine: XP grant, level recompute, streak extension, and
// the audit session insert. The plan lifecycle and the progression write
// are decoupled through this handler, so a failed award never rolls back
// an already completed plan; the award is retried on its own.
// ══════════════════════════════════════════════════════════════════════════════

// OnPlanCompletedHandler awards progression for completed plans.
type OnPlanCompletedHandler struct {
	award *command.AwardCompletionHandler
	log   *logger.Logger
}

// NewOnPlanCompletedHandler creates a new OnPlanCompletedHandler.
func NewOnPlanCompletedHandler(award *command.AwardCompletionHandler, log *logger.Logger) *OnPlanCompletedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnPlanCompletedHandler{
		award: award,
		log:   log.With(logger.Component("eventhandler")),
	}
}

// Register subscribes the handler on the bus.
func (h *OnPlanCompletedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventPlanCompleted, h.Handle)
}

// Handle processes one plan.completed event.
func (h *OnPlanCompletedHandler) Handle(event shared.Event) error {
	completed, ok := event.(shared.PlanCompletedEvent)
	if !ok {
		// The status-change announcement shares the event type; only the
		// typed completion event carries an award.
		return nil
	}

	_, err := h.award.Handle(context.Background(), command.AwardCompletionCommand{
		UserID:        completed.UserID,
		PlanID:        completed.PlanID,
		CorrelationID: completed.BaseEvent.CorrelationID,
	})
	if err != nil {
		h.log.Error("progression award failed",
			logger.UserID(completed.UserID),
			logger.PlanID(completed.PlanID),
			logger.Err(err),
		)
		return fmt.Errorf("on_plan_completed: %w", err)
	}

	return nil
}
