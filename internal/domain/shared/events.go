// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Plan events
	EventPlanCreated   EventType = "plan.created"
	EventPlanStarted   EventType = "plan.started"
	EventPlanPaused    EventType = "plan.paused"
	EventPlanResumed   EventType = "plan.resumed"
	EventPlanCompleted EventType = "plan.completed"

	// Progression events
	EventXPAwarded      EventType = "progression.xp_awarded"
	EventLevelUp        EventType = "progression.level_up"
	EventStreakExtended EventType = "progression.streak_extended"

	// Leaderboard events
	EventLeaderboardInvalidated EventType = "leaderboard.invalidated"

	// Identity events
	EventUserRegistered EventType = "identity.user_registered"
	EventUserSignedIn   EventType = "identity.user_signed_in"
	EventUserSignedOut  EventType = "identity.user_signed_out"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Plan Events
// ═══════════════════════════════════════════════════════════════════════════

// PlanCompletedEvent is emitted exactly once when a study plan transitions
// into the completed status. It is the trigger for the progression engine.
type PlanCompletedEvent struct {
	BaseEvent
	PlanID      string    `json:"plan_id"`
	UserID      string    `json:"user_id"`
	Subject     string    `json:"subject"`
	CompletedAt time.Time `json:"completed_at"`
}

// Payload implements Event interface.
func (e PlanCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"plan_id":      e.PlanID,
		"user_id":      e.UserID,
		"subject":      e.Subject,
		"completed_at": e.CompletedAt.Format(time.RFC3339),
	}
}

// NewPlanCompletedEvent creates a new PlanCompletedEvent.
func NewPlanCompletedEvent(planID, userID, subject string, completedAt time.Time) PlanCompletedEvent {
	return PlanCompletedEvent{
		BaseEvent:   NewBaseEvent(EventPlanCompleted, planID),
		PlanID:      planID,
		UserID:      userID,
		Subject:     subject,
		CompletedAt: completedAt,
	}
}

// PlanStatusChangedEvent is emitted for non-terminal status changes
// (started, paused, resumed).
type PlanStatusChangedEvent struct {
	BaseEvent
	PlanID    string `json:"plan_id"`
	UserID    string `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// Payload implements Event interface.
func (e PlanStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"plan_id":    e.PlanID,
		"user_id":    e.UserID,
		"old_status": e.OldStatus,
		"new_status": e.NewStatus,
	}
}

// NewPlanStatusChangedEvent creates a new PlanStatusChangedEvent.
func NewPlanStatusChangedEvent(eventType EventType, planID, userID, oldStatus, newStatus string) PlanStatusChangedEvent {
	return PlanStatusChangedEvent{
		BaseEvent: NewBaseEvent(eventType, planID),
		PlanID:    planID,
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPAwardedEvent is emitted when a user is awarded XP for a completion.
type XPAwardedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	PlanID   string `json:"plan_id,omitempty"`
}

// Payload implements Event interface.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"plan_id":   e.PlanID,
	}
}

// NewXPAwardedEvent creates a new XPAwardedEvent.
func NewXPAwardedEvent(userID string, amount, newTotal int, planID string) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: NewBaseEvent(EventXPAwarded, userID),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		PlanID:    planID,
	}
}

// LevelUpEvent is emitted when an XP award crosses a level boundary.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// StreakExtendedEvent is emitted when a completion extends the user's streak.
type StreakExtendedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	IsNewRecord   bool   `json:"is_new_record"`
}

// Payload implements Event interface.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
		"is_new_record":  e.IsNewRecord,
	}
}

// NewStreakExtendedEvent creates a new StreakExtendedEvent.
func NewStreakExtendedEvent(userID string, current, longest int) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:     NewBaseEvent(EventStreakExtended, userID),
		UserID:        userID,
		CurrentStreak: current,
		LongestStreak: longest,
		IsNewRecord:   current == longest,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Identity Events
// ═══════════════════════════════════════════════════════════════════════════

// IdentityEvent is emitted when a user registers, signs in, or signs out.
type IdentityEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// Payload implements Event interface.
func (e IdentityEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
	}
}

// NewIdentityEvent creates a new IdentityEvent of the given type.
func NewIdentityEvent(eventType EventType, userID string) IdentityEvent {
	return IdentityEvent{
		BaseEvent: NewBaseEvent(eventType, userID),
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
