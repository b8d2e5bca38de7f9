package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/plan"
	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

func seedPlan(t *testing.T, repo *memPlanRepo, userID string, status plan.Status) *plan.StudyPlan {
	t.Helper()

	p, err := plan.NewStudyPlan(plan.NewPlanParams{
		ID:             "plan-" + string(status),
		UserID:         userID,
		Title:          "Linear Algebra",
		Subject:        "Mathematics",
		EstimatedHours: 10,
	})
	require.NoError(t, err)

	// Walk the legal path to the requested status.
	var path []plan.Status
	switch status {
	case plan.StatusPending:
	case plan.StatusInProgress:
		path = []plan.Status{plan.StatusInProgress}
	case plan.StatusPaused:
		path = []plan.Status{plan.StatusInProgress, plan.StatusPaused}
	case plan.StatusCompleted:
		path = []plan.Status{plan.StatusInProgress, plan.StatusCompleted}
	}
	for _, s := range path {
		_, err := p.Transition(s)
		require.NoError(t, err)
	}

	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestTransitionPlan_StartPublishesEvent(t *testing.T) {
	repo := newMemPlanRepo()
	pub := &memPublisher{}
	h := NewTransitionPlanHandler(repo, pub)

	p := seedPlan(t, repo, "user-1", plan.StatusPending)

	result, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: p.ID,
		UserID: "user-1",
		Target: plan.StatusInProgress,
	})
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Nil(t, result.Completed)
	assert.Equal(t, plan.StatusInProgress, result.Plan.Status)
	assert.Len(t, pub.byType(shared.EventPlanStarted), 1)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusInProgress, stored.Status)
}

func TestTransitionPlan_CompleteReturnsCompletionEvent(t *testing.T) {
	repo := newMemPlanRepo()
	pub := &memPublisher{}
	h := NewTransitionPlanHandler(repo, pub)

	p := seedPlan(t, repo, "user-1", plan.StatusInProgress)

	result, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: p.ID,
		UserID: "user-1",
		Target: plan.StatusCompleted,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Completed)
	assert.Equal(t, p.ID, result.Completed.PlanID)
	assert.Equal(t, "user-1", result.Completed.UserID)
	require.NotNil(t, result.Plan.CompletedAt)
	assert.Len(t, pub.byType(shared.EventPlanCompleted), 2) // status change + completion
}

func TestTransitionPlan_ResumeUsesResumedEvent(t *testing.T) {
	repo := newMemPlanRepo()
	pub := &memPublisher{}
	h := NewTransitionPlanHandler(repo, pub)

	p := seedPlan(t, repo, "user-1", plan.StatusPaused)

	result, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: p.ID,
		UserID: "user-1",
		Target: plan.StatusInProgress,
	})
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Len(t, pub.byType(shared.EventPlanResumed), 1)
	assert.Empty(t, pub.byType(shared.EventPlanStarted))
}

func TestTransitionPlan_SameStatusIsNoOp(t *testing.T) {
	repo := newMemPlanRepo()
	pub := &memPublisher{}
	h := NewTransitionPlanHandler(repo, pub)

	p := seedPlan(t, repo, "user-1", plan.StatusInProgress)

	result, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: p.ID,
		UserID: "user-1",
		Target: plan.StatusInProgress,
	})
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Nil(t, result.Completed)
	assert.Empty(t, pub.events)
}

func TestTransitionPlan_IllegalEdgeFails(t *testing.T) {
	repo := newMemPlanRepo()
	h := NewTransitionPlanHandler(repo, &memPublisher{})

	p := seedPlan(t, repo, "user-1", plan.StatusPending)

	_, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: p.ID,
		UserID: "user-1",
		Target: plan.StatusCompleted,
	})
	assert.ErrorIs(t, err, shared.ErrStateTransition)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusPending, stored.Status)
}

func TestTransitionPlan_WrongOwnerRejected(t *testing.T) {
	repo := newMemPlanRepo()
	h := NewTransitionPlanHandler(repo, &memPublisher{})

	p := seedPlan(t, repo, "user-1", plan.StatusPending)

	_, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: p.ID,
		UserID: "user-2",
		Target: plan.StatusInProgress,
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTransitionPlan_UnknownPlan(t *testing.T) {
	h := NewTransitionPlanHandler(newMemPlanRepo(), &memPublisher{})

	_, err := h.Handle(context.Background(), TransitionPlanCommand{
		PlanID: "missing",
		UserID: "user-1",
		Target: plan.StatusInProgress,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreatePlan_Defaults(t *testing.T) {
	repo := newMemPlanRepo()
	pub := &memPublisher{}
	h := NewCreatePlanHandler(repo, pub)

	result, err := h.Handle(context.Background(), CreatePlanCommand{
		UserID:         "user-1",
		Title:          "Organic Chemistry",
		Subject:        "Chemistry",
		EstimatedHours: 8,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Plan.ID)
	assert.Equal(t, plan.StatusPending, result.Plan.Status)
	assert.Equal(t, plan.PriorityMedium, result.Plan.Priority)
	assert.Len(t, pub.byType(shared.EventPlanCreated), 1)
}

func TestCreatePlan_Validation(t *testing.T) {
	h := NewCreatePlanHandler(newMemPlanRepo(), &memPublisher{})

	_, err := h.Handle(context.Background(), CreatePlanCommand{Title: "x"})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), CreatePlanCommand{UserID: "u"})
	assert.Error(t, err)
}
