package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
)

func newTestPlan(t *testing.T, status Status) *StudyPlan {
	t.Helper()

	p, err := NewStudyPlan(NewPlanParams{
		ID:             "plan-1",
		UserID:         "user-1",
		Title:          "Linear Algebra",
		Subject:        "Mathematics",
		Priority:       PriorityHigh,
		EstimatedHours: 4,
	})
	require.NoError(t, err)

	// Walk the plan to the requested status through legal edges.
	switch status {
	case StatusPending:
	case StatusInProgress:
		_, err = p.Transition(StatusInProgress)
		require.NoError(t, err)
	case StatusPaused:
		_, err = p.Transition(StatusInProgress)
		require.NoError(t, err)
		_, err = p.Transition(StatusPaused)
		require.NoError(t, err)
	case StatusCompleted:
		_, err = p.Transition(StatusInProgress)
		require.NoError(t, err)
		_, err = p.Transition(StatusCompleted)
		require.NoError(t, err)
	}

	return p
}

func TestNewStudyPlan_Defaults(t *testing.T) {
	p, err := NewStudyPlan(NewPlanParams{
		ID:             "plan-1",
		UserID:         "user-1",
		Title:          "  Calculus  ",
		EstimatedHours: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, PriorityMedium, p.Priority)
	assert.Equal(t, "Calculus", p.Title)
	assert.Nil(t, p.CompletedAt)
	assert.NoError(t, p.Validate())
}

func TestNewStudyPlan_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  NewPlanParams
		wantErr error
	}{
		{
			name:    "missing title",
			params:  NewPlanParams{ID: "p", UserID: "u", Title: "   ", EstimatedHours: 1},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "missing user",
			params:  NewPlanParams{ID: "p", Title: "t", EstimatedHours: 1},
			wantErr: ErrEmptyUserID,
		},
		{
			name:    "bad priority",
			params:  NewPlanParams{ID: "p", UserID: "u", Title: "t", Priority: "critical", EstimatedHours: 1},
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "zero estimated hours",
			params:  NewPlanParams{ID: "p", UserID: "u", Title: "t", EstimatedHours: 0},
			wantErr: ErrInvalidEstimatedHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStudyPlan(tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransition_LegalEdges(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusPaused},
		{StatusPaused, StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			p := newTestPlan(t, tt.from)
			result, err := p.Transition(tt.to)
			require.NoError(t, err)
			assert.True(t, result.Changed)
			assert.Equal(t, tt.to, p.Status)
			assert.NoError(t, p.Validate())
		})
	}
}

func TestTransition_IllegalEdges(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusPaused},
		{StatusPaused, StatusCompleted},
		{StatusPaused, StatusPending},
		{StatusInProgress, StatusPending},
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusPaused},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			p := newTestPlan(t, tt.from)
			before := p.Status

			_, err := p.Transition(tt.to)
			assert.ErrorIs(t, err, shared.ErrStateTransition)
			assert.Equal(t, before, p.Status, "failed transition must not mutate the plan")
		})
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	p := newTestPlan(t, StatusPending)

	_, err := p.Transition("archived")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestTransition_CompletedSetsTimestampAndEvent(t *testing.T) {
	p := newTestPlan(t, StatusInProgress)

	result, err := p.Transition(StatusCompleted)
	require.NoError(t, err)

	require.NotNil(t, p.CompletedAt)
	require.NotNil(t, result.Completed)
	assert.Equal(t, shared.EventPlanCompleted, result.Completed.EventType())
	assert.Equal(t, p.ID, result.Completed.PlanID)
	assert.Equal(t, p.UserID, result.Completed.UserID)
	assert.Equal(t, *p.CompletedAt, result.Completed.CompletedAt)
}

func TestTransition_NonCompletedClearsTimestamp(t *testing.T) {
	p := newTestPlan(t, StatusInProgress)
	stamp := time.Now().UTC()
	p.CompletedAt = &stamp // simulate a stale timestamp

	result, err := p.Transition(StatusPaused)
	require.NoError(t, err)

	assert.Nil(t, p.CompletedAt)
	assert.Nil(t, result.Completed)
}

func TestTransition_SameStatusIsNoOp(t *testing.T) {
	p := newTestPlan(t, StatusCompleted)
	completedAt := *p.CompletedAt
	updatedAt := p.UpdatedAt

	result, err := p.Transition(StatusCompleted)
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Nil(t, result.Completed, "re-entering completed must not re-fire the event")
	assert.Equal(t, completedAt, *p.CompletedAt)
	assert.Equal(t, updatedAt, p.UpdatedAt)
}

func TestCompletedAtInvariant_AfterEveryTransition(t *testing.T) {
	p := newTestPlan(t, StatusPending)

	path := []Status{StatusInProgress, StatusPaused, StatusInProgress, StatusCompleted}
	for _, target := range path {
		_, err := p.Transition(target)
		require.NoError(t, err)

		if p.Status == StatusCompleted {
			assert.NotNil(t, p.CompletedAt)
		} else {
			assert.Nil(t, p.CompletedAt)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)

	p := newTestPlan(t, StatusInProgress)
	p.DueDate = &past
	assert.True(t, p.IsOverdue(now))

	done := newTestPlan(t, StatusCompleted)
	done.DueDate = &past
	assert.False(t, done.IsOverdue(now), "completed plans are never overdue")
}

func TestClone_IsIndependent(t *testing.T) {
	p := newTestPlan(t, StatusCompleted)

	clone := p.Clone()
	*clone.CompletedAt = clone.CompletedAt.Add(time.Hour)
	clone.Title = "changed"

	assert.NotEqual(t, p.Title, clone.Title)
	assert.NotEqual(t, *p.CompletedAt, *clone.CompletedAt)
}
