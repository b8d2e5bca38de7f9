package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studyplan-hub/studyplan-hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler(tick time.Duration) *Scheduler {
	return NewScheduler(logger.New(logger.Options{Level: logger.LevelFatal}), tick)
}

func TestRegister_RejectsDuplicatesAndNils(t *testing.T) {
	s := newTestScheduler(time.Millisecond)
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)
	assert.Equal(t, 1, s.JobCount())
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := newTestScheduler(5 * time.Millisecond)
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	result, ok := s.LastRun("tick")
	require.True(t, ok)
	assert.True(t, result.Success)
}

func TestTriggerNow_RecordsFailure(t *testing.T) {
	s := newTestScheduler(time.Minute)
	job := &countingJob{name: "broken", err: errors.New("boom")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.TriggerNow(context.Background(), "broken"))
	assert.EqualValues(t, 1, job.runs.Load())

	result, ok := s.LastRun("broken")
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Error(t, result.Error)

	assert.ErrorIs(t, s.TriggerNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestStop_IsIdempotent(t *testing.T) {
	s := newTestScheduler(time.Millisecond)
	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	s.Stop()
	s.Stop()

	// A stopped scheduler can be started again.
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
