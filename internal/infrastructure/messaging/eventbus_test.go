package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

func newTestBus(async bool) *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      async,
		WorkerPoolSize: 4,
		Logger:         logger.New(logger.Options{Level: logger.LevelFatal}),
		EnableMetrics:  true,
	})
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := newTestBus(false)
	defer bus.Close()

	var got []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventPlanCompleted, func(e shared.Event) error {
		got = append(got, e)
		return nil
	}))

	event := shared.NewPlanCompletedEvent("plan-1", "user-1", "Physics", time.Now().UTC())
	require.NoError(t, bus.Publish(event))

	other := shared.NewXPAwardedEvent("user-1", 50, 50, "plan-1")
	require.NoError(t, bus.Publish(other))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventPlanCompleted, got[0].EventType())
}

func TestInMemoryEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := newTestBus(false)
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewXPAwardedEvent("u", 50, 50, "p")))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("u", 1, 2)))

	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_AsyncDeliveryCompletesOnClose(t *testing.T) {
	bus := newTestBus(true)

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.Subscribe(shared.EventXPAwarded, func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewXPAwardedEvent("u", 50, 50, "p")))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestInMemoryEventBus_ClosedBusRejects(t *testing.T) {
	bus := newTestBus(false)
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewLevelUpEvent("u", 1, 2))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newTestBus(false)
	defer bus.Close()

	boom := errors.New("boom")
	second := false
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		return boom
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		second = true
		return nil
	}))

	err := bus.Publish(shared.NewLevelUpEvent("u", 1, 2))
	assert.ErrorIs(t, err, boom)
	assert.True(t, second)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.PublishedTotal)
	assert.Equal(t, int64(2), snap.HandlerExecutions)
	assert.Equal(t, int64(1), snap.HandlerFailures)
}
