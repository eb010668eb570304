// ===============================
// FILE: internal/events/events_test.go
// ===============================

package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStartedBus(t *testing.T, cfg *EventBusConfig) EventBus {
	t.Helper()
	bus := NewInMemoryEventBus(cfg, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		bus.Stop(ctx)
	})
	return bus
}

func TestEventBusDeliversToTypeAndWildcardSubscribers(t *testing.T) {
	bus := newStartedBus(t, nil)

	typed := make(chan Event, 1)
	all := make(chan Event, 2)

	require.NoError(t, bus.Subscribe("post.created", NewHandlerFunc("typed", func(ctx context.Context, e Event) error {
		typed <- e
		return nil
	})))
	require.NoError(t, bus.Subscribe(WildcardType, NewHandlerFunc("all", func(ctx context.Context, e Event) error {
		all <- e
		return nil
	})))

	require.NoError(t, bus.PublishAsync(context.Background(), NewPostCreatedEvent(1, 10, "comfort_wall", true)))
	require.NoError(t, bus.PublishAsync(context.Background(), NewCommentDeletedEvent(5, 1, 10)))

	select {
	case e := <-typed:
		assert.Equal(t, "post.created", e.EventType())
		require.NotNil(t, e.Actor())
		assert.Equal(t, int64(10), *e.Actor())
	case <-time.After(time.Second):
		t.Fatal("typed subscriber never received the event")
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-all:
			got[e.EventType()] = true
		case <-time.After(time.Second):
			t.Fatal("wildcard subscriber missed an event")
		}
	}
	assert.True(t, got["post.created"])
	assert.True(t, got["comment.deleted"])
}

func TestEventBusDropsWhenQueueFull(t *testing.T) {
	// No workers started, so nothing drains the one-slot queue.
	bus := NewInMemoryEventBus(&EventBusConfig{BufferSize: 1, WorkerCount: 1, HandlerTimeout: time.Second}, zap.NewNop())

	require.NoError(t, bus.PublishAsync(context.Background(), NewPostDeletedEvent(1, 10)))
	err := bus.PublishAsync(context.Background(), NewPostDeletedEvent(2, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")

	stats := bus.Stats()
	assert.Equal(t, int64(1), stats.EventsPublished)
	assert.Equal(t, int64(1), stats.EventsDropped)
	assert.Equal(t, 1, stats.QueueDepth)
}

func TestEventBusSurvivesPanickingHandler(t *testing.T) {
	bus := newStartedBus(t, nil)

	received := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe("post.like_toggled", NewHandlerFunc("bad", func(ctx context.Context, e Event) error {
		panic("boom")
	})))
	require.NoError(t, bus.Subscribe("post.like_toggled", NewHandlerFunc("good", func(ctx context.Context, e Event) error {
		received <- struct{}{}
		return nil
	})))

	require.NoError(t, bus.PublishAsync(context.Background(), NewPostLikeToggledEvent(1, 10, true, 3)))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("healthy handler starved by panicking sibling")
	}

	assert.Eventually(t, func() bool {
		return bus.Stats().EventsFailed == 1
	}, time.Second, 10*time.Millisecond)
}
