package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu   sync.Mutex
	sent []*model.Notification
	err  error
}

func (q *fakeQueue) EnqueueNotification(_ context.Context, n *model.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, n)
	return q.err
}

func (q *fakeQueue) list() []*model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*model.Notification(nil), q.sent...)
}

type chanNotifier struct {
	ch chan *model.Notification
}

func (c *chanNotifier) Send(_ context.Context, n *model.Notification) error {
	c.ch <- n
	return errors.New("webhook down")
}

func TestToNotification(t *testing.T) {
	n, ok := ToNotification(eventbus.Event{
		ID:      "e1",
		Type:    eventbus.TypeOfferAccepted,
		OfferID: "o1",
		ActorID: "w1",
		Data:    map[string]any{"poster_id": "poster-1"},
	})
	require.True(t, ok)
	assert.Equal(t, "poster-1", n.RecipientID)
	assert.Equal(t, "o1", n.OfferID)

	n, ok = ToNotification(eventbus.Event{Type: eventbus.TypePenaltyApplied, WorkerID: "w1"})
	require.True(t, ok)
	assert.Equal(t, "w1", n.RecipientID)

	_, ok = ToNotification(eventbus.Event{Type: eventbus.TypeLocationUpdated})
	assert.False(t, ok, "internal signals stay on the bus")
}

func TestNotificationHook_EngineEventsReachQueue(t *testing.T) {
	f := newFixture(t)
	q := &fakeQueue{}
	f.bus.OnPublish(NewNotificationService(q, nil).Hook)

	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	id := f.accept("w1", "o1")
	_, err := f.assignments.Cancel(f.ctx, "w1", id)
	require.NoError(t, err)

	var types []string
	for _, n := range q.list() {
		types = append(types, n.Type)
	}
	assert.Equal(t, []string{
		eventbus.TypeOfferAccepted,
		eventbus.TypePenaltyApplied,
		eventbus.TypeOfferCancelled,
	}, types)
}

func TestNotificationHook_FailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	q := &fakeQueue{err: errors.New("redis down")}
	f.bus.OnPublish(NewNotificationService(q, nil).Hook)

	f.offer("o1", "poster-1", "2026-03-10", "09:00", "12:00")
	resp, err := f.assignments.Accept(f.ctx, "w1", "o1")
	require.NoError(t, err, "notifier failure must not fail the transition")
	assert.NotNil(t, resp.Assignment)
	assert.Len(t, q.list(), 1)
}

func TestNotificationHook_DirectNotifierRunsAsync(t *testing.T) {
	notifier := &chanNotifier{ch: make(chan *model.Notification, 1)}
	svc := NewNotificationService(nil, notifier)

	svc.Hook(context.Background(), eventbus.Event{Type: eventbus.TypeLevelUp, WorkerID: "w1"})

	select {
	case n := <-notifier.ch:
		assert.Equal(t, "w1", n.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
}
