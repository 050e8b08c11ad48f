package service

import (
	"context"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/logger"
)

const notifyTimeout = 10 * time.Second

// NotificationService forwards outbound engine events to external collaborators.
// Delivery is fire-and-forget: a failure is logged and never reaches the engine.
type NotificationService struct {
	queue    interfaces.NotificationQueue
	notifier interfaces.Notifier
}

// NewNotificationService prefers the queue when both are set; either may be nil
func NewNotificationService(queue interfaces.NotificationQueue, notifier interfaces.Notifier) *NotificationService {
	return &NotificationService{queue: queue, notifier: notifier}
}

// outbound events and who hears about them
var notificationRecipients = map[string]func(evt eventbus.Event) string{
	eventbus.TypeOfferAccepted:     posterRecipient,
	eventbus.TypeOfferCancelled:    posterRecipient,
	eventbus.TypeAssignmentArrived: posterRecipient,
	eventbus.TypePenaltyApplied:    workerRecipient,
	eventbus.TypeLevelUp:           workerRecipient,
}

func posterRecipient(evt eventbus.Event) string {
	if id, ok := evt.Data["poster_id"].(string); ok {
		return id
	}
	return ""
}

func workerRecipient(evt eventbus.Event) string {
	return evt.WorkerID
}

// ToNotification maps an event to a notification, false if it is not outbound
func ToNotification(evt eventbus.Event) (*model.Notification, bool) {
	recipient, ok := notificationRecipients[evt.Type]
	if !ok {
		return nil, false
	}
	return &model.Notification{
		ID:           evt.ID,
		Type:         evt.Type,
		RecipientID:  recipient(evt),
		OfferID:      evt.OfferID,
		AssignmentID: evt.AssignmentID,
		ActorID:      evt.ActorID,
		Data:         evt.Data,
		CreatedAt:    evt.Timestamp,
	}, true
}

// Hook is registered with the event bus and runs once per published event
func (s *NotificationService) Hook(ctx context.Context, evt eventbus.Event) {
	n, ok := ToNotification(evt)
	if !ok {
		return
	}

	traceID := logger.TraceID(ctx)
	deliver := func() {
		// the request context may be cancelled as soon as the response is written
		sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		sendCtx = logger.WithTraceID(sendCtx, traceID)

		var err error
		if s.queue != nil {
			err = s.queue.EnqueueNotification(sendCtx, n)
		} else {
			err = s.notifier.Send(sendCtx, n)
		}
		if err != nil {
			logger.WarnCtx(sendCtx, "failed to deliver %s notification %s: %v", n.Type, n.ID, err)
		}
	}

	switch {
	case s.queue != nil:
		deliver()
	case s.notifier != nil:
		// direct webhook calls can be slow, keep them off the request path
		go deliver()
	}
}
