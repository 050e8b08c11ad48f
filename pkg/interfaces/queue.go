package interfaces

import (
	"context"

	"shiftboard/internal/model"
	"shiftboard/pkg/eventbus"
)

// EventPublisher publishes committed transitions to observers.
// The engine never rolls back state because a publish failed.
type EventPublisher interface {
	Publish(ctx context.Context, evt eventbus.Event) error
}

// Notifier delivers one notification to an external collaborator
type Notifier interface {
	Send(ctx context.Context, n *model.Notification) error
}

// NotificationQueue hands notifications to background delivery with retries
// Supports multiple implementations like Redis/Asynq or an in-process notifier
type NotificationQueue interface {
	EnqueueNotification(ctx context.Context, n *model.Notification) error
}
