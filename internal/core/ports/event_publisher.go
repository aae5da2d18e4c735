package ports

import (
	"context"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

// EventPublisher hands committed workflow events to the notification surface.
// Implementations must not block the caller for long and must not fail the
// operation that produced the event.
type EventPublisher interface {
	Publish(ev domain.WorkflowEvent)
}

// Notifier delivers a single event to its audience.
type Notifier interface {
	Notify(ctx context.Context, ev domain.WorkflowEvent) error
}
