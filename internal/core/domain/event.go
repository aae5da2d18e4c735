package domain

import "time"

// EventType names a committed workflow change.
type EventType string

const (
	EventRequestCreated    EventType = "request.created"
	EventRequestStatus     EventType = "request.status_changed"
	EventInterestExpressed EventType = "interest.expressed"
	EventInterestStatus    EventType = "interest.status_changed"
)

// WorkflowEvent is a notification addressed to one principal after a change commits.
type WorkflowEvent struct {
	Type       EventType `json:"type"`
	AudienceID string    `json:"audience_id"`
	ActorID    string    `json:"actor_id"`
	RequestID  string    `json:"request_id"`
	InterestID string    `json:"interest_id,omitempty"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
