package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PLAN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used both for publishing and for
// reconstructing events on the consuming side.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Planner domain events

func NewPlanCompleted(sessionID, userID uuid.UUID, eventCount int) Event {
	return BaseEvent{
		Type: "PLAN_COMPLETED",
		Data: map[string]interface{}{
			"session_id":  sessionID.String(),
			"user_id":     userID.String(),
			"event_count": eventCount,
		},
		OccurredAt: time.Now(),
	}
}

func NewPlanFailed(sessionID, userID uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: "PLAN_FAILED",
		Data: map[string]interface{}{
			"session_id": sessionID.String(),
			"user_id":    userID.String(),
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}
