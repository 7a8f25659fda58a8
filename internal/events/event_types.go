package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventUserDeleted    EventType = "user_deleted"
	EventPostCreated    EventType = "post_created"
	EventPostUpdated    EventType = "post_updated"
	EventPostDeleted    EventType = "post_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID uuid.UUID   `json:"subject_id"`
	ActorID   *uuid.UUID  `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a fresh event with id and time.
func NewEvent(eventType EventType, subjectID uuid.UUID, actorID *uuid.UUID, payload interface{}) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
}

// PostCreatedPayload payload.
type PostCreatedPayload struct {
	Title     string `json:"title"`
	Published bool   `json:"published"`
}
