package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published by the claim pipeline.
const (
	KindMessageAppended = "conversation.message_appended"
	KindStatusChanged   = "conversation.status_changed"
	KindKarmaGiven      = "conversation.karma_given"
	KindCreated         = "conversation.created"
	KindReplyCancelled  = "reply.cancelled"
	KindProfileUpdated  = "profile.updated"
)

// Event is a domain event published on the bus.
type Event struct {
	ID   string
	Kind string
	// Subject is the id of the entity the event is about, usually a conversation.
	Subject   string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind, subject string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   subject,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
