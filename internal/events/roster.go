// Package events defines the roster event payloads emitted by the signup service.
package events

import "time"

// Event types carried in the event_type Kafka header.
const (
	TypeParticipantSignedUp     = "activity.participant_signed_up"
	TypeParticipantUnregistered = "activity.participant_unregistered"
)

// Kafka headers attached to every roster event record.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// RosterChanged is emitted whenever a participant joins or leaves an activity.
type RosterChanged struct {
	EventID          string    `json:"event_id"`
	Type             string    `json:"event_type"`
	Activity         string    `json:"activity"`
	Email            string    `json:"email"`
	ParticipantCount int       `json:"participant_count"`
	OccurredAt       time.Time `json:"occurred_at"`
}
