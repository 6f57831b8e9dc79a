// Package event contains the Event Store abstraction used by the activity
// log to persist and replay recorded events.
package event

import (
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/version"
)

// Event is a Message representing something that happened in the past
// and that is of vital information to the audit trail.
//
// Event type names should be phrased in the past tense, to enforce the notion
// of "information happened in the past".
type Event message.Message

// Envelope contains an Event with its optional Metadata.
type Envelope message.GenericEnvelope

// StreamID is the unique identifier of an Event Stream.
type StreamID string

// Persisted represents an Event that has been persisted into the Event Store.
type Persisted struct {
	StreamID
	version.Version
	Envelope
}
