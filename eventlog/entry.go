package eventlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/version"
)

const streamPrefix = activity.Component + "/cm/"

// StreamFor returns the Event Stream holding the records of a course module.
func StreamFor(cmid int64) event.StreamID {
	return event.StreamID(streamPrefix + strconv.FormatInt(cmid, 10))
}

// ModuleOf is the inverse of StreamFor.
func ModuleOf(id event.StreamID) (int64, bool) {
	raw, ok := strings.CutPrefix(string(id), streamPrefix)
	if !ok {
		return 0, false
	}

	cmid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return cmid, true
}

// Entry is a recorded activity.Record.
type Entry struct {
	Record   activity.Record
	Stream   event.StreamID
	Version  version.Version
	Metadata message.Metadata
}

func entryFromPersisted(evt event.Persisted) (Entry, error) {
	record, ok := evt.Message.(activity.Record)
	if !ok {
		return Entry{}, fmt.Errorf("eventlog: %w, %T in stream %s", activity.ErrUnknownKind, evt.Message, evt.StreamID)
	}

	return Entry{
		Record:   record,
		Stream:   evt.StreamID,
		Version:  evt.Version,
		Metadata: evt.Metadata,
	}, nil
}

// EventID returns the unique id assigned to the entry when triggered.
func (e Entry) EventID() string {
	return e.Metadata[message.EventIDKey]
}

// Persisted returns the entry as stored in its Event Stream.
func (e Entry) Persisted() event.Persisted {
	return event.Persisted{
		StreamID: e.Stream,
		Version:  e.Version,
		Envelope: event.Envelope{
			Message:  e.Record,
			Metadata: e.Metadata,
		},
	}
}
