package event

import (
	"context"
	"sync"

	"github.com/icontent-lms/go-icontent/version"
)

var _ Store = new(TrackingEventStore)

// TrackingEventStore wraps a Store and keeps a copy of every Event
// successfully appended through it. Useful for tests assertion.
type TrackingEventStore struct {
	Store

	mx       sync.RWMutex
	recorded []Persisted
}

// NewTrackingEventStore wraps store.
func NewTrackingEventStore(store Store) *TrackingEventStore {
	return &TrackingEventStore{Store: store}
}

// Recorded returns the Events appended so far, in append order.
func (es *TrackingEventStore) Recorded() []Persisted {
	es.mx.RLock()
	defer es.mx.RUnlock()

	return append([]Persisted(nil), es.recorded...)
}

// RecordedIn returns the Events appended so far to the Event Stream id.
func (es *TrackingEventStore) RecordedIn(id StreamID) []Persisted {
	es.mx.RLock()
	defer es.mx.RUnlock()

	var recorded []Persisted

	for _, evt := range es.recorded {
		if evt.StreamID == id {
			recorded = append(recorded, evt)
		}
	}

	return recorded
}

// Append implements the event.Appender interface.
func (es *TrackingEventStore) Append(
	ctx context.Context,
	id StreamID,
	expected version.Check,
	events ...Envelope,
) (version.Version, error) {
	es.mx.Lock()
	defer es.mx.Unlock()

	newVersion, err := es.Store.Append(ctx, id, expected, events...)
	if err != nil {
		return newVersion, err
	}

	first := newVersion - version.Version(len(events)) + 1

	for i, evt := range events {
		es.recorded = append(es.recorded, Persisted{
			StreamID: id,
			Version:  first + version.Version(i),
			Envelope: evt,
		})
	}

	return newVersion, nil
}
