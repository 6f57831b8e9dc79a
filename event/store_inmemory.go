package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/icontent-lms/go-icontent/version"
)

var _ Store = new(InMemoryStore)

// InMemoryStore is a thread-safe, in-memory event.Store implementation.
type InMemoryStore struct {
	mx     sync.RWMutex
	events map[StreamID][]Envelope
}

// NewInMemoryStore creates a new event.InMemoryStore instance.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		mx:     sync.RWMutex{},
		events: make(map[StreamID][]Envelope),
	}
}

func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event.InMemoryStore: context error, %w", err)
	}

	return nil
}

// Stream streams committed events of the Event Stream identified by id onto
// the provided stream channel, starting from the version in the selector.
//
// This call is synchronous, and fails only when the context is canceled.
func (es *InMemoryStore) Stream(
	ctx context.Context,
	stream StreamWrite,
	id StreamID,
	selector version.Selector,
) error {
	defer close(stream)

	es.mx.RLock()
	events := es.events[id]
	es.mx.RUnlock()

	for i, evt := range events {
		eventVersion := version.Version(i) + 1

		if eventVersion < selector.From {
			continue
		}

		select {
		case stream <- Persisted{StreamID: id, Version: eventVersion, Envelope: evt}:
		case <-ctx.Done():
			return contextErr(ctx)
		}
	}

	return nil
}

// Append inserts the specified Events into the Event Stream identified by id,
// returning the new version of the Event Stream.
//
// A version.ConflictError is returned when a version.CheckExact does not
// match the current version of the Event Stream.
func (es *InMemoryStore) Append(
	ctx context.Context,
	id StreamID,
	expected version.Check,
	events ...Envelope,
) (version.Version, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}

	es.mx.Lock()
	defer es.mx.Unlock()

	currentVersion := version.Version(len(es.events[id]))

	if v, ok := expected.(version.CheckExact); ok && version.Version(v) != currentVersion {
		return 0, fmt.Errorf("event.InMemoryStore: failed to append events, %w", version.ConflictError{
			Expected: version.Version(v),
			Actual:   currentVersion,
		})
	}

	// The backing array is shared with concurrent readers, never write into it.
	stored := make([]Envelope, 0, len(es.events[id])+len(events))
	stored = append(stored, es.events[id]...)
	stored = append(stored, events...)
	es.events[id] = stored

	return version.Version(len(stored)), nil
}
