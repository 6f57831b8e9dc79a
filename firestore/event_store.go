// Package icontentfirestore contains an event.Store implementation
// backed by Google Cloud Firestore.
package icontentfirestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/serde"
	"github.com/icontent-lms/go-icontent/version"
)

// Default collection names.
const (
	DefaultEventsCollection  = "Events"
	DefaultStreamsCollection = "EventStreams"
)

var _ event.Store = EventStore{}

// EventStore is an event.Store implementation using two Firestore
// collections: one document per Event Stream holding its last version,
// and one document per Event. Appends run in a Firestore transaction.
type EventStore struct {
	Client *firestore.Client
	Serde  serde.Bytes[message.Message]

	// Prefix is prepended to the collection names, to share a project
	// between environments.
	Prefix string
}

func (es EventStore) eventsCollection() *firestore.CollectionRef {
	return es.Client.Collection(es.Prefix + DefaultEventsCollection)
}

func (es EventStore) streamsCollection() *firestore.CollectionRef {
	return es.Client.Collection(es.Prefix + DefaultStreamsCollection)
}

// Document ids cannot contain slashes.
func documentID(id event.StreamID) string {
	return url.PathEscape(string(id))
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) error {
	defer close(stream)

	iter := es.eventsCollection().
		Where("event_stream_id", "==", string(id)).
		Where("version", ">=", int64(selector.From)).
		OrderBy("version", firestore.Asc).
		Documents(ctx)

	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("icontentfirestore.EventStore.Stream: failed while reading iterator, %w", err)
		}

		evt, err := es.toPersisted(id, doc.Data())
		if err != nil {
			return fmt.Errorf("icontentfirestore.EventStore.Stream: document %s, %w", doc.Ref.ID, err)
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("icontentfirestore.EventStore.Stream: context error, %w", ctx.Err())
		}
	}
}

func (es EventStore) toPersisted(id event.StreamID, data map[string]any) (event.Persisted, error) {
	payload, ok := data["payload"].([]byte)
	if !ok {
		return event.Persisted{}, fmt.Errorf("unexpected payload type, %T", data["payload"])
	}

	eventVersion, ok := data["version"].(int64)
	if !ok {
		return event.Persisted{}, fmt.Errorf("unexpected version type, %T", data["version"])
	}

	msg, err := es.Serde.Deserialize(payload)
	if err != nil {
		return event.Persisted{}, fmt.Errorf("failed to deserialize message payload, %w", err)
	}

	var metadata message.Metadata

	if raw, ok := data["metadata"].(map[string]any); ok {
		metadata = make(message.Metadata, len(raw))

		for k, v := range raw {
			if s, ok := v.(string); ok {
				metadata[k] = s
			}
		}
	}

	return event.Persisted{
		StreamID: id,
		Version:  version.Version(eventVersion),
		Envelope: event.Envelope{Message: msg, Metadata: metadata},
	}, nil
}

func (es EventStore) checkAndUpsertEventStream(
	tx *firestore.Transaction,
	id event.StreamID,
	expected version.Check,
	newEventsLength int,
) (version.Version, error) {
	docRef := es.streamsCollection().Doc(documentID(id))

	doc, err := tx.Get(docRef)
	if err != nil && status.Code(err) != codes.NotFound {
		return 0, fmt.Errorf("failed to get stream, %w", err)
	}

	var currentVersion version.Version

	if err == nil {
		lastVersion, ok := doc.Data()["last_version"].(int64)
		if !ok {
			return 0, fmt.Errorf("unexpected last_version type, %T", doc.Data()["last_version"])
		}

		currentVersion = version.Version(lastVersion)
	}

	if v, ok := expected.(version.CheckExact); ok && version.Version(v) != currentVersion {
		return 0, version.ConflictError{
			Expected: version.Version(v),
			Actual:   currentVersion,
		}
	}

	newVersion := currentVersion + version.Version(newEventsLength)

	if err := tx.Set(docRef, map[string]any{
		"event_stream_id": string(id),
		"last_version":    int64(newVersion),
	}); err != nil {
		return 0, fmt.Errorf("failed to update event stream, %w", err)
	}

	return currentVersion, nil
}

func (es EventStore) appendEvent(tx *firestore.Transaction, evt event.Persisted, recordedAt string) error {
	docRef := es.eventsCollection().Doc(fmt.Sprintf("%s@%d", documentID(evt.StreamID), evt.Version))

	payload, err := es.Serde.Serialize(evt.Message)
	if err != nil {
		return fmt.Errorf("failed to serialize message, %w", err)
	}

	metadata := map[string]any{message.RecordedAtKey: recordedAt}
	for k, v := range evt.Metadata {
		metadata[k] = v
	}

	if err := tx.Create(docRef, map[string]any{
		"event_stream_id": string(evt.StreamID),
		"version":         int64(evt.Version),
		"type":            evt.Message.Name(),
		"metadata":        metadata,
		"payload":         payload,
	}); err != nil {
		return fmt.Errorf("failed to append event, %w", err)
	}

	return nil
}

// Append implements the event.Appender interface.
func (es EventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	var currentVersion version.Version

	recordedAt := time.Now().UTC().Format(time.RFC3339Nano)

	err := es.Client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		var err error

		currentVersion, err = es.checkAndUpsertEventStream(tx, id, expected, len(events))
		if err != nil {
			return err
		}

		for i, evt := range events {
			if err := es.appendEvent(tx, event.Persisted{
				StreamID: id,
				Version:  currentVersion + version.Version(i) + 1,
				Envelope: evt,
			}, recordedAt); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("icontentfirestore.EventStore.Append: failed to commit transaction, %w", err)
	}

	return currentVersion + version.Version(len(events)), nil
}
