// Package postgres contains the PostgreSQL implementations of the
// event.Store and of the legacy log, using pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/serde"
	"github.com/icontent-lms/go-icontent/version"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool (or pgx.Conn) the postgres types need.
type DB interface {
	BeginTx(ctx context.Context, options pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ event.Store = EventStore{}

// EventStore is an event.Store implementation targeted to PostgreSQL databases.
//
// The implementation uses "event_streams" and "events" as their
// operational tables. Updates to these tables are transactional.
type EventStore struct {
	Conn  DB
	Serde serde.Bytes[message.Message]
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) error {
	defer close(stream)

	rows, err := es.Conn.Query(
		ctx,
		`SELECT "version", event, metadata FROM events
		WHERE event_stream_id = $1 AND "version" >= $2
		ORDER BY "version"`,
		string(id), int64(selector.From),
	)
	if err != nil {
		return fmt.Errorf("postgres.EventStore: failed to query events table, %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var (
			eventVersion int64
			rawEvent     []byte
			rawMetadata  []byte
		)

		if err := rows.Scan(&eventVersion, &rawEvent, &rawMetadata); err != nil {
			return fmt.Errorf("postgres.EventStore: failed to scan next row, %w", err)
		}

		msg, err := es.Serde.Deserialize(rawEvent)
		if err != nil {
			return fmt.Errorf("postgres.EventStore: failed to deserialize event, %w", err)
		}

		evt := event.Persisted{
			StreamID: id,
			Version:  version.Version(eventVersion),
			Envelope: event.Envelope{Message: msg},
		}

		if rawMetadata != nil {
			if err := json.Unmarshal(rawMetadata, &evt.Metadata); err != nil {
				return fmt.Errorf("postgres.EventStore: failed to deserialize metadata, %w", err)
			}
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("postgres.EventStore: context error, %w", ctx.Err())
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres.EventStore: failed while reading rows, %w", err)
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
	txOpts := pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.NotDeferrable,
	}

	var newVersion version.Version

	err := pgx.BeginTxFunc(ctx, es.Conn, txOpts, func(tx pgx.Tx) error {
		v, err := es.appendEvents(ctx, tx, id, expected, events...)
		newVersion = v

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("postgres.EventStore: failed to append events, %w", err)
	}

	return newVersion, nil
}

func (es EventStore) appendEvents(
	ctx context.Context,
	tx pgx.Tx,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	// The upsert locks the stream row, waiting for any concurrent append
	// to commit, and returns the version that append left behind.
	var updated int64

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO event_streams AS s (event_stream_id, "version") VALUES ($1, $2)
		ON CONFLICT (event_stream_id) DO UPDATE SET "version" = s."version" + EXCLUDED."version"
		RETURNING "version"`,
		string(id), int64(len(events)),
	).Scan(&updated); err != nil {
		return 0, es.conflictOr(err, expected, 0, "failed to update event stream")
	}

	newVersion := version.Version(updated)
	current := newVersion - version.Version(len(events))

	if v, ok := expected.(version.CheckExact); ok && version.Version(v) != current {
		return 0, version.ConflictError{Expected: version.Version(v), Actual: current}
	}

	recordedAt := time.Now().UTC().Format(time.RFC3339Nano)

	for i, evt := range events {
		data, err := es.Serde.Serialize(evt.Message)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize event, %w", err)
		}

		metadata, err := json.Marshal(message.Metadata{}.Merge(evt.Metadata).With(message.RecordedAtKey, recordedAt))
		if err != nil {
			return 0, fmt.Errorf("failed to serialize metadata, %w", err)
		}

		if _, err := tx.Exec(
			ctx,
			`INSERT INTO events (event_stream_id, "type", "version", event, metadata)
			VALUES ($1, $2, $3, $4, $5)`,
			string(id), evt.Message.Name(), int64(current)+int64(i)+1, data, metadata,
		); err != nil {
			return 0, es.conflictOr(err, expected, current, "failed to insert event")
		}
	}

	return newVersion, nil
}

// conflictOr maps unique violations into a version.ConflictError: they are
// raised when a concurrent append to the same stream committed first, so
// the stream is at least one version past current.
func (EventStore) conflictOr(err error, expected version.Check, current version.Version, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		exp := current
		if v, ok := expected.(version.CheckExact); ok {
			exp = version.Version(v)
		}

		return version.ConflictError{Expected: exp, Actual: current + 1}
	}

	return fmt.Errorf("%s, %w", msg, err)
}
