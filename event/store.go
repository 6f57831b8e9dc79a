package event

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/icontent-lms/go-icontent/version"
)

// Stream is a channel of persisted Events, in Event Stream order.
type Stream = chan Persisted

// StreamWrite is the write end of a Stream, handed to a Streamer.
type StreamWrite chan<- Persisted

// StreamRead is the read end of a Stream.
type StreamRead <-chan Persisted

// StreamToSlice runs open and collects every Event it writes on the stream.
//
// open is run in its own goroutine and must close the stream when done,
// as every Streamer does. The error returned by open, if any, is returned
// together with the Events collected up to that point.
func StreamToSlice(ctx context.Context, open func(ctx context.Context, stream StreamWrite) error) ([]Persisted, error) {
	ch := make(Stream, 1)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return open(ctx, ch) })

	var events []Persisted
	for evt := range ch {
		events = append(events, evt)
	}

	return events, group.Wait()
}

// Streamer replays an Event Stream.
//
// Implementations write the Events of the stream identified by id, starting
// from selector.From, and close stream when returning.
type Streamer interface {
	Stream(ctx context.Context, stream StreamWrite, id StreamID, selector version.Selector) error
}

// Appender appends Events to an Event Stream and returns its new version.
//
// When expected is a version.CheckExact that does not match the current
// version, nothing is appended and a version.ConflictError is returned.
type Appender interface {
	Append(ctx context.Context, id StreamID, expected version.Check, events ...Envelope) (version.Version, error)
}

// Store is where recorded Events are kept and replayed from.
type Store interface {
	Appender
	Streamer
}

// FusedStore assembles a Store from separate halves, e.g. to replace
// the Appender of a backend in tests.
type FusedStore struct {
	Appender
	Streamer
}
