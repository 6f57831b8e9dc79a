package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
)

// AllEvents registers an Observer for every event name.
const AllEvents = "*"

// Observer is notified after a record has been persisted.
type Observer interface {
	Observe(ctx context.Context, entry Entry) error
}

// ObserverFunc is a functional implementation of the Observer interface.
type ObserverFunc func(ctx context.Context, entry Entry) error

// Observe implements the eventlog.Observer interface.
func (fn ObserverFunc) Observe(ctx context.Context, entry Entry) error { return fn(ctx, entry) }

// ProcessorObserver returns an Observer feeding every observed record
// to p, e.g. to keep a read model up to date.
func ProcessorObserver(p event.Processor) Observer {
	return ObserverFunc(func(ctx context.Context, entry Entry) error {
		return p.Process(ctx, entry.Persisted())
	})
}

// LegacyEntry is a row of the legacy log.
type LegacyEntry struct {
	Time   time.Time
	UserID int64
	activity.LegacyRow
}

// LegacyWriter stores legacy log rows.
type LegacyWriter interface {
	WriteLegacy(ctx context.Context, entry LegacyEntry) error
}

// LegacyObserver returns an Observer writing the legacy row of every
// observed record to w.
func LegacyObserver(w LegacyWriter) Observer {
	return ObserverFunc(func(ctx context.Context, entry Entry) error {
		header := entry.Record.Header()

		return w.WriteLegacy(ctx, LegacyEntry{
			Time:      header.TimeCreated,
			UserID:    header.UserID,
			LegacyRow: entry.Record.LegacyRow(),
		})
	})
}

var _ LegacyWriter = new(InMemoryLegacyLog)

// InMemoryLegacyLog is a thread-safe, in-memory LegacyWriter.
type InMemoryLegacyLog struct {
	mx      sync.RWMutex
	entries []LegacyEntry
}

// WriteLegacy implements the eventlog.LegacyWriter interface.
func (l *InMemoryLegacyLog) WriteLegacy(_ context.Context, entry LegacyEntry) error {
	l.mx.Lock()
	defer l.mx.Unlock()

	l.entries = append(l.entries, entry)

	return nil
}

// Entries returns a copy of the rows written so far.
func (l *InMemoryLegacyLog) Entries() []LegacyEntry {
	l.mx.RLock()
	defer l.mx.RUnlock()

	entries := make([]LegacyEntry, len(l.entries))
	copy(entries, l.entries)

	return entries
}
