package eventlog

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/i18n"
	"github.com/icontent-lms/go-icontent/logger"
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/version"
)

// Option can be used to change the configuration of a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the Logger used by the Dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// WithIDGenerator overrides the generator of event ids.
func WithIDGenerator(generate func() uuid.UUID) Option {
	return func(d *Dispatcher) { d.generateID = generate }
}

// WithLegacyWriter registers a LegacyObserver for every event.
func WithLegacyWriter(w LegacyWriter) Option {
	return func(d *Dispatcher) { d.Observe(AllEvents, LegacyObserver(w)) }
}

// Dispatcher triggers activity records. Use NewDispatcher to create one.
type Dispatcher struct {
	store      event.Store
	translator i18n.Translator
	logger     logger.Logger
	clock      func() time.Time
	generateID func() uuid.UUID

	mx        sync.RWMutex
	observers map[string][]Observer
}

// NewDispatcher creates a Dispatcher persisting records in store.
// The translator resolves the localized names of the records.
func NewDispatcher(store event.Store, translator i18n.Translator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:      store,
		translator: translator,
		clock:      time.Now,
		generateID: uuid.New,
		observers:  make(map[string][]Observer),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Observe registers o to be notified of every record with the given
// event name, or of every record when eventName is AllEvents.
func (d *Dispatcher) Observe(eventName string, o Observer) {
	d.mx.Lock()
	defer d.mx.Unlock()

	d.observers[eventName] = append(d.observers[eventName], o)
}

func (d *Dispatcher) observersOf(eventName string) []Observer {
	d.mx.RLock()
	defer d.mx.RUnlock()

	observers := make([]Observer, 0, len(d.observers[eventName])+len(d.observers[AllEvents]))
	observers = append(observers, d.observers[eventName]...)
	observers = append(observers, d.observers[AllEvents]...)

	return observers
}

// Trigger records that userID performed the activity described by record.
//
// The record is stamped with userID and the current time, validated and
// appended to the Event Stream of its course module. Observers are
// notified once the record is persisted; their failures are logged and
// do not fail the call.
func (d *Dispatcher) Trigger(ctx context.Context, userID int64, record activity.Record) (Entry, error) {
	stamped := record.Stamp(userID, d.clock().UTC().Round(0))
	header := stamped.Header()

	if err := header.Validate(); err != nil {
		return Entry{}, fmt.Errorf("eventlog.Dispatcher: invalid record, %w", err)
	}

	metadata := message.Metadata{}.
		With(message.EventIDKey, d.generateID().String()).
		With(message.EventNameKey, header.EventName).
		With(message.UserIDKey, strconv.FormatInt(userID, 10)).
		WithTime(message.TimeCreatedKey, header.TimeCreated)

	stream := StreamFor(header.ContextInstanceID)

	v, err := d.store.Append(ctx, stream, version.Any, event.Envelope{
		Message:  stamped,
		Metadata: metadata,
	})
	if err != nil {
		logger.Error(d.logger, "eventlog.Dispatcher: failed to append record",
			logger.With("event", header.EventName),
			logger.With("stream", stream),
			logger.Err(err),
		)

		return Entry{}, fmt.Errorf("eventlog.Dispatcher: failed to append record, %w", err)
	}

	entry := Entry{
		Record:   stamped,
		Stream:   stream,
		Version:  v,
		Metadata: metadata,
	}

	logger.Debug(d.logger, "eventlog.Dispatcher: record triggered",
		logger.With("event", header.EventName),
		logger.With("stream", stream),
		logger.With("version", v),
		logger.With("userid", userID),
	)

	d.notify(ctx, entry)

	return entry, nil
}

func (d *Dispatcher) notify(ctx context.Context, entry Entry) {
	for _, o := range d.observersOf(entry.Record.Name()) {
		if err := o.Observe(ctx, entry); err != nil {
			logger.Warn(d.logger, "eventlog.Dispatcher: observer failed",
				logger.With("event", entry.Record.Name()),
				logger.With("eventid", entry.EventID()),
				logger.Err(err),
			)
		}
	}
}

// History returns the records of the course module cmid, oldest first.
func (d *Dispatcher) History(ctx context.Context, cmid int64) ([]Entry, error) {
	persisted, err := event.StreamToSlice(ctx, func(ctx context.Context, stream event.StreamWrite) error {
		return d.store.Stream(ctx, stream, StreamFor(cmid), version.SelectFromBeginning)
	})
	if err != nil {
		return nil, fmt.Errorf("eventlog.Dispatcher: failed to stream history, %w", err)
	}

	entries := make([]Entry, 0, len(persisted))

	for _, evt := range persisted {
		entry, err := entryFromPersisted(evt)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Label returns the localized name of the record.
func (d *Dispatcher) Label(record activity.Record) (string, error) {
	name, err := record.LocalizedName(d.translator)
	if err != nil {
		return "", fmt.Errorf("eventlog.Dispatcher: %w", err)
	}

	return name, nil
}
