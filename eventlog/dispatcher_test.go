package eventlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/eventlog"
	"github.com/icontent-lms/go-icontent/i18n"
	"github.com/icontent-lms/go-icontent/logger"
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/version"
)

var (
	now      = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	eventID  = uuid.MustParse("0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0")
	instance = activity.Instance{ID: 7, Course: 3, Name: "Cell biology"}
	module   = activity.ModuleContext{ID: 120, InstanceID: 42, CourseID: 3}
	page     = activity.Page{ID: 99, ICContentID: 7, CMID: 42, Title: "Mitosis"}

	translations = i18n.Table{"mod_icontent": {"eventpageviewed": "Page viewed"}}
)

func newDispatcher(t *testing.T, store event.Store, opts ...eventlog.Option) *eventlog.Dispatcher {
	opts = append([]eventlog.Option{
		eventlog.WithLogger(logger.NewTest(t)),
		eventlog.WithClock(func() time.Time { return now }),
		eventlog.WithIDGenerator(func() uuid.UUID { return eventID }),
	}, opts...)

	return eventlog.NewDispatcher(store, translations, opts...)
}

func TestDispatcher_Trigger(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the stamped record in the module stream", func(t *testing.T) {
		tracking := event.NewTrackingEventStore(event.NewInMemoryStore())
		dispatcher := newDispatcher(t, tracking)

		entry, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, module, page))
		require.NoError(t, err)

		assert.Equal(t, event.StreamID(`mod_icontent/cm/42`), entry.Stream)
		assert.Equal(t, version.Version(1), entry.Version)
		assert.Equal(t, eventID.String(), entry.EventID())
		assert.Equal(t, int64(5), entry.Record.Header().UserID)
		assert.Equal(t, now, entry.Record.Header().TimeCreated)
		assert.Equal(t, message.Metadata{
			message.EventIDKey:     eventID.String(),
			message.EventNameKey:   `\mod_icontent\event\page_viewed`,
			message.UserIDKey:      "5",
			message.TimeCreatedKey: "2024-05-02T09:00:00Z",
		}, entry.Metadata)

		recorded := tracking.RecordedIn(entry.Stream)
		require.Len(t, recorded, 1)
		assert.Equal(t, entry.Record, recorded[0].Message)
		assert.Equal(t, entry.Stream, recorded[0].StreamID)
	})

	t.Run("refuses records with no context", func(t *testing.T) {
		store := event.NewTrackingEventStore(event.NewInMemoryStore())
		dispatcher := newDispatcher(t, store)

		_, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, activity.ModuleContext{}, page))
		assert.ErrorIs(t, err, activity.ErrMissingContext)
		assert.Empty(t, store.Recorded())
	})

	t.Run("refuses records with no object id", func(t *testing.T) {
		dispatcher := newDispatcher(t, event.NewInMemoryStore())

		_, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, module, activity.Page{}))
		assert.ErrorIs(t, err, activity.ErrMissingObjectID)
	})

	t.Run("store failures are returned", func(t *testing.T) {
		boom := errors.New("boom")
		dispatcher := newDispatcher(t, event.FusedStore{
			Appender: failingAppender{err: boom},
			Streamer: event.NewInMemoryStore(),
		})

		_, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, module, page))
		assert.ErrorIs(t, err, boom)
	})
}

type failingAppender struct{ err error }

func (a failingAppender) Append(
	context.Context, event.StreamID, version.Check, ...event.Envelope,
) (version.Version, error) {
	return 0, a.err
}

func TestDispatcher_Observe(t *testing.T) {
	ctx := context.Background()
	legacy := new(eventlog.InMemoryLegacyLog)
	dispatcher := newDispatcher(t, event.NewInMemoryStore(), eventlog.WithLegacyWriter(legacy))

	var byName, failing []eventlog.Entry

	dispatcher.Observe(activity.KindPageViewed.EventName(), eventlog.ObserverFunc(
		func(_ context.Context, entry eventlog.Entry) error {
			byName = append(byName, entry)
			return nil
		},
	))

	dispatcher.Observe(`\mod_book\event\chapter_viewed`, eventlog.ObserverFunc(
		func(context.Context, eventlog.Entry) error {
			t.Fatal("must not be notified")
			return nil
		},
	))

	dispatcher.Observe(eventlog.AllEvents, eventlog.ObserverFunc(
		func(_ context.Context, entry eventlog.Entry) error {
			failing = append(failing, entry)
			return errors.New("observer failure")
		},
	))

	entry, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, module, page))
	require.NoError(t, err, "observer failures must not fail the trigger")

	assert.Equal(t, []eventlog.Entry{entry}, byName)
	assert.Equal(t, []eventlog.Entry{entry}, failing)
	assert.Equal(t, []eventlog.LegacyEntry{{
		Time:   now,
		UserID: 5,
		LegacyRow: activity.LegacyRow{
			CourseID:          3,
			Module:            "icontent",
			Action:            "view page",
			URL:               "view.php?id=42&amp;pageid=99",
			ObjectID:          99,
			ContextInstanceID: 42,
		},
	}}, legacy.Entries())
}

func TestDispatcher_History(t *testing.T) {
	ctx := context.Background()
	store := event.NewInMemoryStore()
	dispatcher := newDispatcher(t, store)

	other := activity.ModuleContext{ID: 121, InstanceID: 43, CourseID: 3}

	first, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, module, page))
	require.NoError(t, err)

	_, err = dispatcher.Trigger(ctx, 6, activity.NewPageViewed(instance, other, page))
	require.NoError(t, err)

	second, err := dispatcher.Trigger(ctx, 6, activity.NewPageViewed(instance, module, page))
	require.NoError(t, err)

	history, err := dispatcher.History(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []eventlog.Entry{first, second}, history)

	t.Run("empty module", func(t *testing.T) {
		history, err := dispatcher.History(ctx, 1000)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("foreign messages in the stream are reported", func(t *testing.T) {
		_, err := store.Append(ctx, eventlog.StreamFor(44), version.Any, event.Envelope{Message: foreign{}})
		require.NoError(t, err)

		_, err = dispatcher.History(ctx, 44)
		assert.ErrorIs(t, err, activity.ErrUnknownKind)
	})
}

type foreign struct{}

func (foreign) Name() string { return "foreign" }

func TestDispatcher_Label(t *testing.T) {
	dispatcher := newDispatcher(t, event.NewInMemoryStore())

	label, err := dispatcher.Label(activity.NewPageViewed(instance, module, page))
	require.NoError(t, err)
	assert.Equal(t, "Page viewed", label)

	empty := eventlog.NewDispatcher(event.NewInMemoryStore(), i18n.Table{})
	_, err = empty.Label(activity.NewPageViewed(instance, module, page))
	assert.ErrorIs(t, err, i18n.ErrMissingString)
}

func TestStreamFor(t *testing.T) {
	cmid, ok := eventlog.ModuleOf(eventlog.StreamFor(42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), cmid)

	_, ok = eventlog.ModuleOf("eventtest/abc")
	assert.False(t, ok)

	_, ok = eventlog.ModuleOf("mod_icontent/cm/abc")
	assert.False(t, ok)
}
