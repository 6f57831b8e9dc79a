package report_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/eventlog"
	"github.com/icontent-lms/go-icontent/i18n"
	"github.com/icontent-lms/go-icontent/query"
	"github.com/icontent-lms/go-icontent/report"
	"github.com/icontent-lms/go-icontent/version"
)

var (
	t0       = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	instance = activity.Instance{ID: 7, Course: 3, Name: "Cell biology"}
	module   = activity.ModuleContext{ID: 120, InstanceID: 42, CourseID: 3}
	mitosis  = activity.Page{ID: 99, ICContentID: 7, CMID: 42, Title: "Mitosis"}
	meiosis  = activity.Page{ID: 100, ICContentID: 7, CMID: 42, Title: "Meiosis"}
)

func viewed(v version.Version, page activity.Page, userID int64, at time.Time) event.Persisted {
	return event.Persisted{
		StreamID: eventlog.StreamFor(module.InstanceID),
		Version:  v,
		Envelope: event.Envelope{
			Message: activity.NewPageViewed(instance, module, page).Stamp(userID, at),
		},
	}
}

func newHandler(es event.Store) *report.PageViewsHandler {
	return report.NewPageViewsHandler(eventlog.NewDispatcher(es, i18n.Table{}))
}

func processorHandler(es event.Store) query.ProcessorHandler[report.PageViews, report.Summary] {
	return newHandler(es)
}

func TestPageViewsHandler(t *testing.T) {
	testCases := map[string]query.Case[report.PageViews, report.Summary]{
		"empty module": {
			When: report.PageViews{CMID: 42},
			Then: report.Summary{CMID: 42, Pages: []report.PageStats{}},
		},
		"counts views and distinct users per page": {
			Given: []event.Persisted{
				viewed(1, mitosis, 5, t0),
				viewed(2, meiosis, 5, t0.Add(time.Minute)),
				viewed(3, mitosis, 6, t0.Add(2*time.Minute)),
				viewed(4, mitosis, 5, t0.Add(3*time.Minute)),
			},
			When: report.PageViews{CMID: 42},
			Then: report.Summary{
				CMID:  42,
				Views: 4,
				Pages: []report.PageStats{
					{PageID: 99, Title: "Mitosis", Views: 3, Users: 2, LastViewed: t0.Add(3 * time.Minute)},
					{PageID: 100, Title: "Meiosis", Views: 1, Users: 1, LastViewed: t0.Add(time.Minute)},
				},
			},
		},
		"other modules are not counted": {
			Given: []event.Persisted{viewed(1, mitosis, 5, t0)},
			When:  report.PageViews{CMID: 43},
			Then:  report.Summary{CMID: 43, Pages: []report.PageStats{}},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.Run(t, processorHandler)
		})
	}
}

func TestPageViewsHandler_Process(t *testing.T) {
	ctx := context.Background()
	store := event.NewInMemoryStore()
	handler := newHandler(store)

	record := func(evt event.Persisted) {
		_, err := store.Append(ctx, evt.StreamID, version.CheckExact(evt.Version-1), evt.Envelope)
		require.NoError(t, err)
		require.NoError(t, handler.Process(ctx, evt))
	}

	record(viewed(1, mitosis, 5, t0))

	summary, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Views)

	// Once loaded, the module is kept current by Process.
	record(viewed(2, mitosis, 6, t0.Add(time.Minute)))

	summary, err = handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Views)
	assert.Equal(t, 2, summary.Pages[0].Users)

	// Events already accounted for are skipped.
	require.NoError(t, handler.Process(ctx, viewed(2, mitosis, 6, t0.Add(time.Minute))))

	summary, err = handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Views)

	// Events of other streams are ignored.
	require.NoError(t, handler.Process(ctx, event.Persisted{StreamID: "other", Version: 1}))
}

func TestPageViewsHandler_HistoryError(t *testing.T) {
	failure := errors.New("store unavailable")

	query.Case[report.PageViews, report.Summary]{
		When:      report.PageViews{CMID: 42},
		ThenError: failure,
	}.Run(t, func(event.Store) query.ProcessorHandler[report.PageViews, report.Summary] {
		return report.NewPageViewsHandler(historyFunc(func(context.Context, int64) ([]eventlog.Entry, error) {
			return nil, failure
		}))
	})
}

func TestPageViewsHandler_ProcessWhileLoading(t *testing.T) {
	ctx := context.Background()

	var handler *report.PageViewsHandler

	handler = report.NewPageViewsHandler(historyFunc(func(ctx context.Context, _ int64) ([]eventlog.Entry, error) {
		// Recorded after the history was read, before the module is ready.
		require.NoError(t, handler.Process(ctx, viewed(2, meiosis, 6, t0.Add(time.Minute))))

		first := viewed(1, mitosis, 5, t0)
		return []eventlog.Entry{{
			Stream:  first.StreamID,
			Version: first.Version,
			Record:  first.Message.(activity.Record),
		}}, nil
	}))

	summary, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Views)
	assert.Len(t, summary.Pages, 2)
}

func TestPageViewsHandler_OutOfOrder(t *testing.T) {
	ctx := context.Background()
	store := event.NewInMemoryStore()
	handler := newHandler(store)

	_, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)

	first, second := viewed(1, mitosis, 5, t0), viewed(2, meiosis, 6, t0.Add(time.Minute))
	for _, evt := range []event.Persisted{first, second} {
		_, err := store.Append(ctx, evt.StreamID, version.CheckExact(evt.Version-1), evt.Envelope)
		require.NoError(t, err)
	}

	require.NoError(t, handler.Process(ctx, second))
	require.NoError(t, handler.Process(ctx, first))

	summary, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Views)
	assert.Len(t, summary.Pages, 2)
}

func TestPageViewsHandler_ReloadsMissingVersions(t *testing.T) {
	ctx := context.Background()
	store := event.NewInMemoryStore()
	handler := newHandler(store)

	_, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)

	events := []event.Persisted{
		viewed(1, mitosis, 5, t0),
		viewed(2, mitosis, 6, t0.Add(time.Minute)),
		viewed(3, meiosis, 5, t0.Add(2*time.Minute)),
	}

	for _, evt := range events {
		_, err := store.Append(ctx, evt.StreamID, version.CheckExact(evt.Version-1), evt.Envelope)
		require.NoError(t, err)
	}

	// Version 2 is never processed.
	require.NoError(t, handler.Process(ctx, events[0]))
	require.NoError(t, handler.Process(ctx, events[2]))

	summary, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Views)
	assert.Equal(t, 2, summary.Pages[0].Users)

	// Processing the missing version late has no effect.
	require.NoError(t, handler.Process(ctx, events[1]))

	summary, err = handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Views)
}

// slowFirstAppend holds the first Append, after it is persisted, until
// release is closed.
type slowFirstAppend struct {
	event.Store

	once     sync.Once
	appended chan struct{}
	release  chan struct{}
}

func (s *slowFirstAppend) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	v, err := s.Store.Append(ctx, id, expected, events...)

	first := false
	s.once.Do(func() { first = true })

	if first {
		close(s.appended)
		<-s.release
	}

	return v, err
}

func TestPageViewsHandler_ConcurrentTriggers(t *testing.T) {
	ctx := context.Background()
	store := &slowFirstAppend{
		Store:    event.NewInMemoryStore(),
		appended: make(chan struct{}),
		release:  make(chan struct{}),
	}

	dispatcher := eventlog.NewDispatcher(store, i18n.Table{})
	handler := report.NewPageViewsHandler(dispatcher)
	dispatcher.Observe(activity.KindPageViewed.EventName(), eventlog.ProcessorObserver(handler))

	_, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		_, err := dispatcher.Trigger(ctx, 5, activity.NewPageViewed(instance, module, mitosis))
		done <- err
	}()

	<-store.appended

	// The second view is stored and observed before the first one.
	_, err = dispatcher.Trigger(ctx, 6, activity.NewPageViewed(instance, module, meiosis))
	require.NoError(t, err)

	close(store.release)
	require.NoError(t, <-done)

	history, err := dispatcher.History(ctx, 42)
	require.NoError(t, err)

	summary, err := handler.Handle(ctx, query.ToEnvelope(report.PageViews{CMID: 42}))
	require.NoError(t, err)
	assert.Equal(t, len(history), summary.Views)
	assert.Equal(t, 2, summary.Views)
}

type historyFunc func(ctx context.Context, cmid int64) ([]eventlog.Entry, error)

func (fn historyFunc) History(ctx context.Context, cmid int64) ([]eventlog.Entry, error) {
	return fn(ctx, cmid)
}
