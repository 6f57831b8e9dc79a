// Package report contains read models built from the recorded activity
// of the icontent modules.
package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/eventlog"
	"github.com/icontent-lms/go-icontent/query"
	"github.com/icontent-lms/go-icontent/version"
)

// PageViews asks for the page view statistics of a course module.
type PageViews struct {
	CMID int64
}

// Name implements the message.Message interface.
func (PageViews) Name() string { return "ListPageViews" }

// PageStats summarizes the views of a single page.
type PageStats struct {
	PageID     int64     `json:"pageid"`
	Title      string    `json:"title"`
	Views      int       `json:"views"`
	Users      int       `json:"users"`
	LastViewed time.Time `json:"lastviewed"`
}

// Summary is the result of a PageViews query. Pages are sorted by id.
type Summary struct {
	CMID  int64       `json:"cmid"`
	Views int         `json:"views"`
	Pages []PageStats `json:"pages"`
}

// HistoryReader returns the recorded activity of a course module.
// It is implemented by *eventlog.Dispatcher.
type HistoryReader interface {
	History(ctx context.Context, cmid int64) ([]eventlog.Entry, error)
}

var (
	_ query.Handler[PageViews, Summary] = new(PageViewsHandler)
	_ event.Processor                   = new(PageViewsHandler)
)

type pageState struct {
	stats PageStats
	users map[int64]struct{}
}

type moduleState struct {
	version version.Version
	pages   map[int64]*pageState

	// Events past the next expected version, held until the versions
	// in between have been applied.
	ahead map[version.Version]event.Persisted

	// Set while the history is being loaded.
	ready chan struct{}
}

func newModuleState() *moduleState {
	return &moduleState{
		pages: make(map[int64]*pageState),
		ahead: make(map[version.Version]event.Persisted),
		ready: make(chan struct{}),
	}
}

// PageViewsHandler keeps per-page view statistics in memory.
//
// A course module is loaded from its history the first time it is
// queried; afterwards the handler relies on Process to stay current.
// Events are applied in version order: one arriving ahead of a missing
// version waits for it, and a query finding such a gap reads the
// missing versions from the history. Events of modules never queried
// are skipped, as are events already accounted for.
type PageViewsHandler struct {
	history HistoryReader

	mx      sync.RWMutex
	modules map[int64]*moduleState
}

// NewPageViewsHandler returns a PageViewsHandler loading module
// histories from history.
func NewPageViewsHandler(history HistoryReader) *PageViewsHandler {
	return &PageViewsHandler{
		history: history,
		modules: make(map[int64]*moduleState),
	}
}

// Process implements the event.Processor interface.
func (h *PageViewsHandler) Process(_ context.Context, evt event.Persisted) error {
	cmid, ok := eventlog.ModuleOf(evt.StreamID)
	if !ok {
		return nil
	}

	h.mx.Lock()
	defer h.mx.Unlock()

	if module, ok := h.modules[cmid]; ok {
		module.apply(evt)
	}

	return nil
}

// Handle implements the query.Handler interface.
func (h *PageViewsHandler) Handle(ctx context.Context, q query.Envelope[PageViews]) (Summary, error) {
	cmid := q.Message.CMID

	if err := h.load(ctx, cmid); err != nil {
		return Summary{}, err
	}

	h.mx.RLock()
	gap := len(h.modules[cmid].ahead) > 0
	h.mx.RUnlock()

	if gap {
		if err := h.catchUp(ctx, cmid); err != nil {
			return Summary{}, err
		}
	}

	h.mx.RLock()
	defer h.mx.RUnlock()

	return h.modules[cmid].summary(cmid), nil
}

func (h *PageViewsHandler) load(ctx context.Context, cmid int64) error {
	for {
		h.mx.Lock()
		module, ok := h.modules[cmid]

		if !ok {
			module = newModuleState()
			h.modules[cmid] = module
			h.mx.Unlock()

			return h.fill(ctx, cmid, module)
		}

		ready := module.ready
		h.mx.Unlock()

		if ready == nil {
			return nil
		}

		// Another caller is loading the module: wait, then check again
		// since its load may have failed.
		select {
		case <-ready:
		case <-ctx.Done():
			return fmt.Errorf("report.PageViewsHandler: module %d not loaded, %w", cmid, ctx.Err())
		}
	}
}

// fill applies the history of a module registered by load. Events
// processed while the history is read are held by apply until the
// history catches up with them.
func (h *PageViewsHandler) fill(ctx context.Context, cmid int64, module *moduleState) error {
	entries, err := h.history.History(ctx, cmid)

	h.mx.Lock()
	defer h.mx.Unlock()
	defer close(module.ready)

	if err != nil {
		delete(h.modules, cmid)
		return fmt.Errorf("report.PageViewsHandler: failed to load history of module %d, %w", cmid, err)
	}

	for _, entry := range entries {
		module.apply(entry.Persisted())
	}

	module.ready = nil

	return nil
}

func (h *PageViewsHandler) catchUp(ctx context.Context, cmid int64) error {
	entries, err := h.history.History(ctx, cmid)
	if err != nil {
		return fmt.Errorf("report.PageViewsHandler: failed to reload history of module %d, %w", cmid, err)
	}

	h.mx.Lock()
	defer h.mx.Unlock()

	module := h.modules[cmid]
	for _, entry := range entries {
		module.apply(entry.Persisted())
	}

	return nil
}

// apply records evt if it is the next version of the module, then
// any held event that became next in turn.
func (m *moduleState) apply(evt event.Persisted) {
	switch {
	case evt.Version <= m.version:
		return
	case evt.Version > m.version+1:
		m.ahead[evt.Version] = evt
		return
	}

	m.record(evt)

	for {
		next, ok := m.ahead[m.version+1]
		if !ok {
			break
		}

		m.record(next)
	}
}

func (m *moduleState) record(evt event.Persisted) {
	delete(m.ahead, evt.Version)
	m.version = evt.Version

	record, ok := evt.Message.(activity.PageViewed)
	if !ok {
		return
	}

	header := record.Header()

	page, ok := m.pages[header.ObjectID]
	if !ok {
		page = &pageState{
			stats: PageStats{PageID: header.ObjectID},
			users: make(map[int64]struct{}),
		}
		m.pages[header.ObjectID] = page
	}

	page.stats.Title = record.Page().Title
	page.stats.Views++
	page.users[header.UserID] = struct{}{}
	page.stats.Users = len(page.users)

	if header.TimeCreated.After(page.stats.LastViewed) {
		page.stats.LastViewed = header.TimeCreated
	}
}

func (m *moduleState) summary(cmid int64) Summary {
	summary := Summary{
		CMID:  cmid,
		Pages: make([]PageStats, 0, len(m.pages)),
	}

	for _, page := range m.pages {
		summary.Views += page.stats.Views
		summary.Pages = append(summary.Pages, page.stats)
	}

	sort.Slice(summary.Pages, func(i, j int) bool {
		return summary.Pages[i].PageID < summary.Pages[j].PageID
	})

	return summary
}
