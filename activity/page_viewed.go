package activity

import (
	"fmt"
	"net/url"
	"time"

	"github.com/icontent-lms/go-icontent/i18n"
)

var _ Record = PageViewed{}

// PageViewed is recorded when a user opens a page of an icontent instance.
type PageViewed struct {
	header   Header
	instance Instance
	page     Page
}

// NewPageViewed creates the record for page of instance being viewed in
// the course module addressed by ctx.
//
// Both rows are kept unchanged as snapshots. No validation is carried
// out here: the eventlog.Dispatcher validates the record when triggered.
func NewPageViewed(instance Instance, ctx ModuleContext, page Page) PageViewed {
	return PageViewed{
		header:   newHeader(KindPageViewed, ctx, page.ID),
		instance: instance,
		page:     page,
	}
}

// Name implements message.Message.
func (PageViewed) Name() string { return KindPageViewed.EventName() }

// Kind implements Record.
func (PageViewed) Kind() Kind { return KindPageViewed }

// Info implements Record.
func (PageViewed) Info() Info { return KindPageViewed.Info() }

// Header implements Record.
func (e PageViewed) Header() Header { return e.header }

// Instance returns the icontent snapshot.
func (e PageViewed) Instance() Instance { return e.instance }

// Page returns the icontent_pages snapshot.
func (e PageViewed) Page() Page { return e.page }

// Description implements Record.
func (e PageViewed) Description() string {
	return fmt.Sprintf(
		"The user with id '%d' viewed the page with id '%d' for the icontent with course module id '%d'.",
		e.header.UserID, e.header.ObjectID, e.header.ContextInstanceID,
	)
}

// LegacyRow implements Record.
func (e PageViewed) LegacyRow() LegacyRow {
	return LegacyRow{
		CourseID:          e.header.CourseID,
		Module:            LegacyModule,
		Action:            "view page",
		URL:               legacyViewURL(e.header.ContextInstanceID, e.header.ObjectID),
		ObjectID:          e.header.ObjectID,
		ContextInstanceID: e.header.ContextInstanceID,
	}
}

// URL implements Record.
func (e PageViewed) URL() *url.URL {
	return viewURL(e.header.ContextInstanceID, e.header.ObjectID)
}

// LocalizedName implements Record.
func (PageViewed) LocalizedName(tr i18n.Translator) (string, error) {
	return KindPageViewed.Label(tr)
}

// Snapshots implements Record.
func (e PageViewed) Snapshots() []Snapshot {
	return []Snapshot{
		{Table: InstancesTable, ID: e.instance.ID, Row: e.instance},
		{Table: PagesTable, ID: e.page.ID, Row: e.page},
	}
}

// Stamp implements Record.
func (e PageViewed) Stamp(userID int64, at time.Time) Record {
	e.header.UserID = userID
	e.header.TimeCreated = at

	return e
}

func (PageViewed) isRecord() {}
