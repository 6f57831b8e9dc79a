package activity

import (
	"net/url"
	"time"

	"github.com/icontent-lms/go-icontent/i18n"
	"github.com/icontent-lms/go-icontent/message"
)

// Record is an immutable activity record.
//
// The set of implementations is closed: only the types in this package
// satisfy it.
type Record interface {
	message.Message

	Kind() Kind
	Header() Header
	Info() Info

	// Description is a fixed English sentence describing what happened.
	Description() string
	// LegacyRow adapts the record for the legacy log consumers.
	LegacyRow() LegacyRow
	// URL links back to the screen where the activity happened.
	URL() *url.URL
	// LocalizedName resolves the name of the record kind through tr.
	LocalizedName(tr i18n.Translator) (string, error)
	// Snapshots returns the rows captured at creation time.
	Snapshots() []Snapshot

	// Stamp returns a copy of the record attributed to userID at the given time.
	Stamp(userID int64, at time.Time) Record

	isRecord()
}

// RecordSnapshot returns the row of table with the given id that r
// captured at creation time, if any.
func RecordSnapshot(r Record, table string, id int64) (any, bool) {
	for _, snapshot := range r.Snapshots() {
		if snapshot.Table == table && snapshot.ID == id {
			return snapshot.Row, true
		}
	}

	return nil, false
}
