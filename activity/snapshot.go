package activity

import "time"

// Tables the activity records take snapshots of.
const (
	InstancesTable = "icontent"
	PagesTable     = "icontent_pages"
)

// Instance is a row of the icontent table: one interactive content
// activity added to a course.
type Instance struct {
	ID           int64     `json:"id"`
	Course       int64     `json:"course"`
	Name         string    `json:"name"`
	Intro        string    `json:"intro,omitempty"`
	TimeModified time.Time `json:"timemodified"`
}

// Page is a row of the icontent_pages table.
type Page struct {
	ID           int64     `json:"id"`
	ICContentID  int64     `json:"icontentid"`
	CMID         int64     `json:"cmid"`
	PageNum      int       `json:"pagenum"`
	Title        string    `json:"title"`
	Hidden       bool      `json:"hidden"`
	TimeModified time.Time `json:"timemodified"`
}

// ModuleContext addresses the course module an activity happened in.
type ModuleContext struct {
	// ID is the context id.
	ID int64
	// InstanceID is the course module id.
	InstanceID int64
	// CourseID is the course the module belongs to.
	CourseID int64
}

// Snapshot is a copy of a row taken when the record was created.
type Snapshot struct {
	Table string
	ID    int64
	Row   any
}
