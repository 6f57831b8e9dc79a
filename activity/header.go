package activity

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors returned by Header.Validate.
var (
	ErrMissingContext  = errors.New("activity: context is required")
	ErrMissingObjectID = errors.New("activity: objectid is required when objecttable is set")
	ErrInvalidCRUD     = errors.New("activity: invalid crud value")
	ErrInvalidEduLevel = errors.New("activity: invalid edulevel value")
)

// Header holds the data shared by every activity record.
type Header struct {
	EventName         string    `json:"eventname"`
	Component         string    `json:"component"`
	Action            string    `json:"action"`
	Target            string    `json:"target"`
	ObjectTable       string    `json:"objecttable"`
	ObjectID          int64     `json:"objectid"`
	CRUD              CRUD      `json:"crud"`
	EduLevel          EduLevel  `json:"edulevel"`
	ContextID         int64     `json:"contextid"`
	ContextInstanceID int64     `json:"contextinstanceid"`
	CourseID          int64     `json:"courseid"`
	UserID            int64     `json:"userid"`
	TimeCreated       time.Time `json:"timecreated"`
}

func newHeader(kind Kind, ctx ModuleContext, objectID int64) Header {
	descriptor := kinds[kind]

	return Header{
		EventName:         descriptor.eventName,
		Component:         Component,
		Action:            descriptor.action,
		Target:            descriptor.target,
		ObjectTable:       descriptor.info.ObjectTable,
		ObjectID:          objectID,
		CRUD:              descriptor.info.CRUD,
		EduLevel:          descriptor.info.EduLevel,
		ContextID:         ctx.ID,
		ContextInstanceID: ctx.InstanceID,
		CourseID:          ctx.CourseID,
	}
}

// Validate checks the Header carries everything the activity log needs
// to persist it.
func (h Header) Validate() error {
	if h.ContextInstanceID <= 0 {
		return fmt.Errorf("%w, event: %s", ErrMissingContext, h.EventName)
	}

	if h.ObjectTable != "" && h.ObjectID <= 0 {
		return fmt.Errorf("%w, event: %s", ErrMissingObjectID, h.EventName)
	}

	if !h.CRUD.Valid() {
		return fmt.Errorf("%w, %q", ErrInvalidCRUD, h.CRUD)
	}

	if !h.EduLevel.Valid() {
		return fmt.Errorf("%w, %s", ErrInvalidEduLevel, h.EduLevel)
	}

	return nil
}
