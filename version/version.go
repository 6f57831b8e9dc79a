// Package version contains the types used to version Event Streams and
// to carry out optimistic concurrency checks when appending to them.
package version

import "fmt"

// Version is the type to specify Event Stream versions.
// Versions should be starting from 1, as they represent the length of a single Event Stream.
type Version uint32

// SelectFromBeginning is a Selector value that will return all Domain Events in an Event Stream.
var SelectFromBeginning = Selector{From: 0}

// Selector specifies which slice of the Event Stream to select when streaming Domain Events
// from the Event Store.
type Selector struct {
	From Version
}

// ConflictError is returned by an Event Store when appending some events
// using an expected Event Stream version that does not match the current
// state of the Event Stream.
type ConflictError struct {
	Expected Version
	Actual   Version
}

func (err ConflictError) Error() string {
	return fmt.Sprintf(
		"version.ConflictError: conflict detected, expected stream version: %d, actual: %d",
		err.Expected,
		err.Actual,
	)
}
