// Package eventlog records activity.Record values: it stamps them with
// the acting user, validates, persists them in an event.Store and
// notifies the registered observers.
//
// Records of a course module share one Event Stream (see StreamFor),
// which is what History replays.
package eventlog
