// Package icontent records the activity of the interactive content
// (icontent) learning module.
//
// Activity records live in `activity`, and are triggered, persisted and
// observed through the `eventlog` Dispatcher. The `postgres` and
// `firestore` packages provide durable event.Store implementations,
// `report` builds read models from the recorded activity, and
// `cmd/icontent-events` serves everything over HTTP.
package icontent
