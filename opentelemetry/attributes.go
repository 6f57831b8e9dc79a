package opentelemetry

import "go.opentelemetry.io/otel/attribute"

// Names of the spans created by the instrumented Event Store.
const (
	StreamSpanName = "EventStore.Stream"
	AppendSpanName = "EventStore.Append"
)

// Attribute keys recorded on spans and metrics.
var (
	StreamIDAttribute     = attribute.Key("icontent.event_store.stream.id")
	SelectFromAttribute   = attribute.Key("icontent.event_store.stream.select.from")
	VersionCheckAttribute = attribute.Key("icontent.event_store.append.version.check")
	VersionNewAttribute   = attribute.Key("icontent.event_store.append.version.new")
	EventTypeAttribute    = attribute.Key("icontent.event.type")
	ErrorAttribute        = attribute.Key("error")
	DriverAttribute       = attribute.Key("icontent.event_store.driver")
)
