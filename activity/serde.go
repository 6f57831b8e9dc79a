package activity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/serde"
)

// ErrUnknownKind is returned when (de)serializing a message that is not
// a known activity record.
var ErrUnknownKind = errors.New("activity: unknown record kind")

// Document is the serialized form of a Record: the event name routes
// Data to the right kind.
type Document struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type pageViewedDocument struct {
	Header   Header   `json:"header"`
	Instance Instance `json:"icontent"`
	Page     Page     `json:"icontent_pages"`
}

func toDocument(msg message.Message) (*Document, error) {
	var data any

	switch r := msg.(type) {
	case PageViewed:
		data = pageViewedDocument{Header: r.header, Instance: r.instance, Page: r.page}
	default:
		return nil, fmt.Errorf("activity.toDocument: %w, %T", ErrUnknownKind, msg)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("activity.toDocument: failed to marshal %s, %w", msg.Name(), err)
	}

	return &Document{Event: msg.Name(), Data: raw}, nil
}

func fromDocument(doc *Document) (message.Message, error) {
	kind, ok := KindFromEventName(doc.Event)
	if !ok {
		return nil, fmt.Errorf("activity.fromDocument: %w, %q", ErrUnknownKind, doc.Event)
	}

	switch kind {
	case KindPageViewed:
		var data pageViewedDocument
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, fmt.Errorf("activity.fromDocument: failed to unmarshal %s, %w", doc.Event, err)
		}

		return PageViewed{header: data.Header, instance: data.Instance, page: data.Page}, nil
	default:
		return nil, fmt.Errorf("activity.fromDocument: %w, %s", ErrUnknownKind, kind)
	}
}

// DocumentSerde maps activity records to their Document representation.
var DocumentSerde serde.Serde[message.Message, *Document] = serde.Fuse[message.Message, *Document](
	serde.SerializerFunc[message.Message, *Document](toDocument),
	serde.DeserializerFunc[message.Message, *Document](fromDocument),
)

// NewJSONSerde returns the serde used by the Event Store backends
// to persist activity records as JSON.
func NewJSONSerde() serde.Bytes[message.Message] {
	return serde.Chain[message.Message, *Document, []byte](
		DocumentSerde,
		serde.NewJSON(func() *Document { return new(Document) }),
	)
}
