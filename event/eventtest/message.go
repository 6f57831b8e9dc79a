// Package eventtest provides a conformance suite for event.Store
// implementations, together with the test messages it appends.
package eventtest

import (
	"encoding/json"
	"fmt"

	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/serde"
)

// Opened is the test event appended by the suite.
type Opened struct {
	Page int64 `json:"page"`
}

// Name implements message.Message.
func (Opened) Name() string { return "eventtest.opened" }

// Serde maps Opened messages to JSON and back. Any other message type
// is rejected on serialization.
var Serde serde.Bytes[message.Message] = serde.Fuse[message.Message, []byte](
	serde.SerializerFunc[message.Message, []byte](func(msg message.Message) ([]byte, error) {
		opened, ok := msg.(Opened)
		if !ok {
			return nil, fmt.Errorf("eventtest.Serde: unexpected message type, %T", msg)
		}

		return json.Marshal(opened)
	}),
	serde.DeserializerFunc[message.Message, []byte](func(data []byte) (message.Message, error) {
		var opened Opened
		if err := json.Unmarshal(data, &opened); err != nil {
			return nil, fmt.Errorf("eventtest.Serde: failed to deserialize, %w", err)
		}

		return opened, nil
	}),
)
