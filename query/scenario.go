package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/version"
)

// ProcessorHandler is a Query Handler whose read model is hydrated
// by processing persisted events.
type ProcessorHandler[Q Query, R any] interface {
	Handler[Q, R]
	event.Processor
}

// Case describes the expected answer of a ProcessorHandler to a Query,
// given the events recorded so far.
type Case[Q Query, R any] struct {
	// Given events are appended to the store, at the version they carry,
	// and processed by the handler in order.
	Given []event.Persisted
	When  Q
	Then  R

	// ThenError is matched with errors.Is; WantError alone accepts any error.
	ThenError error
	WantError bool
}

// Run builds the handler under test with factory, on top of an empty
// in-memory event.Store, and checks the Case expectations.
func (c Case[Q, R]) Run(t *testing.T, factory func(es event.Store) ProcessorHandler[Q, R]) {
	t.Helper()

	ctx := context.Background()
	store := event.NewInMemoryStore()
	handler := factory(store)

	for _, evt := range c.Given {
		_, err := store.Append(ctx, evt.StreamID, version.CheckExact(evt.Version-1), evt.Envelope)
		require.NoError(t, err, "failed to record given event %v", evt)
		require.NoError(t, handler.Process(ctx, evt), "failed to process given event %v", evt)
	}

	actual, err := handler.Handle(ctx, ToEnvelope(c.When))

	if !c.WantError && c.ThenError == nil {
		assert.NoError(t, err)
		assert.Equal(t, c.Then, actual)

		return
	}

	if assert.Error(t, err) && c.ThenError != nil {
		assert.ErrorIs(t, err, c.ThenError)
	}
}
