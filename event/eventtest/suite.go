package eventtest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/message"
	"github.com/icontent-lms/go-icontent/version"
)

// StoreSuite is a full testing suite for an event.Store instance.
//
// Every test runs against fresh, randomly named Event Streams, so the
// suite can be pointed at a shared database.
type StoreSuite struct {
	suite.Suite

	factory func() event.Store
	store   event.Store

	first, second event.StreamID
}

// NewStoreSuite creates a new Event Store testing suite using the provided
// factory to get the event.Store under test.
func NewStoreSuite(factory func() event.Store) *StoreSuite {
	return &StoreSuite{factory: factory}
}

// SetupTest prepares the Event Store and the stream ids for each test.
func (s *StoreSuite) SetupTest() {
	s.store = s.factory()
	s.first = event.StreamID("eventtest/" + uuid.NewString())
	s.second = event.StreamID("eventtest/" + uuid.NewString())
}

func (s *StoreSuite) stream(id event.StreamID, selector version.Selector) []event.Persisted {
	events, err := event.StreamToSlice(context.Background(), func(ctx context.Context, stream event.StreamWrite) error {
		return s.store.Stream(ctx, stream, id, selector)
	})
	s.Require().NoError(err)

	return events
}

func envelope(page int64) event.Envelope {
	return event.Envelope{
		Message:  Opened{Page: page},
		Metadata: message.Metadata{message.UserIDKey: "7"},
	}
}

// TestStreamEmpty checks that streaming a stream with no events
// returns nothing, and no error.
func (s *StoreSuite) TestStreamEmpty() {
	s.Empty(s.stream(s.first, version.SelectFromBeginning))
}

// TestAppendAndStream appends events to two different streams and
// checks they are isolated and versioned from 1.
func (s *StoreSuite) TestAppendAndStream() {
	ctx := context.Background()

	v, err := s.store.Append(ctx, s.first, version.CheckExact(0), envelope(1), envelope(2))
	s.Require().NoError(err)
	s.Equal(version.Version(2), v)

	v, err = s.store.Append(ctx, s.second, version.Any, envelope(10))
	s.Require().NoError(err)
	s.Equal(version.Version(1), v)

	v, err = s.store.Append(ctx, s.first, version.CheckExact(2), envelope(3))
	s.Require().NoError(err)
	s.Equal(version.Version(3), v)

	first := s.stream(s.first, version.SelectFromBeginning)
	s.Require().Len(first, 3)

	for i, evt := range first {
		s.Equal(s.first, evt.StreamID)
		s.Equal(version.Version(i+1), evt.Version)
		s.Equal(Opened{Page: int64(i + 1)}, evt.Message)
		s.Equal("7", evt.Metadata[message.UserIDKey])
	}

	second := s.stream(s.second, version.SelectFromBeginning)
	s.Require().Len(second, 1)
	s.Equal(Opened{Page: 10}, second[0].Message)
}

// TestSelector checks the lower bound of a version.Selector is inclusive.
func (s *StoreSuite) TestSelector() {
	_, err := s.store.Append(context.Background(), s.first, version.Any, envelope(1), envelope(2), envelope(3))
	s.Require().NoError(err)

	events := s.stream(s.first, version.Selector{From: 2})
	s.Require().Len(events, 2)
	s.Equal(version.Version(2), events[0].Version)
	s.Equal(version.Version(3), events[1].Version)
}

// TestConflict checks a stale version.CheckExact is refused with
// a version.ConflictError, leaving the stream untouched.
func (s *StoreSuite) TestConflict() {
	ctx := context.Background()

	_, err := s.store.Append(ctx, s.first, version.Any, envelope(1))
	s.Require().NoError(err)

	_, err = s.store.Append(ctx, s.first, version.CheckExact(0), envelope(2))

	var conflictErr version.ConflictError
	s.Require().True(errors.As(err, &conflictErr), "expected a version.ConflictError, got %v", err)
	s.Equal(version.ConflictError{Expected: 0, Actual: 1}, conflictErr)

	s.Len(s.stream(s.first, version.SelectFromBeginning), 1)
}
