package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neokyc/internal/audit"
	"neokyc/internal/audit/store/memory"
	"neokyc/pkg/requestcontext"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Publish(_ context.Context, event audit.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) received() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func (failingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_EnrichesFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithActor(ctx, "admin")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "Chrome on Linux")

	err := pub.Emit(ctx, audit.Event{Action: audit.ActionVerificationDecided, CustomerID: "c-1"})
	require.NoError(t, err)

	events := store.All()
	require.Len(t, events, 1)
	got := events[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "admin", got.Actor)
	assert.Equal(t, "10.0.0.1", got.ClientIP)
	assert.Equal(t, "Chrome on Linux", got.Device)
}

func TestPublisher_ExplicitFieldsWin(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)

	ctx := requestcontext.WithActor(context.Background(), "admin")
	err := pub.Emit(ctx, audit.Event{Action: audit.ActionVerificationRescored, Actor: "system"})
	require.NoError(t, err)

	assert.Equal(t, "system", store.All()[0].Actor)
}

func TestPublisher_StoreErrorIsReturned(t *testing.T) {
	pub := audit.NewPublisher(failingStore{})
	err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionCustomerRegistered})
	require.Error(t, err)
}

func TestPublisher_RecentNewestFirst(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	ctx := context.Background()

	for i := range 12 {
		err := pub.Emit(ctx, audit.Event{
			Action:     audit.ActionCustomerRegistered,
			CustomerID: uuid.NewString(),
			Timestamp:  time.Unix(int64(i), 0),
		})
		require.NoError(t, err)
	}

	recent, err := pub.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, audit.DefaultRecentLimit)
	assert.Equal(t, time.Unix(11, 0), recent[0].Timestamp)
	assert.Equal(t, time.Unix(2, 0), recent[9].Timestamp)

	recent, err = pub.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestPublisher_SinkDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := audit.NewPublisher(store, audit.WithSink(sink, 100), audit.WithLogger(quietLogger()))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.ActionCustomerRegistered}))
	}
	pub.Close(time.Second)

	assert.Len(t, sink.received(), 10)
	assert.Len(t, store.All(), 10)
}

func TestPublisher_SinkFailureDoesNotFailEmit(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{err: errors.New("broker down")}
	pub := audit.NewPublisher(store, audit.WithSink(sink, 10), audit.WithLogger(quietLogger()))

	err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionCustomerDeleted})
	require.NoError(t, err)
	pub.Close(time.Second)

	assert.Len(t, store.All(), 1)
	assert.Len(t, sink.received(), 1)
}

func TestPublisher_FullBufferDropsSinkCopyOnly(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{block: make(chan struct{})}
	pub := audit.NewPublisher(store, audit.WithSink(sink, 1), audit.WithLogger(quietLogger()))

	// first event is held by the blocked worker, second fills the buffer
	for range 5 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.ActionOTPIssued}))
	}
	close(sink.block)
	pub.Close(time.Second)

	assert.Len(t, store.All(), 5)
	assert.Less(t, len(sink.received()), 5)
}

func TestPublisher_EmitAfterCloseStillStores(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := audit.NewPublisher(store, audit.WithSink(sink, 4), audit.WithLogger(quietLogger()))
	pub.Close(time.Second)
	pub.Close(time.Second)

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.ActionAdminLogin}))
	assert.Len(t, store.All(), 1)
	assert.Empty(t, sink.received())
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	inbox := make(chan audit.Event)
	w := audit.NewWorker(&recordingSink{}, inbox, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}

func TestWorker_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	inbox := make(chan audit.Event, 8)
	w := audit.NewWorker(&recordingSink{err: errors.New("broker down")}, inbox, quietLogger())
	for range 5 {
		inbox <- audit.Event{ID: uuid.New(), Action: audit.ActionOTPIssued}
	}
	close(inbox)

	require.NoError(t, w.Run(context.Background()))
	assert.ErrorIs(t, w.Health(context.Background()), audit.ErrSinkDegraded)
}

func TestPublisher_SinkHealthWithoutSink(t *testing.T) {
	pub := audit.NewPublisher(memory.NewInMemoryStore())
	assert.NoError(t, pub.SinkHealth(context.Background()))
}
