package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/service"
)

type sinkRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *sinkRecorder) handle(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *sinkRecorder) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.ID)
	}
	return out
}

func TestEventForwarder_DeliversInOrderAndDrainsOnClose(t *testing.T) {
	sink := &sinkRecorder{}
	f := NewEventForwarder(sink.handle, 8, time.Second, zap.NewNop())

	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, f.Handle(context.Background(), events.Event{ID: id, Type: events.EventLeadCreated}))
	}
	f.Close()

	assert.Equal(t, []string{"e1", "e2", "e3"}, sink.ids())
	assert.NoError(t, f.Handle(context.Background(), events.Event{ID: "late"}))
	f.Close()
	assert.Len(t, sink.ids(), 3)
}

func TestEventForwarder_FullQueueDropsWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	var delivered sync.WaitGroup
	delivered.Add(1)
	var once sync.Once
	blocking := func(ctx context.Context, event events.Event) error {
		once.Do(delivered.Done)
		<-release
		return errors.New("broker down")
	}
	f := NewEventForwarder(blocking, 1, 0, zap.NewNop())

	require.NoError(t, f.Handle(context.Background(), events.Event{ID: "in-flight"}))
	delivered.Wait()
	require.NoError(t, f.Handle(context.Background(), events.Event{ID: "queued"}))

	done := make(chan struct{})
	go func() {
		_ = f.Handle(context.Background(), events.Event{ID: "dropped"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Handle blocked on a full queue")
	}

	close(release)
	f.Close()
}

func TestStartNotificationWorker_SubscribesForwarder(t *testing.T) {
	sink := &sinkRecorder{}
	f := NewEventForwarder(sink.handle, 4, 0, nil)
	dispatcher := events.NewInMemoryDispatcher()

	StartNotificationWorker(service.NewNotificationService(dispatcher, zap.NewNop(), f.Handle))
	StartNotificationWorker(nil)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{ID: "a", Type: events.EventLeadAssigned}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{ID: "b", Type: events.EventLeadsImported}))
	f.Close()

	assert.Equal(t, []string{"a", "b"}, sink.ids())
}
