package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/service"
)

const defaultQueueSize = 256

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// EventForwarder moves events to a slow sink (the broker publisher) on a
// background goroutine so request handlers never wait on the network. When the
// queue is full the event is dropped and logged.
type EventForwarder struct {
	sink    events.EventHandler
	logger  *zap.Logger
	timeout time.Duration

	queue    chan events.Event
	done     chan struct{}
	closeMu  sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// NewEventForwarder starts a forwarder delivering to sink. timeout bounds each
// delivery; zero means no bound.
func NewEventForwarder(sink events.EventHandler, queueSize int, timeout time.Duration, logger *zap.Logger) *EventForwarder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &EventForwarder{
		sink:    sink,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan events.Event, queueSize),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

// Handle enqueues the event. It matches events.EventHandler and never blocks.
func (f *EventForwarder) Handle(_ context.Context, event events.Event) error {
	f.closeMu.RLock()
	defer f.closeMu.RUnlock()
	if f.closed {
		return nil
	}
	select {
	case f.queue <- event:
	default:
		f.logger.Warn("event queue full, dropping event",
			zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
func (f *EventForwarder) Close() {
	f.stopOnce.Do(func() {
		f.closeMu.Lock()
		f.closed = true
		close(f.queue)
		f.closeMu.Unlock()
	})
	<-f.done
}

func (f *EventForwarder) run() {
	defer close(f.done)
	for event := range f.queue {
		f.deliver(event)
	}
}

func (f *EventForwarder) deliver(event events.Event) {
	ctx := context.Background()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	if err := f.sink(ctx, event); err != nil {
		f.logger.Warn("forward event failed",
			zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
