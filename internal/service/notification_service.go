package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/events"
)

// NotificationService logs lead events and optionally forwards them to an
// external sink such as the RabbitMQ publisher.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	forward    events.EventHandler
}

// NewNotificationService creates the service. forward may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, forward events.EventHandler) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		forward:    forward,
	}
}

// RegisterHandlers subscribes to every lead event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("lead event",
		zap.String("event_type", string(event.Type)),
		zap.Int64("lead_id", event.LeadID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	if n.forward == nil {
		return nil
	}
	return n.forward(ctx, event)
}
