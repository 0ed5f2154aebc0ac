package service

import (
	"context"
	"encoding/json"

	"insightslm-be/internal/pkg/logger"
	"insightslm-be/internal/websocket"
	"insightslm-be/pkg/events"
	pkgNats "insightslm-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IPushService fans row-change events out of the in-process bus: to the
// websocket hub for connected clients of this instance, and to NATS so
// other instances see the change too.
type IPushService interface {
	Consume(ctx context.Context) error
}

type pushService struct {
	pubSub          *gochannel.GoChannel
	topicName       string
	hub             *websocket.Hub
	eventPublisher  *pkgNats.Publisher
	eventSubscriber *pkgNats.Subscriber
	logger          logger.ILogger
}

func NewPushService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
	eventPublisher *pkgNats.Publisher,
	eventSubscriber *pkgNats.Subscriber,
	log logger.ILogger,
) IPushService {
	return &pushService{
		pubSub:          pubSub,
		topicName:       topicName,
		hub:             hub,
		eventPublisher:  eventPublisher,
		eventSubscriber: eventSubscriber,
		logger:          log,
	}
}

func (ps *pushService) Consume(ctx context.Context) error {
	messages, err := ps.pubSub.Subscribe(ctx, ps.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ps.processMessage(ctx, msg)
		}
	}()

	// Changes published by other instances arrive over NATS and are
	// delivered to this instance's local connections.
	if ps.eventSubscriber != nil {
		if err := ps.eventSubscriber.Subscribe(pkgNats.SubjectWildcard, "push-relay-worker", ps.handleRemote); err != nil {
			ps.logger.Warn("PushService", "NATS subscription failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return nil
}

func (ps *pushService) handleRemote(ctx context.Context, change events.RowChange) error {
	if ps.hub != nil {
		if userId, err := uuid.Parse(change.UserID); err == nil {
			ps.hub.Send(userId, change)
		}
	}
	return nil
}

func (ps *pushService) processMessage(ctx context.Context, msg *message.Message) {
	var change events.RowChange
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		// Ack malformed messages, retrying cannot fix them.
		ps.logger.Error("PushService", "Failed to unmarshal row change", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack()
		return
	}

	if ps.hub != nil {
		if userId, err := uuid.Parse(change.UserID); err == nil {
			ps.hub.Send(userId, change)
		}
	}

	if ps.eventPublisher != nil {
		if err := ps.eventPublisher.Publish(ctx, change); err != nil {
			ps.logger.Warn("PushService", "Failed to relay row change to NATS", map[string]interface{}{
				"event": change.EventType(),
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
