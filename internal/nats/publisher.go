package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"sudooom.hanoi.logic/pkg/proto"
)

// EventPublisher pushes downstream event envelopes to access nodes.
type EventPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEventPublisher creates an event publisher.
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishToAccess delivers one downstream message to the access node
// terminating the target connection. Fire-and-forget: delivery ordering
// per recipient is the access tier's responsibility.
func (p *EventPublisher) PublishToAccess(accessNodeId string, message *proto.DownstreamMessage) error {
	subject := BuildAccessDownstreamSubject(accessNodeId)
	data, err := json.Marshal(message)
	if err != nil {
		p.logger.Error("Failed to marshal downstream message", "error", err)
		return err
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish to access", "accessNodeId", accessNodeId, "error", err)
		return err
	}

	p.logger.Debug("Published downstream message", "accessNodeId", accessNodeId, "subject", subject)
	return nil
}
