package service

import (
	"encoding/json"
	"log/slog"

	"sudooom.hanoi.logic/internal/model"
	"sudooom.hanoi.logic/internal/registry"
	"sudooom.hanoi.logic/pkg/proto"
)

// EventPublisher delivers one downstream envelope to an access node.
// Satisfied by nats.EventPublisher; tests plug in an in-memory fake.
type EventPublisher interface {
	PublishToAccess(accessNodeId string, message *proto.DownstreamMessage) error
}

// Router fans session events out to the live connections of a session's
// participants. Delivery is fire-and-forget; a participant without a
// bound connection is simply skipped.
type Router struct {
	registry  *registry.Registry
	publisher EventPublisher
	logger    *slog.Logger
}

// NewRouter creates a router.
func NewRouter(reg *registry.Registry, publisher EventPublisher) *Router {
	return &Router{
		registry:  reg,
		publisher: publisher,
		logger:    slog.Default().With("component", "Router"),
	}
}

// Broadcast sends one event to every participant in the snapshot,
// players and spectators alike.
func (r *Router) Broadcast(snap *model.Session, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("Failed to marshal event payload", "error", err, "event", event)
		return
	}

	for _, p := range snap.Players {
		r.sendTo(p.ID, snap.ID, event, payload)
	}
	for _, p := range snap.Spectators {
		r.sendTo(p.ID, snap.ID, event, payload)
	}
}

// Unicast sends one event to a single participant.
func (r *Router) Unicast(participantID, sessionID, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("Failed to marshal event payload", "error", err, "event", event)
		return
	}
	r.sendTo(participantID, sessionID, event, payload)
}

// ReplyFailure sends a command_failed reply straight to a connection,
// usable even before the participant exists.
func (r *Router) ReplyFailure(loc registry.Location, participantID string, failure *proto.CommandFailed) {
	msg := &proto.DownstreamMessage{
		ConnId:        loc.ConnID,
		ParticipantId: participantID,
		Payload:       proto.DownstreamPayload{CommandFailed: failure},
	}
	if err := r.publisher.PublishToAccess(loc.AccessNodeID, msg); err != nil {
		r.logger.Warn("Failed to deliver failure reply", "error", err, "connId", loc.ConnID)
	}
}

func (r *Router) sendTo(participantID, sessionID, event string, payload []byte) {
	loc, ok := r.registry.ConnectionOf(participantID)
	if !ok {
		r.logger.Debug("Participant has no live connection", "participantId", participantID, "event", event)
		return
	}

	msg := &proto.DownstreamMessage{
		ConnId:        loc.ConnID,
		ParticipantId: participantID,
		Payload: proto.DownstreamPayload{
			SessionEvent: &proto.SessionEvent{
				Event:     event,
				SessionId: sessionID,
				Data:      payload,
			},
		},
	}
	if err := r.publisher.PublishToAccess(loc.AccessNodeID, msg); err != nil {
		r.logger.Warn("Failed to deliver event",
			"error", err,
			"participantId", participantID,
			"event", event,
			"accessNodeId", loc.AccessNodeID)
	}
}
