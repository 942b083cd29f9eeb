package handler

import (
	"context"
	"sync"
	"testing"

	"sudooom.hanoi.logic/internal/config"
	"sudooom.hanoi.logic/internal/registry"
	"sudooom.hanoi.logic/internal/service"
	"sudooom.hanoi.logic/internal/session"
	"sudooom.hanoi.logic/pkg/proto"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages []*proto.DownstreamMessage
}

func (c *capturePublisher) PublishToAccess(accessNodeId string, message *proto.DownstreamMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	return nil
}

func (c *capturePublisher) lastFailure() *proto.CommandFailed {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := len(c.messages) - 1; n >= 0; n-- {
		if f := c.messages[n].Payload.CommandFailed; f != nil {
			return f
		}
	}
	return nil
}

func newTestHandler() (*CommandHandler, *capturePublisher) {
	directory := session.NewDirectory()
	reg := registry.New()
	pub := &capturePublisher{}
	router := service.NewRouter(reg, pub)
	coordinator := service.NewCoordinator(directory, reg, router, nil, nil,
		config.GameConfig{DefaultDiskCount: 4, MaxResets: 2})
	return NewCommandHandler(coordinator, router), pub
}

func TestUnknownActionRepliesUnsupported(t *testing.T) {
	h, pub := newTestHandler()

	h.HandleSessionCommand(context.Background(), &proto.SessionCommand{
		Action: "DANCE",
	}, "node-1", 1)

	failure := pub.lastFailure()
	if failure == nil {
		t.Fatal("No command_failed reply")
	}
	if failure.Code != "UNSUPPORTED_ACTION" || failure.Action != "DANCE" {
		t.Errorf("Unexpected failure: %+v", failure)
	}
}

func TestRejectedCommandCarriesWireCode(t *testing.T) {
	h, pub := newTestHandler()

	h.HandleSessionCommand(context.Background(), &proto.SessionCommand{
		Action:        proto.ActionJoin,
		SessionId:     "nope1234",
		ParticipantId: "p1",
		Name:          "Bob",
	}, "node-1", 1)

	failure := pub.lastFailure()
	if failure == nil {
		t.Fatal("No command_failed reply")
	}
	if failure.Code != "SESSION_NOT_FOUND" || failure.SessionId != "nope1234" {
		t.Errorf("Unexpected failure: %+v", failure)
	}
}

func TestCreateThenStartGates(t *testing.T) {
	h, pub := newTestHandler()
	ctx := context.Background()

	h.HandleSessionCommand(ctx, &proto.SessionCommand{
		Action: proto.ActionCreate,
		Name:   "Alice",
		Mode:   "classic",
	}, "node-1", 1)

	if f := pub.lastFailure(); f != nil {
		t.Fatalf("Create unexpectedly failed: %+v", f)
	}

	// The room_joined reply carries the minted ids.
	pub.mu.Lock()
	last := pub.messages[len(pub.messages)-1]
	pub.mu.Unlock()
	if last.Payload.SessionEvent == nil || last.Payload.SessionEvent.Event != proto.EventRoomJoined {
		t.Fatalf("Expected room_joined, got %+v", last.Payload)
	}
	sessionID := last.Payload.SessionEvent.SessionId
	participantID := last.ParticipantId

	// A lone unready player cannot start.
	h.HandleSessionCommand(ctx, &proto.SessionCommand{
		Action:        proto.ActionStartGame,
		SessionId:     sessionID,
		ParticipantId: participantID,
	}, "node-1", 1)

	failure := pub.lastFailure()
	if failure == nil || failure.Code != "NOT_ENOUGH_PLAYERS" {
		t.Errorf("Expected NOT_ENOUGH_PLAYERS, got %+v", failure)
	}
}

func TestMapErrorToCodeAndMsg(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{session.ErrSessionNotFound, "SESSION_NOT_FOUND"},
		{session.ErrNotOwner, "NOT_OWNER"},
		{session.ErrResetBudget, "RESET_BUDGET_EXHAUSTED"},
		{session.ErrUnsupportedMode, "UNSUPPORTED_MODE"},
		{context.DeadlineExceeded, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		if code, _ := mapErrorToCodeAndMsg(tt.err); code != tt.code {
			t.Errorf("mapErrorToCodeAndMsg(%v) = %s, want %s", tt.err, code, tt.code)
		}
	}
}

func TestConnectionClosedDelegates(t *testing.T) {
	h, _ := newTestHandler()
	// Unknown connection: cleanup must be a silent no-op.
	h.HandleConnectionClosed(context.Background(), &proto.ConnectionClosed{ConnId: 7}, "node-1")
}
