// Package handler decodes upstream commands into coordinator calls and
// turns rejections into command_failed replies.
package handler

import (
	"context"
	"errors"
	"log/slog"

	"sudooom.hanoi.logic/internal/model"
	"sudooom.hanoi.logic/internal/registry"
	"sudooom.hanoi.logic/internal/service"
	"sudooom.hanoi.logic/internal/session"
	"sudooom.hanoi.logic/pkg/proto"
)

type actionFunc func(ctx context.Context, cmd *proto.SessionCommand, origin registry.Location) error

// CommandHandler implements nats.CommandHandler.
type CommandHandler struct {
	coordinator *service.Coordinator
	router      *service.Router
	actions     map[string]actionFunc
	logger      *slog.Logger
}

// NewCommandHandler wires the action table.
func NewCommandHandler(coordinator *service.Coordinator, router *service.Router) *CommandHandler {
	h := &CommandHandler{
		coordinator: coordinator,
		router:      router,
		logger:      slog.Default().With("component", "CommandHandler"),
	}
	h.actions = map[string]actionFunc{
		proto.ActionCreate:          h.handleCreate,
		proto.ActionJoin:            h.handleJoin,
		proto.ActionReady:           h.handleReady,
		proto.ActionStartGame:       h.handleStartGame,
		proto.ActionMove:            h.handleMove,
		proto.ActionFinish:          h.handleFinish,
		proto.ActionForfeit:         h.handleForfeit,
		proto.ActionReset:           h.handleReset,
		proto.ActionSetDiskCount:    h.handleSetDiskCount,
		proto.ActionSetMode:         h.handleSetMode,
		proto.ActionJoinTeam:        h.handleJoinTeam,
		proto.ActionSwitchSpectator: h.handleSwitchSpectator,
		proto.ActionSwitchPlayer:    h.handleSwitchPlayer,
		proto.ActionLeave:           h.handleLeave,
	}
	return h
}

// HandleSessionCommand dispatches one command; rejections go back to the
// issuing connection only.
func (h *CommandHandler) HandleSessionCommand(ctx context.Context, cmd *proto.SessionCommand, accessNodeId string, connId int64) {
	origin := registry.Location{AccessNodeID: accessNodeId, ConnID: connId}

	fn, ok := h.actions[cmd.Action]
	if !ok {
		h.logger.Warn("Unknown action", "action", cmd.Action, "connId", connId)
		h.router.ReplyFailure(origin, cmd.ParticipantId, &proto.CommandFailed{
			Action:    cmd.Action,
			SessionId: cmd.SessionId,
			Code:      "UNSUPPORTED_ACTION",
			Message:   "unsupported action",
		})
		return
	}

	if err := fn(ctx, cmd, origin); err != nil {
		code, msg := mapErrorToCodeAndMsg(err)
		h.router.ReplyFailure(origin, cmd.ParticipantId, &proto.CommandFailed{
			Action:    cmd.Action,
			SessionId: cmd.SessionId,
			Code:      code,
			Message:   msg,
		})
	}
}

// HandleConnectionClosed runs disconnect cleanup for a dropped connection.
func (h *CommandHandler) HandleConnectionClosed(ctx context.Context, evt *proto.ConnectionClosed, accessNodeId string) {
	h.coordinator.ConnectionClosed(ctx, evt.ConnId)
}

func (h *CommandHandler) handleCreate(ctx context.Context, cmd *proto.SessionCommand, origin registry.Location) error {
	mode := model.Mode(cmd.Mode)
	if cmd.Mode == "" {
		mode = model.ModeClassic
	}
	_, err := h.coordinator.CreateSession(ctx, service.CreateSessionParams{
		Name:         cmd.Name,
		Mode:         mode,
		DiskCount:    cmd.DiskCount,
		CapacityHint: cmd.CapacityHint,
		Origin:       origin,
	})
	return err
}

func (h *CommandHandler) handleJoin(ctx context.Context, cmd *proto.SessionCommand, origin registry.Location) error {
	_, err := h.coordinator.JoinSession(ctx, service.JoinSessionParams{
		SessionID: cmd.SessionId,
		Name:      cmd.Name,
		Role:      model.Role(cmd.Role),
		Team:      model.Team(cmd.Team),
		Origin:    origin,
	})
	return err
}

func (h *CommandHandler) handleReady(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.MarkReady(ctx, cmd.SessionId, cmd.ParticipantId)
}

func (h *CommandHandler) handleStartGame(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.StartGame(ctx, cmd.SessionId, cmd.ParticipantId)
}

func (h *CommandHandler) handleMove(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.ReportMove(ctx, cmd.SessionId, cmd.ParticipantId, cmd.MoveCount)
}

func (h *CommandHandler) handleFinish(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.ReportFinish(ctx, cmd.SessionId, cmd.ParticipantId, cmd.MoveCount, cmd.FinishTime)
}

func (h *CommandHandler) handleForfeit(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.Forfeit(ctx, cmd.SessionId, cmd.ParticipantId)
}

func (h *CommandHandler) handleReset(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.Reset(ctx, cmd.SessionId, cmd.ParticipantId)
}

func (h *CommandHandler) handleSetDiskCount(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.SetDiskCount(ctx, cmd.SessionId, cmd.ParticipantId, cmd.DiskCount)
}

func (h *CommandHandler) handleSetMode(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.SetMode(ctx, cmd.SessionId, cmd.ParticipantId, model.Mode(cmd.Mode), cmd.CapacityHint)
}

func (h *CommandHandler) handleJoinTeam(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.JoinTeam(ctx, cmd.SessionId, cmd.ParticipantId, model.Team(cmd.Team))
}

func (h *CommandHandler) handleSwitchSpectator(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.SwitchToSpectator(ctx, cmd.SessionId, cmd.ParticipantId)
}

func (h *CommandHandler) handleSwitchPlayer(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.SwitchToPlayer(ctx, cmd.SessionId, cmd.ParticipantId, model.Team(cmd.Team))
}

func (h *CommandHandler) handleLeave(ctx context.Context, cmd *proto.SessionCommand, _ registry.Location) error {
	return h.coordinator.LeaveSession(ctx, cmd.SessionId, cmd.ParticipantId)
}

// mapErrorToCodeAndMsg turns a session error into its wire code and a
// human-readable message.
func mapErrorToCodeAndMsg(err error) (string, string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return "SESSION_NOT_FOUND", "session does not exist"
	case errors.Is(err, session.ErrParticipantNotFound):
		return "PARTICIPANT_NOT_FOUND", "participant is not in this session"
	case errors.Is(err, session.ErrNotOwner):
		return "NOT_OWNER", "only the session owner may do this"
	case errors.Is(err, session.ErrGameStarted):
		return "GAME_STARTED", "the game is already in progress"
	case errors.Is(err, session.ErrGameNotStarted):
		return "GAME_NOT_STARTED", "the game has not started"
	case errors.Is(err, session.ErrGameFinished):
		return "GAME_FINISHED", "the game is already over"
	case errors.Is(err, session.ErrNotAllReady):
		return "NOT_ALL_READY", "all players must be ready"
	case errors.Is(err, session.ErrNotEnoughPlayers):
		return "NOT_ENOUGH_PLAYERS", "not enough players to start"
	case errors.Is(err, session.ErrSessionFull):
		return "SESSION_FULL", "the session has no free player slot"
	case errors.Is(err, session.ErrTeamFull):
		return "TEAM_FULL", "the team has no free slot"
	case errors.Is(err, session.ErrInvalidTeam):
		return "INVALID_TEAM", "unknown team"
	case errors.Is(err, session.ErrNoOpponent):
		return "NO_OPPONENT", "no opponent to concede to"
	case errors.Is(err, session.ErrResetBudget):
		return "RESET_BUDGET_EXHAUSTED", "no resets left"
	case errors.Is(err, session.ErrUnsupportedMode):
		return "UNSUPPORTED_MODE", "unknown game mode"
	case errors.Is(err, session.ErrAlreadyInSession):
		return "ALREADY_IN_SESSION", "participant already joined"
	default:
		return "INTERNAL_ERROR", "internal error"
	}
}
