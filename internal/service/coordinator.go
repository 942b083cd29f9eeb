package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"sudooom.hanoi.logic/internal/config"
	"sudooom.hanoi.logic/internal/model"
	"sudooom.hanoi.logic/internal/registry"
	"sudooom.hanoi.logic/internal/session"
	"sudooom.hanoi.logic/internal/storage"
	"sudooom.hanoi.logic/pkg/proto"
)

// Coordinator validates inbound commands against the addressed session,
// mutates it, and emits the resulting events. One command is fully
// processed before the next touching the same session begins; the
// per-instance mutex provides that, so the coordinator itself holds no
// locks.
type Coordinator struct {
	directory *session.Directory
	registry  *registry.Registry
	router    *Router
	history   *MatchHistory          // optional
	snapshots *storage.SnapshotCache // optional
	game      config.GameConfig
	logger    *slog.Logger
}

// NewCoordinator wires the command dispatcher. history and snapshots may
// be nil; both are side channels.
func NewCoordinator(
	directory *session.Directory,
	reg *registry.Registry,
	router *Router,
	history *MatchHistory,
	snapshots *storage.SnapshotCache,
	game config.GameConfig,
) *Coordinator {
	return &Coordinator{
		directory: directory,
		registry:  reg,
		router:    router,
		history:   history,
		snapshots: snapshots,
		game:      game,
		logger:    slog.Default().With("component", "Coordinator"),
	}
}

// ============================================================================
// Command parameters
// ============================================================================

// CreateSessionParams carries a create command.
type CreateSessionParams struct {
	Name         string
	Mode         model.Mode
	DiskCount    int
	CapacityHint int
	Origin       registry.Location
}

// JoinSessionParams carries a join command.
type JoinSessionParams struct {
	SessionID string
	Name      string
	Role      model.Role
	Team      model.Team
	Origin    registry.Location
}

// CreateResult reports the minted identifiers.
type CreateResult struct {
	SessionID     string
	ParticipantID string
	Snapshot      *model.Session
}

// ============================================================================
// Lobby commands
// ============================================================================

// CreateSession mints a session with the creator as its sole player and
// binds the creating connection to the new participant.
func (c *Coordinator) CreateSession(ctx context.Context, params CreateSessionParams) (*CreateResult, error) {
	rules, err := session.RulesFor(params.Mode)
	if err != nil {
		return nil, err
	}

	diskCount := params.DiskCount
	if diskCount <= 0 {
		diskCount = c.game.DefaultDiskCount
	}
	name := params.Name
	if name == "" {
		name = "Anonymous"
	}

	participantID := uuid.NewString()
	inst := c.directory.Create(func(id string) *session.Instance {
		return session.New(id, participantID, name, rules, diskCount, params.CapacityHint, c.game.MaxResets)
	})

	c.registry.Register(params.Origin, participantID)
	c.registry.BindSession(participantID, inst.ID())

	snap := inst.Snapshot()
	c.router.Unicast(participantID, inst.ID(), proto.EventRoomJoined, &proto.RoomJoined{
		ParticipantId: participantID,
		Room:          snap,
	})
	c.cacheSnapshot(ctx, snap)

	c.logger.Info("Session created", "sessionId", inst.ID(), "mode", params.Mode, "creator", participantID)
	return &CreateResult{SessionID: inst.ID(), ParticipantID: participantID, Snapshot: snap}, nil
}

// JoinSession admits a new participant and announces the updated room.
func (c *Coordinator) JoinSession(ctx context.Context, params JoinSessionParams) (*CreateResult, error) {
	inst, ok := c.directory.Get(params.SessionID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}

	role := params.Role
	if role != model.RoleSpectator {
		role = model.RolePlayer
	}
	name := params.Name
	if name == "" {
		name = "Anonymous"
	}

	participantID := uuid.NewString()
	snap, err := inst.Join(participantID, name, role, params.Team)
	if err != nil {
		c.logger.Warn("Failed to join session", "error", err, "sessionId", params.SessionID)
		return nil, err
	}

	c.registry.Register(params.Origin, participantID)
	c.registry.BindSession(participantID, params.SessionID)

	c.router.Unicast(participantID, params.SessionID, proto.EventRoomJoined, &proto.RoomJoined{
		ParticipantId: participantID,
		Room:          snap,
	})
	c.router.Broadcast(snap, proto.EventRoomUpdate, snap)
	c.cacheSnapshot(ctx, snap)

	c.logger.Info("Participant joined", "sessionId", params.SessionID, "participantId", participantID, "role", role)
	return &CreateResult{SessionID: params.SessionID, ParticipantID: participantID, Snapshot: snap}, nil
}

// MarkReady flags a player ready and rebroadcasts the room.
func (c *Coordinator) MarkReady(ctx context.Context, sessionID, participantID string) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	snap, err := inst.MarkReady(participantID)
	if err != nil {
		return err
	}
	c.router.Broadcast(snap, proto.EventRoomUpdate, snap)
	c.cacheSnapshot(ctx, snap)
	return nil
}

// SetDiskCount changes puzzle difficulty (owner, lobby only).
func (c *Coordinator) SetDiskCount(ctx context.Context, sessionID, participantID string, n int) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	snap, err := inst.SetDiskCount(participantID, n)
	if err != nil {
		return err
	}
	c.router.Broadcast(snap, proto.EventRoomUpdate, snap)
	c.cacheSnapshot(ctx, snap)
	return nil
}

// SetMode swaps the rule set (owner, lobby only).
func (c *Coordinator) SetMode(ctx context.Context, sessionID, participantID string, mode model.Mode, capacityHint int) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	rules, err := session.RulesFor(mode)
	if err != nil {
		return err
	}
	snap, err := inst.SetMode(participantID, rules, capacityHint)
	if err != nil {
		return err
	}
	c.router.Broadcast(snap, proto.EventRoomUpdate, snap)
	c.cacheSnapshot(ctx, snap)
	c.logger.Info("Mode changed", "sessionId", sessionID, "mode", mode)
	return nil
}

// JoinTeam moves a player between team rosters.
func (c *Coordinator) JoinTeam(ctx context.Context, sessionID, participantID string, team model.Team) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	snap, err := inst.JoinTeam(participantID, team)
	if err != nil {
		return err
	}
	c.router.Broadcast(snap, proto.EventRoomUpdate, snap)
	c.cacheSnapshot(ctx, snap)
	return nil
}

// SwitchToSpectator demotes a player; dropping the last player destroys
// the session.
func (c *Coordinator) SwitchToSpectator(ctx context.Context, sessionID, participantID string) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	out, err := inst.SwitchToSpectator(participantID)
	if err != nil {
		return err
	}
	if out.Empty {
		c.destroySession(ctx, inst)
		return nil
	}
	c.router.Broadcast(out.Snapshot, proto.EventRoomUpdate, out.Snapshot)
	c.cacheSnapshot(ctx, out.Snapshot)
	return nil
}

// SwitchToPlayer promotes a spectator (lobby, capacity gated).
func (c *Coordinator) SwitchToPlayer(ctx context.Context, sessionID, participantID string, team model.Team) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	snap, err := inst.SwitchToPlayer(participantID, team)
	if err != nil {
		return err
	}
	c.router.Broadcast(snap, proto.EventRoomUpdate, snap)
	c.cacheSnapshot(ctx, snap)
	return nil
}

// ============================================================================
// Game commands
// ============================================================================

// StartGame moves the lobby to active and announces it.
func (c *Coordinator) StartGame(ctx context.Context, sessionID, participantID string) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	snap, err := inst.Start(participantID)
	if err != nil {
		c.logger.Warn("Failed to start game", "error", err, "sessionId", sessionID, "participantId", participantID)
		return err
	}
	c.router.Broadcast(snap, proto.EventGameStarted, &proto.GameStarted{
		DiskCount: snap.DiskCount,
		Mode:      snap.Mode,
		Room:      snap,
	})
	c.cacheSnapshot(ctx, snap)
	c.logger.Info("Game started", "sessionId", sessionID, "mode", snap.Mode, "players", snap.PlayerCount)
	return nil
}

// ReportMove relays a live move count. Pure relay: no session state
// changes, the room's latest counts only land via finish.
func (c *Coordinator) ReportMove(ctx context.Context, sessionID, participantID string, moveCount int) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	name, ok := inst.PlayerName(participantID)
	if !ok {
		return session.ErrParticipantNotFound
	}
	c.router.Broadcast(inst.Snapshot(), proto.EventOpponentMove, &proto.OpponentMove{
		ParticipantId: participantID,
		Name:          name,
		MoveCount:     moveCount,
	})
	return nil
}

// ReportFinish records a completed run; deciding finishes broadcast the
// outcome, non-deciding tournament finishes record silently.
func (c *Coordinator) ReportFinish(ctx context.Context, sessionID, participantID string, moveCount int, finishTime float64) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	out, err := inst.Finish(participantID, moveCount, finishTime)
	if err != nil {
		return err
	}

	if out.Ended {
		ev := &proto.GameEnded{
			WinnerId:      out.WinnerID,
			Winner:        out.WinnerName,
			Finisher:      out.FinisherName,
			FinisherMoves: out.MoveCount,
			FinisherTime:  out.FinishTime,
			Room:          out.Snapshot,
		}
		switch out.Snapshot.Mode {
		case model.ModeTournament:
			ev.Placement = out.Placement
			ev.Leaderboard = out.Snapshot.Leaderboard
			ev.TournamentComplete = out.TournamentComplete
		case model.ModeTeam:
			ev.WinningTeam = out.WinningTeam
			ev.TeamVictory = true
		}
		c.router.Broadcast(out.Snapshot, proto.EventGameEnded, ev)
		c.archiveMatch(out.Snapshot, false)
		c.logger.Info("Game ended", "sessionId", sessionID, "winnerId", out.WinnerID, "mode", out.Snapshot.Mode)
	}
	c.cacheSnapshot(ctx, out.Snapshot)
	return nil
}

// Forfeit concedes. A failed reset of the gates is reported privately by
// the handler; a continuing tournament records the placement silently.
func (c *Coordinator) Forfeit(ctx context.Context, sessionID, participantID string) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	out, err := inst.Forfeit(participantID)
	if err != nil {
		return err
	}

	if out.Ended {
		c.broadcastForfeit(out, false)
		c.archiveMatch(out.Snapshot, true)
		c.logger.Info("Game forfeited", "sessionId", sessionID, "loserId", out.LoserID, "winnerId", out.WinnerID)
	}
	c.cacheSnapshot(ctx, out.Snapshot)
	return nil
}

// Reset spends one reset. Failures are answered with a reset_failed
// reply carrying the budget, because the client renders the remainder.
func (c *Coordinator) Reset(ctx context.Context, sessionID, participantID string) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	out, err := inst.Reset(participantID)
	if err != nil {
		used, max := inst.ResetBudget(participantID)
		c.router.Unicast(participantID, sessionID, proto.EventResetFailed, &proto.ResetFailed{
			ResetsUsed: used,
			MaxResets:  max,
		})
		c.logger.Warn("Reset rejected", "error", err, "sessionId", sessionID, "participantId", participantID)
		return nil
	}

	c.router.Broadcast(out.Snapshot, proto.EventPlayerReset, &proto.PlayerReset{
		ParticipantId: participantID,
		Name:          out.Name,
		ResetsLeft:    out.ResetsLeft,
		Room:          out.Snapshot,
	})
	c.cacheSnapshot(ctx, out.Snapshot)
	return nil
}

// ============================================================================
// Leave / disconnect
// ============================================================================

// LeaveSession removes a participant: forfeit first when the game is
// live, then removal, then destruction or a player_left broadcast.
// Leaving twice is a no-op, so a leave racing a disconnect is safe.
func (c *Coordinator) LeaveSession(ctx context.Context, sessionID, participantID string) error {
	inst, ok := c.directory.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}

	out := inst.Leave(participantID)
	if !out.Found {
		return nil
	}

	if out.Forfeit != nil && out.Forfeit.Ended {
		c.broadcastForfeit(out.Forfeit, true)
		c.archiveMatch(out.Forfeit.Snapshot, true)
	}

	if out.Empty {
		c.destroySession(ctx, inst)
	} else {
		c.router.Broadcast(out.Snapshot, proto.EventPlayerLeft, &proto.PlayerLeft{
			Name: out.Name,
			Room: out.Snapshot,
		})
		c.cacheSnapshot(ctx, out.Snapshot)
	}

	c.registry.ForgetParticipant(participantID)
	c.logger.Info("Participant left", "sessionId", sessionID, "participantId", participantID, "destroyed", out.Empty)
	return nil
}

// ConnectionClosed handles a transport disconnect: resolve the
// participant while the registry still knows it, run the same leave
// procedure as an explicit command, then forget the connection.
func (c *Coordinator) ConnectionClosed(ctx context.Context, connID int64) {
	participantID, ok := c.registry.ResolveParticipant(connID)
	if ok {
		if sessionID, bound := c.registry.ResolveSession(participantID); bound {
			if err := c.LeaveSession(ctx, sessionID, participantID); err != nil {
				c.logger.Warn("Disconnect cleanup failed", "error", err, "connId", connID, "sessionId", sessionID)
			}
		}
	}
	c.registry.Forget(connID)
}

// ============================================================================
// Internals
// ============================================================================

func (c *Coordinator) broadcastForfeit(out *session.ForfeitOutcome, leftGame bool) {
	c.router.Broadcast(out.Snapshot, proto.EventGameEnded, &proto.GameEnded{
		WinnerId:    out.WinnerID,
		Winner:      out.WinnerName,
		Loser:       out.LoserName,
		WinningTeam: out.WinningTeam,
		TeamVictory: out.WinningTeam != model.TeamNone,
		Forfeit:     true,
		LeftGame:    leftGame,
		Room:        out.Snapshot,
	})
}

func (c *Coordinator) destroySession(ctx context.Context, inst *session.Instance) {
	snap := inst.Snapshot()
	for _, p := range snap.Players {
		c.registry.ForgetParticipant(p.ID)
	}
	for _, p := range snap.Spectators {
		c.registry.ForgetParticipant(p.ID)
	}
	c.directory.Remove(inst.ID())
	if c.snapshots != nil {
		c.snapshots.Delete(ctx, inst.ID())
	}
}

func (c *Coordinator) cacheSnapshot(ctx context.Context, snap *model.Session) {
	if c.snapshots != nil {
		c.snapshots.Save(ctx, snap)
	}
}

func (c *Coordinator) archiveMatch(snap *model.Session, forfeit bool) {
	if c.history != nil {
		go c.history.Record(context.Background(), snap, forfeit)
	}
}
