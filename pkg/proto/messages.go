// Package proto defines the JSON envelopes exchanged with the access
// tier over NATS: upstream command envelopes in, downstream event
// envelopes out.
package proto

import (
	"encoding/json"

	"sudooom.hanoi.logic/internal/model"
)

// ============== Upstream (Access -> Logic) ==============

// Command action names.
const (
	ActionCreate          = "CREATE"
	ActionJoin            = "JOIN"
	ActionReady           = "READY"
	ActionStartGame       = "START_GAME"
	ActionMove            = "MOVE"
	ActionFinish          = "FINISH"
	ActionForfeit         = "FORFEIT"
	ActionReset           = "RESET"
	ActionSetDiskCount    = "SET_DISK_COUNT"
	ActionSetMode         = "SET_MODE"
	ActionJoinTeam        = "JOIN_TEAM"
	ActionSwitchSpectator = "SWITCH_SPECTATOR"
	ActionSwitchPlayer    = "SWITCH_PLAYER"
	ActionLeave           = "LEAVE"
)

// UpstreamMessage is the envelope the access tier publishes for every
// decoded client command or transport event.
type UpstreamMessage struct {
	AccessNodeId string          `json:"AccessNodeId"`
	ConnId       int64           `json:"ConnId"`
	Payload      UpstreamPayload `json:"Payload"`
}

// UpstreamPayload is a union of optional pointers; exactly one is set.
type UpstreamPayload struct {
	SessionCommand   *SessionCommand   `json:"SessionCommand,omitempty"`
	ConnectionClosed *ConnectionClosed `json:"ConnectionClosed,omitempty"`
}

// SessionCommand carries one already-parsed client command. Fields beyond
// Action/SessionId/ParticipantId are action-specific and zero elsewhere.
type SessionCommand struct {
	Action        string  `json:"Action"`
	SessionId     string  `json:"SessionId"`
	ParticipantId string  `json:"ParticipantId"`
	Name          string  `json:"Name,omitempty"`
	Mode          string  `json:"Mode,omitempty"`
	Role          string  `json:"Role,omitempty"`
	Team          string  `json:"Team,omitempty"`
	DiskCount     int     `json:"DiskCount,omitempty"`
	CapacityHint  int     `json:"CapacityHint,omitempty"`
	MoveCount     int     `json:"MoveCount,omitempty"`
	FinishTime    float64 `json:"FinishTime,omitempty"`
}

// ConnectionClosed is the transport disconnect event.
type ConnectionClosed struct {
	ConnId int64 `json:"ConnId"`
}

// ============== Downstream (Logic -> Access) ==============

// Event names delivered to clients.
const (
	EventRoomJoined    = "room_joined"
	EventRoomUpdate    = "room_update"
	EventGameStarted   = "game_started"
	EventOpponentMove  = "opponent_move"
	EventGameEnded     = "game_ended"
	EventPlayerLeft    = "player_left"
	EventPlayerReset   = "player_reset"
	EventResetFailed   = "reset_failed"
	EventCommandFailed = "command_failed"
)

// DownstreamMessage is addressed to a single connection on one access
// node; room broadcasts are fanned out into one message per recipient.
type DownstreamMessage struct {
	ConnId        int64             `json:"ConnId"`
	ParticipantId string            `json:"ParticipantId"`
	Payload       DownstreamPayload `json:"Payload"`
}

// DownstreamPayload is a union of optional pointers; exactly one is set.
type DownstreamPayload struct {
	SessionEvent  *SessionEvent  `json:"SessionEvent,omitempty"`
	CommandFailed *CommandFailed `json:"CommandFailed,omitempty"`
}

// SessionEvent wraps one event with its pre-marshaled payload.
type SessionEvent struct {
	Event     string          `json:"Event"`
	SessionId string          `json:"SessionId"`
	Data      json.RawMessage `json:"Data"`
}

// CommandFailed is the private failure reply for a rejected command.
type CommandFailed struct {
	Action    string `json:"Action"`
	SessionId string `json:"SessionId,omitempty"`
	Code      string `json:"Code"`
	Message   string `json:"Message"`
}

// ============== Event payloads ==============

// RoomJoined confirms admission and carries the initial snapshot.
type RoomJoined struct {
	ParticipantId string         `json:"participant_id"`
	Room          *model.Session `json:"room_info"`
}

// GameStarted announces the lobby going active.
type GameStarted struct {
	DiskCount int            `json:"disk_count"`
	Mode      model.Mode     `json:"game_mode"`
	Room      *model.Session `json:"room_info"`
}

// OpponentMove relays a live move count; the core keeps no move history.
type OpponentMove struct {
	ParticipantId string `json:"participant_id"`
	Name          string `json:"player_name"`
	MoveCount     int    `json:"moves"`
}

// GameEnded reports an outcome. Mode-specific fields are omitted when
// empty, mirroring the original wire format's per-mode payloads.
type GameEnded struct {
	WinnerId           string                   `json:"winner_id,omitempty"`
	Winner             string                   `json:"winner,omitempty"`
	Loser              string                   `json:"loser,omitempty"`
	WinningTeam        model.Team               `json:"winning_team,omitempty"`
	TeamVictory        bool                     `json:"team_victory,omitempty"`
	Placement          int                      `json:"placement,omitempty"`
	Leaderboard        []model.LeaderboardEntry `json:"leaderboard,omitempty"`
	TournamentComplete bool                     `json:"tournament_complete,omitempty"`
	Forfeit            bool                     `json:"forfeit,omitempty"`
	LeftGame           bool                     `json:"left_game,omitempty"`
	Finisher           string                   `json:"finisher,omitempty"`
	FinisherMoves      int                      `json:"finisher_moves,omitempty"`
	FinisherTime       float64                  `json:"finisher_time,omitempty"`
	Room               *model.Session           `json:"room_info"`
}

// PlayerLeft announces a departure to the remaining participants.
type PlayerLeft struct {
	Name string         `json:"player_name"`
	Room *model.Session `json:"room_info"`
}

// PlayerReset announces a per-player restart.
type PlayerReset struct {
	ParticipantId string         `json:"participant_id"`
	Name          string         `json:"player_name"`
	ResetsLeft    int            `json:"resets_left"`
	Room          *model.Session `json:"room_info"`
}

// ResetFailed is the private reply when a reset is rejected.
type ResetFailed struct {
	ResetsUsed int `json:"resets_used"`
	MaxResets  int `json:"max_resets"`
}
