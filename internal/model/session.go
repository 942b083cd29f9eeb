package model

import "time"

// Mode selects the rule set governing capacity and win/forfeit arbitration.
type Mode string

const (
	ModeClassic    Mode = "classic"
	ModeTournament Mode = "tournament"
	ModeTeam       Mode = "team"
	ModeSpectator  Mode = "spectator"
)

// Lifecycle is the session state machine phase.
type Lifecycle string

const (
	LifecycleLobby    Lifecycle = "lobby"
	LifecycleActive   Lifecycle = "active"
	LifecycleFinished Lifecycle = "finished"
)

// Role of a participant inside a session.
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Team identifier, meaningful only in team mode.
type Team string

const (
	TeamA    Team = "A"
	TeamB    Team = "B"
	TeamNone Team = ""
)

// LeaderboardEntry records one tournament finisher, ordered by arrival.
type LeaderboardEntry struct {
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	Placement     int     `json:"placement"`
	MoveCount     int     `json:"move_count"`
	FinishTime    float64 `json:"finish_time"`
}

// Session is the read-only snapshot broadcast to clients after every
// mutation. Player order is join order; team rosters preserve join-team
// order (the forfeit tie-break depends on both).
type Session struct {
	ID              string             `json:"session_id"`
	Mode            Mode               `json:"mode"`
	Capacity        int                `json:"capacity"`
	OwnerID         string             `json:"owner_id"`
	OwnerName       string             `json:"owner_name"`
	Players         []Participant      `json:"players"`
	Spectators      []Participant      `json:"spectators"`
	Teams           map[Team][]string  `json:"teams"`
	Lifecycle       Lifecycle          `json:"lifecycle"`
	WinnerID        string             `json:"winner_id,omitempty"`
	WinnerName      string             `json:"winner_name,omitempty"`
	WinningTeam     Team               `json:"winning_team,omitempty"`
	ForfeitWinnerID string             `json:"forfeit_winner_id,omitempty"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard,omitempty"`
	DiskCount       int                `json:"disk_count"`
	MaxResets       int                `json:"max_resets"`
	CreatedAt       time.Time          `json:"created_at"`
	PlayerCount     int                `json:"player_count"`
	SpectatorCount  int                `json:"spectator_count"`
}
