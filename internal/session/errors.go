package session

import "errors"

// Session errors. Codes are the wire-visible strings the handler layer
// maps into command_failed replies.

var (
	ErrSessionNotFound     = errors.New("SESSION_NOT_FOUND")
	ErrParticipantNotFound = errors.New("PARTICIPANT_NOT_FOUND")
	ErrNotOwner            = errors.New("NOT_OWNER")
	ErrGameStarted         = errors.New("GAME_STARTED")
	ErrGameNotStarted      = errors.New("GAME_NOT_STARTED")
	ErrGameFinished        = errors.New("GAME_FINISHED")
	ErrNotAllReady         = errors.New("NOT_ALL_READY")
	ErrNotEnoughPlayers    = errors.New("NOT_ENOUGH_PLAYERS")
	ErrSessionFull         = errors.New("SESSION_FULL")
	ErrTeamFull            = errors.New("TEAM_FULL")
	ErrInvalidTeam         = errors.New("INVALID_TEAM")
	ErrNoOpponent          = errors.New("NO_OPPONENT")
	ErrResetBudget         = errors.New("RESET_BUDGET_EXHAUSTED")
	ErrUnsupportedMode     = errors.New("UNSUPPORTED_MODE")
	ErrAlreadyInSession    = errors.New("ALREADY_IN_SESSION")
)
