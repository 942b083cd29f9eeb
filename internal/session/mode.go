package session

import "sudooom.hanoi.logic/internal/model"

// ModeRules is the per-mode strategy: legal player counts, capacity
// clamping, and start validation.
type ModeRules interface {
	// Mode returns the mode this rule set governs.
	Mode() model.Mode
	// MinPlayers / MaxPlayers bound the active player count for start.
	MinPlayers() int
	MaxPlayers() int
	// ClampCapacity fits a creator-supplied capacity hint into the mode's
	// legal range. A hint of 0 yields the mode default.
	ClampCapacity(hint int) int
}

// RulesFor resolves the strategy for a mode.
func RulesFor(mode model.Mode) (ModeRules, error) {
	switch mode {
	case model.ModeClassic:
		return classicRules{mode: model.ModeClassic}, nil
	case model.ModeSpectator:
		return classicRules{mode: model.ModeSpectator}, nil
	case model.ModeTournament:
		return rangeRules{mode: model.ModeTournament, min: 3, max: 8, def: 8}, nil
	case model.ModeTeam:
		return rangeRules{mode: model.ModeTeam, min: 4, max: 6, def: 4}, nil
	default:
		return nil, ErrUnsupportedMode
	}
}

// classicRules covers classic and spectator-enabled play: exactly two
// players, capacity hints ignored.
type classicRules struct {
	mode model.Mode
}

func (r classicRules) Mode() model.Mode      { return r.mode }
func (r classicRules) MinPlayers() int       { return 2 }
func (r classicRules) MaxPlayers() int       { return 2 }
func (r classicRules) ClampCapacity(int) int { return 2 }

// rangeRules covers tournament and team play with a [min,max] player range.
type rangeRules struct {
	mode model.Mode
	min  int
	max  int
	def  int
}

func (r rangeRules) Mode() model.Mode { return r.mode }
func (r rangeRules) MinPlayers() int  { return r.min }
func (r rangeRules) MaxPlayers() int  { return r.max }

func (r rangeRules) ClampCapacity(hint int) int {
	if hint == 0 {
		return r.def
	}
	if hint < r.min {
		return r.min
	}
	if hint > r.max {
		return r.max
	}
	return hint
}

// validateStart checks the lobby is startable under these rules.
func validateStart(rules ModeRules, players []*model.Participant) error {
	if len(players) < rules.MinPlayers() {
		return ErrNotEnoughPlayers
	}
	if len(players) > rules.MaxPlayers() {
		return ErrSessionFull
	}
	for _, p := range players {
		if !p.Ready {
			return ErrNotAllReady
		}
	}
	return nil
}
