package session

import (
	"sync"
	"time"

	"sudooom.hanoi.logic/internal/model"
)

// Instance is one live session. All state is guarded by a single mutex;
// every mutating operation computes its outcome and snapshot before the
// lock is released, so events derived from the return values observe
// states in mutation order.
type Instance struct {
	mu sync.Mutex

	id             string
	mode           model.Mode
	rules          ModeRules
	capacity       int
	ownerID        string
	players        map[string]*model.Participant
	spectators     map[string]*model.Participant
	playerOrder    []string // join order, the forfeit tie-break
	spectatorOrder []string
	teams          map[model.Team][]string
	lifecycle      model.Lifecycle

	winnerID        string
	winningTeam     model.Team
	forfeitWinnerID string
	leaderboard     []model.LeaderboardEntry

	diskCount int
	maxResets int
	createdAt time.Time
}

// FinishOutcome reports a recorded finish. Ended is true only when this
// call decided the session (first finisher in classic/team, first place
// in tournament); non-deciding finishes record state but emit nothing.
type FinishOutcome struct {
	Snapshot           *model.Session
	FinisherID         string
	FinisherName       string
	MoveCount          int
	FinishTime         float64
	Placement          int
	Ended              bool
	WinnerID           string
	WinnerName         string
	WinningTeam        model.Team
	TournamentComplete bool
}

// ForfeitOutcome reports a concession. Ended is false when a tournament
// continues (or stalls with nobody left unfinished, which deliberately
// leaves the session active with no winner).
type ForfeitOutcome struct {
	Snapshot    *model.Session
	LoserID     string
	LoserName   string
	Ended       bool
	WinnerID    string
	WinnerName  string
	WinningTeam model.Team
}

// ResetOutcome reports a per-player restart.
type ResetOutcome struct {
	Snapshot   *model.Session
	Name       string
	ResetsUsed int
	ResetsLeft int
}

// SwitchOutcome reports a role transfer. Empty means the last player left
// and the session must be destroyed.
type SwitchOutcome struct {
	Snapshot *model.Session
	Empty    bool
}

// LeaveOutcome reports a leave or disconnect. Found is false for unknown
// participants (leave is idempotent). Forfeit carries the concession run
// before removal when the game was active and undecided.
type LeaveOutcome struct {
	Found    bool
	Name     string
	Empty    bool
	Forfeit  *ForfeitOutcome
	Snapshot *model.Session
}

// New creates a lobby with the creator as its sole, unready player.
func New(id, ownerID, ownerName string, rules ModeRules, diskCount, capacityHint, maxResets int) *Instance {
	inst := &Instance{
		id:         id,
		mode:       rules.Mode(),
		rules:      rules,
		capacity:   rules.ClampCapacity(capacityHint),
		ownerID:    ownerID,
		players:    make(map[string]*model.Participant),
		spectators: make(map[string]*model.Participant),
		teams:      map[model.Team][]string{model.TeamA: {}, model.TeamB: {}},
		lifecycle:  model.LifecycleLobby,
		diskCount:  diskCount,
		maxResets:  maxResets,
		createdAt:  time.Now(),
	}
	inst.players[ownerID] = &model.Participant{ID: ownerID, Name: ownerName, Role: model.RolePlayer}
	inst.playerOrder = []string{ownerID}
	return inst
}

// ID returns the session id.
func (i *Instance) ID() string { return i.id }

// Snapshot returns a deep copy of the current session state.
func (i *Instance) Snapshot() *model.Session {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.snapshotLocked()
}

// Join admits a participant. Players are gated by lifecycle and capacity;
// spectators are always admitted.
func (i *Instance) Join(pid, name string, role model.Role, team model.Team) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.players[pid]; ok {
		return nil, ErrAlreadyInSession
	}
	if _, ok := i.spectators[pid]; ok {
		return nil, ErrAlreadyInSession
	}

	if role == model.RoleSpectator {
		i.spectators[pid] = &model.Participant{ID: pid, Name: name, Role: model.RoleSpectator}
		i.spectatorOrder = append(i.spectatorOrder, pid)
		return i.snapshotLocked(), nil
	}

	if i.lifecycle != model.LifecycleLobby {
		return nil, ErrGameStarted
	}
	if len(i.players) >= i.capacity {
		return nil, ErrSessionFull
	}

	p := &model.Participant{ID: pid, Name: name, Role: model.RolePlayer}
	i.players[pid] = p
	i.playerOrder = append(i.playerOrder, pid)
	i.assignTeamLocked(p, team)
	return i.snapshotLocked(), nil
}

// MarkReady flags a player as ready to start.
func (i *Instance) MarkReady(pid string) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	p, ok := i.players[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	p.Ready = true
	return i.snapshotLocked(), nil
}

// Start moves the session from lobby to active. Owner only; every player
// must be ready and the player count must fit the mode's range. All
// per-game state is reinitialized.
func (i *Instance) Start(pid string) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if pid != i.ownerID {
		return nil, ErrNotOwner
	}
	if i.lifecycle != model.LifecycleLobby {
		return nil, ErrGameStarted
	}
	if err := validateStart(i.rules, i.orderedPlayersLocked()); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, p := range i.players {
		p.Progress = &model.Progress{StartTime: now}
		p.Placement = 0
	}
	i.winnerID = ""
	i.winningTeam = model.TeamNone
	i.forfeitWinnerID = ""
	i.leaderboard = nil
	i.lifecycle = model.LifecycleActive
	return i.snapshotLocked(), nil
}

// PlayerName reports whether pid is a current player, and its display
// name. Used by the move relay, which mutates nothing.
func (i *Instance) PlayerName(pid string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	p, ok := i.players[pid]
	if !ok {
		return "", false
	}
	return p.Name, true
}

// Finish records a completed puzzle run and arbitrates the outcome per
// mode. In tournament mode, finishes keep being accepted after the
// session is decided so late finishers still get placements.
func (i *Instance) Finish(pid string, moveCount int, finishTime float64) (*FinishOutcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	p, ok := i.players[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	switch i.lifecycle {
	case model.LifecycleLobby:
		return nil, ErrGameNotStarted
	case model.LifecycleFinished:
		if i.mode != model.ModeTournament {
			return nil, ErrGameFinished
		}
	}
	if p.Progress == nil {
		return nil, ErrGameNotStarted
	}
	if p.Progress.Finished {
		return nil, ErrGameFinished
	}

	p.Progress.Finished = true
	p.Progress.MoveCount = moveCount
	p.Progress.FinishTime = finishTime

	out := &FinishOutcome{
		FinisherID:   pid,
		FinisherName: p.Name,
		MoveCount:    moveCount,
		FinishTime:   finishTime,
	}

	switch i.mode {
	case model.ModeTournament:
		placement := 0
		for _, q := range i.players {
			if q.Progress != nil && q.Progress.Finished {
				placement++
			}
		}
		p.Placement = placement
		out.Placement = placement
		i.leaderboard = append(i.leaderboard, model.LeaderboardEntry{
			ParticipantID: pid,
			Name:          p.Name,
			Placement:     placement,
			MoveCount:     moveCount,
			FinishTime:    finishTime,
		})
		if placement == 1 {
			i.winnerID = pid
			i.lifecycle = model.LifecycleFinished
			out.Ended = true
			out.TournamentComplete = true
		}

	case model.ModeTeam:
		if p.Team != model.TeamNone && i.winningTeam == model.TeamNone {
			i.winningTeam = p.Team
			i.winnerID = pid
			i.lifecycle = model.LifecycleFinished
			out.Ended = true
			out.WinningTeam = p.Team
		}

	default: // classic, spectator
		if i.winnerID == "" {
			i.winnerID = pid
			i.lifecycle = model.LifecycleFinished
			out.Ended = true
		}
	}

	if out.Ended {
		out.WinnerID = i.winnerID
		out.WinnerName = i.players[i.winnerID].Name
	}
	out.Snapshot = i.snapshotLocked()
	return out, nil
}

// Forfeit concedes the game for pid.
func (i *Instance) Forfeit(pid string) (*ForfeitOutcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.forfeitLocked(pid)
}

func (i *Instance) forfeitLocked(pid string) (*ForfeitOutcome, error) {
	p, ok := i.players[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	switch i.lifecycle {
	case model.LifecycleLobby:
		return nil, ErrGameNotStarted
	case model.LifecycleFinished:
		return nil, ErrGameFinished
	}

	out := &ForfeitOutcome{LoserID: pid, LoserName: p.Name}

	switch i.mode {
	case model.ModeTeam:
		opposing := model.TeamA
		if p.Team == model.TeamA {
			opposing = model.TeamB
		}
		roster := i.teams[opposing]
		if len(roster) == 0 {
			return nil, ErrNoOpponent
		}
		// Fixed tie-break: the opposing roster's first entry takes the win.
		i.winningTeam = opposing
		i.winnerID = roster[0]
		i.forfeitWinnerID = roster[0]
		i.lifecycle = model.LifecycleFinished
		out.Ended = true
		out.WinningTeam = opposing

	case model.ModeTournament:
		// Last place among currently active players, uncorrected for
		// earlier finishers.
		p.Placement = len(i.players)
		remaining := make([]string, 0, len(i.players))
		for _, qid := range i.playerOrder {
			q := i.players[qid]
			if qid == pid || (q.Progress != nil && q.Progress.Finished) {
				continue
			}
			remaining = append(remaining, qid)
		}
		if len(remaining) == 1 {
			i.winnerID = remaining[0]
			i.forfeitWinnerID = remaining[0]
			i.lifecycle = model.LifecycleFinished
			out.Ended = true
		}
		// Zero remaining leaves the session active with no winner; more
		// than one keeps the tournament running. Either way the placement
		// above sticks.

	default: // classic, spectator
		other := ""
		for _, qid := range i.playerOrder {
			if qid != pid {
				other = qid
				break
			}
		}
		if other == "" {
			return nil, ErrNoOpponent
		}
		i.winnerID = other
		i.forfeitWinnerID = other
		i.lifecycle = model.LifecycleFinished
		out.Ended = true
	}

	if out.Ended {
		out.WinnerID = i.winnerID
		if w, ok := i.players[i.winnerID]; ok {
			out.WinnerName = w.Name
		}
	}
	out.Snapshot = i.snapshotLocked()
	return out, nil
}

// Reset spends one unit of the caller's reset budget and reissues fresh
// progress. The failure modes are distinct errors because the client
// needs the remaining-reset count.
func (i *Instance) Reset(pid string) (*ResetOutcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	p, ok := i.players[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	switch i.lifecycle {
	case model.LifecycleLobby:
		return nil, ErrGameNotStarted
	case model.LifecycleFinished:
		return nil, ErrGameFinished
	}
	if p.ResetsUsed >= i.maxResets {
		return nil, ErrResetBudget
	}

	p.ResetsUsed++
	p.Progress = &model.Progress{StartTime: time.Now()}
	return &ResetOutcome{
		Snapshot:   i.snapshotLocked(),
		Name:       p.Name,
		ResetsUsed: p.ResetsUsed,
		ResetsLeft: i.maxResets - p.ResetsUsed,
	}, nil
}

// ResetBudget reports the caller's current reset usage, for failure
// replies.
func (i *Instance) ResetBudget(pid string) (used, max int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if p, ok := i.players[pid]; ok {
		return p.ResetsUsed, i.maxResets
	}
	return 0, i.maxResets
}

// SetDiskCount changes puzzle difficulty. Owner and lobby only.
func (i *Instance) SetDiskCount(pid string, n int) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if pid != i.ownerID {
		return nil, ErrNotOwner
	}
	if i.lifecycle != model.LifecycleLobby {
		return nil, ErrGameStarted
	}
	i.diskCount = n
	return i.snapshotLocked(), nil
}

// SetMode swaps the rule set and re-clamps capacity. Owner and lobby
// only; rejected when the current player count would not fit.
func (i *Instance) SetMode(pid string, rules ModeRules, capacityHint int) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if pid != i.ownerID {
		return nil, ErrNotOwner
	}
	if i.lifecycle != model.LifecycleLobby {
		return nil, ErrGameStarted
	}
	capacity := rules.ClampCapacity(capacityHint)
	if len(i.players) > capacity {
		return nil, ErrSessionFull
	}
	i.mode = rules.Mode()
	i.rules = rules
	i.capacity = capacity
	return i.snapshotLocked(), nil
}

// JoinTeam moves a player onto a team roster, leaving any previous roster
// first. Validation happens before the move so a failed call never strips
// the caller's current team.
func (i *Instance) JoinTeam(pid string, team model.Team) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	p, ok := i.players[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	if team != model.TeamA && team != model.TeamB {
		return nil, ErrInvalidTeam
	}
	if p.Team != team && len(i.teams[team]) >= i.capacity/2 {
		return nil, ErrTeamFull
	}

	i.dropFromTeamsLocked(pid)
	i.teams[team] = append(i.teams[team], pid)
	p.Team = team
	return i.snapshotLocked(), nil
}

// SwitchToSpectator demotes a player to spectator. Always allowed, even
// mid-game; dropping the last player empties the session.
func (i *Instance) SwitchToSpectator(pid string) (*SwitchOutcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	p, ok := i.players[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}

	i.dropFromTeamsLocked(pid)
	delete(i.players, pid)
	i.playerOrder = removeID(i.playerOrder, pid)
	i.spectators[pid] = &model.Participant{ID: pid, Name: p.Name, Role: model.RoleSpectator}
	i.spectatorOrder = append(i.spectatorOrder, pid)

	out := &SwitchOutcome{Empty: len(i.players) == 0}
	if !out.Empty {
		out.Snapshot = i.snapshotLocked()
	}
	return out, nil
}

// SwitchToPlayer promotes a spectator. Lobby only, capacity gated.
func (i *Instance) SwitchToPlayer(pid string, team model.Team) (*model.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	s, ok := i.spectators[pid]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	if i.lifecycle != model.LifecycleLobby {
		return nil, ErrGameStarted
	}
	if len(i.players) >= i.capacity {
		return nil, ErrSessionFull
	}

	delete(i.spectators, pid)
	i.spectatorOrder = removeID(i.spectatorOrder, pid)
	p := &model.Participant{ID: pid, Name: s.Name, Role: model.RolePlayer}
	i.players[pid] = p
	i.playerOrder = append(i.playerOrder, pid)
	i.assignTeamLocked(p, team)
	return i.snapshotLocked(), nil
}

// Leave removes a participant, conceding first when the game is active
// and undecided. Unknown participants are a no-op, which makes an
// explicit leave racing a disconnect harmless.
func (i *Instance) Leave(pid string) *LeaveOutcome {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := &LeaveOutcome{}
	p, isPlayer := i.players[pid]
	if !isPlayer {
		if s, ok := i.spectators[pid]; ok {
			out.Found = true
			out.Name = s.Name
			delete(i.spectators, pid)
			i.spectatorOrder = removeID(i.spectatorOrder, pid)
			out.Snapshot = i.snapshotLocked()
		}
		return out
	}

	out.Found = true
	out.Name = p.Name

	if i.lifecycle == model.LifecycleActive {
		if fo, err := i.forfeitLocked(pid); err == nil {
			out.Forfeit = fo
		}
	}

	i.dropFromTeamsLocked(pid)
	delete(i.players, pid)
	i.playerOrder = removeID(i.playerOrder, pid)

	out.Empty = len(i.playerOrder) == 0
	if !out.Empty {
		out.Snapshot = i.snapshotLocked()
	}
	return out
}

func (i *Instance) assignTeamLocked(p *model.Participant, team model.Team) {
	if i.mode != model.ModeTeam {
		return
	}
	if team != model.TeamA && team != model.TeamB {
		return
	}
	if len(i.teams[team]) >= i.capacity/2 {
		return
	}
	i.teams[team] = append(i.teams[team], p.ID)
	p.Team = team
}

func (i *Instance) dropFromTeamsLocked(pid string) {
	for t, roster := range i.teams {
		i.teams[t] = removeID(roster, pid)
	}
}

func (i *Instance) orderedPlayersLocked() []*model.Participant {
	out := make([]*model.Participant, 0, len(i.playerOrder))
	for _, pid := range i.playerOrder {
		out = append(out, i.players[pid])
	}
	return out
}

func (i *Instance) snapshotLocked() *model.Session {
	snap := &model.Session{
		ID:              i.id,
		Mode:            i.mode,
		Capacity:        i.capacity,
		OwnerID:         i.ownerID,
		Lifecycle:       i.lifecycle,
		WinnerID:        i.winnerID,
		WinningTeam:     i.winningTeam,
		ForfeitWinnerID: i.forfeitWinnerID,
		DiskCount:       i.diskCount,
		MaxResets:       i.maxResets,
		CreatedAt:       i.createdAt,
		PlayerCount:     len(i.players),
		SpectatorCount:  len(i.spectators),
		Teams: map[model.Team][]string{
			model.TeamA: append([]string(nil), i.teams[model.TeamA]...),
			model.TeamB: append([]string(nil), i.teams[model.TeamB]...),
		},
		Leaderboard: append([]model.LeaderboardEntry(nil), i.leaderboard...),
	}

	snap.Players = make([]model.Participant, 0, len(i.playerOrder))
	for _, pid := range i.playerOrder {
		snap.Players = append(snap.Players, copyParticipant(i.players[pid], i.maxResets))
	}
	snap.Spectators = make([]model.Participant, 0, len(i.spectatorOrder))
	for _, pid := range i.spectatorOrder {
		snap.Spectators = append(snap.Spectators, copyParticipant(i.spectators[pid], i.maxResets))
	}

	if owner, ok := i.players[i.ownerID]; ok {
		snap.OwnerName = owner.Name
	} else if owner, ok := i.spectators[i.ownerID]; ok {
		snap.OwnerName = owner.Name
	}
	// Winner name resolves only while the winner is still a player,
	// matching the wire format clients already parse.
	if w, ok := i.players[i.winnerID]; ok {
		snap.WinnerName = w.Name
	}
	return snap
}

func copyParticipant(p *model.Participant, maxResets int) model.Participant {
	c := *p
	if p.Progress != nil {
		prog := *p.Progress
		c.Progress = &prog
	}
	c.ResetsLeft = maxResets - p.ResetsUsed
	return c
}

func removeID(ids []string, pid string) []string {
	for n, id := range ids {
		if id == pid {
			return append(ids[:n], ids[n+1:]...)
		}
	}
	return ids
}
