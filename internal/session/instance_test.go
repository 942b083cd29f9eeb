package session

import (
	"errors"
	"testing"

	"sudooom.hanoi.logic/internal/model"
)

func mustRules(t *testing.T, mode model.Mode) ModeRules {
	t.Helper()
	rules, err := RulesFor(mode)
	if err != nil {
		t.Fatalf("RulesFor(%s) failed: %v", mode, err)
	}
	return rules
}

func newClassic(t *testing.T) *Instance {
	t.Helper()
	return New("s1", "p1", "Alice", mustRules(t, model.ModeClassic), 4, 0, 2)
}

// startedClassic returns an active classic game with players p1 and p2.
func startedClassic(t *testing.T) *Instance {
	t.Helper()
	inst := newClassic(t)
	if _, err := inst.Join("p2", "Bob", model.RolePlayer, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	readyAndStart(t, inst, "p1", "p1", "p2")
	return inst
}

// startedTeam returns an active team game: A={p1,p3}, B={p2,p4}.
func startedTeam(t *testing.T) *Instance {
	t.Helper()
	inst := New("s1", "p1", "Alice", mustRules(t, model.ModeTeam), 4, 4, 2)
	joins := []struct {
		pid, name string
		team      model.Team
	}{
		{"p2", "Bob", model.TeamB},
		{"p3", "Carol", model.TeamA},
		{"p4", "Dave", model.TeamB},
	}
	for _, j := range joins {
		if _, err := inst.Join(j.pid, j.name, model.RolePlayer, j.team); err != nil {
			t.Fatalf("Join(%s) failed: %v", j.pid, err)
		}
	}
	if _, err := inst.JoinTeam("p1", model.TeamA); err != nil {
		t.Fatalf("JoinTeam(p1) failed: %v", err)
	}
	readyAndStart(t, inst, "p1", "p1", "p2", "p3", "p4")
	return inst
}

// startedTournament returns an active 4-player tournament.
func startedTournament(t *testing.T) *Instance {
	t.Helper()
	inst := New("s1", "p1", "Alice", mustRules(t, model.ModeTournament), 4, 4, 2)
	for _, j := range []struct{ pid, name string }{{"p2", "Bob"}, {"p3", "Carol"}, {"p4", "Dave"}} {
		if _, err := inst.Join(j.pid, j.name, model.RolePlayer, model.TeamNone); err != nil {
			t.Fatalf("Join(%s) failed: %v", j.pid, err)
		}
	}
	readyAndStart(t, inst, "p1", "p1", "p2", "p3", "p4")
	return inst
}

func readyAndStart(t *testing.T, inst *Instance, owner string, pids ...string) {
	t.Helper()
	for _, pid := range pids {
		if _, err := inst.MarkReady(pid); err != nil {
			t.Fatalf("MarkReady(%s) failed: %v", pid, err)
		}
	}
	if _, err := inst.Start(owner); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func TestNewInstanceLobbyState(t *testing.T) {
	inst := newClassic(t)
	snap := inst.Snapshot()

	if snap.Lifecycle != model.LifecycleLobby {
		t.Errorf("Expected lobby lifecycle, got %s", snap.Lifecycle)
	}
	if snap.Capacity != 2 {
		t.Errorf("Expected capacity 2, got %d", snap.Capacity)
	}
	if snap.PlayerCount != 1 || len(snap.Players) != 1 {
		t.Fatalf("Expected the creator as sole player, got %d", snap.PlayerCount)
	}
	if snap.Players[0].ID != "p1" || snap.Players[0].Ready {
		t.Errorf("Creator should be p1 and unready, got %+v", snap.Players[0])
	}
	if snap.OwnerID != "p1" || snap.OwnerName != "Alice" {
		t.Errorf("Unexpected owner: %s / %s", snap.OwnerID, snap.OwnerName)
	}
}

func TestJoinCapacityGate(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Join("p2", "Bob", model.RolePlayer, model.TeamNone); err != nil {
		t.Fatalf("Second player should be admitted: %v", err)
	}
	if _, err := inst.Join("p3", "Carol", model.RolePlayer, model.TeamNone); !errors.Is(err, ErrSessionFull) {
		t.Errorf("Expected ErrSessionFull, got %v", err)
	}
	// Spectators are never capacity gated.
	if _, err := inst.Join("p3", "Carol", model.RoleSpectator, model.TeamNone); err != nil {
		t.Errorf("Spectator should always be admitted: %v", err)
	}
}

func TestJoinDuplicateParticipant(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Join("p1", "Alice", model.RolePlayer, model.TeamNone); !errors.Is(err, ErrAlreadyInSession) {
		t.Errorf("Expected ErrAlreadyInSession, got %v", err)
	}
}

func TestSpectatorMayJoinActiveGame(t *testing.T) {
	inst := startedClassic(t)
	if _, err := inst.Join("p3", "Carol", model.RolePlayer, model.TeamNone); !errors.Is(err, ErrGameStarted) {
		t.Errorf("Expected ErrGameStarted for a player joining mid-game, got %v", err)
	}
	snap, err := inst.Join("p3", "Carol", model.RoleSpectator, model.TeamNone)
	if err != nil {
		t.Fatalf("Spectator join mid-game failed: %v", err)
	}
	if snap.SpectatorCount != 1 {
		t.Errorf("Expected 1 spectator, got %d", snap.SpectatorCount)
	}
}

func TestStartGates(t *testing.T) {
	inst := newClassic(t)

	if _, err := inst.Start("p1"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("Expected ErrNotEnoughPlayers, got %v", err)
	}

	if _, err := inst.Join("p2", "Bob", model.RolePlayer, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if _, err := inst.Start("p2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}
	if _, err := inst.Start("p1"); !errors.Is(err, ErrNotAllReady) {
		t.Errorf("Expected ErrNotAllReady, got %v", err)
	}

	readyAndStart(t, inst, "p1", "p1", "p2")
	if _, err := inst.Start("p1"); !errors.Is(err, ErrGameStarted) {
		t.Errorf("Expected ErrGameStarted on double start, got %v", err)
	}
}

func TestStartReinitializesGameState(t *testing.T) {
	inst := startedClassic(t)
	snap := inst.Snapshot()
	if snap.Lifecycle != model.LifecycleActive {
		t.Fatalf("Expected active lifecycle, got %s", snap.Lifecycle)
	}
	for _, p := range snap.Players {
		if p.Progress == nil || p.Progress.Finished || p.Progress.MoveCount != 0 {
			t.Errorf("Player %s progress not fresh: %+v", p.ID, p.Progress)
		}
	}
	if snap.WinnerID != "" || snap.WinningTeam != model.TeamNone || len(snap.Leaderboard) != 0 {
		t.Errorf("Winner state not cleared: %+v", snap)
	}
}

func TestClassicFirstFinisherWins(t *testing.T) {
	inst := startedClassic(t)

	out, err := inst.Finish("p1", 15, 42.5)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if !out.Ended {
		t.Fatal("First classic finish should end the session")
	}
	if out.WinnerID != "p1" || out.WinnerName != "Alice" {
		t.Errorf("Expected winner p1/Alice, got %s/%s", out.WinnerID, out.WinnerName)
	}
	if out.Snapshot.Lifecycle != model.LifecycleFinished {
		t.Errorf("Expected finished lifecycle, got %s", out.Snapshot.Lifecycle)
	}

	// The loser's later finish is rejected and changes nothing.
	if _, err := inst.Finish("p2", 20, 50.0); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished, got %v", err)
	}
	if snap := inst.Snapshot(); snap.WinnerID != "p1" {
		t.Errorf("Winner changed after late finish: %s", snap.WinnerID)
	}
}

func TestFinishBeforeStart(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Finish("p1", 10, 1.0); !errors.Is(err, ErrGameNotStarted) {
		t.Errorf("Expected ErrGameNotStarted, got %v", err)
	}
}

func TestTeamWinIsImmutable(t *testing.T) {
	inst := startedTeam(t)

	out, err := inst.Finish("p1", 12, 30.0)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if !out.Ended || out.WinningTeam != model.TeamA {
		t.Fatalf("Expected team A victory, got %+v", out)
	}
	if out.WinnerID != "p1" {
		t.Errorf("Expected winner p1, got %s", out.WinnerID)
	}

	// A teammate (or opponent) finishing afterwards cannot flip the result.
	if _, err := inst.Finish("p2", 11, 29.0); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished, got %v", err)
	}
	snap := inst.Snapshot()
	if snap.WinningTeam != model.TeamA || snap.WinnerID != "p1" {
		t.Errorf("Team result changed: team=%s winner=%s", snap.WinningTeam, snap.WinnerID)
	}
}

func TestTournamentPlacementsByArrivalOrder(t *testing.T) {
	inst := startedTournament(t)

	finishes := []struct {
		pid       string
		placement int
		ended     bool
	}{
		{"p2", 1, true},
		{"p4", 2, false},
		{"p1", 3, false},
		{"p3", 4, false},
	}

	for _, f := range finishes {
		out, err := inst.Finish(f.pid, 10, 1.0)
		if err != nil {
			t.Fatalf("Finish(%s) failed: %v", f.pid, err)
		}
		if out.Placement != f.placement {
			t.Errorf("Finish(%s): expected placement %d, got %d", f.pid, f.placement, out.Placement)
		}
		if out.Ended != f.ended {
			t.Errorf("Finish(%s): expected ended=%v, got %v", f.pid, f.ended, out.Ended)
		}
	}

	snap := inst.Snapshot()
	if snap.WinnerID != "p2" {
		t.Errorf("Expected winner p2, got %s", snap.WinnerID)
	}
	if snap.Lifecycle != model.LifecycleFinished {
		t.Errorf("Expected finished lifecycle, got %s", snap.Lifecycle)
	}
	// Late finishers still land on the leaderboard after the session ends.
	if len(snap.Leaderboard) != 4 {
		t.Fatalf("Expected 4 leaderboard entries, got %d", len(snap.Leaderboard))
	}
	for n, entry := range snap.Leaderboard {
		if entry.Placement != n+1 {
			t.Errorf("Leaderboard[%d] placement = %d", n, entry.Placement)
		}
	}

	// A double finish by the same player is still rejected.
	if _, err := inst.Finish("p2", 10, 1.0); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished on double finish, got %v", err)
	}
}

func TestClassicForfeit(t *testing.T) {
	inst := startedClassic(t)

	out, err := inst.Forfeit("p1")
	if err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}
	if !out.Ended || out.WinnerID != "p2" || out.LoserID != "p1" {
		t.Errorf("Expected p2 to win by forfeit, got %+v", out)
	}
	snap := inst.Snapshot()
	if snap.ForfeitWinnerID != snap.WinnerID {
		t.Errorf("forfeitWinnerId %s != winnerId %s", snap.ForfeitWinnerID, snap.WinnerID)
	}

	if _, err := inst.Forfeit("p2"); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished, got %v", err)
	}
}

func TestTeamForfeitFixedTieBreak(t *testing.T) {
	inst := startedTeam(t)

	out, err := inst.Forfeit("p2")
	if err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}
	if out.WinningTeam != model.TeamA {
		t.Errorf("Expected team A to win, got %s", out.WinningTeam)
	}
	// The opposing roster's first entry takes the win; p3 was placed on
	// team A before p1 picked a team.
	if out.WinnerID != "p3" {
		t.Errorf("Expected roster-first winner p3, got %s", out.WinnerID)
	}
}

func TestTournamentForfeitContinues(t *testing.T) {
	inst := startedTournament(t)

	out, err := inst.Forfeit("p1")
	if err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}
	if out.Ended {
		t.Fatal("Tournament with 3 unfinished players left should continue")
	}
	snap := inst.Snapshot()
	if snap.Lifecycle != model.LifecycleActive {
		t.Errorf("Expected active lifecycle, got %s", snap.Lifecycle)
	}
	// Forfeiter is ranked last among current players.
	for _, p := range snap.Players {
		if p.ID == "p1" && p.Placement != 4 {
			t.Errorf("Expected placement 4 for forfeiter, got %d", p.Placement)
		}
	}

	// The game still ends normally for the rest.
	fin, err := inst.Finish("p2", 9, 3.0)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if !fin.Ended || fin.WinnerID != "p2" {
		t.Errorf("Expected p2 to win, got %+v", fin)
	}
}

func TestTournamentLeaveCascadeLastRemainingWins(t *testing.T) {
	// Explicit forfeiters stay in the player set unfinished, so the
	// last-remaining branch is reached through leave, which removes each
	// forfeiter after conceding.
	inst := New("s1", "p1", "Alice", mustRules(t, model.ModeTournament), 4, 3, 2)
	for _, j := range []struct{ pid, name string }{{"p2", "Bob"}, {"p3", "Carol"}} {
		if _, err := inst.Join(j.pid, j.name, model.RolePlayer, model.TeamNone); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}
	readyAndStart(t, inst, "p1", "p1", "p2", "p3")

	out := inst.Leave("p1")
	if out.Forfeit == nil || out.Forfeit.Ended {
		t.Fatalf("First leave should concede without ending: %+v", out.Forfeit)
	}

	out = inst.Leave("p2")
	if out.Forfeit == nil || !out.Forfeit.Ended {
		t.Fatalf("Second leave should end the tournament: %+v", out.Forfeit)
	}
	if out.Forfeit.WinnerID != "p3" {
		t.Errorf("Expected last remaining p3 to win, got %s", out.Forfeit.WinnerID)
	}
}

func TestResetBudget(t *testing.T) {
	inst := startedClassic(t)

	for n := 1; n <= 2; n++ {
		out, err := inst.Reset("p1")
		if err != nil {
			t.Fatalf("Reset %d failed: %v", n, err)
		}
		if out.ResetsUsed != n || out.ResetsLeft != 2-n {
			t.Errorf("Reset %d: used=%d left=%d", n, out.ResetsUsed, out.ResetsLeft)
		}
	}

	if _, err := inst.Reset("p1"); !errors.Is(err, ErrResetBudget) {
		t.Errorf("Expected ErrResetBudget, got %v", err)
	}
	// A failed reset must not consume budget.
	if used, max := inst.ResetBudget("p1"); used != 2 || max != 2 {
		t.Errorf("Expected budget 2/2 after rejection, got %d/%d", used, max)
	}
	// The opponent's budget is untouched.
	if used, _ := inst.ResetBudget("p2"); used != 0 {
		t.Errorf("Expected p2 budget unused, got %d", used)
	}
}

func TestResetReissuesFreshProgress(t *testing.T) {
	inst := startedClassic(t)
	out, err := inst.Reset("p1")
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	for _, p := range out.Snapshot.Players {
		if p.ID == "p1" {
			if p.Progress == nil || p.Progress.Finished || p.Progress.MoveCount != 0 {
				t.Errorf("Progress not fresh after reset: %+v", p.Progress)
			}
		}
	}
}

func TestResetOutsideActiveGame(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Reset("p1"); !errors.Is(err, ErrGameNotStarted) {
		t.Errorf("Expected ErrGameNotStarted, got %v", err)
	}

	inst = startedClassic(t)
	if _, err := inst.Finish("p1", 10, 1.0); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if _, err := inst.Reset("p2"); !errors.Is(err, ErrGameFinished) {
		t.Errorf("Expected ErrGameFinished, got %v", err)
	}
}

func TestSetDiskCountOwnerLobbyOnly(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Join("p2", "Bob", model.RolePlayer, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if _, err := inst.SetDiskCount("p2", 6); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}
	snap, err := inst.SetDiskCount("p1", 6)
	if err != nil {
		t.Fatalf("SetDiskCount failed: %v", err)
	}
	if snap.DiskCount != 6 {
		t.Errorf("Expected 6 disks, got %d", snap.DiskCount)
	}

	readyAndStart(t, inst, "p1", "p1", "p2")
	if _, err := inst.SetDiskCount("p1", 7); !errors.Is(err, ErrGameStarted) {
		t.Errorf("Expected ErrGameStarted, got %v", err)
	}
}

func TestSetModeRejectsOverflow(t *testing.T) {
	inst := New("s1", "p1", "Alice", mustRules(t, model.ModeTournament), 4, 4, 2)
	for _, pid := range []string{"p2", "p3"} {
		if _, err := inst.Join(pid, pid, model.RolePlayer, model.TeamNone); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}

	// Three players do not fit a two-seat classic session.
	if _, err := inst.SetMode("p1", mustRules(t, model.ModeClassic), 0); !errors.Is(err, ErrSessionFull) {
		t.Errorf("Expected ErrSessionFull, got %v", err)
	}

	snap, err := inst.SetMode("p1", mustRules(t, model.ModeTeam), 4)
	if err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if snap.Mode != model.ModeTeam || snap.Capacity != 4 {
		t.Errorf("Expected team mode capacity 4, got %s/%d", snap.Mode, snap.Capacity)
	}
}

func TestJoinTeamValidation(t *testing.T) {
	inst := New("s1", "p1", "Alice", mustRules(t, model.ModeTeam), 4, 4, 2)
	for _, pid := range []string{"p2", "p3", "p4"} {
		if _, err := inst.Join(pid, pid, model.RolePlayer, model.TeamNone); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}

	if _, err := inst.JoinTeam("p1", model.Team("C")); !errors.Is(err, ErrInvalidTeam) {
		t.Errorf("Expected ErrInvalidTeam, got %v", err)
	}

	if _, err := inst.JoinTeam("p1", model.TeamA); err != nil {
		t.Fatalf("JoinTeam failed: %v", err)
	}
	if _, err := inst.JoinTeam("p2", model.TeamA); err != nil {
		t.Fatalf("JoinTeam failed: %v", err)
	}
	// Team A is full at capacity/2.
	if _, err := inst.JoinTeam("p3", model.TeamA); !errors.Is(err, ErrTeamFull) {
		t.Errorf("Expected ErrTeamFull, got %v", err)
	}

	// A failed move never strips the current roster slot.
	if _, err := inst.JoinTeam("p4", model.TeamB); err != nil {
		t.Fatalf("JoinTeam failed: %v", err)
	}
	if _, err := inst.JoinTeam("p4", model.TeamA); !errors.Is(err, ErrTeamFull) {
		t.Errorf("Expected ErrTeamFull, got %v", err)
	}
	snap := inst.Snapshot()
	if len(snap.Teams[model.TeamB]) != 1 || snap.Teams[model.TeamB][0] != "p4" {
		t.Errorf("p4 lost its roster slot: %+v", snap.Teams)
	}
}

func TestSwitchToSpectatorLastPlayerEmptiesSession(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Join("s1", "Eve", model.RoleSpectator, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	out, err := inst.SwitchToSpectator("p1")
	if err != nil {
		t.Fatalf("SwitchToSpectator failed: %v", err)
	}
	if !out.Empty {
		t.Error("Dropping the last player should flag the session empty")
	}
}

func TestSwitchRolesRoundTrip(t *testing.T) {
	inst := newClassic(t)
	if _, err := inst.Join("p2", "Bob", model.RolePlayer, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	out, err := inst.SwitchToSpectator("p2")
	if err != nil {
		t.Fatalf("SwitchToSpectator failed: %v", err)
	}
	if out.Empty {
		t.Fatal("p1 still plays, session must not be empty")
	}
	if out.Snapshot.SpectatorCount != 1 || out.Snapshot.PlayerCount != 1 {
		t.Errorf("Expected 1 player / 1 spectator, got %d/%d", out.Snapshot.PlayerCount, out.Snapshot.SpectatorCount)
	}

	snap, err := inst.SwitchToPlayer("p2", model.TeamNone)
	if err != nil {
		t.Fatalf("SwitchToPlayer failed: %v", err)
	}
	if snap.PlayerCount != 2 || snap.SpectatorCount != 0 {
		t.Errorf("Expected 2 players, got %d/%d", snap.PlayerCount, snap.SpectatorCount)
	}
}

func TestSwitchToPlayerGates(t *testing.T) {
	inst := startedClassic(t)
	if _, err := inst.Join("s1", "Eve", model.RoleSpectator, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := inst.SwitchToPlayer("s1", model.TeamNone); !errors.Is(err, ErrGameStarted) {
		t.Errorf("Expected ErrGameStarted, got %v", err)
	}
}

func TestLeaveDuringActiveGameForfeits(t *testing.T) {
	inst := startedClassic(t)

	out := inst.Leave("p1")
	if !out.Found {
		t.Fatal("p1 should be found")
	}
	if out.Forfeit == nil || !out.Forfeit.Ended {
		t.Fatal("Active-game leave must concede first")
	}
	if out.Forfeit.WinnerID != "p2" {
		t.Errorf("Expected p2 to win by walkover, got %s", out.Forfeit.WinnerID)
	}
	if out.Empty {
		t.Error("p2 remains, session must survive")
	}
	if out.Snapshot.PlayerCount != 1 {
		t.Errorf("Expected 1 remaining player, got %d", out.Snapshot.PlayerCount)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	inst := startedClassic(t)

	if out := inst.Leave("p1"); !out.Found {
		t.Fatal("First leave should find p1")
	}
	// A disconnect racing the explicit leave resolves to a no-op.
	if out := inst.Leave("p1"); out.Found {
		t.Error("Second leave must be a no-op")
	}
	if out := inst.Leave("ghost"); out.Found {
		t.Error("Unknown participant must be a no-op")
	}
}

func TestLeaveLastPlayerEmptiesSession(t *testing.T) {
	inst := newClassic(t)
	out := inst.Leave("p1")
	if !out.Found || !out.Empty {
		t.Errorf("Expected found+empty, got %+v", out)
	}
}

func TestLeaveSpectatorKeepsGameRunning(t *testing.T) {
	inst := startedClassic(t)
	if _, err := inst.Join("s1", "Eve", model.RoleSpectator, model.TeamNone); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	out := inst.Leave("s1")
	if !out.Found || out.Forfeit != nil || out.Empty {
		t.Errorf("Spectator leave must not forfeit or destroy: %+v", out)
	}
	if snap := inst.Snapshot(); snap.Lifecycle != model.LifecycleActive {
		t.Errorf("Game should still be active, got %s", snap.Lifecycle)
	}
}

func TestSnapshotPreservesJoinOrder(t *testing.T) {
	inst := New("s1", "p1", "Alice", mustRules(t, model.ModeTournament), 4, 4, 2)
	for _, pid := range []string{"p2", "p3", "p4"} {
		if _, err := inst.Join(pid, pid, model.RolePlayer, model.TeamNone); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}

	snap := inst.Snapshot()
	want := []string{"p1", "p2", "p3", "p4"}
	for n, p := range snap.Players {
		if p.ID != want[n] {
			t.Errorf("Players[%d] = %s, want %s", n, p.ID, want[n])
		}
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	inst := startedClassic(t)
	snap := inst.Snapshot()
	snap.Players[0].Name = "Mallory"
	snap.Players[0].Progress.MoveCount = 999

	fresh := inst.Snapshot()
	if fresh.Players[0].Name != "Alice" || fresh.Players[0].Progress.MoveCount != 0 {
		t.Error("Snapshot mutation leaked into the instance")
	}
}
