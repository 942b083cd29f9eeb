package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.hanoi.logic/internal/model"
)

// MatchHistory archives finished matches to Postgres. Append-only and
// best-effort: an insert failure is logged and never reaches players.
// Live session state is never written here.
type MatchHistory struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewMatchHistory creates the archiver.
func NewMatchHistory(pool *pgxpool.Pool) *MatchHistory {
	return &MatchHistory{
		pool:   pool,
		logger: slog.Default().With("component", "MatchHistory"),
	}
}

const insertMatchSQL = `
INSERT INTO match_history
    (session_id, game_mode, winner_id, winning_team, forfeit, disk_count, player_count, snapshot, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Record archives one finished match.
func (h *MatchHistory) Record(ctx context.Context, snap *model.Session, forfeit bool) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to marshal match snapshot", "error", err, "sessionId", snap.ID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = h.pool.Exec(ctx, insertMatchSQL,
		snap.ID,
		string(snap.Mode),
		snap.WinnerID,
		string(snap.WinningTeam),
		forfeit,
		snap.DiskCount,
		snap.PlayerCount,
		data,
		time.Now(),
	)
	if err != nil {
		h.logger.Warn("Failed to archive match", "error", err, "sessionId", snap.ID)
		return
	}
	h.logger.Info("Match archived", "sessionId", snap.ID, "mode", snap.Mode, "winnerId", snap.WinnerID)
}
