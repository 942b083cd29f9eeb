// Package storage holds the advisory Redis mirror of session snapshots.
// The in-memory directory stays authoritative; the cache only feeds
// debugging and ops tooling, so every write here is best-effort.
package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.hanoi.logic/internal/model"
)

// SnapshotCache mirrors the latest room snapshot per session into Redis.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache creates the cache. TTL bounds staleness if a delete
// is ever lost.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "SnapshotCache"),
	}
}

// Save stores a snapshot. Errors are logged, never propagated: the cache
// must not fail a command.
func (c *SnapshotCache) Save(ctx context.Context, snap *model.Session) {
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Error("Failed to marshal snapshot", "error", err, "sessionId", snap.ID)
		return
	}
	key := BuildSessionSnapshotKey(snap.ID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache snapshot", "error", err, "sessionId", snap.ID)
	}
}

// Delete drops a destroyed session's snapshot.
func (c *SnapshotCache) Delete(ctx context.Context, sessionID string) {
	key := BuildSessionSnapshotKey(sessionID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to delete snapshot", "error", err, "sessionId", sessionID)
	}
}
