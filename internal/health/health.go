// Package health exposes liveness and readiness of the service's
// backing connections.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Status reports per-dependency connectivity.
type Status struct {
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Database string `json:"database"`
}

// Checker probes NATS, Redis and PostgreSQL.
type Checker struct {
	nc          *nats.Conn
	redisClient *redis.Client
	db          *pgxpool.Pool
}

// NewChecker creates a checker over the live connections.
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		db:          db,
	}
}

// Check probes every dependency with a short timeout each.
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{}

	if h.nc.IsConnected() {
		status.NATS = "connected"
	} else {
		status.NATS = "disconnected"
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
	defer redisCancel()

	if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
		status.Redis = "connected"
	} else {
		status.Redis = "disconnected"
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
	defer dbCancel()

	if err := h.db.Ping(dbCtx); err == nil {
		status.Database = "connected"
	} else {
		status.Database = "disconnected"
	}

	return status
}

// IsHealthy reports whether every dependency is reachable.
func (h *Checker) IsHealthy(ctx context.Context) bool {
	status := h.Check(ctx)
	return status.NATS == "connected" &&
		status.Redis == "connected" &&
		status.Database == "connected"
}

// ServeHTTP serves the JSON health endpoint.
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	if status.NATS != "connected" || status.Redis != "connected" || status.Database != "connected" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
