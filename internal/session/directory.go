package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Directory is the process-wide collection of live sessions. Creation and
// removal are the only places session ids are minted or retired, and both
// are atomic with respect to lookups. There is no timeout-based eviction:
// a session dies only when its last player leaves.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]*Instance
	logger   *slog.Logger
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[string]*Instance),
		logger:   slog.Default().With("component", "SessionDirectory"),
	}
}

// Create mints a fresh session id and stores the instance built by fn.
// Ids are uuid-derived 8-char prefixes; a collision with a live session
// just re-rolls.
func (d *Directory) Create(fn func(id string) *Instance) *Instance {
	d.mu.Lock()
	defer d.mu.Unlock()

	var id string
	for {
		id = uuid.New().String()[:8]
		if _, taken := d.sessions[id]; !taken {
			break
		}
	}
	inst := fn(id)
	d.sessions[id] = inst
	d.logger.Info("Session created", "sessionId", id)
	return inst
}

// Get looks up a live session.
func (d *Directory) Get(id string) (*Instance, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	inst, ok := d.sessions[id]
	return inst, ok
}

// Remove retires a session id. Subsequent lookups fail; the id is never
// reused within the directory's lifetime except by uuid collision.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, id)
	d.logger.Info("Session removed", "sessionId", id)
}

// Count returns the number of live sessions.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
