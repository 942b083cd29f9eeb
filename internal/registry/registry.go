// Package registry binds transport connections to logical participants
// and participants to their sessions. It is the only component aware of
// transport-level connect/disconnect events; everything it stores lives
// in process memory and every operation is O(1).
package registry

import "sync"

// Location identifies a live connection: the access node terminating it
// plus the node-local connection id.
type Location struct {
	AccessNodeID string
	ConnID       int64
}

// Registry holds the conn↔participant bidirectional map and the
// participant→session map under one lock.
type Registry struct {
	mu            sync.RWMutex
	byConn        map[int64]string
	byParticipant map[string]Location
	sessions      map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byConn:        make(map[int64]string),
		byParticipant: make(map[string]Location),
		sessions:      make(map[string]string),
	}
}

// Register binds a connection to a participant, both directions.
func (r *Registry) Register(loc Location, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byConn[loc.ConnID] = participantID
	r.byParticipant[participantID] = loc
}

// ResolveParticipant returns the participant bound to a connection.
func (r *Registry) ResolveParticipant(connID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pid, ok := r.byConn[connID]
	return pid, ok
}

// ConnectionOf returns the live connection for a participant.
func (r *Registry) ConnectionOf(participantID string) (Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.byParticipant[participantID]
	return loc, ok
}

// BindSession records which session a participant belongs to.
func (r *Registry) BindSession(participantID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[participantID] = sessionID
}

// ResolveSession returns the session a participant belongs to.
func (r *Registry) ResolveSession(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.sessions[participantID]
	return sid, ok
}

// Forget drops a connection and its participant bindings. Idempotent:
// cleanup racing an explicit leave resolves to a no-op here.
func (r *Registry) Forget(connID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	delete(r.byParticipant, pid)
	delete(r.sessions, pid)
}

// ForgetParticipant drops a participant's bindings from both maps, used
// when a participant leaves but the transport connection stays open.
func (r *Registry) ForgetParticipant(participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loc, ok := r.byParticipant[participantID]; ok {
		delete(r.byConn, loc.ConnID)
	}
	delete(r.byParticipant, participantID)
	delete(r.sessions, participantID)
}

// Count returns the number of tracked connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
