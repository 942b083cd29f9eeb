package storage

// Redis key builders. Keep every key format in one place.

const sessionSnapshotPrefix = "hanoi:session:"

// BuildSessionSnapshotKey keys the latest advisory snapshot of a session.
func BuildSessionSnapshotKey(sessionID string) string {
	return sessionSnapshotPrefix + sessionID + ":snapshot"
}
