package model

import "time"

// Progress tracks one player's run through the puzzle. Present only while
// the session is active; replaced wholesale on every reset.
type Progress struct {
	MoveCount  int       `json:"move_count"`
	StartTime  time.Time `json:"start_time"`
	Finished   bool      `json:"finished"`
	FinishTime float64   `json:"finish_time,omitempty"` // client-reported seconds
}

// Participant is one connected identity inside a session.
type Participant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Team       Team      `json:"team,omitempty"`
	Ready      bool      `json:"ready"`
	Progress   *Progress `json:"progress,omitempty"`
	ResetsUsed int       `json:"resets_used"`
	ResetsLeft int       `json:"resets_left"`
	Placement  int       `json:"placement,omitempty"` // tournament rank, 0 = unranked
}
