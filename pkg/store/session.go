package store

import "time"

// Session is the in-memory record of an issued tutoring session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the last orchestration view the engine pushed for a session.
// Served over REST so a reconnecting client can resync before the next frame.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	ActiveAgent  string    `json:"active_agent"`
	SessionPhase string    `json:"session_phase"`
	HealthScore  float64   `json:"health_score"`
	IsChecking   bool      `json:"is_checking"`
	UpdatedAt    time.Time `json:"updated_at"`
}
