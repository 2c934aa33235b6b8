package dto

import "time"

type CreateSessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Topic  string `json:"topic" validate:"required,max=200"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

type SessionSnapshotResponse struct {
	SessionID    string    `json:"session_id"`
	ActiveAgent  string    `json:"active_agent"`
	SessionPhase string    `json:"session_phase"`
	HealthScore  float64   `json:"health_score"`
	IsChecking   bool      `json:"is_checking"`
	UpdatedAt    time.Time `json:"updated_at"`
}
