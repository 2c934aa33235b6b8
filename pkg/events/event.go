package events

import "time"

// Event defines the contract for everything published on the event bus,
// whether in-process (watermill) or external (NATS).
type Event interface {
	// EventType returns the unique code for this event (e.g., "AGENT_HANDOFF").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic carrier used when a dedicated struct is overkill.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event codes emitted by the synchronizer and the simulator engine.
const (
	TypeAgentHandoff     = "AGENT_HANDOFF"
	TypeHealthAlert      = "HEALTH_ALERT"
	TypeConnectionChange = "CONNECTION_CHANGE"
	TypeSessionCreated   = "SESSION_CREATED"
	TypeSessionComplete  = "SESSION_COMPLETE"
)

// NewAgentHandoff records the active agent changing identity within a session.
func NewAgentHandoff(sessionID, from, to string) BaseEvent {
	return BaseEvent{
		Type: TypeAgentHandoff,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"from_agent": from,
			"to_agent":   to,
		},
		OccurredAt: time.Now(),
	}
}

// NewHealthAlert records the alert flag flipping for a session.
func NewHealthAlert(sessionID string, active bool, score float64) BaseEvent {
	return BaseEvent{
		Type: TypeHealthAlert,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"active":     active,
			"score":      score,
		},
		OccurredAt: time.Now(),
	}
}

// NewConnectionChange records transport-level connectivity flips.
func NewConnectionChange(sessionID string, connected bool) BaseEvent {
	return BaseEvent{
		Type: TypeConnectionChange,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"connected":  connected,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionCreated records a tutoring session being issued by the backend.
func NewSessionCreated(sessionID, userID string) BaseEvent {
	return BaseEvent{
		Type: TypeSessionCreated,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionComplete records a session reaching its terminal phase.
func NewSessionComplete(sessionID string, finalScore float64) BaseEvent {
	return BaseEvent{
		Type: TypeSessionComplete,
		Data: map[string]interface{}{
			"session_id":  sessionID,
			"final_score": finalScore,
		},
		OccurredAt: time.Now(),
	}
}
