package orchestration

// State is the client's view of one tutoring session. It is owned by the
// synchronizer; consumers only ever see value copies, so a snapshot can be
// read without locks and never mutates under the reader.
type State struct {
	// ActiveAgent is the agent currently speaking/controlling the session.
	// Never empty; a fresh session starts on the orchestrator.
	ActiveAgent string `json:"active_agent"`

	// PreviousAgent is the agent active immediately before the last detected
	// hand-off. Empty when no un-presented transition exists.
	PreviousAgent string `json:"previous_agent,omitempty"`

	// SessionPhase is the backend's coarse lifecycle label, passed through.
	SessionPhase string `json:"session_phase"`

	// HealthScore is clamped to [0,1]. 1.0 means fully healthy.
	HealthScore float64 `json:"health_score"`

	// IsProgressCheck and ProgressCheckType are mutually consistent:
	// the type is empty iff the flag is false.
	IsProgressCheck   bool   `json:"is_progress_check"`
	ProgressCheckType string `json:"progress_check_type,omitempty"`

	// Transient indicator flags, independent of agent identity.
	IsSpeaking bool `json:"is_speaking"`
	IsThinking bool `json:"is_thinking"`

	// ShowTransition is true for a bounded window after an agent change.
	ShowTransition bool `json:"show_transition"`

	// IsConnected reflects the transport, not the message stream.
	IsConnected bool `json:"is_connected"`
}

// NewState returns the fixed initial snapshot for a freshly supplied session.
func NewState() State {
	return State{
		ActiveAgent:  AgentOrchestrator,
		SessionPhase: PhaseInitialization,
		HealthScore:  1.0,
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
