package orchestration

import "encoding/json"

// Frame kinds pushed by the tutoring backend over /ws/orchestration/{sessionId}.
// Anything else is ignored so older clients survive newer backends.
const (
	KindOrchestrationUpdate = "orchestration_update"
	KindAgentSpeaking       = "agent_speaking"
	KindAgentThinking       = "agent_thinking"
	KindProgressCheck       = "progress_check"
	KindProgressCheckEnd    = "progress_check_end"
)

// Agent roles known to the orchestration graph.
const (
	AgentOrchestrator       = "orchestrator"
	AgentCourseCreator      = "course_creator"
	AgentCurriculumDesigner = "curriculum_designer"
	AgentTutor              = "tutor"
	AgentAssessor           = "assessor"
	AgentProgressTracker    = "progress_tracker"
)

// Session phases reported by the backend. The client treats the phase as an
// opaque pass-through label; these constants exist for the simulator and tests.
const (
	PhaseInitialization   = "initialization"
	PhaseCourseCreation   = "course_creation"
	PhaseCurriculumDesign = "curriculum_design"
	PhaseActiveTutoring   = "active_tutoring"
	PhaseAssessment       = "assessment"
	PhaseReview           = "review"
	PhaseComplete         = "complete"
)

// Progress check classifications.
const (
	CheckRoutine      = "routine"
	CheckIntervention = "intervention"
	CheckAssessment   = "assessment"
)

// UpdateData is the payload of an orchestration_update frame. Every field is
// an optional override: a missing field never changes client state.
type UpdateData struct {
	ActiveAgent  *string  `json:"active_agent,omitempty"`
	SessionPhase *string  `json:"session_phase,omitempty"`
	HealthScore  *float64 `json:"health_score,omitempty"`
	IsChecking   *bool    `json:"is_checking,omitempty"`
}

// Frame is the envelope for every message on the socket. The backend event
// stream is a variant type; in JSON terms that is one Type discriminator plus
// the union of all kind-specific fields, reduced with an exhaustive switch.
type Frame struct {
	Type       string      `json:"type"`
	Data       *UpdateData `json:"data,omitempty"`        // orchestration_update
	IsSpeaking *bool       `json:"is_speaking,omitempty"` // agent_speaking
	IsThinking *bool       `json:"is_thinking,omitempty"` // agent_thinking
	CheckType  *string     `json:"check_type,omitempty"`  // progress_check
}

// DecodeFrame parses one inbound text frame. A decode failure is the caller's
// cue to drop that single frame and keep reading.
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Encode serializes the frame for the push side (simulator, tests).
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// Convenience constructors used by the simulator engine and tests.

func NewUpdateFrame(data UpdateData) Frame {
	return Frame{Type: KindOrchestrationUpdate, Data: &data}
}

func NewSpeakingFrame(speaking bool) Frame {
	return Frame{Type: KindAgentSpeaking, IsSpeaking: &speaking}
}

func NewThinkingFrame(thinking bool) Frame {
	return Frame{Type: KindAgentThinking, IsThinking: &thinking}
}

func NewProgressCheckFrame(checkType string) Frame {
	f := Frame{Type: KindProgressCheck}
	if checkType != "" {
		f.CheckType = &checkType
	}
	return f
}

func NewProgressCheckEndFrame() Frame {
	return Frame{Type: KindProgressCheckEnd}
}

// String helpers for building UpdateData literals.

func StringPtr(s string) *string    { return &s }
func Float64Ptr(f float64) *float64 { return &f }
func BoolPtr(b bool) *bool          { return &b }
