package orchestration

import (
	"testing"
)

func TestReduceUpdateOverrides(t *testing.T) {
	tests := []struct {
		name       string
		prev       State
		frame      Frame
		wantAgent  string
		wantPhase  string
		wantHealth float64
	}{
		{
			name:       "all fields present override",
			prev:       NewState(),
			frame:      NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor), SessionPhase: StringPtr(PhaseActiveTutoring), HealthScore: Float64Ptr(0.8)}),
			wantAgent:  AgentTutor,
			wantPhase:  PhaseActiveTutoring,
			wantHealth: 0.8,
		},
		{
			name:       "absent fields never change state",
			prev:       State{ActiveAgent: AgentTutor, SessionPhase: PhaseAssessment, HealthScore: 0.6},
			frame:      NewUpdateFrame(UpdateData{}),
			wantAgent:  AgentTutor,
			wantPhase:  PhaseAssessment,
			wantHealth: 0.6,
		},
		{
			name:       "empty agent string treated as absent",
			prev:       State{ActiveAgent: AgentTutor, SessionPhase: PhaseActiveTutoring, HealthScore: 0.9},
			frame:      NewUpdateFrame(UpdateData{ActiveAgent: StringPtr("")}),
			wantAgent:  AgentTutor,
			wantPhase:  PhaseActiveTutoring,
			wantHealth: 0.9,
		},
		{
			name:       "health clamped above one",
			prev:       NewState(),
			frame:      NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(1.7)}),
			wantAgent:  AgentOrchestrator,
			wantPhase:  PhaseInitialization,
			wantHealth: 1.0,
		},
		{
			name:       "health clamped below zero",
			prev:       NewState(),
			frame:      NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(-0.3)}),
			wantAgent:  AgentOrchestrator,
			wantPhase:  PhaseInitialization,
			wantHealth: 0.0,
		},
		{
			name:       "nil data is a no-op",
			prev:       State{ActiveAgent: AgentAssessor, SessionPhase: PhaseAssessment, HealthScore: 0.5},
			frame:      Frame{Type: KindOrchestrationUpdate},
			wantAgent:  AgentAssessor,
			wantPhase:  PhaseAssessment,
			wantHealth: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.prev, tt.frame)
			if got.ActiveAgent != tt.wantAgent {
				t.Errorf("ActiveAgent = %q, want %q", got.ActiveAgent, tt.wantAgent)
			}
			if got.SessionPhase != tt.wantPhase {
				t.Errorf("SessionPhase = %q, want %q", got.SessionPhase, tt.wantPhase)
			}
			if got.HealthScore != tt.wantHealth {
				t.Errorf("HealthScore = %v, want %v", got.HealthScore, tt.wantHealth)
			}
		})
	}
}

func TestReduceHandoffDetection(t *testing.T) {
	// Scenario: the orchestrator hands the session to the tutor.
	prev := NewState()
	got := Reduce(prev, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor)}))

	if got.ActiveAgent != AgentTutor {
		t.Errorf("ActiveAgent = %q, want %q", got.ActiveAgent, AgentTutor)
	}
	if got.PreviousAgent != AgentOrchestrator {
		t.Errorf("PreviousAgent = %q, want %q", got.PreviousAgent, AgentOrchestrator)
	}
	if !got.ShowTransition {
		t.Error("ShowTransition = false, want true after hand-off")
	}
}

func TestReduceNoSpuriousTransition(t *testing.T) {
	// A message restating the current state must not raise the transition
	// flag or touch the previous agent.
	prev := State{ActiveAgent: AgentTutor, SessionPhase: PhaseActiveTutoring, HealthScore: 0.9}
	got := Reduce(prev, NewUpdateFrame(UpdateData{
		ActiveAgent:  StringPtr(AgentTutor),
		SessionPhase: StringPtr(PhaseActiveTutoring),
		HealthScore:  Float64Ptr(0.9),
	}))

	if got != prev {
		t.Errorf("no-op update changed state: got %+v, want %+v", got, prev)
	}
}

func TestReducePassThroughLaw(t *testing.T) {
	// After any sequence of updates, the active agent equals the agent of the
	// last message that carried the field.
	frames := []Frame{
		NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentCourseCreator)}),
		NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(0.7)}),
		NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor)}),
		NewUpdateFrame(UpdateData{SessionPhase: StringPtr(PhaseReview)}),
	}
	state := NewState()
	for _, f := range frames {
		state = Reduce(state, f)
	}
	if state.ActiveAgent != AgentTutor {
		t.Errorf("ActiveAgent = %q, want %q", state.ActiveAgent, AgentTutor)
	}
	if state.SessionPhase != PhaseReview {
		t.Errorf("SessionPhase = %q, want %q", state.SessionPhase, PhaseReview)
	}
	if state.HealthScore != 0.7 {
		t.Errorf("HealthScore = %v, want 0.7", state.HealthScore)
	}
}

func TestReduceProgressCheckClassification(t *testing.T) {
	tests := []struct {
		name      string
		prev      State
		frame     Frame
		wantCheck bool
		wantType  string
	}{
		{
			name:      "low health classifies as intervention",
			prev:      State{ActiveAgent: AgentProgressTracker, HealthScore: 0.30},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(true)}),
			wantCheck: true,
			wantType:  CheckIntervention,
		},
		{
			name:      "healthy tracker check is routine",
			prev:      State{ActiveAgent: AgentProgressTracker, HealthScore: 0.9},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(true)}),
			wantCheck: true,
			wantType:  CheckRoutine,
		},
		{
			name:      "orchestrator may run checks",
			prev:      State{ActiveAgent: AgentOrchestrator, HealthScore: 0.9},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(true)}),
			wantCheck: true,
			wantType:  CheckRoutine,
		},
		{
			name:      "tutor cannot start a check",
			prev:      State{ActiveAgent: AgentTutor, HealthScore: 0.2},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(true)}),
			wantCheck: false,
			wantType:  "",
		},
		{
			name:      "explicit false ends the check",
			prev:      State{ActiveAgent: AgentProgressTracker, HealthScore: 0.9, IsProgressCheck: true, ProgressCheckType: CheckRoutine},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(false)}),
			wantCheck: false,
			wantType:  "",
		},
		{
			name:      "absent flag leaves a running check alone",
			prev:      State{ActiveAgent: AgentProgressTracker, HealthScore: 0.9, IsProgressCheck: true, ProgressCheckType: CheckIntervention},
			frame:     NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(0.8)}),
			wantCheck: true,
			wantType:  CheckIntervention,
		},
		{
			name:      "ongoing check keeps its original type",
			prev:      State{ActiveAgent: AgentProgressTracker, HealthScore: 0.9, IsProgressCheck: true, ProgressCheckType: CheckIntervention},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(true)}),
			wantCheck: true,
			wantType:  CheckIntervention,
		},
		{
			name:      "classification uses the score carried by the same frame",
			prev:      State{ActiveAgent: AgentProgressTracker, HealthScore: 0.9},
			frame:     NewUpdateFrame(UpdateData{IsChecking: BoolPtr(true), HealthScore: Float64Ptr(0.30)}),
			wantCheck: true,
			wantType:  CheckIntervention,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.prev, tt.frame)
			if got.IsProgressCheck != tt.wantCheck {
				t.Errorf("IsProgressCheck = %v, want %v", got.IsProgressCheck, tt.wantCheck)
			}
			if got.ProgressCheckType != tt.wantType {
				t.Errorf("ProgressCheckType = %q, want %q", got.ProgressCheckType, tt.wantType)
			}
		})
	}
}

func TestReduceProgressCheckFrames(t *testing.T) {
	state := NewState()

	state = Reduce(state, NewProgressCheckFrame(""))
	if !state.IsProgressCheck || state.ProgressCheckType != CheckRoutine {
		t.Errorf("progress_check without type: got (%v, %q), want (true, routine)", state.IsProgressCheck, state.ProgressCheckType)
	}

	state = Reduce(state, NewProgressCheckFrame(CheckAssessment))
	if state.ProgressCheckType != CheckAssessment {
		t.Errorf("ProgressCheckType = %q, want %q", state.ProgressCheckType, CheckAssessment)
	}

	state = Reduce(state, NewProgressCheckEndFrame())
	if state.IsProgressCheck || state.ProgressCheckType != "" {
		t.Errorf("progress_check_end: got (%v, %q), want (false, empty)", state.IsProgressCheck, state.ProgressCheckType)
	}

	// Unknown payload types degrade to routine rather than leaking through.
	state = Reduce(state, NewProgressCheckFrame("surprise"))
	if state.ProgressCheckType != CheckRoutine {
		t.Errorf("ProgressCheckType = %q, want %q for unknown payload", state.ProgressCheckType, CheckRoutine)
	}
}

func TestReduceSpeakingThinking(t *testing.T) {
	state := NewState()

	state = Reduce(state, NewSpeakingFrame(true))
	state = Reduce(state, NewThinkingFrame(true))
	if !state.IsSpeaking || !state.IsThinking {
		t.Errorf("flags = (%v, %v), want (true, true)", state.IsSpeaking, state.IsThinking)
	}

	state = Reduce(state, NewSpeakingFrame(false))
	if state.IsSpeaking {
		t.Error("IsSpeaking = true after explicit false")
	}
	if !state.IsThinking {
		t.Error("IsThinking lost by an unrelated frame")
	}

	// Missing payload boolean leaves the flag alone.
	state = Reduce(state, Frame{Type: KindAgentThinking})
	if !state.IsThinking {
		t.Error("IsThinking changed by a frame with no payload")
	}
}

func TestReduceUnknownKind(t *testing.T) {
	prev := State{ActiveAgent: AgentTutor, SessionPhase: PhaseActiveTutoring, HealthScore: 0.8, IsSpeaking: true}
	got := Reduce(prev, Frame{Type: "fancy_new_event"})
	if got != prev {
		t.Errorf("unknown kind changed state: got %+v, want %+v", got, prev)
	}
}

func TestProgressCheckInvariant(t *testing.T) {
	// (ProgressCheckType == "") == (IsProgressCheck == false) must hold after
	// any sequence of frames.
	frames := []Frame{
		NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentProgressTracker), IsChecking: BoolPtr(true)}),
		NewProgressCheckFrame(CheckIntervention),
		NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(0.2)}),
		NewProgressCheckEndFrame(),
		NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor), IsChecking: BoolPtr(true)}),
		NewProgressCheckFrame(""),
		NewUpdateFrame(UpdateData{IsChecking: BoolPtr(false)}),
		{Type: "unknown"},
	}

	state := NewState()
	for i, f := range frames {
		state = Reduce(state, f)
		if (state.ProgressCheckType == "") != !state.IsProgressCheck {
			t.Fatalf("invariant broken after frame %d (%s): IsProgressCheck=%v, type=%q",
				i, f.Type, state.IsProgressCheck, state.ProgressCheckType)
		}
	}
}

func TestDecodeFrame(t *testing.T) {
	raw := []byte(`{"type":"orchestration_update","data":{"active_agent":"tutor","health_score":0.42,"is_checking":true}}`)
	f, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != KindOrchestrationUpdate {
		t.Errorf("Type = %q, want %q", f.Type, KindOrchestrationUpdate)
	}
	if f.Data == nil || f.Data.ActiveAgent == nil || *f.Data.ActiveAgent != AgentTutor {
		t.Errorf("Data.ActiveAgent missing or wrong: %+v", f.Data)
	}

	if _, err := DecodeFrame([]byte(`{not json`)); err == nil {
		t.Error("DecodeFrame() accepted malformed input")
	}
}
