package orchestration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-tutoring-sync/pkg/bus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed injects a frame as if it had arrived on the live transport.
func feed(s *Synchronizer, f Frame) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.handleFrame(gen, f)
}

func TestSynchronizerInitialSnapshot(t *testing.T) {
	s := New(Options{BaseURL: "ws://127.0.0.1:1"})
	defer s.Close()

	snap := s.Snapshot()
	assert.Equal(t, AgentOrchestrator, snap.ActiveAgent)
	assert.Equal(t, PhaseInitialization, snap.SessionPhase)
	assert.Equal(t, 1.0, snap.HealthScore)
	assert.False(t, snap.IsConnected)
	assert.False(t, snap.ShowTransition)
	assert.Equal(t, HealthExcellent, snap.HealthStatus)
}

func TestSynchronizerHandoffFlow(t *testing.T) {
	s := New(Options{BaseURL: "ws://127.0.0.1:1", TransitionWindow: time.Hour})
	defer s.Close()
	s.Connect("sess-1")

	feed(s, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor), SessionPhase: StringPtr(PhaseActiveTutoring)}))

	snap := s.Snapshot()
	assert.Equal(t, AgentTutor, snap.ActiveAgent)
	assert.Equal(t, AgentOrchestrator, snap.PreviousAgent)
	assert.True(t, snap.ShowTransition)

	// Manual dismissal clears the surface and the pending previous agent.
	s.ClearTransition()
	snap = s.Snapshot()
	assert.False(t, snap.ShowTransition)
	assert.Empty(t, snap.PreviousAgent)
}

func TestSynchronizerTransitionAutoClears(t *testing.T) {
	s := New(Options{BaseURL: "ws://127.0.0.1:1", TransitionWindow: 30 * time.Millisecond})
	defer s.Close()
	s.Connect("sess-1")

	feed(s, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor)}))
	assert.True(t, s.Snapshot().ShowTransition)

	assert.Eventually(t, func() bool {
		snap := s.Snapshot()
		return !snap.ShowTransition && snap.PreviousAgent == ""
	}, time.Second, 5*time.Millisecond)

	// The agent itself stays; only the presentation is time-boxed.
	assert.Equal(t, AgentTutor, s.Snapshot().ActiveAgent)
}

func TestSynchronizerHealthAndAlert(t *testing.T) {
	s := New(Options{BaseURL: "ws://127.0.0.1:1"})
	defer s.Close()
	s.Connect("sess-1")

	feed(s, NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(0.30)}))

	snap := s.Snapshot()
	assert.Equal(t, 0.30, snap.HealthScore)
	assert.Equal(t, HealthCritical, snap.HealthStatus)
	assert.True(t, snap.AlertActive)

	s.ClearAlert()
	assert.False(t, s.Snapshot().AlertActive)

	s.TriggerAlert()
	feed(s, NewUpdateFrame(UpdateData{HealthScore: Float64Ptr(0.95)}))
	assert.True(t, s.Snapshot().AlertActive, "manual alert survives healthy scores")
}

func TestSynchronizerClearProgressCheck(t *testing.T) {
	s := New(Options{BaseURL: "ws://127.0.0.1:1"})
	defer s.Close()
	s.Connect("sess-1")

	feed(s, NewProgressCheckFrame(CheckRoutine))
	assert.True(t, s.Snapshot().IsProgressCheck)

	s.ClearProgressCheck()
	snap := s.Snapshot()
	assert.False(t, snap.IsProgressCheck)
	assert.Empty(t, snap.ProgressCheckType)
}

func TestSynchronizerSessionReplacement(t *testing.T) {
	// Scenario: the transport dies while a transition is showing; reconnecting
	// with a different session id must start from the fresh initial state.
	s := New(Options{BaseURL: "ws://127.0.0.1:1", TransitionWindow: time.Hour})
	defer s.Close()
	s.Connect("sess-1")

	s.mu.Lock()
	oldGen := s.gen
	s.mu.Unlock()

	feed(s, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor), HealthScore: Float64Ptr(0.2)}))
	require.True(t, s.Snapshot().ShowTransition)
	require.True(t, s.Snapshot().AlertActive)

	s.Connect("sess-2")

	snap := s.Snapshot()
	assert.Equal(t, "sess-2", snap.SessionID)
	assert.Equal(t, AgentOrchestrator, snap.ActiveAgent)
	assert.False(t, snap.ShowTransition)
	assert.Empty(t, snap.PreviousAgent)
	assert.Equal(t, 1.0, snap.HealthScore)
	assert.False(t, snap.AlertActive, "alert state must not leak across sessions")

	// A frame from the torn-down session arrives late: dropped.
	s.handleFrame(oldGen, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentAssessor)}))
	assert.Equal(t, AgentOrchestrator, s.Snapshot().ActiveAgent)
}

func TestSynchronizerDropsFramesAfterClose(t *testing.T) {
	s := New(Options{BaseURL: "ws://127.0.0.1:1"})
	s.Connect("sess-1")

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	s.Close()
	s.handleFrame(gen, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor)}))

	assert.Equal(t, AgentOrchestrator, s.Snapshot().ActiveAgent)
}

func TestSynchronizerPublishesHandoffEvents(t *testing.T) {
	b := bus.New()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := b.Subscribe(ctx, bus.TopicHandoff)
	require.NoError(t, err)

	s := New(Options{BaseURL: "ws://127.0.0.1:1", Bus: b, TransitionWindow: time.Hour})
	defer s.Close()
	s.Connect("sess-1")

	feed(s, NewUpdateFrame(UpdateData{ActiveAgent: StringPtr(AgentTutor)}))

	select {
	case msg := <-msgs:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "sess-1", payload["session_id"])
		assert.Equal(t, AgentOrchestrator, payload["from_agent"])
		assert.Equal(t, AgentTutor, payload["to_agent"])
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no hand-off event published")
	}
}
