package service

import (
	"context"
	"sync"
	"time"

	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/internal/repository/memory"
	"ai-tutoring-sync/pkg/events"
	pktNats "ai-tutoring-sync/pkg/nats"
	"ai-tutoring-sync/pkg/orchestration"
	"ai-tutoring-sync/pkg/store"
)

// FrameDelivery pushes one frame to every socket watching a session.
// Implemented by the websocket hub.
type FrameDelivery interface {
	Push(sessionID string, frame orchestration.Frame)
}

// IOrchestrationEngine drives scripted tutoring sessions and emits the wire
// frames a real orchestration graph would.
type IOrchestrationEngine interface {
	StartSession(session *store.Session)
	StopSession(sessionID string)
	StopAll()
}

type orchestrationEngine struct {
	delivery FrameDelivery
	repo     *memory.SessionRepository
	natsPub  *pktNats.Publisher // optional mirror, nil when NATS is absent
	logger   logger.ILogger

	tick  time.Duration
	decay float64

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewOrchestrationEngine(
	delivery FrameDelivery,
	repo *memory.SessionRepository,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
	tick time.Duration,
	confusionDecay float64,
) IOrchestrationEngine {
	if tick <= 0 {
		tick = time.Second
	}
	if confusionDecay <= 0 {
		confusionDecay = 0.2
	}
	return &orchestrationEngine{
		delivery: delivery,
		repo:     repo,
		natsPub:  natsPub,
		logger:   log,
		tick:     tick,
		decay:    confusionDecay,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// StartSession spawns the session script. Starting an id that is already
// running restarts it from the beginning.
func (e *orchestrationEngine) StartSession(session *store.Session) {
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if old, ok := e.cancels[session.ID]; ok {
		old()
	}
	e.cancels[session.ID] = cancel
	e.mu.Unlock()

	go e.runScript(ctx, session)
}

func (e *orchestrationEngine) StopSession(sessionID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[sessionID]; ok {
		cancel()
		delete(e.cancels, sessionID)
	}
	e.mu.Unlock()
}

func (e *orchestrationEngine) StopAll() {
	e.mu.Lock()
	for id, cancel := range e.cancels {
		cancel()
		delete(e.cancels, id)
	}
	e.mu.Unlock()
}

// runScript walks one session through the canonical arc: setup hand-offs,
// tutoring with speaking/thinking pulses, health decay from confusion events,
// a progress-tracker intervention once health crosses the threshold, recovery,
// a final assessment, and completion.
func (e *orchestrationEngine) runScript(ctx context.Context, session *store.Session) {
	e.logger.Info("Engine", "Session script started", map[string]interface{}{"session_id": session.ID})

	health := 1.0
	agent := orchestration.AgentOrchestrator

	emit := func(next, phase string, checking *bool) bool {
		if next != agent && e.natsPub != nil {
			if err := e.natsPub.Publish(ctx, events.NewAgentHandoff(session.ID, agent, next)); err != nil {
				e.logger.Warn("Engine", "NATS mirror publish failed", map[string]interface{}{"error": err.Error()})
			}
		}
		agent = next
		data := orchestration.UpdateData{
			ActiveAgent:  orchestration.StringPtr(next),
			SessionPhase: orchestration.StringPtr(phase),
			HealthScore:  orchestration.Float64Ptr(health),
			IsChecking:   checking,
		}
		e.deliverUpdate(session.ID, data)
		return e.sleep(ctx)
	}
	pulse := func(frame orchestration.Frame) bool {
		e.delivery.Push(session.ID, frame)
		return e.sleep(ctx)
	}

	// Setup chain: orchestrator -> course creator -> curriculum designer.
	if !emit(orchestration.AgentOrchestrator, orchestration.PhaseInitialization, nil) {
		return
	}
	if !emit(orchestration.AgentCourseCreator, orchestration.PhaseCourseCreation, nil) {
		return
	}
	if !emit(orchestration.AgentCurriculumDesigner, orchestration.PhaseCurriculumDesign, nil) {
		return
	}

	// Active tutoring with indicator pulses and confusion-driven decay.
	if !emit(orchestration.AgentTutor, orchestration.PhaseActiveTutoring, nil) {
		return
	}
	for i := 0; i < 6; i++ {
		if !pulse(orchestration.NewThinkingFrame(true)) {
			return
		}
		if !pulse(orchestration.NewThinkingFrame(false)) {
			return
		}
		if !pulse(orchestration.NewSpeakingFrame(true)) {
			return
		}
		if !pulse(orchestration.NewSpeakingFrame(false)) {
			return
		}

		// Every other turn the student struggles.
		if i%2 == 1 {
			health -= e.decay
			if health < 0 {
				health = 0
			}
			if !emit(orchestration.AgentTutor, orchestration.PhaseActiveTutoring, nil) {
				return
			}
		}

		if health < 0.45 {
			// The progress tracker steps in.
			if !emit(orchestration.AgentProgressTracker, orchestration.PhaseActiveTutoring, orchestration.BoolPtr(true)) {
				return
			}
			health = 0.65 // intervention recovers the session
			if !emit(orchestration.AgentTutor, orchestration.PhaseActiveTutoring, orchestration.BoolPtr(false)) {
				return
			}
		}
	}

	// Final assessment, run as an explicit progress check.
	if !emit(orchestration.AgentAssessor, orchestration.PhaseAssessment, nil) {
		return
	}
	if !pulse(orchestration.NewProgressCheckFrame(orchestration.CheckAssessment)) {
		return
	}
	if !pulse(orchestration.NewProgressCheckEndFrame()) {
		return
	}

	// Wrap up.
	if !emit(orchestration.AgentOrchestrator, orchestration.PhaseReview, nil) {
		return
	}
	if !emit(orchestration.AgentOrchestrator, orchestration.PhaseComplete, nil) {
		return
	}

	if e.natsPub != nil {
		if err := e.natsPub.Publish(ctx, events.NewSessionComplete(session.ID, health)); err != nil {
			e.logger.Warn("Engine", "NATS mirror publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
	e.logger.Info("Engine", "Session script complete", map[string]interface{}{
		"session_id":   session.ID,
		"final_health": health,
	})
}

// deliverUpdate pushes the frame and records the snapshot served over REST.
func (e *orchestrationEngine) deliverUpdate(sessionID string, data orchestration.UpdateData) {
	e.delivery.Push(sessionID, orchestration.NewUpdateFrame(data))

	snap := &store.Snapshot{SessionID: sessionID, UpdatedAt: time.Now()}
	if data.ActiveAgent != nil {
		snap.ActiveAgent = *data.ActiveAgent
	}
	if data.SessionPhase != nil {
		snap.SessionPhase = *data.SessionPhase
	}
	if data.HealthScore != nil {
		snap.HealthScore = *data.HealthScore
	}
	if data.IsChecking != nil {
		snap.IsChecking = *data.IsChecking
	}
	e.repo.SaveSnapshot(snap)
}

func (e *orchestrationEngine) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(e.tick):
		return true
	}
}
