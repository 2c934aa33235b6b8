package orchestration

import (
	"sync"
	"time"

	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/pkg/bus"
	"ai-tutoring-sync/pkg/events"
)

// Options configures a Synchronizer. Zero values fall back to defaults.
type Options struct {
	// BaseURL of the orchestration backend, e.g. "ws://localhost:8000".
	BaseURL string

	// Token is attached as a bearer credential on the socket handshake.
	Token string

	// TransitionWindow bounds the hand-off presentation (default 3s).
	TransitionWindow time.Duration

	// AlertThreshold is the score below which the alert activates (default 0.45).
	AlertThreshold float64

	// AlertAutoReset, when > 0, expires automatically raised alerts.
	AlertAutoReset time.Duration

	Logger logger.ILogger

	// Bus, when set, receives hand-off/alert/connection events for view
	// bindings. The synchronizer works fine without one.
	Bus *bus.Bus
}

// Snapshot is the read-only view handed to consumers: the session's state plus
// the two derived slices owned by the health policy.
type Snapshot struct {
	SessionID string `json:"session_id"`
	State
	HealthStatus HealthStatus `json:"health_status"`
	AlertActive  bool         `json:"alert_active"`
}

// Synchronizer is the single-owner handle for one session's client-side view.
// It owns the transport, applies frames through the reducer in strict arrival
// order, and drives the two derived-state components. Supplying a new session
// id tears everything down and starts from the fixed initial snapshot; nothing
// from the prior session leaks, and a frame that arrives after teardown is
// dropped on the floor.
type Synchronizer struct {
	opts Options
	log  logger.ILogger

	mu        sync.Mutex
	closed    bool
	gen       uint64 // bumps on every Connect/Close; stale deliveries are dropped
	sessionID string
	state     State
	channel   *Channel
	health    *HealthMonitor
	presenter *TransitionPresenter
}

func New(opts Options) *Synchronizer {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Synchronizer{
		opts:  opts,
		log:   opts.Logger,
		state: NewState(),
	}
}

// Connect supplies (or replaces) the session id. Any existing transport is
// closed exactly once, pending timers are cancelled, and the state is reset to
// the initial snapshot before the new socket is dialed. The dial itself runs
// in the background; failures surface only as IsConnected=false.
func (s *Synchronizer) Connect(sessionID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	oldChannel, oldHealth, oldPresenter := s.teardownLocked()

	s.gen++
	gen := s.gen
	s.sessionID = sessionID
	s.state = NewState()

	s.health = NewHealthMonitor(
		s.opts.AlertThreshold,
		s.opts.AlertAutoReset,
		s.log,
		func(active bool, score float64) {
			s.publish(bus.TopicAlert, events.NewHealthAlert(sessionID, active, score))
		},
	)
	s.presenter = NewTransitionPresenter(s.opts.TransitionWindow, func() {
		s.clearTransition(gen)
	})
	s.channel = NewChannel(s.opts.BaseURL, s.opts.Token, s.log,
		func(f Frame) { s.handleFrame(gen, f) },
		func(connected bool) { s.handleConn(gen, connected) },
	)
	channel := s.channel
	s.mu.Unlock()

	releaseResources(oldChannel, oldHealth, oldPresenter)

	go channel.Open(sessionID)
}

// Snapshot returns a value copy of the current view. Safe to call from any
// goroutine; the copy never mutates under the reader.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		SessionID: s.sessionID,
		State:     s.state,
	}
	if s.health != nil {
		snap.HealthStatus = s.health.Status()
		snap.AlertActive = s.health.Alert()
	} else {
		snap.HealthStatus = ClassifyHealth(s.state.HealthScore)
	}
	return snap
}

// ClearTransition dismisses the hand-off presentation immediately.
func (s *Synchronizer) ClearTransition() {
	s.mu.Lock()
	presenter := s.presenter
	s.mu.Unlock()
	if presenter != nil {
		presenter.Clear()
	}
}

// ClearProgressCheck dismisses the progress-check surface (caller-driven).
func (s *Synchronizer) ClearProgressCheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.IsProgressCheck = false
	s.state.ProgressCheckType = ""
}

// TriggerAlert forces the alert overlay on (manual override).
func (s *Synchronizer) TriggerAlert() {
	s.mu.Lock()
	health := s.health
	s.mu.Unlock()
	if health != nil {
		health.TriggerAlert()
	}
}

// ClearAlert dismisses the alert and returns it to automatic control.
func (s *Synchronizer) ClearAlert() {
	s.mu.Lock()
	health := s.health
	s.mu.Unlock()
	if health != nil {
		health.ClearAlert()
	}
}

// Close releases the socket and cancels all timers. The synchronizer cannot be
// reused afterwards.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	channel, health, presenter := s.teardownLocked()
	s.mu.Unlock()

	releaseResources(channel, health, presenter)
}

// teardownLocked detaches the session's resources; the caller releases them
// after dropping the lock so timer callbacks cannot deadlock against us.
func (s *Synchronizer) teardownLocked() (*Channel, *HealthMonitor, *TransitionPresenter) {
	channel, health, presenter := s.channel, s.health, s.presenter
	s.channel, s.health, s.presenter = nil, nil, nil
	return channel, health, presenter
}

func releaseResources(channel *Channel, health *HealthMonitor, presenter *TransitionPresenter) {
	if presenter != nil {
		presenter.Stop()
	}
	if health != nil {
		health.Stop()
	}
	if channel != nil {
		channel.Close()
	}
}

// handleFrame applies one inbound frame. Frames arrive on the channel's single
// read goroutine, so ordering is strict and the reducer never runs reentrantly;
// the lock only guards against overlapping caller-invoked methods and timers.
func (s *Synchronizer) handleFrame(gen uint64, f Frame) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("Synchronizer", "Dropping frame for torn-down session", map[string]interface{}{"type": f.Type})
		return
	}

	prev := s.state
	next := Reduce(prev, f)
	s.state = next

	sessionID := s.sessionID
	presenter := s.presenter
	health := s.health
	handoff := next.ActiveAgent != prev.ActiveAgent
	scoreChanged := next.HealthScore != prev.HealthScore
	s.mu.Unlock()

	if handoff {
		presenter.Trigger()
		s.publish(bus.TopicHandoff, events.NewAgentHandoff(sessionID, prev.ActiveAgent, next.ActiveAgent))
	}
	if scoreChanged {
		health.Observe(next.HealthScore)
	}
}

func (s *Synchronizer) handleConn(gen uint64, connected bool) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	changed := s.state.IsConnected != connected
	s.state.IsConnected = connected
	sessionID := s.sessionID
	s.mu.Unlock()

	if changed {
		s.publish(bus.TopicConnection, events.NewConnectionChange(sessionID, connected))
	}
}

// clearTransition is the presenter's callback: the window elapsed (or a manual
// clear landed), so the transition surface and the pending previous-agent are
// erased together.
func (s *Synchronizer) clearTransition(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.state.ShowTransition = false
	s.state.PreviousAgent = ""
}

func (s *Synchronizer) publish(topic string, event events.BaseEvent) {
	if s.opts.Bus == nil {
		return
	}
	if err := s.opts.Bus.Publish(topic, event); err != nil {
		s.log.Warn("Synchronizer", "Bus publish failed", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
	}
}
