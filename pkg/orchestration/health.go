package orchestration

import (
	"sync"
	"time"

	"ai-tutoring-sync/internal/pkg/logger"
)

// HealthStatus is the qualitative five-level classification of a health score.
type HealthStatus string

const (
	HealthExcellent  HealthStatus = "excellent"
	HealthGood       HealthStatus = "good"
	HealthModerate   HealthStatus = "moderate"
	HealthStruggling HealthStatus = "struggling"
	HealthCritical   HealthStatus = "critical"
)

// interventionThreshold doubles as the default alert threshold: the score
// below which the session is considered to need intervention.
const interventionThreshold = 0.45

// ClassifyHealth maps a score to its status band. Thresholds are evaluated in
// descending order, first match wins.
func ClassifyHealth(score float64) HealthStatus {
	switch {
	case score >= 0.85:
		return HealthExcellent
	case score >= 0.70:
		return HealthGood
	case score >= 0.55:
		return HealthModerate
	case score >= 0.35:
		return HealthStruggling
	default:
		return HealthCritical
	}
}

// HealthMonitor derives alert on/off from the stream of health scores. A
// manual TriggerAlert latches the alert on until ClearAlert releases it back
// to automatic control. When AutoReset is configured, automatically raised
// alerts expire after the delay unless a new qualifying score re-arms them.
type HealthMonitor struct {
	mu        sync.Mutex
	threshold float64
	autoReset time.Duration
	log       logger.ILogger

	status   HealthStatus
	score    float64
	alert    bool
	manual   bool // override latch; suppresses automatic deactivation
	resetSeq int
	resetTmr *time.Timer

	onChange func(active bool, score float64)
}

// NewHealthMonitor builds a monitor with the given alert threshold (<= 0 uses
// the default) and optional auto-reset delay (0 disables it). onChange fires
// outside the monitor's lock whenever the alert flag flips; it may be nil.
func NewHealthMonitor(threshold float64, autoReset time.Duration, log logger.ILogger, onChange func(active bool, score float64)) *HealthMonitor {
	if threshold <= 0 {
		threshold = interventionThreshold
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &HealthMonitor{
		threshold: threshold,
		autoReset: autoReset,
		log:       log,
		status:    ClassifyHealth(1.0),
		score:     1.0,
		onChange:  onChange,
	}
}

// Observe feeds the monitor one score update.
func (m *HealthMonitor) Observe(score float64) {
	m.mu.Lock()
	m.score = score
	m.status = ClassifyHealth(score)

	if m.manual {
		// Override mode: automatic control is suspended entirely.
		m.mu.Unlock()
		return
	}

	below := score < m.threshold
	changed := below != m.alert
	m.alert = below

	if below {
		m.armResetLocked()
	} else {
		m.cancelResetLocked()
	}
	cb, active := m.onChange, m.alert
	m.mu.Unlock()

	if changed {
		m.log.Info("HealthMonitor", "Alert state changed", map[string]interface{}{"active": active, "score": score})
		if cb != nil {
			cb(active, score)
		}
	}
}

// TriggerAlert forces the alert on and enters override mode.
func (m *HealthMonitor) TriggerAlert() {
	m.mu.Lock()
	changed := !m.alert
	m.alert = true
	m.manual = true
	m.cancelResetLocked()
	cb, score := m.onChange, m.score
	m.mu.Unlock()

	if changed && cb != nil {
		cb(true, score)
	}
}

// ClearAlert turns the alert off and exits override mode; automatic control
// resumes on the next observed score.
func (m *HealthMonitor) ClearAlert() {
	m.mu.Lock()
	changed := m.alert
	m.alert = false
	m.manual = false
	m.cancelResetLocked()
	cb, score := m.onChange, m.score
	m.mu.Unlock()

	if changed && cb != nil {
		cb(false, score)
	}
}

// Alert reports whether the alert overlay should be shown.
func (m *HealthMonitor) Alert() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alert
}

// Status returns the current qualitative classification.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Stop cancels any pending auto-reset timer. The monitor stays queryable.
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	m.cancelResetLocked()
	m.mu.Unlock()
}

// armResetLocked (re)schedules the automatic deactivation. Each score update
// while in alert state restarts the clock.
func (m *HealthMonitor) armResetLocked() {
	if m.autoReset <= 0 {
		return
	}
	m.cancelResetLocked()
	m.resetSeq++
	seq := m.resetSeq
	m.resetTmr = time.AfterFunc(m.autoReset, func() {
		m.expireReset(seq)
	})
}

func (m *HealthMonitor) cancelResetLocked() {
	if m.resetTmr != nil {
		m.resetTmr.Stop()
		m.resetTmr = nil
	}
}

func (m *HealthMonitor) expireReset(seq int) {
	m.mu.Lock()
	// A newer score re-armed the timer, or the alert was already released.
	if seq != m.resetSeq || m.manual || !m.alert {
		m.mu.Unlock()
		return
	}
	m.alert = false
	m.resetTmr = nil
	cb, score := m.onChange, m.score
	m.mu.Unlock()

	m.log.Info("HealthMonitor", "Alert auto-reset elapsed", map[string]interface{}{"score": score})
	if cb != nil {
		cb(false, score)
	}
}
