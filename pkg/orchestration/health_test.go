package orchestration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHealthBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  HealthStatus
	}{
		{1.0, HealthExcellent},
		{0.85, HealthExcellent},
		{0.849999, HealthGood},
		{0.70, HealthGood},
		{0.699999, HealthModerate},
		{0.55, HealthModerate},
		{0.549999, HealthStruggling},
		{0.35, HealthStruggling},
		{0.349999, HealthCritical},
		{0.0, HealthCritical},
	}

	for _, tt := range tests {
		if got := ClassifyHealth(tt.score); got != tt.want {
			t.Errorf("ClassifyHealth(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestAlertThresholdBoundary(t *testing.T) {
	m := NewHealthMonitor(0.45, 0, nil, nil)

	// Exactly at threshold is NOT below it.
	m.Observe(0.45)
	assert.False(t, m.Alert(), "score 0.45 must not raise the alert")

	m.Observe(0.449999)
	assert.True(t, m.Alert(), "score just under 0.45 must raise the alert")

	m.Observe(0.46)
	assert.False(t, m.Alert(), "recovered score must clear the alert")
}

func TestAlertManualOverride(t *testing.T) {
	m := NewHealthMonitor(0.45, 0, nil, nil)

	m.TriggerAlert()
	assert.True(t, m.Alert())

	// Automatic deactivation is suppressed while the override is latched.
	m.Observe(0.95)
	assert.True(t, m.Alert(), "healthy score must not clear a manual alert")

	m.ClearAlert()
	assert.False(t, m.Alert())

	// Automatic control resumes on the next score.
	m.Observe(0.2)
	assert.True(t, m.Alert())
	m.Observe(0.9)
	assert.False(t, m.Alert())
}

func TestAlertAutoReset(t *testing.T) {
	m := NewHealthMonitor(0.45, 30*time.Millisecond, nil, nil)
	defer m.Stop()

	m.Observe(0.2)
	assert.True(t, m.Alert())

	assert.Eventually(t, func() bool { return !m.Alert() },
		time.Second, 5*time.Millisecond, "automatic alert should expire")
}

func TestAlertAutoResetRearmsOnScoreChange(t *testing.T) {
	m := NewHealthMonitor(0.45, 60*time.Millisecond, nil, nil)
	defer m.Stop()

	m.Observe(0.2)
	assert.True(t, m.Alert())

	// Keep feeding qualifying scores faster than the reset delay; the timer
	// must restart each time and the alert must hold.
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		m.Observe(0.2 + float64(i)*0.01)
		assert.True(t, m.Alert(), "alert dropped while qualifying scores kept arriving")
	}

	assert.Eventually(t, func() bool { return !m.Alert() },
		time.Second, 5*time.Millisecond, "alert should expire once scores stop")
}

func TestAlertAutoResetIgnoresManual(t *testing.T) {
	m := NewHealthMonitor(0.45, 20*time.Millisecond, nil, nil)
	defer m.Stop()

	m.TriggerAlert()
	time.Sleep(60 * time.Millisecond)
	assert.True(t, m.Alert(), "auto-reset must not expire a manually raised alert")
}

func TestAlertChangeCallback(t *testing.T) {
	var flips []bool
	m := NewHealthMonitor(0.45, 0, nil, func(active bool, score float64) {
		flips = append(flips, active)
	})

	m.Observe(0.9)  // no flip
	m.Observe(0.3)  // on
	m.Observe(0.25) // still on, no flip
	m.Observe(0.8)  // off

	assert.Equal(t, []bool{true, false}, flips)
}
