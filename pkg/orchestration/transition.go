package orchestration

import (
	"sync"
	"time"
)

// DefaultTransitionWindow is how long a hand-off banner stays up before the
// presenter clears it on its own.
const DefaultTransitionWindow = 3 * time.Second

// TransitionPresenter turns the reducer's ShowTransition pulse into a bounded
// UI signal. Re-triggering before the window elapses restarts the window; only
// one transition is presented at a time. The reducer knows nothing about it.
type TransitionPresenter struct {
	mu     sync.Mutex
	window time.Duration
	seq    int
	timer  *time.Timer
	active bool

	// onClear runs outside the presenter's lock when the window elapses or a
	// manual clear lands. It is also where the owner erases PreviousAgent.
	onClear func()
}

func NewTransitionPresenter(window time.Duration, onClear func()) *TransitionPresenter {
	if window <= 0 {
		window = DefaultTransitionWindow
	}
	return &TransitionPresenter{window: window, onClear: onClear}
}

// Trigger starts, or restarts, the presentation window.
func (p *TransitionPresenter) Trigger() {
	p.mu.Lock()
	p.active = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.seq++
	seq := p.seq
	p.timer = time.AfterFunc(p.window, func() {
		p.expire(seq)
	})
	p.mu.Unlock()
}

// Clear dismisses the transition immediately (caller-driven, e.g. the user
// tapped the banner). Safe to call when nothing is showing.
func (p *TransitionPresenter) Clear() {
	p.mu.Lock()
	wasActive := p.active
	p.active = false
	p.seq++ // invalidate any in-flight timer
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	cb := p.onClear
	p.mu.Unlock()

	if wasActive && cb != nil {
		cb()
	}
}

// Active reports whether a transition is currently being presented.
func (p *TransitionPresenter) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Stop cancels the pending window without firing onClear. Used on teardown,
// where the state it would clear is being discarded anyway.
func (p *TransitionPresenter) Stop() {
	p.mu.Lock()
	p.active = false
	p.seq++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
}

func (p *TransitionPresenter) expire(seq int) {
	p.mu.Lock()
	if seq != p.seq || !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	p.timer = nil
	cb := p.onClear
	p.mu.Unlock()

	if cb != nil {
		cb()
	}
}
