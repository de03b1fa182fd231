package app

import "trivia-frenzy/internal/domain"

type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerExpired
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerExpired:
		return "expired"
	default:
		return "idle"
	}
}

// Timer is a per-question countdown advanced one second per Tick.
// It is not safe for concurrent use; the owning state machine serializes access.
type Timer struct {
	state     TimerState
	remaining int
	onTick    func(remaining int)
	onExpire  func()
}

// Start begins a countdown of seconds, replacing any countdown already running.
func (t *Timer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	t.state = TimerRunning
	t.remaining = seconds
	t.onTick = onTick
	t.onExpire = onExpire
}

// Tick records one elapsed second. It does nothing unless the timer is running.
func (t *Timer) Tick() {
	if t.state != TimerRunning {
		return
	}
	t.remaining--
	if t.onTick != nil {
		t.onTick(t.remaining)
	}
	if t.remaining <= 0 {
		t.state = TimerExpired
		onExpire := t.onExpire
		t.clearCallbacks()
		if onExpire != nil {
			onExpire()
		}
	}
}

// Stop cancels a running countdown without further callbacks.
func (t *Timer) Stop() {
	if t.state != TimerRunning {
		return
	}
	t.state = TimerIdle
	t.clearCallbacks()
}

func (t *Timer) State() TimerState {
	return t.state
}

func (t *Timer) Remaining() int {
	return t.remaining
}

func (t *Timer) clearCallbacks() {
	t.onTick = nil
	t.onExpire = nil
}

// LowTime reports whether remaining seconds should be shown as urgent.
func LowTime(remaining int) bool {
	return remaining <= domain.LowTimeThreshold
}
