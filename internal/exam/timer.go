package exam

import (
	"sync"
	"time"
)

// TimerState is the lifecycle state of a Timer.
type TimerState string

const (
	TimerIdle    TimerState = "IDLE"
	TimerRunning TimerState = "RUNNING"
	TimerExpired TimerState = "EXPIRED"
	TimerStopped TimerState = "STOPPED"
)

// TickSource delivers the periodic ticks that drive a Timer.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type tickerSource struct{ t *time.Ticker }

func (s tickerSource) C() <-chan time.Time { return s.t.C }
func (s tickerSource) Stop()               { s.t.Stop() }

// SecondTicker is the production tick source.
func SecondTicker() TickSource {
	return tickerSource{t: time.NewTicker(time.Second)}
}

// Timer counts a session down once per tick and fires onExpire when it reaches zero.
//
// All ticks for one run are handled by a single goroutine, one at a time.
// Stop waits for that goroutine to exit, so no tick can touch the session
// after Stop returns.
type Timer struct {
	mu        sync.Mutex
	newSource func() TickSource

	state    TimerState
	session  *Session
	onExpire func()
	done     chan struct{}
	exited   chan struct{}
}

// NewTimer creates an idle Timer. A nil newSource means one tick per second.
func NewTimer(newSource func() TickSource) *Timer {
	if newSource == nil {
		newSource = SecondTicker
	}
	return &Timer{
		newSource: newSource,
		state:     TimerIdle,
	}
}

// State returns the current lifecycle state.
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins ticking session. It may be called again after the timer has stopped or expired.
func (t *Timer) Start(session *Session, onExpire func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TimerRunning {
		return ErrTimerRunning
	}

	t.state = TimerRunning
	t.session = session
	t.onExpire = onExpire
	t.done = make(chan struct{})
	t.exited = make(chan struct{})

	go t.run(t.newSource(), t.done, t.exited)
	return nil
}

func (t *Timer) run(src TickSource, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	defer src.Stop()

	for {
		select {
		case <-done:
			return
		case <-src.C():
			if !t.Tick() {
				return
			}
		}
	}
}

// Tick handles one tick: it decrements the session clock and expires the
// timer when the clock hits zero. It returns false once the timer is no
// longer running. onExpire runs at most once per Start, outside the lock.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return false
	}

	t.session.Tick()
	if t.session.TimeRemaining() > 0 {
		t.mu.Unlock()
		return true
	}

	t.state = TimerExpired
	close(t.done)
	onExpire := t.onExpire
	t.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
	return false
}

// Stop cancels further ticks. It is a no-op unless the timer is running.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return
	}
	t.state = TimerStopped
	close(t.done)
	exited := t.exited
	t.mu.Unlock()

	<-exited
}
