package playback

import (
	"sync"
	"time"
)

// Ticker is a cooperative repeating task: the tick function is invoked at
// roughly the given interval on one goroutine until the cancellation token
// obtained at start is cancelled. Start and Stop are idempotent; ticks must
// tolerate irregular or throttled invocation, so the tick receives the real
// elapsed time rather than assuming the nominal interval.
type Ticker struct {
	mutex    sync.Mutex
	interval time.Duration
	cancel   chan struct{}
}

// NewTicker creates a ticker with the given nominal interval
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Start begins invoking tick. If the ticker is already running this is a
// no-op; the existing loop keeps its tick function.
func (t *Ticker) Start(tick func(elapsed time.Duration)) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.cancel != nil {
		return
	}
	cancel := make(chan struct{})
	t.cancel = cancel

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-cancel:
				return
			case now := <-ticker.C:
				tick(now.Sub(last))
				last = now
			}
		}
	}()
}

// Stop cancels the running loop. No-op when not running.
func (t *Ticker) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.cancel == nil {
		return
	}
	close(t.cancel)
	t.cancel = nil
}

// Running reports whether the loop is active
func (t *Ticker) Running() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.cancel != nil
}
