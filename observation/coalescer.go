package observation

import (
	"fmt"
	"sync"
	"time"
)

// RedrawMode defines when refresh requests reach the refresh callback.
type RedrawMode int

const (
	// RedrawImmediate invokes the refresh callback synchronously on every
	// request.
	RedrawImmediate RedrawMode = iota

	// RedrawFixedDelay defers the refresh by a fixed wall-clock delay and
	// merges every request arriving within that delay into one firing.
	RedrawFixedDelay

	// RedrawSuppressed drops all refresh requests.
	RedrawSuppressed
)

func (m RedrawMode) String() string {
	switch m {
	case RedrawImmediate:
		return "immediate"
	case RedrawFixedDelay:
		return "delay"
	case RedrawSuppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("RedrawMode(%d)", int(m))
	}
}

// ParseRedrawMode converts a configuration string to a RedrawMode.
func ParseRedrawMode(s string) (RedrawMode, error) {
	switch s {
	case "immediate":
		return RedrawImmediate, nil
	case "delay":
		return RedrawFixedDelay, nil
	case "suppressed":
		return RedrawSuppressed, nil
	default:
		return 0, fmt.Errorf("unknown redraw mode %q", s)
	}
}

// timerState makes the two states of the deferred refresh explicit. A
// nullable timer handle alone cannot distinguish "idle" from "fired but not
// yet cleared".
type timerState int

const (
	timerIdle timerState = iota
	timerPending
)

// A RedrawCoalescer guarantees that no matter how many refresh requests
// arrive within one delay window, at most one refresh executes, scheduled
// at the fixed delay after the first request of the window. Later requests
// never extend the window.
//
// The deferred callback runs on the timer goroutine. It only ever invokes
// the refresh callback, which by contract reads already-committed values;
// all aggregation state stays on the scheduler's thread.
type RedrawCoalescer struct {
	mu      sync.Mutex
	mode    RedrawMode
	delay   time.Duration
	refresh func()
	state   timerState
	timer   *time.Timer
}

// NewRedrawCoalescer creates a coalescer that invokes refresh per the given
// mode. The delay is only meaningful for RedrawFixedDelay.
func NewRedrawCoalescer(
	refresh func(),
	mode RedrawMode,
	delay time.Duration,
) *RedrawCoalescer {
	if refresh == nil {
		panic("coalescer: refresh callback must not be nil")
	}

	return &RedrawCoalescer{
		mode:    mode,
		delay:   delay,
		refresh: refresh,
	}
}

// Configure changes the redraw mode. A pending deferred refresh from the
// previous mode still fires.
func (c *RedrawCoalescer) Configure(mode RedrawMode, delay time.Duration) {
	c.mu.Lock()
	c.mode = mode
	c.delay = delay
	c.mu.Unlock()
}

// Mode returns the active redraw mode and delay.
func (c *RedrawCoalescer) Mode() (RedrawMode, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.delay
}

// RequestRefresh asks for the presentation layer to be refreshed. In
// immediate mode the callback runs synchronously. In fixed-delay mode the
// first request of a window arms a one-shot timer and every further request
// before it fires is a no-op. In suppressed mode nothing happens.
func (c *RedrawCoalescer) RequestRefresh() {
	c.mu.Lock()

	switch c.mode {
	case RedrawImmediate:
		c.mu.Unlock()
		c.refresh()
		return
	case RedrawSuppressed:
		c.mu.Unlock()
		return
	}

	if c.state == timerPending {
		c.mu.Unlock()
		return
	}

	c.state = timerPending
	c.timer = time.AfterFunc(c.delay, c.fire)
	c.mu.Unlock()
}

func (c *RedrawCoalescer) fire() {
	c.mu.Lock()
	c.state = timerIdle
	c.timer = nil
	c.mu.Unlock()

	// Outside the lock: a request arriving during the callback may arm the
	// next window.
	c.refresh()
}

// Stop cancels a pending deferred refresh, if any. Stop is idempotent. A
// callback that is already firing completes normally.
func (c *RedrawCoalescer) Stop() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = timerIdle
	c.mu.Unlock()
}
