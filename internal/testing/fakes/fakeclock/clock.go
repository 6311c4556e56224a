// Package fakeclock provides a controllable Clock implementation for testing.
package fakeclock

import (
	"sync"
	"time"

	"github.com/acolita/term-relay-mcp/internal/ports"
)

// Clock is a fake clock driven by the test via Advance.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	waiters []waiter
	tickers []*fakeTicker
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// New creates a new fake clock initialized to the given time.
func New(initial time.Time) *Clock {
	return &Clock{current: initial}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Sleep returns immediately; the test controls time via Advance.
func (c *Clock) Sleep(d time.Duration) {}

// After returns a channel that fires once Advance moves the clock past the
// deadline.
func (c *Clock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	deadline := c.current.Add(d)
	if !c.current.Before(deadline) {
		ch <- c.current
		return ch
	}
	c.waiters = append(c.waiters, waiter{deadline: deadline, ch: ch})
	return ch
}

// NewTicker returns a ticker that fires only when the test calls TickAll.
func (c *Clock) NewTicker(d time.Duration) ports.Ticker {
	t := &fakeTicker{clock: c, ch: make(chan time.Time, 1)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Advance moves the clock forward by d, firing expired waiters.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current

	var remaining []waiter
	for _, w := range c.waiters {
		if !now.Before(w.deadline) {
			select {
			case w.ch <- now:
			default:
			}
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()
}

// TickAll fires every live ticker once.
func (c *Clock) TickAll() {
	c.mu.Lock()
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()
	for _, t := range tickers {
		t.tick()
	}
}

type fakeTicker struct {
	clock   *Clock
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) tick() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}
	select {
	case t.ch <- t.clock.Now():
	default:
	}
}

var _ ports.Clock = (*Clock)(nil)
