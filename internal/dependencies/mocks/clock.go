package mocks

import (
	"sync"
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing. Tickers it
// creates fire only when the clock is moved forward.
type MockClock struct {
	mu          sync.RWMutex
	CurrentTime time.Time
	tickers     []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CurrentTime
}

// NewTicker returns a ticker driven by Advance and Set
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		ch:       make(chan time.Time, 1),
		interval: d,
		next:     c.CurrentTime.Add(d),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.fire()
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
	c.fire()
}

// Tickers returns the number of tickers that have not been stopped
func (c *MockClock) Tickers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

// fire delivers at most one pending tick per ticker, like time.Ticker
// dropping ticks for slow receivers. Caller holds c.mu.
func (c *MockClock) fire() {
	for _, t := range c.tickers {
		t.mu.Lock()
		if !t.stopped && t.interval > 0 && !c.CurrentTime.Before(t.next) {
			for !c.CurrentTime.Before(t.next) {
				t.next = t.next.Add(t.interval)
			}
			select {
			case t.ch <- c.CurrentTime:
			default:
			}
		}
		t.mu.Unlock()
	}
}

// MockTicker is a ticker owned by a MockClock
type MockTicker struct {
	mu       sync.Mutex
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop prevents further ticks
func (t *MockTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *MockTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
