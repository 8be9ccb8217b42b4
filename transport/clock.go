package transport

import (
	"sync"
	"time"
)

// Clock is the audio timeline all scheduling is relative to: a monotonically
// increasing time in seconds plus a wait primitive the dispatch loop parks on.
type Clock interface {
	// Now returns the current transport time in seconds.
	Now() float64

	// After returns a channel that is closed once at least d seconds of
	// transport time have elapsed. d <= 0 yields an already-closed channel.
	After(d float64) <-chan struct{}
}

// SystemClock is a Clock backed by the monotonic wall clock. Time zero is the
// moment the clock was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

func (c *SystemClock) After(d float64) <-chan struct{} {
	ch := make(chan struct{})
	if d <= 0 {
		close(ch)
		return ch
	}
	go func() {
		time.Sleep(time.Duration(d * float64(time.Second)))
		close(ch)
	}()
	return ch
}

// ManualClock is a Clock advanced explicitly by tests. Advance releases every
// waiter whose deadline has passed.
type ManualClock struct {
	mu      sync.Mutex
	now     float64
	waiters []manualWaiter
}

type manualWaiter struct {
	deadline float64
	ch       chan struct{}
}

// NewManualClock creates a ManualClock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) After(d float64) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan struct{})
	if d <= 0 {
		close(ch)
		return ch
	}
	c.waiters = append(c.waiters, manualWaiter{deadline: c.now + d, ch: ch})
	return ch
}

// Advance moves the clock forward by d seconds and wakes expired waiters.
func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	c.now += d
	remaining := c.waiters[:0]
	var expired []chan struct{}
	for _, w := range c.waiters {
		if w.deadline <= c.now {
			expired = append(expired, w.ch)
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	for _, ch := range expired {
		close(ch)
	}
}
