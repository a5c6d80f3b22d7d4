package sequence

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock fires timers only when a test advances it.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, fakeWaiter{at: c.now.Add(d), ch: ch})
	sort.SliceStable(c.waiters, func(i, j int) bool { return c.waiters[i].at.Before(c.waiters[j].at) })
	return ch
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// fireNext moves time to the earliest timer and fires it, provided it is
// due no later than limit.
func (c *fakeClock) fireNext(limit time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 || c.waiters[0].at.After(limit) {
		return false
	}
	w := c.waiters[0]
	c.waiters = c.waiters[1:]
	c.now = w.at
	w.ch <- w.at
	return true
}

func (c *fakeClock) setNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// runFor advances the clock by d, firing timers in order and waiting for
// the driver to register its next timer after each one. It stops early if
// done closes.
func (c *fakeClock) runFor(t *testing.T, done <-chan struct{}, d time.Duration) {
	t.Helper()
	limit := c.Now().Add(d)
	for {
		if !c.waitPending(t, done) {
			c.setNow(limit)
			return
		}
		if !c.fireNext(limit) {
			c.setNow(limit)
			return
		}
	}
}

// runToEnd fires timers until done closes.
func (c *fakeClock) runToEnd(t *testing.T, done <-chan struct{}) {
	t.Helper()
	c.runFor(t, done, 24*time.Hour)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sequence did not finish")
	}
}

// waitPending blocks until a timer is registered or done closes. It
// reports whether a timer is pending.
func (c *fakeClock) waitPending(t *testing.T, done <-chan struct{}) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.pending() > 0 {
			return true
		}
		select {
		case <-done:
			return c.pending() > 0
		case <-time.After(time.Millisecond):
		}
	}
	t.Fatal("timed out waiting for a timer")
	return false
}
