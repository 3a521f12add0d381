package player

import (
	"sync"
	"testing"
	"time"
)

// testClock is a manually advanced Clock. Advance fires any timers and
// ticker ticks that become due; BlockUntil lets tests wait for the
// sequence goroutine to have registered its timer or ticker before
// advancing.
type testClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*testWaiter
	tickers []*testTicker
}

type testWaiter struct {
	at time.Time
	ch chan time.Time
}

type testTicker struct {
	clock    *testClock
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &testWaiter{at: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.waiters = append(c.waiters, w)
	return w.ch
}

func (c *testClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &testTicker{clock: c, interval: d, next: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (t *testTicker) C() <-chan time.Time { return t.ch }

func (t *testTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

// Advance moves the clock forward, firing due timers and at most one
// tick per ticker per call (ticks beyond the first are dropped, like
// time.Ticker does when the receiver is slow).
func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)

	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining

	for _, t := range c.tickers {
		if t.stopped || t.next.After(c.now) {
			continue
		}
		select {
		case t.ch <- c.now:
		default:
		}
		for !t.next.After(c.now) {
			t.next = t.next.Add(t.interval)
		}
	}
}

// BlockUntil waits until n timers/tickers are registered.
func (c *testClock) BlockUntil(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		active := len(c.waiters)
		for _, tk := range c.tickers {
			if !tk.stopped {
				active++
			}
		}
		c.mu.Unlock()
		if active >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d clock waiters", n)
}
