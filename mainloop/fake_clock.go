package mainloop

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a [Scheduler] driven by [FakeClock.Advance]. Callbacks run
// synchronously on the goroutine calling Advance, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

// NewFakeClock returns a [FakeClock] set to a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{
		now: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Now returns the simulated time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AfterFunc schedules fn to run once the simulated time reaches Now()+d.
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{
		clock: c,
		when:  c.now.Add(d),
		seq:   c.seq,
		fn:    fn,
	}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves the simulated time forward by d, running every callback
// whose deadline is reached. Callbacks scheduled by other callbacks run too
// if their deadline falls within the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.popDue(end)
		if t == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		c.now = t.when
		c.mu.Unlock()

		t.fn()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

// popDue removes and returns the earliest timer due at or before end.
// Must be called with c.mu held.
func (c *FakeClock) popDue(end time.Time) *fakeTimer {
	if len(c.timers) == 0 {
		return nil
	}

	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].when.Equal(c.timers[j].when) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].when.Before(c.timers[j].when)
	})

	t := c.timers[0]
	if t.when.After(end) {
		return nil
	}

	c.timers = c.timers[1:]

	return t
}

func (c *FakeClock) remove(t *fakeTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for idx, pending := range c.timers {
		if pending == t {
			c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
			return true
		}
	}

	return false
}

type fakeTimer struct {
	clock *FakeClock
	when  time.Time
	seq   uint64
	fn    func()
}

func (t *fakeTimer) Stop() bool {
	return t.clock.remove(t)
}
