package mainloop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Loop runs posted tasks one at a time on the goroutine that called
// [Loop.Run]. It implements [Scheduler].
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// New returns a new [Loop]. Tasks may be posted before [Loop.Run] is called;
// they run once the loop starts.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Run processes tasks until ctx is cancelled. It returns the context error.
//
// Run must be called at most once. After Run returns, posted tasks are
// dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			task := l.next()
			if task == nil {
				break
			}

			task()

			if ctx.Err() != nil {
				break
			}
		}

		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-l.wake:
				continue
			}
		}

		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()

		return ctx.Err()
	}
}

// Post schedules fn to run on the loop. It reports whether fn was accepted,
// false if the loop has stopped.
//
// Post never blocks and is safe to call from any goroutine, including the
// loop itself.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return true
}

// Call runs fn on the loop and waits for it to return.
//
// Call must not be used from the loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return fmt.Errorf("call: loop is closed")
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("call: %w", ctx.Err())
	}
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{fn: fn}
	t.timer = time.AfterFunc(d, func() {
		l.Post(t.fire)
	})

	return t
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil
	}

	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]

	return task
}

const (
	timerPending = iota
	timerFired
	timerStopped
)

// loopTimer guards against a callback that was already posted to the queue
// when Stop was called.
type loopTimer struct {
	mu    sync.Mutex
	state int
	timer *time.Timer
	fn    func()
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != timerPending {
		return false
	}

	t.state = timerStopped
	t.timer.Stop()

	return true
}

func (t *loopTimer) fire() {
	t.mu.Lock()
	if t.state != timerPending {
		t.mu.Unlock()
		return
	}
	t.state = timerFired
	t.mu.Unlock()

	t.fn()
}
