package mainloop

import "sync"

// Coalescer runs at most one posted task per key at a time. Posting a key
// that is already queued replaces its function instead of queueing another
// run, so a burst of requests collapses into one run of the latest request.
type Coalescer[K comparable] struct {
	post func(func())

	mu      sync.Mutex
	queued  map[K]func()
	stopped bool
}

// NewCoalescer returns a [Coalescer] that schedules runs with post, usually
// [Loop.Post].
func NewCoalescer[K comparable](post func(func())) *Coalescer[K] {
	if post == nil {
		panic("mainloop.NewCoalescer: post function cannot be nil")
	}

	return &Coalescer[K]{
		post:   post,
		queued: make(map[K]func()),
	}
}

// Post queues fn under key. It is a no-op after [Coalescer.Destroy].
func (c *Coalescer[K]) Post(key K, fn func()) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	_, queued := c.queued[key]
	c.queued[key] = fn
	c.mu.Unlock()

	if !queued {
		c.post(func() { c.run(key) })
	}
}

// Queued reports whether a run for key is waiting.
func (c *Coalescer[K]) Queued(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.queued[key]
	return ok
}

// Destroy drops queued runs. Later calls to [Coalescer.Post] are ignored.
func (c *Coalescer[K]) Destroy() {
	c.mu.Lock()
	c.stopped = true
	clear(c.queued)
	c.mu.Unlock()
}

func (c *Coalescer[K]) run(key K) {
	c.mu.Lock()
	fn, ok := c.queued[key]
	delete(c.queued, key)
	c.mu.Unlock()

	if ok {
		fn()
	}
}
