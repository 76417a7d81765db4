// Package mainloop provides the single logical sequence that every veil
// component runs on.
//
// Components never run concurrently with each other. Work arriving from other
// goroutines (D-Bus handlers, file watchers, tray signals) is posted into a
// [Loop], and delayed work is scheduled through a [Scheduler] whose callbacks
// also run on the loop. [FakeClock] is a manual [Scheduler] for tests.
package mainloop

import "time"

// Timer is a pending callback created by [Scheduler.AfterFunc].
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if the callback already ran or the timer was
	// already stopped.
	Stop() bool
}

// Scheduler schedules callbacks on the main loop.
type Scheduler interface {
	// Now returns the current time of the scheduler.
	Now() time.Time

	// AfterFunc runs fn on the main loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}
