// Package veil manages the visibility of items placed in a shared status
// area. It tracks which items the user keeps visible, and animates showing or
// hiding the rest on demand: a click on the indicator, a hover, or an
// auto-hide timer.
//
// # Components
//
//   - [Animator] drives a single cancelable enter or exit transition per
//     widget and guarantees that each transition completes exactly once.
//   - [Registry] enumerates the status area and derives a stable name for
//     every managed item.
//   - [State] owns the shown/hidden state, the allow-list of items that stay
//     visible while hidden, and the auto-hide timer.
//   - [Panel] reconciles every item against the state and hands transitions
//     to the [Animator].
//   - [Controller] wires user interaction and settings changes to the above
//     and keeps the indicator next to the system entry.
//
// The host status area is consumed through [Container], [Actor], [Content]
// and [Widget]. Package tray implements them for StatusNotifierItem hosts.
//
// # Threading
//
// Every type in this package must be used from a single goroutine, the main
// loop (see package mainloop). Timers created by the components run their
// callbacks on the same loop.
package veil
