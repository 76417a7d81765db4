// Package tray is a status area assembled from [StatusNotifierItem]
// applications on the D-Bus session bus.
//
// # Usage
//
// A status area consists of the following parts:
//   - [Watcher] keeps track of tray items and hosts. One watcher must be
//     present on a D-Bus at a time. It is only needed when the session does
//     not provide one.
//   - [Host] tracks registered items and reports registrations, updates and
//     removals.
//   - [Area] holds the entries of the status area in display order. Every
//     entry is a [Slot], which implements the widget capabilities package
//     veil animates.
//   - [Bridge] mirrors the items of a [Host] into an [Area], running every
//     change on the main loop.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
package tray
