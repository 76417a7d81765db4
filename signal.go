package veil

import "slices"

// handlers is a list of subscribers to a single event.
type handlers[T any] struct {
	list []*handler[T]
}

type handler[T any] struct {
	fn func(T)
}

func (h *handlers[T]) connect(fn func(T)) func() {
	entry := &handler[T]{fn: fn}
	h.list = append(h.list, entry)

	return func() {
		h.list = slices.DeleteFunc(h.list, func(e *handler[T]) bool {
			return e == entry
		})
	}
}

// emit calls every subscriber connected at the time of the call.
func (h *handlers[T]) emit(v T) {
	for _, entry := range slices.Clone(h.list) {
		entry.fn(v)
	}
}

func (h *handlers[T]) clear() {
	h.list = nil
}
