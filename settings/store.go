package settings

import (
	"fmt"
	"slices"
	"sync"
)

// Store is the settings store consumed by veil components.
//
// Getters return the default value of the key when nothing is stored. Setters
// notify subscribers of the key only when the stored value actually changes.
type Store interface {
	Bool(key string) bool
	SetBool(key string, value bool) error
	Int(key string) int
	SetInt(key string, value int) error
	String(key string) string
	SetString(key string, value string) error
	Strings(key string) []string
	SetStrings(key string, value []string) error

	// Reset restores the default value of key.
	Reset(key string) error

	// Connect subscribes fn to changes of key, or of every key when key is
	// empty. The returned function disconnects the subscription.
	Connect(key string, fn func(key string)) (disconnect func())
}

// table holds values and subscriptions. It is shared by [Memory] and [File].
type table struct {
	mu       sync.Mutex
	values   map[string]any
	handlers []*subscription
}

type subscription struct {
	key string
	fn  func(key string)
}

func newTable() *table {
	values := make(map[string]any, len(schema))
	for key := range schema {
		values[key] = Default(key)
	}

	return &table{values: values}
}

func (t *table) get(key string) any {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.values[key]
	if !ok {
		return Default(key)
	}

	if items, ok := v.([]string); ok {
		return slices.Clone(items)
	}

	return v
}

// set stores value and reports whether it differs from the previous one.
func (t *table) set(key string, value any) (bool, error) {
	if err := checkKind(key, value); err != nil {
		return false, err
	}

	if items, ok := value.([]string); ok {
		value = slices.Clone(items)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if equal(t.values[key], value) {
		return false, nil
	}

	t.values[key] = value

	return true, nil
}

func (t *table) snapshot() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := make(map[string]any, len(t.values))
	for key, value := range t.values {
		if items, ok := value.([]string); ok {
			value = slices.Clone(items)
		}
		values[key] = value
	}

	return values
}

func (t *table) connect(key string, fn func(string)) func() {
	sub := &subscription{key: key, fn: fn}

	t.mu.Lock()
	t.handlers = append(t.handlers, sub)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		t.handlers = slices.DeleteFunc(t.handlers, func(s *subscription) bool {
			return s == sub
		})
	}
}

// notify calls subscribers of key outside of the lock.
func (t *table) notify(key string) {
	t.mu.Lock()
	handlers := make([]*subscription, 0, len(t.handlers))
	for _, sub := range t.handlers {
		if sub.key == "" || sub.key == key {
			handlers = append(handlers, sub)
		}
	}
	t.mu.Unlock()

	for _, sub := range handlers {
		sub.fn(key)
	}
}

func checkKind(key string, value any) error {
	kind, ok := KindOf(key)
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}

	var valid bool
	switch kind {
	case KindBool:
		_, valid = value.(bool)
	case KindInt:
		_, valid = value.(int)
	case KindString:
		_, valid = value.(string)
	case KindStrings:
		_, valid = value.([]string)
	}

	if !valid {
		return fmt.Errorf("key %q: expected %s, got %T", key, kind, value)
	}

	return nil
}

func equal(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)

	if aok || bok {
		return aok && bok && slices.Equal(as, bs)
	}

	return a == b
}
