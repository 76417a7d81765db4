package veil

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TrackedItem is a managed entry of the status area. It only references the
// host widgets; the host owns them.
type TrackedItem struct {
	// Name identifies the item among the currently tracked items.
	Name string

	// Container is the outer wrapper whose visibility is managed.
	Container Actor

	// Content is the inner widget the name is derived from.
	Content Content
}

// ItemName derives the name of content: its accessible name if not empty,
// otherwise its type name. It returns an empty string when neither is
// available.
func ItemName(content Content) string {
	if content == nil {
		return ""
	}

	if name := content.AccessibleName(); name != "" {
		return name
	}

	return content.TypeName()
}

// Registry enumerates the managed items of a [Container].
//
// Items are resolved by walking the children of the container on every call
// rather than cached, since the host mutates the tree on its own. Only the
// name given to each child is remembered, so that a name never moves to
// another child while the first one stays in the container.
type Registry struct {
	container   Container
	log         zerolog.Logger
	excluded    []Content
	names       map[Actor]assignedName
	appeared    handlers[TrackedItem]
	disappeared handlers[TrackedItem]
	disconnects []func()
}

// NewRegistry returns a [Registry] over container. Children wrapping one of
// excluded are never managed.
func NewRegistry(container Container, log zerolog.Logger, excluded ...Content) *Registry {
	r := &Registry{
		container: container,
		log:       log.With().Str("component", "registry").Logger(),
		names:     make(map[Actor]assignedName),
	}

	for _, content := range excluded {
		r.Exclude(content)
	}

	r.disconnects = append(r.disconnects,
		container.OnChildAdded(r.handleAdded),
		container.OnChildRemoved(r.handleRemoved),
	)

	return r
}

// Exclude marks content as an always-excluded system entry.
func (r *Registry) Exclude(content Content) {
	if content == nil || r.IsExcluded(content) {
		return
	}

	r.excluded = append(r.excluded, content)
}

// IsExcluded reports whether content is an excluded system entry.
func (r *Registry) IsExcluded(content Content) bool {
	for _, excluded := range r.excluded {
		if excluded == content {
			return true
		}
	}

	return false
}

// Items returns the managed items in display order. Unnamed children are
// skipped. A name shared by several children gets a " (2)", " (3)", ...
// suffix in order of appearance: a child keeps its name until it leaves the
// container or its own name changes.
func (r *Registry) Items() []TrackedItem {
	children := r.container.Children()
	items := make([]TrackedItem, 0, len(children))
	taken := make(map[string]bool, len(children))
	var pending []int

	for _, child := range children {
		content := child.FirstChild()
		if content == nil || r.IsExcluded(content) {
			continue
		}

		base := ItemName(content)
		if base == "" {
			continue
		}

		item := TrackedItem{Container: child, Content: content}

		if assigned, ok := r.names[child]; ok && assigned.base == base && !taken[assigned.name] {
			item.Name = assigned.name
			taken[assigned.name] = true
		} else {
			pending = append(pending, len(items))
		}

		items = append(items, item)
	}

	for _, idx := range pending {
		item := &items[idx]
		base := ItemName(item.Content)

		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s (%d)", base, n)
		}

		taken[name] = true
		item.Name = name
		r.names[item.Container] = assignedName{base: base, name: name}
	}

	return items
}

// Names returns the names of [Registry.Items].
func (r *Registry) Names() []string {
	items := r.Items()
	names := make([]string, len(items))

	for idx, item := range items {
		names[idx] = item.Name
	}

	return names
}

// Lookup returns the managed item wrapped by child.
func (r *Registry) Lookup(child Actor) (TrackedItem, bool) {
	for _, item := range r.Items() {
		if item.Container == child {
			return item, true
		}
	}

	return TrackedItem{}, false
}

// OnItemAppeared subscribes fn to managed items added to the container.
func (r *Registry) OnItemAppeared(fn func(TrackedItem)) (disconnect func()) {
	return r.appeared.connect(fn)
}

// OnItemDisappeared subscribes fn to managed items removed from the
// container.
func (r *Registry) OnItemDisappeared(fn func(TrackedItem)) (disconnect func()) {
	return r.disappeared.connect(fn)
}

// Close disconnects from the container and drops subscribers.
func (r *Registry) Close() {
	for _, disconnect := range r.disconnects {
		disconnect()
	}

	r.disconnects = nil
	r.names = make(map[Actor]assignedName)
	r.appeared.clear()
	r.disappeared.clear()
}

func (r *Registry) handleAdded(child Actor) {
	item, ok := r.Lookup(child)
	if !ok {
		r.log.Debug().Msg("ignoring unmanaged child")
		return
	}

	r.log.Debug().Str("item", item.Name).Msg("item appeared")
	r.appeared.emit(item)
}

// handleRemoved runs after the child left the container, so the item is
// rebuilt from the child itself.
func (r *Registry) handleRemoved(child Actor) {
	content := child.FirstChild()
	if content == nil || r.IsExcluded(content) {
		return
	}

	name := ItemName(content)
	if assigned, ok := r.names[child]; ok {
		name = assigned.name
		delete(r.names, child)
	}

	if name == "" {
		return
	}

	r.log.Debug().Str("item", name).Msg("item disappeared")
	r.disappeared.emit(TrackedItem{
		Name:      name,
		Container: child,
		Content:   content,
	})
}

// assignedName is the name given to a child and the item name it was
// derived from.
type assignedName struct {
	base string
	name string
}
