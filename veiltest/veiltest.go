// Package veiltest provides in-memory implementations of the host
// interfaces consumed by package veil, for use in tests.
package veiltest

import (
	"slices"

	"github.com/shelepuginivan/veil"
)

// Widget is a [veil.Widget] whose transitions complete only when told to,
// or immediately when AutoComplete is set.
type Widget struct {
	visible bool
	opacity uint8
	x, y    float64

	transition *veil.Transition
	completed  func()

	// AutoComplete makes Animate jump to the target and call its completion
	// callback synchronously.
	AutoComplete bool

	// Animations counts calls to Animate.
	Animations int
}

// NewWidget returns an opaque, untranslated [Widget].
func NewWidget(visible bool) *Widget {
	return &Widget{visible: visible, opacity: 255}
}

func (w *Widget) Visible() bool { return w.visible }
func (w *Widget) SetVisible(visible bool) { w.visible = visible }
func (w *Widget) Opacity() uint8 { return w.opacity }
func (w *Widget) SetOpacity(opacity uint8) { w.opacity = opacity }
func (w *Widget) Translation() (x, y float64) { return w.x, w.y }
func (w *Widget) SetTranslation(x, y float64) { w.x, w.y = x, y }

func (w *Widget) Animate(t veil.Transition, completed func()) {
	w.Animations++
	w.transition = &t
	w.completed = completed

	if w.AutoComplete {
		w.CompleteAnimation()
	}
}

func (w *Widget) StopAnimation() {
	w.transition = nil
	w.completed = nil
}

// Animating reports whether a transition is running.
func (w *Widget) Animating() bool {
	return w.transition != nil
}

// Transition returns the running transition, if any.
func (w *Widget) Transition() (veil.Transition, bool) {
	if w.transition == nil {
		return veil.Transition{}, false
	}

	return *w.transition, true
}

// CompleteAnimation moves the widget to the target of the running
// transition and calls its completion callback. It reports whether a
// transition was running.
func (w *Widget) CompleteAnimation() bool {
	if w.transition == nil {
		return false
	}

	w.opacity, w.x, w.y = w.transition.At(1)

	completed := w.completed
	w.transition = nil
	w.completed = nil

	if completed != nil {
		completed()
	}

	return true
}

// Content is a [veil.Content] with fixed names.
type Content struct {
	Name string
	Type string
}

func (c *Content) AccessibleName() string { return c.Name }
func (c *Content) TypeName() string { return c.Type }

// Indicator is a [veil.Indicator] recording the icon it shows.
type Indicator struct {
	Content
	Icon string
}

func (i *Indicator) SetIcon(name string) { i.Icon = name }

// Actor is a [veil.Actor] wrapping a content.
type Actor struct {
	*Widget
	Content veil.Content
}

// NewActor returns a visible [Actor] wrapping content.
func NewActor(content veil.Content) *Actor {
	return &Actor{Widget: NewWidget(true), Content: content}
}

// NewItem returns a visible [Actor] whose content has the accessible name
// name.
func NewItem(name string) *Actor {
	return NewActor(&Content{Name: name})
}

func (a *Actor) FirstChild() veil.Content {
	return a.Content
}

// Container is a [veil.Container] holding actors in a slice.
type Container struct {
	children []veil.Actor
	added    []*func(veil.Actor)
	removed  []*func(veil.Actor)

	// Moves counts calls to SetChildIndex.
	Moves int
}

// NewContainer returns a [Container] holding children.
func NewContainer(children ...veil.Actor) *Container {
	return &Container{children: children}
}

func (c *Container) Children() []veil.Actor {
	return slices.Clone(c.children)
}

// Add appends child and notifies subscribers.
func (c *Container) Add(child veil.Actor) {
	c.Insert(child, len(c.children))
}

// Insert places child at index and notifies subscribers.
func (c *Container) Insert(child veil.Actor, index int) {
	index = max(0, min(index, len(c.children)))
	c.children = slices.Insert(c.children, index, child)

	for _, fn := range slices.Clone(c.added) {
		(*fn)(child)
	}
}

// Remove removes child and notifies subscribers.
func (c *Container) Remove(child veil.Actor) {
	idx := slices.Index(c.children, child)
	if idx < 0 {
		return
	}

	c.children = slices.Delete(c.children, idx, idx+1)

	for _, fn := range slices.Clone(c.removed) {
		(*fn)(child)
	}
}

func (c *Container) SetChildIndex(child veil.Actor, index int) {
	idx := slices.Index(c.children, child)
	if idx < 0 {
		return
	}

	c.Moves++
	c.children = slices.Delete(c.children, idx, idx+1)
	index = max(0, min(index, len(c.children)))
	c.children = slices.Insert(c.children, index, child)
}

// IndexOf returns the index of child, or -1.
func (c *Container) IndexOf(child veil.Actor) int {
	return slices.Index(c.children, child)
}

func (c *Container) OnChildAdded(fn func(veil.Actor)) func() {
	return subscribe(&c.added, fn)
}

func (c *Container) OnChildRemoved(fn func(veil.Actor)) func() {
	return subscribe(&c.removed, fn)
}

// Subscribers returns the number of connected callbacks.
func (c *Container) Subscribers() int {
	return len(c.added) + len(c.removed)
}

func subscribe(list *[]*func(veil.Actor), fn func(veil.Actor)) func() {
	entry := &fn
	*list = append(*list, entry)

	return func() {
		*list = slices.DeleteFunc(*list, func(e *func(veil.Actor)) bool {
			return e == entry
		})
	}
}
