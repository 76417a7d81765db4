package veil

import "time"

// Widget is the capability set of a host widget that veil animates.
type Widget interface {
	Visible() bool
	SetVisible(visible bool)

	// Opacity ranges from 0 (transparent) to 255 (opaque).
	Opacity() uint8
	SetOpacity(opacity uint8)

	Translation() (x, y float64)
	SetTranslation(x, y float64)

	// Animate starts t, replacing any running transition. completed is
	// called once all properties reach their target. The host may fail to
	// call it, e.g. when the widget is destroyed mid-flight.
	Animate(t Transition, completed func())

	// StopAnimation removes the running transition, if any, without calling
	// its completion callback. Properties keep their current values.
	StopAnimation()
}

// Content is the inner widget of a status area entry. It is used to derive
// the name of the entry.
type Content interface {
	// AccessibleName returns the accessible or display name, possibly empty.
	AccessibleName() string

	// TypeName returns the runtime type name of the widget, possibly empty.
	TypeName() string
}

// Actor is a child of the status area: the outer wrapper whose position is
// managed by the host.
type Actor interface {
	Widget

	// FirstChild returns the wrapped content, or nil.
	FirstChild() Content
}

// Container is the shared status area.
//
//go:generate mockgen -destination=mocks/mock_container.go -package=mock_veil . Container
type Container interface {
	// Children returns the children in display order.
	Children() []Actor

	// SetChildIndex moves child to index.
	SetChildIndex(child Actor, index int)

	// OnChildAdded subscribes fn to child additions. The returned function
	// disconnects it.
	OnChildAdded(fn func(Actor)) (disconnect func())

	// OnChildRemoved subscribes fn to child removals. The returned function
	// disconnects it.
	OnChildRemoved(fn func(Actor)) (disconnect func())
}

// Indicator is the toggle control placed in the status area.
type Indicator interface {
	Content

	// SetIcon shows the named icon.
	SetIcon(name string)
}

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(t float64) float64

// EaseOutQuad decelerates towards the end.
func EaseOutQuad(t float64) float64 {
	return t * (2 - t)
}

// EaseInQuad accelerates from the start.
func EaseInQuad(t float64) float64 {
	return t * t
}

// Transition describes a translate+fade animation.
type Transition struct {
	Duration time.Duration
	Easing   Easing

	FromOpacity, ToOpacity uint8
	FromX, ToX             float64
	FromY, ToY             float64
}

// At returns opacity and translation at linear progress p in [0, 1].
func (t Transition) At(p float64) (opacity uint8, x, y float64) {
	if p <= 0 {
		return t.FromOpacity, t.FromX, t.FromY
	}

	if p >= 1 {
		return t.ToOpacity, t.ToX, t.ToY
	}

	e := p
	if t.Easing != nil {
		e = t.Easing(p)
	}

	o := float64(t.FromOpacity) + (float64(t.ToOpacity)-float64(t.FromOpacity))*e
	if o < 0 {
		o = 0
	} else if o > 255 {
		o = 255
	}

	return uint8(o + 0.5), t.FromX + (t.ToX-t.FromX)*e, t.FromY + (t.ToY-t.FromY)*e
}
