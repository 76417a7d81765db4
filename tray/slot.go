package tray

import (
	"time"

	"github.com/shelepuginivan/veil"
	"github.com/shelepuginivan/veil/mainloop"
)

// FrameInterval is the time between two frames of a running transition.
const FrameInterval = 16 * time.Millisecond

// Slot is an entry of an [Area]. It implements [veil.Actor] and drives its
// own transitions frame by frame on the scheduler of the area.
type Slot struct {
	clock   mainloop.Scheduler
	content veil.Content

	visible bool
	opacity uint8
	x, y    float64

	transition veil.Transition
	startedAt  time.Time
	frame      mainloop.Timer
	completed  func()
}

var _ veil.Actor = (*Slot)(nil)

// NewSlot returns a visible, opaque [Slot] wrapping content.
func NewSlot(clock mainloop.Scheduler, content veil.Content) *Slot {
	return &Slot{
		clock:   clock,
		content: content,
		visible: true,
		opacity: 255,
	}
}

func (s *Slot) FirstChild() veil.Content {
	return s.content
}

func (s *Slot) Visible() bool {
	return s.visible
}

func (s *Slot) SetVisible(visible bool) {
	s.visible = visible
}

func (s *Slot) Opacity() uint8 {
	return s.opacity
}

func (s *Slot) SetOpacity(opacity uint8) {
	s.opacity = opacity
}

func (s *Slot) Translation() (x, y float64) {
	return s.x, s.y
}

func (s *Slot) SetTranslation(x, y float64) {
	s.x, s.y = x, y
}

// Animate starts t. Zero-length transitions complete synchronously.
func (s *Slot) Animate(t veil.Transition, completed func()) {
	s.StopAnimation()

	if t.Duration <= 0 {
		s.opacity, s.x, s.y = t.At(1)
		if completed != nil {
			completed()
		}

		return
	}

	s.transition = t
	s.startedAt = s.clock.Now()
	s.completed = completed
	s.opacity, s.x, s.y = t.At(0)
	s.frame = s.clock.AfterFunc(FrameInterval, s.tick)
}

func (s *Slot) StopAnimation() {
	if s.frame != nil {
		s.frame.Stop()
	}

	s.frame = nil
	s.completed = nil
}

// Animating reports whether a transition is running.
func (s *Slot) Animating() bool {
	return s.frame != nil
}

func (s *Slot) tick() {
	if s.frame == nil {
		return
	}

	elapsed := s.clock.Now().Sub(s.startedAt)
	progress := float64(elapsed) / float64(s.transition.Duration)
	s.opacity, s.x, s.y = s.transition.At(progress)

	if progress < 1 {
		s.frame = s.clock.AfterFunc(FrameInterval, s.tick)
		return
	}

	completed := s.completed
	s.frame = nil
	s.completed = nil

	if completed != nil {
		completed()
	}
}

// Content is the inner widget of a fixed entry, such as the system menu of
// the status area.
type Content struct {
	Name string
	Type string
}

func (c *Content) AccessibleName() string { return c.Name }

func (c *Content) TypeName() string { return c.Type }

// Indicator is the content of the toggle entry.
type Indicator struct {
	Content
	icon string
}

var _ veil.Indicator = (*Indicator)(nil)

// NewIndicator returns an [Indicator] with the accessible name name.
func NewIndicator(name string) *Indicator {
	return &Indicator{Content: Content{Name: name, Type: "Indicator"}}
}

func (i *Indicator) SetIcon(name string) {
	i.icon = name
}

// Icon returns the name of the shown icon.
func (i *Indicator) Icon() string {
	return i.icon
}

// itemContent is the content of an entry backed by a StatusNotifierItem.
// The application id names the entry; the title stands in when the id is
// empty.
type itemContent struct {
	info ItemInfo
}

func (c *itemContent) AccessibleName() string { return c.info.ID }

func (c *itemContent) TypeName() string { return c.info.Title }
