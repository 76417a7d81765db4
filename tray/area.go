package tray

import (
	"slices"

	"github.com/shelepuginivan/veil"
	"github.com/shelepuginivan/veil/mainloop"
)

// SlotState is the rendered state of an entry of an [Area].
type SlotState struct {
	Name    string
	Visible bool
	Opacity uint8
	X       float64
}

// Area is the status area: an ordered list of [Slot] entries. It implements
// [veil.Container]. Area is owned by the main loop and is not safe for
// concurrent use.
type Area struct {
	clock   mainloop.Scheduler
	slots   []*Slot
	added   []*func(veil.Actor)
	removed []*func(veil.Actor)
}

var _ veil.Container = (*Area)(nil)

func NewArea(clock mainloop.Scheduler) *Area {
	return &Area{clock: clock}
}

// NewSlot returns a [Slot] for content driven by the scheduler of the area.
// The slot is not added.
func (a *Area) NewSlot(content veil.Content) *Slot {
	return NewSlot(a.clock, content)
}

// Add appends slot.
func (a *Area) Add(slot *Slot) {
	a.Insert(slot, len(a.slots))
}

// Insert places slot at index, clamped to the bounds of the area.
func (a *Area) Insert(slot *Slot, index int) {
	if slices.Contains(a.slots, slot) {
		return
	}

	index = max(0, min(index, len(a.slots)))
	a.slots = slices.Insert(a.slots, index, slot)

	for _, fn := range slices.Clone(a.added) {
		(*fn)(slot)
	}
}

// Remove removes slot and stops its transition. It reports whether slot was
// in the area.
func (a *Area) Remove(slot *Slot) bool {
	idx := slices.Index(a.slots, slot)
	if idx < 0 {
		return false
	}

	a.slots = slices.Delete(a.slots, idx, idx+1)
	slot.StopAnimation()

	for _, fn := range slices.Clone(a.removed) {
		(*fn)(slot)
	}

	return true
}

// IndexOf returns the index of slot, or -1.
func (a *Area) IndexOf(slot *Slot) int {
	return slices.Index(a.slots, slot)
}

func (a *Area) Len() int {
	return len(a.slots)
}

func (a *Area) Children() []veil.Actor {
	children := make([]veil.Actor, len(a.slots))
	for idx, slot := range a.slots {
		children[idx] = slot
	}

	return children
}

func (a *Area) SetChildIndex(child veil.Actor, index int) {
	slot, ok := child.(*Slot)
	if !ok {
		return
	}

	idx := slices.Index(a.slots, slot)
	if idx < 0 {
		return
	}

	a.slots = slices.Delete(a.slots, idx, idx+1)
	index = max(0, min(index, len(a.slots)))
	a.slots = slices.Insert(a.slots, index, slot)
}

func (a *Area) OnChildAdded(fn func(veil.Actor)) func() {
	return connect(&a.added, fn)
}

func (a *Area) OnChildRemoved(fn func(veil.Actor)) func() {
	return connect(&a.removed, fn)
}

// Snapshot returns the state of every entry in display order.
func (a *Area) Snapshot() []SlotState {
	states := make([]SlotState, len(a.slots))

	for idx, slot := range a.slots {
		states[idx] = SlotState{
			Name:    veil.ItemName(slot.content),
			Visible: slot.visible,
			Opacity: slot.opacity,
			X:       slot.x,
		}
	}

	return states
}

func connect(list *[]*func(veil.Actor), fn func(veil.Actor)) func() {
	entry := &fn
	*list = append(*list, entry)

	return func() {
		*list = slices.DeleteFunc(*list, func(e *func(veil.Actor)) bool {
			return e == entry
		})
	}
}
