package tray

import (
	"github.com/rs/zerolog"
)

// Bridge mirrors the items of a [Host] into an [Area].
//
// Host callbacks arrive on D-Bus goroutines; Bridge copies the item
// properties there and applies them to the area through post, which must run
// functions on the goroutine that owns the area.
type Bridge struct {
	area  *Area
	post  func(func())
	log   zerolog.Logger
	slots map[string]*Slot
}

// NewBridge returns a [Bridge] applying changes to area via post.
func NewBridge(area *Area, post func(func()), log zerolog.Logger) *Bridge {
	return &Bridge{
		area:  area,
		post:  post,
		log:   log.With().Str("component", "bridge").Logger(),
		slots: make(map[string]*Slot),
	}
}

// Attach sets the callbacks of host.
func (b *Bridge) Attach(host *Host) {
	host.OnRegistered(b.Registered)
	host.OnUpdated(b.Updated)
	host.OnUnregistered(b.Unregistered)
}

// Registered adds an entry for info at the start of the area.
func (b *Bridge) Registered(info ItemInfo) {
	b.post(func() {
		if _, exists := b.slots[info.Key]; exists {
			b.update(info)
			return
		}

		slot := b.area.NewSlot(&itemContent{info: info})
		b.slots[info.Key] = slot
		b.area.Insert(slot, 0)

		b.log.Debug().Str("item", info.Key).Str("id", info.ID).Msg("entry added")
	})
}

// Updated refreshes the entry of info.
func (b *Bridge) Updated(info ItemInfo) {
	b.post(func() {
		b.update(info)
	})
}

// Unregistered removes the entry of info.
func (b *Bridge) Unregistered(info ItemInfo) {
	b.post(func() {
		slot, exists := b.slots[info.Key]
		if !exists {
			return
		}

		delete(b.slots, info.Key)
		b.area.Remove(slot)

		b.log.Debug().Str("item", info.Key).Msg("entry removed")
	})
}

// update replaces the properties of an entry. When the name of the entry
// changes, the entry is removed and added again at the same index so that it
// is treated as a new item.
func (b *Bridge) update(info ItemInfo) {
	slot, exists := b.slots[info.Key]
	if !exists {
		return
	}

	content := slot.content.(*itemContent)
	previous := content.info
	content.info = info

	if displayName(previous) == displayName(info) {
		return
	}

	idx := b.area.IndexOf(slot)
	if !b.area.Remove(slot) {
		return
	}

	b.area.Insert(slot, idx)
	b.log.Debug().
		Str("item", info.Key).
		Str("from", displayName(previous)).
		Str("to", displayName(info)).
		Msg("entry renamed")
}

func displayName(info ItemInfo) string {
	if info.ID != "" {
		return info.ID
	}

	return info.Title
}
