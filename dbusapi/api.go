package dbusapi

import (
	"github.com/godbus/dbus/v5"
)

// api holds the methods exported on the bus. Every method runs on the loop.
type api struct {
	server *Server
}

func (a *api) Toggle() (bool, *dbus.Error) {
	var shown bool
	err := a.server.run("Toggle", func() {
		shown = a.server.ctrl.ToggleVisibility()
	})

	return shown, err
}

func (a *api) SetVisibility(shown bool) *dbus.Error {
	return a.server.run("SetVisibility", func() {
		a.server.ctrl.SetVisibility(shown)
	})
}

func (a *api) GetVisibility() (bool, *dbus.Error) {
	var shown bool
	err := a.server.run("GetVisibility", func() {
		shown = a.server.ctrl.Visibility()
	})

	return shown, err
}

func (a *api) GetAllItemNames() ([]string, *dbus.Error) {
	var names []string
	err := a.server.run("GetAllItemNames", func() {
		names = a.server.ctrl.AllItemNames()
	})

	return nonNil(names), err
}

func (a *api) GetVisibleItems() ([]string, *dbus.Error) {
	var names []string
	err := a.server.run("GetVisibleItems", func() {
		names = a.server.ctrl.VisibleItems()
	})

	return nonNil(names), err
}

func (a *api) SetVisibleItems(names []string) *dbus.Error {
	return a.server.run("SetVisibleItems", func() {
		a.server.ctrl.SetVisibleItems(names)
	})
}

// ToggleVisibleItem returns whether name is in the visible items afterwards.
func (a *api) ToggleVisibleItem(name string) (bool, *dbus.Error) {
	var visible bool
	err := a.server.run("ToggleVisibleItem", func() {
		visible = a.server.ctrl.ToggleVisibleItem(name)
	})

	return visible, err
}

// CleanOrphanedItems prunes the visible items against the current items and
// returns whether anything was removed.
func (a *api) CleanOrphanedItems() (bool, *dbus.Error) {
	var changed bool
	err := a.server.run("CleanOrphanedItems", func() {
		changed = a.server.ctrl.CleanOrphanedItems(nil)
	})

	return changed, err
}

func (a *api) GetItems() ([]ItemState, *dbus.Error) {
	var items []ItemState
	err := a.server.run("GetItems", func() {
		items = a.server.items()
	})

	if items == nil {
		items = []ItemState{}
	}

	return items, err
}

// Activate simulates a press of button on the indicator.
func (a *api) Activate(button int32) *dbus.Error {
	return a.server.run("Activate", func() {
		a.server.ctrl.Activate(int(button))
	})
}

// Hover simulates the pointer entering or leaving the indicator.
func (a *api) Hover(entered bool) *dbus.Error {
	return a.server.run("Hover", func() {
		if entered {
			a.server.ctrl.PointerEntered()
		} else {
			a.server.ctrl.PointerLeft()
		}
	})
}
