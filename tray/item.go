package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	StatusNotifierItemInterface = "org.kde.StatusNotifierItem"
	StatusNotifierItemPath      = "/StatusNotifierItem"
)

type ItemCategory string

// StatusNotifierItem categories.
const (
	ItemCategoryApplicationStatus ItemCategory = "ApplicationStatus"
	ItemCategoryCommunications    ItemCategory = "Communications"
	ItemCategorySystemServices    ItemCategory = "SystemServices"
	ItemCategoryHardware          ItemCategory = "Hardware"
)

type ItemStatus string

// StatusNotifierItem statuses.
const (
	// The item doesn't convey important information to the user.
	ItemStatusPassive ItemStatus = "Passive"

	ItemStatusActive ItemStatus = "Active"

	// The item carries really important information for the user, such as
	// battery charge running out.
	ItemStatusNeedsAttention ItemStatus = "NeedsAttention"
)

const getProperty = "org.freedesktop.DBus.Properties.Get"

// itemSignals are the update signals of a StatusNotifierItem the status area
// reacts to.
var itemSignals = []string{"NewTitle", "NewToolTip", "NewStatus", "NewIcon"}

// ItemInfo is a copy of the properties of an [Item] at some point in time.
type ItemInfo struct {
	// Key is the D-Bus unique name of the item service.
	Key string

	// Unique identifier for the application, such as the application name.
	ID string

	// Name that describes the application, can be more descriptive than ID.
	Title string

	// Text representation of the tooltip.
	Tooltip string

	Category ItemCategory
	Status   ItemStatus

	// IconName is a [Freedesktop-compliant] icon name.
	//
	// [Freedesktop-compliant]: https://specifications.freedesktop.org/icon-naming-spec/latest/
	IconName string
}

// Item is a remote [StatusNotifierItem].
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierItem/
type Item struct {
	conn       *dbus.Conn
	signals    chan *dbus.Signal
	object     dbus.BusObject
	uniqueName string

	mu       sync.RWMutex
	info     ItemInfo
	onUpdate func()
}

// NewItem resolves the item served by uniqueName at objectPath and
// subscribes to its update signals.
func NewItem(conn *dbus.Conn, uniqueName string, objectPath string) (*Item, error) {
	obj := conn.Object(uniqueName, dbus.ObjectPath(objectPath))

	// Check whether properties can be retrieved.
	call := obj.Call(getProperty, dbus.FlagNoAutoStart, StatusNotifierItemInterface, "Title")
	if call.Err != nil {
		return nil, fmt.Errorf("failed to resolve item %s%s: %w", uniqueName, objectPath, call.Err)
	}

	item := &Item{
		conn:       conn,
		signals:    make(chan *dbus.Signal, 128),
		object:     obj,
		uniqueName: uniqueName,
		info:       ItemInfo{Key: uniqueName},
		onUpdate:   func() {},
	}

	if id, err := obj.GetProperty(StatusNotifierItemInterface + ".Id"); err == nil {
		item.info.ID, _ = id.Value().(string)
	}

	if category, err := obj.GetProperty(StatusNotifierItemInterface + ".Category"); err == nil {
		item.info.Category = parseCategory(category.Value())
	}

	item.updateTitle()
	item.updateTooltip()
	item.updateStatus()
	item.updateIcon()

	item.subscribe()

	return item, nil
}

// Info returns the current properties of the item.
func (item *Item) Info() ItemInfo {
	item.mu.RLock()
	defer item.mu.RUnlock()

	return item.info
}

// OnUpdate sets callback that runs on the signal goroutine of the item
// whenever its properties are updated.
func (item *Item) OnUpdate(callback func()) {
	item.mu.Lock()
	defer item.mu.Unlock()

	item.onUpdate = callback
}

// close removes signal handlers associated with this item.
func (item *Item) close() {
	for _, member := range itemSignals {
		item.conn.RemoveMatchSignal(
			dbus.WithMatchInterface(StatusNotifierItemInterface),
			dbus.WithMatchMember(member),
			dbus.WithMatchSender(item.uniqueName),
		)
	}

	item.conn.RemoveSignal(item.signals)
	close(item.signals)
}

func (item *Item) subscribe() {
	for _, member := range itemSignals {
		item.conn.AddMatchSignal(
			dbus.WithMatchInterface(StatusNotifierItemInterface),
			dbus.WithMatchMember(member),
			dbus.WithMatchSender(item.uniqueName),
		)
	}

	item.conn.Signal(item.signals)

	go func() {
		for signal := range item.signals {
			if signal.Sender != item.uniqueName {
				continue
			}

			if !item.handleSignal(signal) {
				continue
			}

			item.mu.RLock()
			onUpdate := item.onUpdate
			item.mu.RUnlock()

			onUpdate()
		}
	}()
}

// handleSignal refreshes the properties announced by signal. It reports
// whether signal was an update signal of the item.
func (item *Item) handleSignal(signal *dbus.Signal) bool {
	switch signal.Name {
	case StatusNotifierItemInterface + ".NewTitle":
		item.updateTitle()
	case StatusNotifierItemInterface + ".NewToolTip":
		item.updateTooltip()
	case StatusNotifierItemInterface + ".NewStatus":
		item.updateStatus()
	case StatusNotifierItemInterface + ".NewIcon":
		item.updateIcon()
	default:
		return false
	}

	return true
}

func (item *Item) updateTitle() {
	title, err := item.object.GetProperty(StatusNotifierItemInterface + ".Title")
	if err != nil {
		return
	}

	item.mu.Lock()
	item.info.Title, _ = title.Value().(string)
	item.mu.Unlock()
}

func (item *Item) updateTooltip() {
	tooltip, err := item.object.GetProperty(StatusNotifierItemInterface + ".ToolTip")
	if err != nil {
		return
	}

	item.mu.Lock()
	item.info.Tooltip = parseTooltip(tooltip.Value())
	item.mu.Unlock()
}

func (item *Item) updateStatus() {
	status, err := item.object.GetProperty(StatusNotifierItemInterface + ".Status")
	if err != nil {
		return
	}

	item.mu.Lock()
	item.info.Status = parseStatus(status.Value())
	item.mu.Unlock()
}

func (item *Item) updateIcon() {
	iconName, err := item.object.GetProperty(StatusNotifierItemInterface + ".IconName")
	if err != nil {
		return
	}

	item.mu.Lock()
	item.info.IconName, _ = iconName.Value().(string)
	item.mu.Unlock()
}

func parseCategory(value any) ItemCategory {
	s, _ := value.(string)

	switch ItemCategory(s) {
	case ItemCategoryCommunications, ItemCategorySystemServices, ItemCategoryHardware:
		return ItemCategory(s)
	default:
		return ItemCategoryApplicationStatus
	}
}

func parseStatus(value any) ItemStatus {
	s, _ := value.(string)

	switch ItemStatus(s) {
	case ItemStatusPassive, ItemStatusNeedsAttention:
		return ItemStatus(s)
	default:
		return ItemStatusActive
	}
}

// parseTooltip extracts the text of a tooltip property, whose format is
//
//	(icon-name, icon-pixmaps, title, description)
func parseTooltip(value any) string {
	fields, ok := value.([]any)
	if !ok || len(fields) < 3 {
		return ""
	}

	title, _ := fields[2].(string)

	return title
}

// uniqueNameAndPathFromDBusSignal retrieves unique name and object path of
// the StatusNotifierItem service from a watcher signal.
func uniqueNameAndPathFromDBusSignal(signal *dbus.Signal) (string, string, error) {
	if len(signal.Body) < 1 {
		return "", "", fmt.Errorf("signal body is empty")
	}

	itemName, ok := signal.Body[0].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid format of signal body")
	}

	uniqueName, objectPath := splitItemName(itemName)

	return uniqueName, objectPath, nil
}

// splitItemName returns unique name and object path of the
// StatusNotifierItem service from its item name, e.g.
// ":1.185/StatusNotifierItem". The object path defaults to
// [StatusNotifierItemPath].
func splitItemName(itemName string) (uniqueName, objectPath string) {
	uniqueName, path, ok := strings.Cut(itemName, "/")
	if !ok {
		return uniqueName, StatusNotifierItemPath
	}

	return uniqueName, "/" + path
}
