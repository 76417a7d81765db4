package tray

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

// Host implements [StatusNotifierHost]. It keeps track of StatusNotifierItem
// instances via [StatusNotifierWatcher].
//
// Callbacks run on the D-Bus signal goroutines of the host and its items.
// They receive copies of the item properties and must not block.
//
// [StatusNotifierHost]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierHost/
// [StatusNotifierWatcher]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierWatcher/
type Host struct {
	name    string
	closed  bool
	conn    *dbus.Conn
	log     zerolog.Logger
	items   map[string]*Item
	signals chan *dbus.Signal
	mu      sync.RWMutex

	onRegistered   func(ItemInfo)
	onUpdated      func(ItemInfo)
	onUnregistered func(ItemInfo)
}

// NewHost returns a new [Host].
//
// Parameter id is used as a unique identifier for host name, such as PID.
func NewHost(conn *dbus.Conn, id any, log zerolog.Logger) *Host {
	return &Host{
		name:           fmt.Sprintf("org.kde.StatusNotifierHost-%v", id),
		conn:           conn,
		log:            log.With().Str("component", "host").Logger(),
		items:          make(map[string]*Item),
		signals:        make(chan *dbus.Signal, 64),
		onRegistered:   func(ItemInfo) {},
		onUpdated:      func(ItemInfo) {},
		onUnregistered: func(ItemInfo) {},
	}
}

// Name returns name of the host service.
func (h *Host) Name() string {
	return h.name
}

// Listen requests name of the host on D-Bus, registers it in the watcher,
// subscribes to signals and reports the items that are already registered.
//
// This method should be called after the callbacks were set.
func (h *Host) Listen() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("listen: host is closed")
	}

	reply, err := h.conn.RequestName(h.name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", h.name, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", h.name)
	}

	call := h.conn.Object(
		StatusNotifierWatcherInterface,
		StatusNotifierWatcherPath,
	).Call(StatusNotifierWatcherInterface+".RegisterStatusNotifierHost", 0, h.name)
	if call.Err != nil {
		return fmt.Errorf("listen: failed to register host: %w", call.Err)
	}

	if err := h.subscribe(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	h.getInitialItems()
	h.log.Info().Str("name", h.name).Int("items", len(h.items)).Msg("host registered")

	return nil
}

// Close releases name of the host from D-Bus and unsubscribes from signals.
//
// Host cannot be reused after Close was called.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	if _, err := h.conn.ReleaseName(h.name); err != nil {
		return fmt.Errorf("close: failed to release name %s: %w", h.name, err)
	}

	for _, member := range watcherItemSignals {
		if err := h.conn.RemoveMatchSignal(
			dbus.WithMatchInterface(StatusNotifierWatcherInterface),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}

	h.conn.RemoveSignal(h.signals)
	close(h.signals)

	for _, item := range h.items {
		item.close()
	}

	h.onRegistered = func(ItemInfo) {}
	h.onUpdated = func(ItemInfo) {}
	h.onUnregistered = func(ItemInfo) {}
	h.closed = true

	return nil
}

// Items returns the properties of the registered items ordered by key.
func (h *Host) Items() []ItemInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	items := make([]ItemInfo, 0, len(h.items))
	for _, item := range h.items {
		items = append(items, item.Info())
	}

	slices.SortFunc(items, func(a, b ItemInfo) int {
		return strings.Compare(a.Key, b.Key)
	})

	return items
}

// OnRegistered sets callback that runs whenever a new item is registered.
func (h *Host) OnRegistered(callback func(ItemInfo)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onRegistered = callback
}

// OnUpdated sets callback that runs whenever properties of an item change.
func (h *Host) OnUpdated(callback func(ItemInfo)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onUpdated = callback
}

// OnUnregistered sets callback that runs whenever an item is unregistered.
func (h *Host) OnUnregistered(callback func(ItemInfo)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onUnregistered = callback
}

// getInitialItems retrieves items that are already registered.
func (h *Host) getInitialItems() {
	watcherObj := h.conn.Object(StatusNotifierWatcherInterface, StatusNotifierWatcherPath)

	property, err := watcherObj.GetProperty(StatusNotifierWatcherInterface + ".RegisteredStatusNotifierItems")
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to query registered items")
		return
	}

	registeredItems, ok := property.Value().([]string)
	if !ok {
		return
	}

	for _, itemName := range registeredItems {
		uniqueName, objectPath := splitItemName(itemName)
		h.register(uniqueName, objectPath)
	}
}

// subscribe subscribes to signals
//   - org.kde.StatusNotifierWatcher.StatusNotifierItemRegistered
//   - org.kde.StatusNotifierWatcher.StatusNotifierItemUnregistered
func (h *Host) subscribe() error {
	for _, member := range watcherItemSignals {
		if err := h.conn.AddMatchSignal(
			dbus.WithMatchInterface(StatusNotifierWatcherInterface),
			dbus.WithMatchMember(member),
		); err != nil {
			return err
		}
	}

	h.conn.Signal(h.signals)

	go func() {
		for signal := range h.signals {
			switch signal.Name {
			case StatusNotifierWatcherInterface + ".StatusNotifierItemRegistered":
				h.handleRegisteredSignal(signal)
			case StatusNotifierWatcherInterface + ".StatusNotifierItemUnregistered":
				h.handleUnregisteredSignal(signal)
			}
		}
	}()

	return nil
}

// register resolves and stores the item. It must be called with h.mu held.
func (h *Host) register(uniqueName, objectPath string) {
	if _, exists := h.items[uniqueName]; exists {
		return
	}

	item, err := NewItem(h.conn, uniqueName, objectPath)
	if err != nil {
		h.log.Warn().Err(err).Str("item", uniqueName).Msg("skipping unresolvable item")
		return
	}

	item.OnUpdate(func() {
		h.mu.RLock()
		onUpdated := h.onUpdated
		h.mu.RUnlock()

		onUpdated(item.Info())
	})

	h.items[uniqueName] = item

	info := item.Info()
	h.log.Debug().Str("item", uniqueName).Str("id", info.ID).Msg("item registered")
	h.onRegistered(info)
}

func (h *Host) handleRegisteredSignal(signal *dbus.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uniqueName, objectPath, err := uniqueNameAndPathFromDBusSignal(signal)
	if err != nil {
		h.log.Debug().Err(err).Msg("malformed registration signal")
		return
	}

	h.register(uniqueName, objectPath)
}

func (h *Host) handleUnregisteredSignal(signal *dbus.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uniqueName, _, err := uniqueNameAndPathFromDBusSignal(signal)
	if err != nil {
		h.log.Debug().Err(err).Msg("malformed unregistration signal")
		return
	}

	item, exists := h.items[uniqueName]
	if !exists {
		return
	}

	info := item.Info()
	item.close()
	delete(h.items, uniqueName)

	h.log.Debug().Str("item", uniqueName).Msg("item unregistered")
	h.onUnregistered(info)
}
