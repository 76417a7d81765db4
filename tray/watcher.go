package tray

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"
)

const (
	StatusNotifierWatcherInterface = "org.kde.StatusNotifierWatcher"
	StatusNotifierWatcherPath      = "/StatusNotifierWatcher"
)

var watcherItemSignals = []string{"StatusNotifierItemRegistered", "StatusNotifierItemUnregistered"}

// Watcher implements [StatusNotifierWatcher] for sessions that lack one.
//
// [StatusNotifierWatcher]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/StatusNotifierWatcher/
type Watcher struct {
	closed  bool
	conn    *dbus.Conn
	log     zerolog.Logger
	mu      sync.Mutex
	signals chan *dbus.Signal
	props   *prop.Properties
	hosts   []string
	items   []string
}

func NewWatcher(conn *dbus.Conn, log zerolog.Logger) *Watcher {
	return &Watcher{
		conn:    conn,
		log:     log.With().Str("component", "watcher").Logger(),
		signals: make(chan *dbus.Signal, 64),
	}
}

// Listen requests the watcher name and exports the watcher on the bus.
func (w *Watcher) Listen() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("listen: watcher is closed")
	}

	reply, err := w.conn.RequestName(StatusNotifierWatcherInterface, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", StatusNotifierWatcherInterface, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", StatusNotifierWatcherInterface)
	}

	if err := w.conn.Export(w, StatusNotifierWatcherPath, StatusNotifierWatcherInterface); err != nil {
		return fmt.Errorf("listen: failed to export %s: %w", StatusNotifierWatcherInterface, err)
	}

	props, err := prop.Export(w.conn, StatusNotifierWatcherPath, prop.Map{
		StatusNotifierWatcherInterface: map[string]*prop.Prop{
			"RegisteredStatusNotifierItems": {
				Value:    []string{},
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"IsStatusNotifierHostRegistered": {
				Value:    false,
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"ProtocolVersion": {
				Value:    int32(0),
				Writable: false,
				Emit:     prop.EmitConst,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("listen: failed to export properties: %w", err)
	}

	w.props = props
	w.subscribe()
	w.log.Info().Msg("watcher registered")

	return nil
}

// Close releases the watcher name and stops tracking names.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if _, err := w.conn.ReleaseName(StatusNotifierWatcherInterface); err != nil {
		return fmt.Errorf("close: failed to release name %s: %w", StatusNotifierWatcherInterface, err)
	}

	for _, host := range w.hosts {
		w.unwatchOwner(host)
	}

	for _, item := range w.items {
		uniqueName, _ := splitItemName(item)
		w.unwatchOwner(uniqueName)
	}

	w.conn.RemoveSignal(w.signals)
	close(w.signals)

	w.closed = true

	return nil
}

// RegisteredItems returns the registered item names.
func (w *Watcher) RegisteredItems() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.items)
}

// RegisterStatusNotifierItem is the D-Bus method of the watcher interface.
// Items may register with a service name or, as several toolkits do, with an
// object path on their own connection.
func (w *Watcher) RegisterStatusNotifierItem(name string, sender dbus.Sender) *dbus.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	identifier := itemIdentifier(name, sender)
	if slices.Contains(w.items, identifier) {
		return nil
	}

	w.items = append(w.items, identifier)
	w.watchOwner(string(sender))

	w.conn.Emit(StatusNotifierWatcherPath, StatusNotifierWatcherInterface+".StatusNotifierItemRegistered", identifier)
	w.updateProperties()

	w.log.Debug().Str("item", identifier).Msg("item registered")

	return nil
}

// RegisterStatusNotifierHost is the D-Bus method of the watcher interface.
func (w *Watcher) RegisterStatusNotifierHost(name string) *dbus.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.hosts, name) {
		return nil
	}

	w.hosts = append(w.hosts, name)
	w.watchOwner(name)

	w.conn.Emit(StatusNotifierWatcherPath, StatusNotifierWatcherInterface+".StatusNotifierHostRegistered")
	w.updateProperties()

	w.log.Debug().Str("host", name).Msg("host registered")

	return nil
}

func (w *Watcher) subscribe() {
	w.conn.Signal(w.signals)

	go func() {
		for signal := range w.signals {
			name, gone := nameVanished(signal)
			if !gone {
				continue
			}

			w.unregister(name)
		}
	}()
}

// unregister drops the host or items owned by name.
func (w *Watcher) unregister(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if idx := slices.Index(w.hosts, name); idx >= 0 {
		w.hosts = slices.Delete(w.hosts, idx, idx+1)
		w.unwatchOwner(name)
		w.log.Debug().Str("host", name).Msg("host unregistered")
	}

	var removed []string
	w.items = slices.DeleteFunc(w.items, func(item string) bool {
		uniqueName, _ := splitItemName(item)
		if uniqueName != name {
			return false
		}

		removed = append(removed, item)
		return true
	})

	if len(removed) > 0 {
		w.unwatchOwner(name)
	}

	for _, item := range removed {
		w.conn.Emit(StatusNotifierWatcherPath, StatusNotifierWatcherInterface+".StatusNotifierItemUnregistered", item)
		w.log.Debug().Str("item", item).Msg("item unregistered")
	}

	w.updateProperties()
}

// watchOwner subscribes to NameOwnerChanged of name. Whenever name
// disappears, D-Bus sends the signal with an empty new owner.
func (w *Watcher) watchOwner(name string) {
	if err := w.conn.AddMatchSignal(ownerChangedMatch(name)...); err != nil {
		w.log.Warn().Err(err).Str("name", name).Msg("failed to watch name owner")
	}
}

func (w *Watcher) unwatchOwner(name string) {
	w.conn.RemoveMatchSignal(ownerChangedMatch(name)...)
}

func (w *Watcher) updateProperties() {
	if w.props == nil {
		return
	}

	w.props.SetMust(StatusNotifierWatcherInterface, "RegisteredStatusNotifierItems", slices.Clone(w.items))
	w.props.SetMust(StatusNotifierWatcherInterface, "IsStatusNotifierHostRegistered", len(w.hosts) > 0)
}

func ownerChangedMatch(name string) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	}
}

// itemIdentifier returns the "<service>/<path>" identifier of an item
// registering as name.
func itemIdentifier(name string, sender dbus.Sender) string {
	if strings.HasPrefix(name, "/") {
		return string(sender) + name
	}

	if strings.Contains(name, "/") {
		return name
	}

	return name + StatusNotifierItemPath
}

// nameVanished reports the name released by a NameOwnerChanged signal, if
// any.
func nameVanished(signal *dbus.Signal) (string, bool) {
	if signal.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(signal.Body) < 3 {
		return "", false
	}

	name, ok := signal.Body[0].(string)
	if !ok {
		return "", false
	}

	newOwner, ok := signal.Body[2].(string)
	if !ok || newOwner != "" {
		return "", false
	}

	return name, true
}
