// Package dbusapi exports a veil controller on the D-Bus session bus and
// provides a client for it.
package dbusapi

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog"
)

const (
	Name      = "io.github.shelepuginivan.Veil"
	Interface = Name
	Path      = dbus.ObjectPath("/io/github/shelepuginivan/Veil")
)

// DefaultTimeout bounds the time a method call waits for the main loop.
const DefaultTimeout = 5 * time.Second

// Caller runs functions on the goroutine that owns the controller.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// Controller is the part of a veil controller exported on the bus.
type Controller interface {
	ToggleVisibility() bool
	SetVisibility(shown bool)
	Visibility() bool
	AllItemNames() []string
	VisibleItems() []string
	SetVisibleItems(names []string)
	ToggleVisibleItem(name string) bool
	CleanOrphanedItems(current []string) bool
	Activate(button int)
	PointerEntered()
	PointerLeft()
	OnVisibilityChanged(fn func(shown bool)) (disconnect func())
	OnItemsChanged(fn func(names []string)) (disconnect func())
	OnVisibleItemsChanged(fn func(names []string)) (disconnect func())
}

// ItemState is the rendered state of a status area entry. Its D-Bus
// signature is (sbyd).
type ItemState struct {
	Name    string
	Visible bool
	Opacity byte
	X       float64
}

// Server exports a [Controller] as the [Interface] interface at [Path].
type Server struct {
	conn    *dbus.Conn
	loop    Caller
	ctrl    Controller
	items   func() []ItemState
	log     zerolog.Logger
	timeout time.Duration

	mu          sync.Mutex
	props       *prop.Properties
	disconnects []func()
	closed      bool
}

// NewServer returns a [Server]. Every call to ctrl and items is made
// through loop.
func NewServer(conn *dbus.Conn, loop Caller, ctrl Controller, items func() []ItemState, log zerolog.Logger) *Server {
	if items == nil {
		items = func() []ItemState { return nil }
	}

	return &Server{
		conn:    conn,
		loop:    loop,
		ctrl:    ctrl,
		items:   items,
		log:     log.With().Str("component", "dbusapi").Logger(),
		timeout: DefaultTimeout,
	}
}

// Listen exports the object and its properties, subscribes to controller
// events and requests [Name].
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("listen: server is closed")
	}

	obj := &api{server: s}
	if err := s.conn.Export(obj, Path, Interface); err != nil {
		return fmt.Errorf("listen: failed to export %s: %w", Interface, err)
	}

	var visible bool
	var allItems, visibleItems []string

	if err := s.loop.Call(ctx, func() {
		visible = s.ctrl.Visibility()
		allItems = s.ctrl.AllItemNames()
		visibleItems = s.ctrl.VisibleItems()
	}); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	props, err := prop.Export(s.conn, Path, prop.Map{
		Interface: map[string]*prop.Prop{
			"Visible":      {Value: visible, Writable: false, Emit: prop.EmitTrue},
			"AllItems":     {Value: nonNil(allItems), Writable: false, Emit: prop.EmitTrue},
			"VisibleItems": {Value: nonNil(visibleItems), Writable: false, Emit: prop.EmitTrue},
		},
	})
	if err != nil {
		return fmt.Errorf("listen: failed to export properties: %w", err)
	}

	s.props = props

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       Interface,
				Methods:    introspect.Methods(obj),
				Properties: props.Introspection(Interface),
				Signals: []introspect.Signal{
					{Name: "VisibilityChanged", Args: []introspect.Arg{{Name: "visible", Type: "b"}}},
					{Name: "ItemsChanged", Args: []introspect.Arg{{Name: "names", Type: "as"}}},
				},
			},
		},
	}

	if err := s.conn.Export(introspect.NewIntrospectable(node), Path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("listen: failed to export introspection: %w", err)
	}

	if err := s.loop.Call(ctx, func() {
		s.disconnects = append(s.disconnects,
			s.ctrl.OnVisibilityChanged(s.visibilityChanged),
			s.ctrl.OnItemsChanged(s.itemsChanged),
			s.ctrl.OnVisibleItemsChanged(s.visibleItemsChanged),
		)
	}); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	reply, err := s.conn.RequestName(Name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", Name, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", Name)
	}

	s.log.Info().Str("name", Name).Str("path", string(Path)).Msg("control API exported")

	return nil
}

// Close releases [Name] and unexports the object. Subscriptions to the
// controller are dropped on the loop if it still runs.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	disconnects := s.disconnects
	s.disconnects = nil

	if err := s.loop.Call(ctx, func() {
		for _, disconnect := range disconnects {
			disconnect()
		}
	}); err != nil {
		s.log.Debug().Err(err).Msg("loop stopped before unsubscribing")
	}

	if _, err := s.conn.ReleaseName(Name); err != nil {
		return fmt.Errorf("close: failed to release name %s: %w", Name, err)
	}

	s.conn.Export(nil, Path, Interface)
	s.conn.Export(nil, Path, "org.freedesktop.DBus.Introspectable")

	return nil
}

// visibilityChanged runs on the loop.
func (s *Server) visibilityChanged(shown bool) {
	s.setProperty("Visible", shown)
	s.emit("VisibilityChanged", shown)
}

func (s *Server) itemsChanged(names []string) {
	s.setProperty("AllItems", nonNil(names))
	s.emit("ItemsChanged", nonNil(names))
}

func (s *Server) visibleItemsChanged(names []string) {
	s.setProperty("VisibleItems", nonNil(names))
}

func (s *Server) setProperty(name string, value any) {
	if s.props == nil {
		return
	}

	s.props.SetMust(Interface, name, value)
}

func (s *Server) emit(signal string, values ...any) {
	if s.conn == nil {
		return
	}

	if err := s.conn.Emit(Path, Interface+"."+signal, values...); err != nil {
		s.log.Warn().Err(err).Str("signal", signal).Msg("failed to emit signal")
	}
}

// run calls fn on the loop and converts failures to D-Bus errors.
func (s *Server) run(method string, fn func()) *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.loop.Call(ctx, fn); err != nil {
		s.log.Warn().Err(err).Str("method", method).Msg("method call failed")
		return dbus.MakeFailedError(fmt.Errorf("%s: %w", method, err))
	}

	s.log.Debug().Str("method", method).Msg("method called")

	return nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}

	return slices.Clone(names)
}
