package dbusapi

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls the methods of a running [Server].
type Client struct {
	obj dbus.BusObject
}

// NewClient returns a [Client] for the server registered on conn.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{obj: conn.Object(Name, Path)}
}

func (c *Client) Toggle(ctx context.Context) (bool, error) {
	var shown bool
	err := c.call(ctx, "Toggle", []any{&shown})

	return shown, err
}

func (c *Client) SetVisibility(ctx context.Context, shown bool) error {
	return c.call(ctx, "SetVisibility", nil, shown)
}

func (c *Client) Visibility(ctx context.Context) (bool, error) {
	var shown bool
	err := c.call(ctx, "GetVisibility", []any{&shown})

	return shown, err
}

func (c *Client) AllItemNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.call(ctx, "GetAllItemNames", []any{&names})

	return names, err
}

func (c *Client) VisibleItems(ctx context.Context) ([]string, error) {
	var names []string
	err := c.call(ctx, "GetVisibleItems", []any{&names})

	return names, err
}

func (c *Client) SetVisibleItems(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}

	return c.call(ctx, "SetVisibleItems", nil, names)
}

func (c *Client) ToggleVisibleItem(ctx context.Context, name string) (bool, error) {
	var visible bool
	err := c.call(ctx, "ToggleVisibleItem", []any{&visible}, name)

	return visible, err
}

func (c *Client) CleanOrphanedItems(ctx context.Context) (bool, error) {
	var changed bool
	err := c.call(ctx, "CleanOrphanedItems", []any{&changed})

	return changed, err
}

func (c *Client) Items(ctx context.Context) ([]ItemState, error) {
	var items []ItemState
	err := c.call(ctx, "GetItems", []any{&items})

	return items, err
}

func (c *Client) Activate(ctx context.Context, button int) error {
	return c.call(ctx, "Activate", nil, int32(button))
}

func (c *Client) Hover(ctx context.Context, entered bool) error {
	return c.call(ctx, "Hover", nil, entered)
}

func (c *Client) call(ctx context.Context, method string, out []any, args ...any) error {
	call := c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}

	if len(out) == 0 {
		return nil
	}

	if err := call.Store(out...); err != nil {
		return fmt.Errorf("%s: failed to decode reply: %w", method, err)
	}

	return nil
}
