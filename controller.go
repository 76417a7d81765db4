package veil

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelepuginivan/veil/internal/logging"
	"github.com/shelepuginivan/veil/mainloop"
	"github.com/shelepuginivan/veil/settings"
)

// ButtonPrimary is the pointer button that toggles the visibility.
const ButtonPrimary = 1

// Icon names shown by the indicator when no custom icon is configured.
const (
	IconOpen  = "arrow-open"
	IconClose = "arrow-close"
)

// deferred names the work a [Controller] merges onto the loop.
type deferred int

const deferredReposition deferred = iota

// Options configure a [Controller].
type Options struct {
	// Container is the shared status area. Required.
	Container Container

	// Store holds settings and persisted state. Required.
	Store settings.Store

	// Clock schedules timers. Required.
	Clock mainloop.Scheduler

	// Post schedules fn to run later on the loop. Defaults to running fn
	// immediately.
	Post func(fn func())

	// Indicator is the toggle control. It is never managed as an item.
	Indicator Indicator

	// Anchor is the entry the indicator is placed in front of, e.g. the
	// quick settings menu. It is never managed as an item.
	Anchor Content

	Logger zerolog.Logger
}

// Controller wires the veil components to a status area and exposes the
// operations of the control API.
type Controller struct {
	container Container
	store     settings.Store
	clock     mainloop.Scheduler
	indicator Indicator
	anchor    Content
	log       zerolog.Logger

	registry *Registry
	state    *State
	animator *Animator
	panel    *Panel

	coalescer   *mainloop.Coalescer[deferred]
	hoverTimer  mainloop.Timer
	disconnects []func()
	closed      bool
}

// NewController returns a [Controller] and applies the initial state to the
// items of the container.
func NewController(opts Options) (*Controller, error) {
	if opts.Container == nil {
		return nil, errors.New("new controller: container is required")
	}

	if opts.Store == nil {
		return nil, errors.New("new controller: settings store is required")
	}

	if opts.Clock == nil {
		return nil, errors.New("new controller: clock is required")
	}

	post := opts.Post
	if post == nil {
		post = func(fn func()) { fn() }
	}

	c := &Controller{
		container: opts.Container,
		store:     opts.Store,
		clock:     opts.Clock,
		indicator: opts.Indicator,
		anchor:    opts.Anchor,
		log:       opts.Logger.With().Str("component", "controller").Logger(),
		coalescer: mainloop.NewCoalescer[deferred](post),
	}

	applyLoggingLevel(c.store.String(settings.KeyLoggingLevel), c.log)

	c.registry = NewRegistry(opts.Container, opts.Logger, opts.Indicator, opts.Anchor)
	c.animator = NewAnimator(opts.Store, opts.Clock, opts.Logger)
	c.state = NewState(opts.Store, opts.Clock, opts.Logger)
	c.panel = NewPanel(c.registry, c.state, c.animator, opts.Store, opts.Logger)

	c.disconnects = append(c.disconnects,
		c.state.OnVisibilityChanged(func(bool) {
			c.updateIcon()
			c.scheduleReposition()
		}),
		c.panel.OnItemsChanged(func([]string) {
			c.scheduleReposition()
		}),
		opts.Container.OnChildAdded(func(Actor) {
			c.scheduleReposition()
		}),
		opts.Store.Connect(settings.KeyLoggingLevel, func(string) {
			applyLoggingLevel(c.store.String(settings.KeyLoggingLevel), c.log)
		}),
		opts.Store.Connect(settings.KeyInteractionMode, func(string) {
			c.cancelHoverTimer()
		}),
		opts.Store.Connect(settings.KeyCustomOpenIcon, func(string) { c.updateIcon() }),
		opts.Store.Connect(settings.KeyCustomCloseIcon, func(string) { c.updateIcon() }),
	)

	c.panel.Reconcile(c.state.Visibility())
	c.updateIcon()
	c.Reposition()

	c.log.Info().
		Bool("shown", c.state.Visibility()).
		Int("items", len(c.registry.Items())).
		Msg("controller started")

	return c, nil
}

// ToggleVisibility flips the visibility and returns the new state.
func (c *Controller) ToggleVisibility() bool {
	return c.state.Toggle()
}

// SetVisibility shows or hides the items.
func (c *Controller) SetVisibility(shown bool) {
	c.state.SetVisibility(shown)
}

// Visibility reports whether the items are shown.
func (c *Controller) Visibility() bool {
	return c.state.Visibility()
}

// AllItemNames returns the names of the managed items in display order.
func (c *Controller) AllItemNames() []string {
	return c.panel.AllItemNames()
}

// Items returns the managed items in display order.
func (c *Controller) Items() []TrackedItem {
	return c.registry.Items()
}

// Phase returns the animation phase of w.
func (c *Controller) Phase(w Widget) Phase {
	return c.animator.Phase(w)
}

// VisibleItems returns the names that stay visible while hidden.
func (c *Controller) VisibleItems() []string {
	return c.state.VisibleItems()
}

// SetVisibleItems replaces the names that stay visible while hidden.
func (c *Controller) SetVisibleItems(names []string) {
	c.state.SetVisibleItems(names)
}

// ToggleVisibleItem adds name to the visible items or removes it. It reports
// whether name is visible while hidden afterwards.
func (c *Controller) ToggleVisibleItem(name string) bool {
	return c.state.ToggleVisibleItem(name)
}

// CleanOrphanedItems removes visible items that are not in current. When
// current is nil, the names of the managed items are used. It reports
// whether anything was removed.
func (c *Controller) CleanOrphanedItems(current []string) bool {
	if current == nil {
		current = c.panel.AllItemNames()
	}

	removed, changed := c.state.PruneOrphans(current)
	if changed {
		c.log.Info().Int("removed", removed).Msg("orphaned items cleaned")
	}

	return changed
}

// OnVisibilityChanged subscribes fn to visibility changes.
func (c *Controller) OnVisibilityChanged(fn func(shown bool)) (disconnect func()) {
	return c.state.OnVisibilityChanged(fn)
}

// OnItemsChanged subscribes fn to structural changes of the managed items.
func (c *Controller) OnItemsChanged(fn func(names []string)) (disconnect func()) {
	return c.panel.OnItemsChanged(fn)
}

// OnVisibleItemsChanged subscribes fn to changes of the visible items.
func (c *Controller) OnVisibleItemsChanged(fn func(names []string)) (disconnect func()) {
	return c.store.Connect(settings.KeyVisibleItems, func(string) {
		fn(c.state.VisibleItems())
	})
}

// Activate handles a press of button on the indicator. The primary button
// toggles the visibility.
func (c *Controller) Activate(button int) {
	if c.closed || button != ButtonPrimary {
		return
	}

	c.ToggleVisibility()
}

// PointerEntered handles the pointer entering the indicator. In hover mode
// it shows the items.
func (c *Controller) PointerEntered() {
	if c.closed || c.store.String(settings.KeyInteractionMode) != settings.ModeHover {
		return
	}

	c.cancelHoverTimer()
	c.state.SetVisibility(true)
}

// PointerLeft handles the pointer leaving the indicator. In hover mode it
// hides the items, immediately or after [settings.KeyHoverDuration] seconds
// depending on [settings.KeyHoverHideOnLeave].
func (c *Controller) PointerLeft() {
	if c.closed || c.store.String(settings.KeyInteractionMode) != settings.ModeHover {
		return
	}

	c.cancelHoverTimer()

	if c.store.Bool(settings.KeyHoverHideOnLeave) {
		c.state.SetVisibility(false)
		return
	}

	seconds := c.store.Int(settings.KeyHoverDuration)
	if seconds < 1 {
		seconds = 1
	}

	var timer mainloop.Timer
	timer = c.clock.AfterFunc(time.Duration(seconds)*time.Second, func() {
		if c.hoverTimer != timer {
			return
		}

		c.hoverTimer = nil
		c.state.SetVisibility(false)
	})
	c.hoverTimer = timer
}

// HoverTimerArmed reports whether a delayed hide after pointer leave is
// pending.
func (c *Controller) HoverTimerArmed() bool {
	return c.hoverTimer != nil
}

// Reposition places the indicator immediately before the anchor. When the
// anchor is not in the container, the indicator is moved to the end.
func (c *Controller) Reposition() {
	if c.closed || c.indicator == nil {
		return
	}

	children := c.container.Children()

	var (
		actor   Actor
		current = -1
		target  = -1
		others  int
	)

	for idx, child := range children {
		content := child.FirstChild()

		if content != nil && content == Content(c.indicator) {
			actor = child
			current = idx
			continue
		}

		if c.anchor != nil && content == c.anchor && target < 0 {
			target = others
		}

		others++
	}

	if actor == nil {
		c.log.Debug().Msg("indicator is not in the container")
		return
	}

	if target < 0 {
		c.log.Warn().Msg("anchor not found, placing indicator at the end")
		target = len(children) - 1
	}

	if current == target {
		return
	}

	c.container.SetChildIndex(actor, target)
	c.log.Debug().Int("from", current).Int("to", target).Msg("indicator repositioned")
}

// Close shows every item without animation and tears the components down.
// Close is idempotent.
func (c *Controller) Close() {
	if c.closed {
		return
	}

	c.closed = true
	c.cancelHoverTimer()

	for _, disconnect := range c.disconnects {
		disconnect()
	}

	c.disconnects = nil

	c.panel.ShowAll()
	c.panel.Destroy()
	c.state.Destroy()
	c.animator.Destroy()
	c.registry.Close()
	c.coalescer.Destroy()

	c.log.Info().Msg("controller closed")
}

func (c *Controller) scheduleReposition() {
	c.coalescer.Post(deferredReposition, c.Reposition)
}

func (c *Controller) updateIcon() {
	if c.indicator == nil {
		return
	}

	var name string

	if c.state.Visibility() {
		name = c.store.String(settings.KeyCustomCloseIcon)
		if name == "" {
			name = IconClose
		}
	} else {
		name = c.store.String(settings.KeyCustomOpenIcon)
		if name == "" {
			name = IconOpen
		}
	}

	c.indicator.SetIcon(name)
}

func (c *Controller) cancelHoverTimer() {
	if c.hoverTimer == nil {
		return
	}

	c.hoverTimer.Stop()
	c.hoverTimer = nil
}

func applyLoggingLevel(value string, log zerolog.Logger) {
	level, err := logging.ParseLevel(value)
	if err != nil {
		log.Warn().Str("level", value).Msg("unknown logging level, keeping current one")
		return
	}

	zerolog.SetGlobalLevel(level)
}
