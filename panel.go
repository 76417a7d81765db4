package veil

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/shelepuginivan/veil/settings"
)

// Panel applies the visibility state to every managed item.
type Panel struct {
	registry    *Registry
	state       *State
	animator    *Animator
	store       settings.Store
	log         zerolog.Logger
	generation  uint64
	destroyed   bool
	itemsChange handlers[[]string]
	disconnects []func()
}

// NewPanel returns a [Panel] reconciling the items of registry whenever the
// visibility state or the list of visible items changes.
func NewPanel(registry *Registry, state *State, animator *Animator, store settings.Store, log zerolog.Logger) *Panel {
	p := &Panel{
		registry: registry,
		state:    state,
		animator: animator,
		store:    store,
		log:      log.With().Str("component", "panel").Logger(),
	}

	p.disconnects = append(p.disconnects,
		registry.OnItemAppeared(p.handleAppeared),
		registry.OnItemDisappeared(p.handleDisappeared),
		state.OnVisibilityChanged(p.Reconcile),
		store.Connect(settings.KeyVisibleItems, func(string) {
			p.Reconcile(p.state.Visibility())
		}),
	)

	p.publishAllItems()

	return p
}

// Reconcile brings every managed item to its target visibility. When shown,
// every item is visible. Otherwise only the items in the visible list are.
//
// Hiding runs in two phases: the items to hide exit first, then the allowed
// items that are not settled visible enter. A later call invalidates the
// second phase of an earlier one.
func (p *Panel) Reconcile(shown bool) {
	if p.destroyed {
		return
	}

	p.generation++
	generation := p.generation

	items := p.registry.Items()
	allowed := p.state.VisibleItems()

	p.log.Debug().
		Bool("shown", shown).
		Int("items", len(items)).
		Uint64("generation", generation).
		Msg("reconciling")

	if !p.store.Bool(settings.KeyAnimationEnabled) {
		for _, item := range items {
			p.applyInstant(item, shown || slices.Contains(allowed, item.Name))
		}

		return
	}

	if shown {
		for _, item := range items {
			p.show(item.Container)
		}

		return
	}

	var (
		exits []*Completion
		keep  []TrackedItem
	)

	for _, item := range items {
		if slices.Contains(allowed, item.Name) {
			keep = append(keep, item)
			continue
		}

		w := item.Container

		switch p.animator.Phase(w) {
		case PhaseExiting:
			exits = append(exits, p.animator.Pending(w))
		case PhaseEntering:
			exits = append(exits, p.animator.Exit(w))
		default:
			if w.Visible() {
				exits = append(exits, p.animator.Exit(w))
			}
		}
	}

	WhenAll(exits, func(bool) {
		if p.destroyed || p.generation != generation {
			p.log.Debug().Uint64("generation", generation).Msg("skipping stale reconciliation")
			return
		}

		for _, item := range keep {
			p.show(item.Container)
		}
	})
}

// ShowAll makes every managed item visible without animation.
func (p *Panel) ShowAll() {
	p.generation++

	for _, item := range p.registry.Items() {
		p.applyInstant(item, true)
	}
}

// AllItemNames returns the names of the managed items in display order.
func (p *Panel) AllItemNames() []string {
	return p.registry.Names()
}

// OnItemsChanged subscribes fn to structural changes of the managed items.
// fn receives the names of the current items.
func (p *Panel) OnItemsChanged(fn func(names []string)) (disconnect func()) {
	return p.itemsChange.connect(fn)
}

// Destroy disconnects the panel. Pending second phases are dropped.
func (p *Panel) Destroy() {
	p.destroyed = true
	p.generation++

	for _, disconnect := range p.disconnects {
		disconnect()
	}

	p.disconnects = nil
	p.itemsChange.clear()
}

// show enters w unless it is already visible or entering.
func (p *Panel) show(w Actor) {
	switch p.animator.Phase(w) {
	case PhaseEntering:
		return
	case PhaseExiting:
		p.animator.Enter(w)
	default:
		if !w.Visible() {
			p.animator.Enter(w)
		}
	}
}

func (p *Panel) applyInstant(item TrackedItem, visible bool) {
	w := item.Container

	p.animator.Cancel(w)
	w.SetVisible(visible)
	w.SetOpacity(255)
	w.SetTranslation(0, 0)
}

func (p *Panel) handleAppeared(item TrackedItem) {
	if p.destroyed {
		return
	}

	visible := p.state.Visibility() || slices.Contains(p.state.VisibleItems(), item.Name)
	p.applyInstant(item, visible)

	p.log.Debug().Str("item", item.Name).Bool("visible", visible).Msg("new item placed")
	p.itemsChanged()
}

func (p *Panel) handleDisappeared(item TrackedItem) {
	if p.destroyed {
		return
	}

	p.animator.Cancel(item.Container)
	p.itemsChanged()
}

func (p *Panel) itemsChanged() {
	names := p.publishAllItems()
	p.itemsChange.emit(names)
}

// publishAllItems stores the current item names under
// [settings.KeyAllItems] so that other processes can list them.
func (p *Panel) publishAllItems() []string {
	names := p.registry.Names()

	if slices.Equal(names, p.store.Strings(settings.KeyAllItems)) {
		return names
	}

	if err := p.store.SetStrings(settings.KeyAllItems, names); err != nil {
		p.log.Error().Err(err).Msg("failed to publish item names")
	}

	return names
}
