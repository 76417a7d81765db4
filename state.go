package veil

import (
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelepuginivan/veil/mainloop"
	"github.com/shelepuginivan/veil/settings"
)

// State is the source of truth for whether the items are shown, the
// allow-list of items that stay visible while hidden, and the auto-hide
// timer.
type State struct {
	store       settings.Store
	clock       mainloop.Scheduler
	log         zerolog.Logger
	shown       bool
	autoHide    mainloop.Timer
	changed     handlers[bool]
	disconnects []func()
}

// NewState returns a [State]. The initial state is the saved one when
// [settings.KeySaveState] is enabled, [settings.KeyDefaultVisibility]
// otherwise.
func NewState(store settings.Store, clock mainloop.Scheduler, log zerolog.Logger) *State {
	s := &State{
		store: store,
		clock: clock,
		log:   log.With().Str("component", "state").Logger(),
	}

	if store.Bool(settings.KeySaveState) {
		s.shown = store.Bool(settings.KeySavedVisibility)
	} else {
		s.shown = store.Bool(settings.KeyDefaultVisibility)
	}

	s.disconnects = append(s.disconnects,
		store.Connect(settings.KeySaveState, func(string) { s.followDefault() }),
		store.Connect(settings.KeyDefaultVisibility, func(string) { s.followDefault() }),
		store.Connect(settings.KeyAutoHideEnabled, func(string) { s.autoHideChanged() }),
	)

	s.log.Debug().Bool("shown", s.shown).Msg("state initialized")

	return s
}

// Visibility reports whether the items are shown.
func (s *State) Visibility() bool {
	return s.shown
}

// Toggle flips the state and returns the new one.
func (s *State) Toggle() bool {
	s.apply(!s.shown)
	s.log.Debug().Bool("shown", s.shown).Msg("visibility toggled")

	return s.shown
}

// SetVisibility sets the state. It does nothing when shown equals the
// current state: no event, no write.
func (s *State) SetVisibility(shown bool) {
	if shown == s.shown {
		return
	}

	s.apply(shown)
	s.log.Debug().Bool("shown", shown).Msg("visibility set")
}

// OnVisibilityChanged subscribes fn to state changes.
func (s *State) OnVisibilityChanged(fn func(shown bool)) (disconnect func()) {
	return s.changed.connect(fn)
}

// AutoHideArmed reports whether the auto-hide timer is running.
func (s *State) AutoHideArmed() bool {
	return s.autoHide != nil
}

// VisibleItems returns the allow-list.
func (s *State) VisibleItems() []string {
	return s.store.Strings(settings.KeyVisibleItems)
}

// SetVisibleItems replaces the allow-list. Duplicates are dropped.
func (s *State) SetVisibleItems(items []string) {
	unique := make([]string, 0, len(items))
	for _, item := range items {
		if !slices.Contains(unique, item) {
			unique = append(unique, item)
		}
	}

	if err := s.store.SetStrings(settings.KeyVisibleItems, unique); err != nil {
		s.log.Error().Err(err).Msg("failed to save visible items")
		return
	}

	s.log.Debug().Int("count", len(unique)).Msg("visible items updated")
}

// AddVisibleItem adds name to the allow-list. It reports whether the list
// changed.
func (s *State) AddVisibleItem(name string) bool {
	items := s.VisibleItems()
	if slices.Contains(items, name) {
		return false
	}

	s.SetVisibleItems(append(items, name))

	return true
}

// RemoveVisibleItem removes name from the allow-list. It reports whether the
// list changed.
func (s *State) RemoveVisibleItem(name string) bool {
	items := s.VisibleItems()
	if !slices.Contains(items, name) {
		return false
	}

	s.SetVisibleItems(slices.DeleteFunc(items, func(item string) bool {
		return item == name
	}))

	return true
}

// ToggleVisibleItem adds name to the allow-list or removes it. It reports
// whether name is in the list afterwards.
func (s *State) ToggleVisibleItem(name string) bool {
	if s.RemoveVisibleItem(name) {
		return false
	}

	s.AddVisibleItem(name)

	return true
}

// ClearVisibleItems empties the allow-list.
func (s *State) ClearVisibleItems() {
	s.SetVisibleItems(nil)
}

// PruneOrphans removes allow-list entries that are not in current. It
// returns the number of removed entries and whether the list changed.
func (s *State) PruneOrphans(current []string) (removed int, changed bool) {
	items := s.VisibleItems()
	kept := slices.DeleteFunc(slices.Clone(items), func(item string) bool {
		return !slices.Contains(current, item)
	})

	removed = len(items) - len(kept)
	if removed == 0 {
		return 0, false
	}

	s.SetVisibleItems(kept)
	s.log.Debug().Int("before", len(items)).Int("after", len(kept)).Msg("orphaned items pruned")

	return removed, true
}

// Destroy stops the auto-hide timer and disconnects from the store.
func (s *State) Destroy() {
	s.cancelAutoHide()

	for _, disconnect := range s.disconnects {
		disconnect()
	}

	s.disconnects = nil
	s.changed.clear()
}

func (s *State) apply(shown bool) {
	s.shown = shown
	s.save()
	s.handleAutoHide()
	s.changed.emit(shown)
}

func (s *State) save() {
	var err error

	if s.store.Bool(settings.KeySaveState) {
		err = s.store.SetBool(settings.KeySavedVisibility, s.shown)
	} else {
		err = s.store.Reset(settings.KeySavedVisibility)
	}

	if err != nil {
		s.log.Error().Err(err).Msg("failed to save visibility")
	}
}

func (s *State) handleAutoHide() {
	s.cancelAutoHide()

	if s.shown && s.store.Bool(settings.KeyAutoHideEnabled) {
		s.startAutoHide()
	}
}

func (s *State) startAutoHide() {
	seconds := s.store.Int(settings.KeyAutoHideDuration)
	if seconds < 1 {
		seconds = 1
	}

	s.log.Debug().Int("seconds", seconds).Msg("auto-hide armed")

	var timer mainloop.Timer
	timer = s.clock.AfterFunc(time.Duration(seconds)*time.Second, func() {
		if s.autoHide != timer {
			return
		}

		s.autoHide = nil
		s.log.Debug().Msg("auto-hide expired")
		s.SetVisibility(false)
	})
	s.autoHide = timer
}

func (s *State) cancelAutoHide() {
	if s.autoHide == nil {
		return
	}

	s.autoHide.Stop()
	s.autoHide = nil
	s.log.Debug().Msg("auto-hide cancelled")
}

// followDefault applies the default visibility while the state is not
// saved across restarts.
func (s *State) followDefault() {
	if s.store.Bool(settings.KeySaveState) {
		return
	}

	s.SetVisibility(s.store.Bool(settings.KeyDefaultVisibility))
}

func (s *State) autoHideChanged() {
	if !s.store.Bool(settings.KeyAutoHideEnabled) {
		s.cancelAutoHide()
	}
}
