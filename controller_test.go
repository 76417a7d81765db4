package veil_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shelepuginivan/veil"
	"github.com/shelepuginivan/veil/mainloop"
	mock_veil "github.com/shelepuginivan/veil/mocks"
	"github.com/shelepuginivan/veil/settings"
	"github.com/shelepuginivan/veil/veiltest"
)

type controllerFixture struct {
	container *veiltest.Container
	store     *settings.Memory
	clock     *mainloop.FakeClock
	indicator *veiltest.Indicator
	anchor    *veiltest.Content
	items     map[string]*veiltest.Actor
	queue     []func()
	ctrl      *veil.Controller
}

func newControllerFixture(t *testing.T, setup func(store *settings.Memory)) *controllerFixture {
	t.Helper()

	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	f := &controllerFixture{
		store:     settings.NewMemory(),
		clock:     mainloop.NewFakeClock(),
		indicator: &veiltest.Indicator{Content: veiltest.Content{Name: "veil"}},
		anchor:    &veiltest.Content{Name: "quickSettings"},
		items:     make(map[string]*veiltest.Actor),
	}

	require.NoError(t, f.store.SetBool(settings.KeyAnimationEnabled, false))
	if setup != nil {
		setup(f.store)
	}

	f.items["a"] = veiltest.NewItem("a")
	f.items["b"] = veiltest.NewItem("b")
	f.container = veiltest.NewContainer(
		veiltest.NewActor(f.indicator),
		f.items["a"],
		f.items["b"],
		veiltest.NewActor(f.anchor),
	)

	ctrl, err := veil.NewController(veil.Options{
		Container: f.container,
		Store:     f.store,
		Clock:     f.clock,
		Post:      func(fn func()) { f.queue = append(f.queue, fn) },
		Indicator: f.indicator,
		Anchor:    f.anchor,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	f.ctrl = ctrl

	return f
}

func (f *controllerFixture) flush() {
	for len(f.queue) > 0 {
		task := f.queue[0]
		f.queue = f.queue[1:]
		task()
	}
}

func (f *controllerFixture) names() []string {
	var names []string
	for _, child := range f.container.Children() {
		names = append(names, veil.ItemName(child.FirstChild()))
	}

	return names
}

func TestNewController_RequiresCollaborators(t *testing.T) {
	_, err := veil.NewController(veil.Options{})
	assert.Error(t, err)

	_, err = veil.NewController(veil.Options{Container: veiltest.NewContainer()})
	assert.Error(t, err)

	_, err = veil.NewController(veil.Options{
		Container: veiltest.NewContainer(),
		Store:     settings.NewMemory(),
	})
	assert.Error(t, err)
}

func TestController_InitialState(t *testing.T) {
	f := newControllerFixture(t, func(store *settings.Memory) {
		require.NoError(t, store.SetStrings(settings.KeyVisibleItems, []string{"b"}))
	})

	assert.False(t, f.ctrl.Visibility())
	assert.False(t, f.items["a"].Visible())
	assert.True(t, f.items["b"].Visible())
	assert.Equal(t, veil.IconOpen, f.indicator.Icon)
	assert.Equal(t, []string{"a", "b"}, f.ctrl.AllItemNames())
	assert.Equal(t, []string{"a", "b", "veil", "quickSettings"}, f.names(), "indicator moves before the anchor")
	assert.Empty(t, f.queue)
}

func TestController_Toggle(t *testing.T) {
	f := newControllerFixture(t, nil)

	var events []bool
	f.ctrl.OnVisibilityChanged(func(shown bool) { events = append(events, shown) })

	assert.True(t, f.ctrl.ToggleVisibility())
	assert.Equal(t, veil.IconClose, f.indicator.Icon)
	assert.True(t, f.items["a"].Visible())

	f.ctrl.SetVisibility(true)
	f.ctrl.SetVisibility(false)
	assert.Equal(t, veil.IconOpen, f.indicator.Icon)
	assert.Equal(t, []bool{true, false}, events)
}

func TestController_CustomIcons(t *testing.T) {
	f := newControllerFixture(t, nil)

	require.NoError(t, f.store.SetString(settings.KeyCustomOpenIcon, "eye-closed"))
	assert.Equal(t, "eye-closed", f.indicator.Icon)

	require.NoError(t, f.store.SetString(settings.KeyCustomCloseIcon, "eye-open"))
	f.ctrl.ToggleVisibility()
	assert.Equal(t, "eye-open", f.indicator.Icon)
}

func TestController_Reposition(t *testing.T) {
	f := newControllerFixture(t, nil)
	f.flush()
	require.Equal(t, []string{"a", "b", "veil", "quickSettings"}, f.names())

	// A new item is appended after the anchor by the host.
	f.container.Add(veiltest.NewItem("c"))
	f.flush()
	assert.Equal(t, []string{"a", "b", "veil", "quickSettings", "c"}, f.names())

	// Repeated changes coalesce into a single reposition.
	f.container.SetChildIndex(f.container.Children()[2], 0)
	moves := f.container.Moves
	f.ctrl.ToggleVisibility()
	f.ctrl.ToggleVisibility()
	f.flush()
	assert.Equal(t, moves+1, f.container.Moves)
	assert.Equal(t, []string{"a", "b", "veil", "quickSettings", "c"}, f.names())
}

func TestController_RepositionWithoutAnchor(t *testing.T) {
	f := newControllerFixture(t, nil)
	f.flush()

	anchor := f.container.Children()[3]
	f.container.Remove(anchor)
	f.container.Add(veiltest.NewItem("c"))
	f.flush()

	assert.Equal(t, []string{"a", "b", "c", "veil"}, f.names())
}

func TestController_RepositionMovesIndicatorBeforeAnchor(t *testing.T) {
	mockCtrl := gomock.NewController(t)

	indicator := veiltest.NewActor(&veiltest.Indicator{Content: veiltest.Content{Name: "veil"}})
	anchor := veiltest.NewActor(&veiltest.Content{Name: "quickSettings"})
	item := veiltest.NewItem("a")

	container := mock_veil.NewMockContainer(mockCtrl)
	container.EXPECT().Children().Return([]veil.Actor{indicator, item, anchor}).AnyTimes()
	container.EXPECT().OnChildAdded(gomock.Any()).Return(func() {}).Times(2)
	container.EXPECT().OnChildRemoved(gomock.Any()).Return(func() {}).Times(1)
	container.EXPECT().SetChildIndex(indicator, 1).Times(1)

	ctrl, err := veil.NewController(veil.Options{
		Container: container,
		Store:     settings.NewMemory(),
		Clock:     mainloop.NewFakeClock(),
		Indicator: indicator.Content.(veil.Indicator),
		Anchor:    anchor.Content,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	ctrl.Close()
}

func TestController_Activate(t *testing.T) {
	f := newControllerFixture(t, nil)

	f.ctrl.Activate(3)
	assert.False(t, f.ctrl.Visibility())

	f.ctrl.Activate(veil.ButtonPrimary)
	assert.True(t, f.ctrl.Visibility())

	require.NoError(t, f.store.SetString(settings.KeyInteractionMode, settings.ModeHover))
	f.ctrl.Activate(veil.ButtonPrimary)
	assert.False(t, f.ctrl.Visibility(), "click toggles in hover mode too")
}

func TestController_HoverIgnoredInClickMode(t *testing.T) {
	f := newControllerFixture(t, nil)

	f.ctrl.PointerEntered()
	assert.False(t, f.ctrl.Visibility())
}

func TestController_HoverHideOnLeave(t *testing.T) {
	f := newControllerFixture(t, func(store *settings.Memory) {
		require.NoError(t, store.SetString(settings.KeyInteractionMode, settings.ModeHover))
	})

	f.ctrl.PointerEntered()
	assert.True(t, f.ctrl.Visibility())

	f.ctrl.PointerLeft()
	assert.False(t, f.ctrl.Visibility())
	assert.False(t, f.ctrl.HoverTimerArmed())
}

func TestController_HoverDelayedHide(t *testing.T) {
	f := newControllerFixture(t, func(store *settings.Memory) {
		require.NoError(t, store.SetString(settings.KeyInteractionMode, settings.ModeHover))
		require.NoError(t, store.SetBool(settings.KeyHoverHideOnLeave, false))
		require.NoError(t, store.SetInt(settings.KeyHoverDuration, 2))
	})

	f.ctrl.PointerEntered()
	f.ctrl.PointerLeft()
	assert.True(t, f.ctrl.HoverTimerArmed())

	// Re-entering cancels the pending hide.
	f.clock.Advance(time.Second)
	f.ctrl.PointerEntered()
	assert.False(t, f.ctrl.HoverTimerArmed())
	f.clock.Advance(5 * time.Second)
	assert.True(t, f.ctrl.Visibility())

	f.ctrl.PointerLeft()
	f.clock.Advance(2 * time.Second)
	assert.False(t, f.ctrl.Visibility())
	assert.False(t, f.ctrl.HoverTimerArmed())
}

func TestController_ModeChangeCancelsHoverTimer(t *testing.T) {
	f := newControllerFixture(t, func(store *settings.Memory) {
		require.NoError(t, store.SetString(settings.KeyInteractionMode, settings.ModeHover))
		require.NoError(t, store.SetBool(settings.KeyHoverHideOnLeave, false))
	})

	f.ctrl.PointerEntered()
	f.ctrl.PointerLeft()
	require.NoError(t, f.store.SetString(settings.KeyInteractionMode, settings.ModeClick))

	assert.False(t, f.ctrl.HoverTimerArmed())
	f.clock.Advance(time.Minute)
	assert.True(t, f.ctrl.Visibility())
}

func TestController_VisibleItems(t *testing.T) {
	f := newControllerFixture(t, func(store *settings.Memory) {
		require.NoError(t, store.SetStrings(settings.KeyVisibleItems, []string{"a", "gone", "b"}))
	})

	var changed [][]string
	f.ctrl.OnItemsChanged(func(names []string) { changed = append(changed, names) })

	assert.False(t, f.ctrl.ToggleVisibleItem("a"))
	assert.False(t, f.items["a"].Visible())

	assert.True(t, f.ctrl.CleanOrphanedItems(nil))
	assert.Equal(t, []string{"b"}, f.ctrl.VisibleItems())
	assert.False(t, f.ctrl.CleanOrphanedItems(nil))

	f.ctrl.SetVisibleItems([]string{"a"})
	assert.True(t, f.items["a"].Visible())
	assert.False(t, f.items["b"].Visible())

	assert.True(t, f.ctrl.CleanOrphanedItems([]string{"b"}))
	assert.Empty(t, f.ctrl.VisibleItems())

	f.container.Add(veiltest.NewItem("c"))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, changed)
}

func TestController_LoggingLevel(t *testing.T) {
	f := newControllerFixture(t, nil)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	require.NoError(t, f.store.SetString(settings.KeyLoggingLevel, "debug"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	require.NoError(t, f.store.SetString(settings.KeyLoggingLevel, "error"))
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestController_Close(t *testing.T) {
	f := newControllerFixture(t, func(store *settings.Memory) {
		require.NoError(t, store.SetBool(settings.KeyAnimationEnabled, true))
		require.NoError(t, store.SetString(settings.KeyInteractionMode, settings.ModeHover))
		require.NoError(t, store.SetBool(settings.KeyHoverHideOnLeave, false))
	})

	f.ctrl.PointerEntered()
	f.ctrl.PointerLeft()

	f.ctrl.Close()

	assert.True(t, f.items["a"].Visible())
	assert.True(t, f.items["b"].Visible())
	assert.Equal(t, uint8(255), f.items["a"].Opacity())
	assert.Zero(t, f.container.Subscribers())
	assert.Zero(t, f.clock.Pending())

	f.ctrl.ToggleVisibility()
	assert.True(t, f.items["a"].Visible())

	f.ctrl.Close()
}
