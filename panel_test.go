package veil_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelepuginivan/veil"
	"github.com/shelepuginivan/veil/mainloop"
	"github.com/shelepuginivan/veil/settings"
	"github.com/shelepuginivan/veil/veiltest"
)

type panelFixture struct {
	container *veiltest.Container
	items     map[string]*veiltest.Actor
	store     *settings.Memory
	clock     *mainloop.FakeClock
	state     *veil.State
	animator  *veil.Animator
	registry  *veil.Registry
	panel     *veil.Panel
}

func newPanelFixture(t *testing.T, shown, animated bool, allowed ...string) *panelFixture {
	t.Helper()

	f := &panelFixture{
		container: veiltest.NewContainer(),
		items:     make(map[string]*veiltest.Actor),
		store:     settings.NewMemory(),
		clock:     mainloop.NewFakeClock(),
	}

	for _, name := range []string{"a", "b", "c"} {
		item := veiltest.NewItem(name)
		f.items[name] = item
		f.container.Add(item)
	}

	require.NoError(t, f.store.SetBool(settings.KeyDefaultVisibility, shown))
	require.NoError(t, f.store.SetBool(settings.KeyAnimationEnabled, animated))
	require.NoError(t, f.store.SetStrings(settings.KeyVisibleItems, allowed))

	log := zerolog.Nop()
	registry := veil.NewRegistry(f.container, log)
	f.registry = registry
	f.state = veil.NewState(f.store, f.clock, log)
	f.animator = veil.NewAnimator(f.store, f.clock, log)
	f.panel = veil.NewPanel(registry, f.state, f.animator, f.store, log)

	// Settle the initial state without animation.
	require.NoError(t, f.store.SetBool(settings.KeyAnimationEnabled, false))
	f.panel.Reconcile(f.state.Visibility())
	require.NoError(t, f.store.SetBool(settings.KeyAnimationEnabled, animated))

	t.Cleanup(func() {
		f.panel.Destroy()
		f.state.Destroy()
		f.animator.Destroy()
		registry.Close()
	})

	return f
}

func (f *panelFixture) visible() map[string]bool {
	visible := make(map[string]bool, len(f.items))
	for name, item := range f.items {
		visible[name] = item.Visible()
	}

	return visible
}

func (f *panelFixture) complete(names ...string) {
	for _, name := range names {
		f.items[name].CompleteAnimation()
	}
}

func TestPanel_AllowListCorrectness(t *testing.T) {
	f := newPanelFixture(t, true, false, "b")

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, f.visible())

	f.state.SetVisibility(false)
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, f.visible())

	f.state.SetVisibility(true)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, f.visible())
}

func TestPanel_ToggleSymmetry(t *testing.T) {
	f := newPanelFixture(t, false, true, "c")
	before := f.visible()

	f.state.Toggle()
	f.complete("a", "b")
	f.state.Toggle()
	f.complete("a", "b")

	assert.Equal(t, before, f.visible())
	assert.Zero(t, f.animator.Active())
	assert.Zero(t, f.clock.Pending())
}

func TestPanel_HideExitsOnlyDisallowedItems(t *testing.T) {
	f := newPanelFixture(t, true, true, "b")

	f.state.SetVisibility(false)

	assert.Equal(t, veil.PhaseExiting, f.animator.Phase(f.items["a"]))
	assert.Equal(t, veil.PhaseIdle, f.animator.Phase(f.items["b"]))
	assert.Equal(t, veil.PhaseExiting, f.animator.Phase(f.items["c"]))

	f.complete("a", "c")

	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, f.visible())
	assert.Zero(t, f.animator.Active())
}

func TestPanel_AllowedItemsReenterAfterEveryExit(t *testing.T) {
	f := newPanelFixture(t, true, true)

	f.state.SetVisibility(false)
	require.Equal(t, 3, f.animator.Active())

	// b is allowed while every item is exiting.
	f.state.SetVisibleItems([]string{"b"})
	assert.Equal(t, veil.PhaseExiting, f.animator.Phase(f.items["b"]), "b must not re-enter mid-flight")

	f.complete("a")
	assert.Equal(t, veil.PhaseExiting, f.animator.Phase(f.items["b"]))

	f.complete("c")
	assert.Equal(t, veil.PhaseEntering, f.animator.Phase(f.items["b"]))
	assert.True(t, f.items["b"].Visible())

	f.complete("b")
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, f.visible())
	assert.Equal(t, uint8(255), f.items["b"].Opacity())
}

func TestPanel_AllowListChangeWhileHidden(t *testing.T) {
	f := newPanelFixture(t, false, true)
	require.Equal(t, map[string]bool{"a": false, "b": false, "c": false}, f.visible())

	f.state.AddVisibleItem("c")

	assert.Equal(t, veil.PhaseEntering, f.animator.Phase(f.items["c"]))
	f.complete("c")
	assert.Equal(t, map[string]bool{"a": false, "b": false, "c": true}, f.visible())

	f.state.RemoveVisibleItem("c")
	assert.Equal(t, veil.PhaseExiting, f.animator.Phase(f.items["c"]))
	f.complete("c")
	assert.False(t, f.items["c"].Visible())
}

func TestPanel_ShowDuringHideWins(t *testing.T) {
	f := newPanelFixture(t, true, true, "a")

	f.state.SetVisibility(false)
	f.state.SetVisibility(true)

	for name, item := range f.items {
		if name == "a" {
			assert.Equal(t, veil.PhaseIdle, f.animator.Phase(item))
			continue
		}
		assert.Equal(t, veil.PhaseEntering, f.animator.Phase(item), name)
	}

	f.complete("b", "c")
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, f.visible())
	assert.Zero(t, f.animator.Active())
}

func TestPanel_FallbackSettlesWithoutHostCompletion(t *testing.T) {
	f := newPanelFixture(t, true, true, "b")

	f.state.SetVisibility(false)
	f.clock.Advance(350 * time.Millisecond)

	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, f.visible())
	assert.Zero(t, f.animator.Active())
	assert.Zero(t, f.clock.Pending())
}

func TestPanel_NewItemPolicy(t *testing.T) {
	f := newPanelFixture(t, false, true, "x")

	x := veiltest.NewItem("x")
	y := veiltest.NewItem("y")
	x.SetVisible(false)

	f.container.Add(x)
	f.container.Add(y)

	assert.True(t, x.Visible())
	assert.False(t, y.Visible())
	assert.Zero(t, x.Animations+y.Animations, "new items are placed without animation")

	f.state.SetVisibility(true)
	f.complete("a", "b", "c")
	y.CompleteAnimation()

	z := veiltest.NewItem("z")
	z.SetVisible(false)
	f.container.Add(z)
	assert.True(t, z.Visible())
}

func TestPanel_PublishesItems(t *testing.T) {
	f := newPanelFixture(t, true, true)
	assert.Equal(t, []string{"a", "b", "c"}, f.store.Strings(settings.KeyAllItems))

	var events [][]string
	f.panel.OnItemsChanged(func(names []string) { events = append(events, names) })

	d := veiltest.NewItem("d")
	f.container.Add(d)
	f.container.Remove(f.items["a"])

	assert.Equal(t, []string{"b", "c", "d"}, f.store.Strings(settings.KeyAllItems))
	assert.Equal(t, [][]string{{"a", "b", "c", "d"}, {"b", "c", "d"}}, events)
	assert.Equal(t, []string{"b", "c", "d"}, f.panel.AllItemNames())
}

func TestPanel_RemovalCancelsAnimation(t *testing.T) {
	f := newPanelFixture(t, true, true)

	f.state.SetVisibility(false)
	f.container.Remove(f.items["a"])

	assert.Equal(t, veil.PhaseIdle, f.animator.Phase(f.items["a"]))
	assert.Equal(t, 2, f.animator.Active())
}

func TestPanel_ShowAllAndDestroy(t *testing.T) {
	f := newPanelFixture(t, true, true)

	f.state.SetVisibility(false)
	f.panel.ShowAll()

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, f.visible())
	assert.Zero(t, f.animator.Active())

	f.panel.Destroy()
	f.state.SetVisibility(true)
	f.state.SetVisibility(false)
	assert.Zero(t, f.animator.Active())
}

func (f *panelFixture) names() map[veil.Actor]string {
	names := make(map[veil.Actor]string)
	for _, item := range f.registry.Items() {
		names[item.Container] = item.Name
	}

	return names
}

func TestPanel_DuplicateInsertedFirst(t *testing.T) {
	f := newPanelFixture(t, false, false, "x")

	first := veiltest.NewItem("x")
	f.container.Add(first)
	require.True(t, first.Visible())

	second := veiltest.NewItem("x")
	f.container.Insert(second, 0)

	names := f.names()
	assert.Equal(t, "x", names[first])
	assert.Equal(t, "x (2)", names[second])
	assert.True(t, first.Visible())
	assert.False(t, second.Visible())
	assert.Equal(t, []string{"x (2)", "a", "b", "c", "x"}, f.store.Strings(settings.KeyAllItems))
}

func TestPanel_EarlierDuplicateRemoved(t *testing.T) {
	f := newPanelFixture(t, false, false, "x")

	first := veiltest.NewItem("x")
	second := veiltest.NewItem("x")
	f.container.Add(first)
	f.container.Add(second)
	require.True(t, first.Visible())
	require.False(t, second.Visible())

	f.container.Remove(first)

	// The remaining duplicate keeps its name, so its visibility still
	// matches the visible list.
	assert.Equal(t, "x (2)", f.names()[second])
	assert.False(t, second.Visible())
	assert.Equal(t, []string{"a", "b", "c", "x (2)"}, f.store.Strings(settings.KeyAllItems))

	f.state.SetVisibleItems([]string{"x (2)"})
	assert.True(t, second.Visible())

	third := veiltest.NewItem("x")
	f.container.Add(third)
	assert.Equal(t, "x", f.names()[third])
	assert.False(t, third.Visible())
}
