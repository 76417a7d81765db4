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

func newAnimator(t *testing.T) (*veil.Animator, *mainloop.FakeClock, *settings.Memory) {
	t.Helper()

	store := settings.NewMemory()
	clock := mainloop.NewFakeClock()

	return veil.NewAnimator(store, clock, zerolog.Nop()), clock, store
}

// lateWidget keeps every completion callback so tests can call them after
// the transition was settled by other means.
type lateWidget struct {
	*veiltest.Widget
	callbacks []func()
}

func (w *lateWidget) Animate(t veil.Transition, completed func()) {
	w.callbacks = append(w.callbacks, completed)
	w.Widget.Animate(t, completed)
}

func TestAnimator_Enter(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	w := veiltest.NewWidget(false)

	done := animator.Enter(w)

	assert.True(t, w.Visible())
	assert.Equal(t, uint8(0), w.Opacity())
	x, y := w.Translation()
	assert.Equal(t, float64(veil.SlideOffset), x)
	assert.Zero(t, y)

	transition, ok := w.Transition()
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, transition.Duration)
	assert.Equal(t, uint8(255), transition.ToOpacity)
	assert.Zero(t, transition.ToX)
	assert.InDelta(t, 0.75, transition.Easing(0.5), 1e-9)

	assert.Equal(t, veil.PhaseEntering, animator.Phase(w))
	assert.False(t, done.Done())
	assert.Equal(t, 1, clock.Pending())

	require.True(t, w.CompleteAnimation())

	assert.True(t, done.Done())
	assert.False(t, done.Cancelled())
	assert.Equal(t, veil.PhaseIdle, animator.Phase(w))
	assert.Equal(t, uint8(255), w.Opacity())
	assert.Zero(t, clock.Pending(), "fallback must be cancelled")
}

func TestAnimator_Exit(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	w := veiltest.NewWidget(true)

	done := animator.Exit(w)

	transition, ok := w.Transition()
	require.True(t, ok)
	assert.Equal(t, uint8(255), transition.FromOpacity)
	assert.Equal(t, uint8(0), transition.ToOpacity)
	assert.Equal(t, float64(veil.SlideOffset), transition.ToX)
	assert.InDelta(t, 0.25, transition.Easing(0.5), 1e-9)
	assert.Equal(t, veil.PhaseExiting, animator.Phase(w))

	w.CompleteAnimation()

	assert.True(t, done.Done())
	assert.False(t, w.Visible())
	assert.Equal(t, uint8(255), w.Opacity())
	x, y := w.Translation()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Zero(t, clock.Pending())
}

func TestAnimator_FallbackForcesTerminalStateOnce(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	w := &lateWidget{Widget: veiltest.NewWidget(true)}

	resolved := 0
	done := animator.Exit(w)
	done.Then(func(bool) { resolved++ })

	clock.Advance(349 * time.Millisecond)
	assert.False(t, done.Done())
	assert.True(t, w.Visible())

	clock.Advance(time.Millisecond)
	assert.True(t, done.Done())
	assert.False(t, done.Cancelled())
	assert.False(t, w.Visible())
	assert.False(t, w.Animating(), "forced completion stops the host transition")
	assert.Equal(t, veil.PhaseIdle, animator.Phase(w))

	// A late completion from the host is ignored.
	require.Len(t, w.callbacks, 1)
	w.callbacks[0]()
	assert.Equal(t, 1, resolved)
	assert.False(t, w.Visible())
}

func TestAnimator_CompletionCancelsFallback(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	w := veiltest.NewWidget(false)

	resolved := 0
	animator.Enter(w).Then(func(bool) { resolved++ })
	w.CompleteAnimation()

	clock.Advance(time.Second)
	assert.Equal(t, 1, resolved)
	assert.True(t, w.Visible())
}

func TestAnimator_Cancel(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	w := veiltest.NewWidget(true)

	done := animator.Exit(w)
	animator.Cancel(w)

	assert.True(t, done.Done())
	assert.True(t, done.Cancelled())
	assert.True(t, w.Visible(), "cancel leaves visibility as is")
	assert.False(t, w.Animating())
	assert.Equal(t, veil.PhaseIdle, animator.Phase(w))
	assert.Zero(t, clock.Pending())

	// Cancelling an idle widget is a no-op.
	animator.Cancel(w)
}

func TestAnimator_RestartCancelsPrevious(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	w := veiltest.NewWidget(true)

	exit := animator.Exit(w)
	enter := animator.Enter(w)

	assert.True(t, exit.Cancelled())
	assert.False(t, enter.Done())
	assert.Equal(t, veil.PhaseEntering, animator.Phase(w))
	assert.Equal(t, 1, animator.Active())
	assert.Equal(t, 1, clock.Pending(), "only the latest fallback is armed")
	assert.Same(t, enter, animator.Pending(w))
}

func TestAnimator_ZeroDuration(t *testing.T) {
	animator, clock, store := newAnimator(t)
	require.NoError(t, store.SetInt(settings.KeyAnimationDuration, 0))

	w := veiltest.NewWidget(false)
	w.AutoComplete = true

	done := animator.Enter(w)

	assert.True(t, done.Done())
	assert.True(t, w.Visible())
	assert.Equal(t, uint8(255), w.Opacity())
	assert.Zero(t, clock.Pending())
}

func TestAnimator_Destroy(t *testing.T) {
	animator, clock, _ := newAnimator(t)
	a := veiltest.NewWidget(false)
	b := veiltest.NewWidget(true)

	enter := animator.Enter(a)
	exit := animator.Exit(b)

	animator.Destroy()

	assert.True(t, enter.Cancelled())
	assert.True(t, exit.Cancelled())
	assert.Zero(t, animator.Active())
	assert.Zero(t, clock.Pending())

	done := animator.Exit(b)
	assert.True(t, done.Done())
	assert.False(t, b.Visible())
	assert.Zero(t, clock.Pending())
	assert.Zero(t, animator.Active())
}

func TestWhenAll(t *testing.T) {
	animator, _, _ := newAnimator(t)
	a := veiltest.NewWidget(true)
	b := veiltest.NewWidget(true)

	calls := 0
	var cancelled bool
	veil.WhenAll([]*veil.Completion{animator.Exit(a), animator.Exit(b)}, func(c bool) {
		calls++
		cancelled = c
	})

	a.CompleteAnimation()
	assert.Zero(t, calls)

	animator.Cancel(b)
	assert.Equal(t, 1, calls)
	assert.True(t, cancelled)

	veil.WhenAll(nil, func(bool) { calls++ })
	assert.Equal(t, 2, calls)
}
