package veil

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/shelepuginivan/veil/mainloop"
	"github.com/shelepuginivan/veil/settings"
)

const (
	// SlideOffset is the horizontal distance, in pixels, an item travels
	// while entering or exiting.
	SlideOffset = 30

	// FallbackMargin is added to the animation duration before the
	// terminal state of a transition is forced.
	FallbackMargin = 100 * time.Millisecond
)

// Phase is the animation phase of a widget.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEntering
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseExiting:
		return "exiting"
	default:
		return "idle"
	}
}

// Completion is resolved once when a transition settles or is cancelled.
type Completion struct {
	done      bool
	cancelled bool
	callbacks []func(cancelled bool)
}

func newCompletion() *Completion {
	return &Completion{}
}

func resolvedCompletion() *Completion {
	return &Completion{done: true}
}

// Done reports whether the completion is resolved.
func (c *Completion) Done() bool {
	return c.done
}

// Cancelled reports whether the transition was cancelled before settling.
func (c *Completion) Cancelled() bool {
	return c.cancelled
}

// Then calls fn when c resolves, or immediately if it already has.
func (c *Completion) Then(fn func(cancelled bool)) {
	if c.done {
		fn(c.cancelled)
		return
	}

	c.callbacks = append(c.callbacks, fn)
}

func (c *Completion) resolve(cancelled bool) {
	if c.done {
		return
	}

	c.done = true
	c.cancelled = cancelled

	callbacks := c.callbacks
	c.callbacks = nil

	for _, fn := range callbacks {
		fn(cancelled)
	}
}

// WhenAll calls fn once every completion has resolved. cancelled is true if
// any of them was cancelled. fn runs immediately when cs is empty.
func WhenAll(cs []*Completion, fn func(cancelled bool)) {
	remaining := len(cs)
	if remaining == 0 {
		fn(false)
		return
	}

	anyCancelled := false
	for _, c := range cs {
		c.Then(func(cancelled bool) {
			anyCancelled = anyCancelled || cancelled
			remaining--

			if remaining == 0 {
				fn(anyCancelled)
			}
		})
	}
}

type animation struct {
	phase      Phase
	startedAt  time.Time
	fallback   mainloop.Timer
	completion *Completion
}

// Animator drives at most one enter or exit transition per widget.
//
// Starting a transition cancels the previous one for the same widget. Every
// transition settles exactly once: through the widget's completion callback,
// or through a fallback timer firing [FallbackMargin] after the nominal
// duration when the callback never arrives.
type Animator struct {
	store     settings.Store
	clock     mainloop.Scheduler
	log       zerolog.Logger
	active    map[Widget]*animation
	destroyed bool
}

// NewAnimator returns an [Animator] reading its duration from
// [settings.KeyAnimationDuration].
func NewAnimator(store settings.Store, clock mainloop.Scheduler, log zerolog.Logger) *Animator {
	return &Animator{
		store:  store,
		clock:  clock,
		log:    log.With().Str("component", "animator").Logger(),
		active: make(map[Widget]*animation),
	}
}

// Enter makes w visible and animates it from (SlideOffset, transparent) to
// (no offset, opaque).
func (a *Animator) Enter(w Widget) *Completion {
	a.Cancel(w)

	w.SetVisible(true)
	w.SetOpacity(0)
	w.SetTranslation(SlideOffset, 0)

	if a.destroyed {
		settleVisible(w)
		return resolvedCompletion()
	}

	return a.start(w, PhaseEntering, Transition{
		Duration:    a.duration(),
		Easing:      EaseOutQuad,
		FromOpacity: 0,
		ToOpacity:   255,
		FromX:       SlideOffset,
		ToX:         0,
	}, settleVisible)
}

// Exit animates w from its current state to (SlideOffset, transparent). Once
// settled, w is invisible and its opacity and translation are reset.
func (a *Animator) Exit(w Widget) *Completion {
	a.Cancel(w)

	if a.destroyed {
		settleHidden(w)
		return resolvedCompletion()
	}

	x, y := w.Translation()

	return a.start(w, PhaseExiting, Transition{
		Duration:    a.duration(),
		Easing:      EaseInQuad,
		FromOpacity: w.Opacity(),
		ToOpacity:   0,
		FromX:       x,
		ToX:         SlideOffset,
		FromY:       y,
		ToY:         y,
	}, settleHidden)
}

// Cancel stops the transition of w, if any, and resolves its completion as
// cancelled. The visibility of w is left as is.
func (a *Animator) Cancel(w Widget) {
	anim, ok := a.active[w]
	if !ok {
		return
	}

	delete(a.active, w)

	if anim.fallback != nil {
		anim.fallback.Stop()
	}

	w.StopAnimation()

	a.log.Debug().
		Stringer("phase", anim.phase).
		Dur("elapsed", a.clock.Now().Sub(anim.startedAt)).
		Msg("animation cancelled")

	anim.completion.resolve(true)
}

// Phase returns the animation phase of w.
func (a *Animator) Phase(w Widget) Phase {
	if anim, ok := a.active[w]; ok {
		return anim.phase
	}

	return PhaseIdle
}

// Pending returns the completion of the running transition of w, or a
// resolved completion if w is idle.
func (a *Animator) Pending(w Widget) *Completion {
	if anim, ok := a.active[w]; ok {
		return anim.completion
	}

	return resolvedCompletion()
}

// Active returns the number of running transitions.
func (a *Animator) Active() int {
	return len(a.active)
}

// Destroy cancels every transition and fallback timer. Later transitions
// apply their terminal state immediately.
func (a *Animator) Destroy() {
	for w := range a.active {
		a.Cancel(w)
	}

	a.destroyed = true
	a.log.Debug().Msg("animator destroyed")
}

func (a *Animator) start(w Widget, phase Phase, t Transition, settle func(Widget)) *Completion {
	anim := &animation{
		phase:      phase,
		startedAt:  a.clock.Now(),
		completion: newCompletion(),
	}
	a.active[w] = anim

	finish := func(forced bool) {
		// Stale callbacks of cancelled or already settled transitions.
		if a.active[w] != anim {
			return
		}

		delete(a.active, w)

		if anim.fallback != nil {
			anim.fallback.Stop()
		}

		if forced {
			a.log.Warn().Stringer("phase", phase).Msg("transition did not complete, forcing terminal state")
			w.StopAnimation()
		}

		settle(w)
		anim.completion.resolve(false)
	}

	// The fallback is armed before the transition starts because hosts may
	// complete zero-length transitions synchronously.
	anim.fallback = a.clock.AfterFunc(t.Duration+FallbackMargin, func() { finish(true) })
	w.Animate(t, func() { finish(false) })

	return anim.completion
}

func (a *Animator) duration() time.Duration {
	ms := a.store.Int(settings.KeyAnimationDuration)
	if ms < 0 {
		ms = 0
	}

	return time.Duration(ms) * time.Millisecond
}

func settleVisible(w Widget) {
	w.SetVisible(true)
	w.SetOpacity(255)
	w.SetTranslation(0, 0)
}

func settleHidden(w Widget) {
	w.SetVisible(false)
	w.SetOpacity(255)
	w.SetTranslation(0, 0)
}
