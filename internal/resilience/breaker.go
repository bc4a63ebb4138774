// Package resilience shields the assistant from a misbehaving translation
// backend.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open).
// [Guard] wraps a [translator.Backend] in one so that an engine that keeps
// failing is bypassed outright while it cools off: the translation layer
// degrades immediately instead of burning its retry budget against a dead
// engine, and the readiness probe reports the outage.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker is open and
// the cooldown has not yet elapsed.
var ErrBreakerOpen = errors.New("resilience: breaker open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrBreakerOpen] until the cooldown
	// elapses.
	StateOpen

	// StateHalfOpen lets a single probe call through. Success closes the
	// breaker, failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Option configures a [Breaker].
type Option func(*Breaker)

// WithMaxFailures sets how many consecutive failures open the breaker.
// Defaults to 5.
func WithMaxFailures(n int) Option {
	return func(b *Breaker) { b.maxFailures = n }
}

// WithCooldown sets how long the breaker stays open before allowing a probe.
// Defaults to 30 seconds.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) { b.cooldown = d }
}

// WithClock sets the time source for cooldown bookkeeping. Defaults to
// [time.Now].
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// WithLogger routes the breaker's state-transition logs.
func WithLogger(log *slog.Logger) Option {
	return func(b *Breaker) { b.log = log }
}

// Breaker is a classic three-state circuit breaker.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
	log         *slog.Logger

	mu       sync.Mutex
	state    State
	failures int       // consecutive failures while closed
	openedAt time.Time // when the breaker last opened
	probing  bool      // the half-open probe is in flight
}

// NewBreaker returns a closed [Breaker]. name labels its log lines.
func NewBreaker(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:        name,
		maxFailures: 5,
		cooldown:    30 * time.Second,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Do runs fn unless the breaker is open. While open it returns
// [ErrBreakerOpen] without calling fn; once the cooldown has elapsed a single
// probe call is let through, closing the breaker on success and re-opening it
// on failure.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}
	err = fn()
	b.settle(probe, err)
	return err
}

// admit reports whether the call may proceed and whether it is the half-open
// probe. Moves open to half-open when the cooldown has elapsed.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false, ErrBreakerOpen
		}
		b.state = StateHalfOpen
		b.probing = true
		b.log.Info("breaker half-open, probing", "name", b.name)
		return true, nil
	case StateHalfOpen:
		if b.probing {
			return false, ErrBreakerOpen
		}
		b.probing = true
		return true, nil
	default:
		return false, nil
	}
}

// settle folds the call's outcome back into the state machine.
func (b *Breaker) settle(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probing = false
		if err != nil {
			b.state = StateOpen
			b.openedAt = b.now()
			b.log.Warn("breaker re-opened, probe failed", "name", b.name, "error", err)
			return
		}
		b.state = StateClosed
		b.failures = 0
		b.log.Info("breaker closed, probe succeeded", "name", b.name)
		return
	}

	// Calls admitted while closed only count towards the failure threshold
	// as long as the breaker is still closed when they finish.
	if b.state != StateClosed {
		return
	}
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = b.now()
		b.log.Warn("breaker opened", "name", b.name, "consecutive_failures", b.failures)
	}
}

// State reports the breaker's mode. An open breaker whose cooldown has
// elapsed reports half-open; the transition itself happens on the next Do.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed, clearing the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probing = false
	b.log.Info("breaker manually reset", "name", b.name)
}
