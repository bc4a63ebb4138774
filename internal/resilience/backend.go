package resilience

import (
	"context"

	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
)

// GuardedBackend wraps a [translator.Backend] with a [Breaker]. A backend
// that keeps failing is bypassed while it cools off: callers get
// [ErrBreakerOpen] immediately instead of another slow failure, and the
// translation layer turns that into a degraded result on the spot.
type GuardedBackend struct {
	inner   translator.Backend
	breaker *Breaker
}

var _ translator.Backend = (*GuardedBackend)(nil)

// Guard wraps inner. opts tune the breaker.
func Guard(inner translator.Backend, opts ...Option) *GuardedBackend {
	return &GuardedBackend{
		inner:   inner,
		breaker: NewBreaker("translation_backend", opts...),
	}
}

// Translate forwards to the wrapped backend through the breaker. While the
// breaker is open it fails with [ErrBreakerOpen] without touching the
// backend.
func (g *GuardedBackend) Translate(ctx context.Context, text string, from, to lang.Code) (string, error) {
	var out string
	err := g.breaker.Do(func() error {
		var err error
		out, err = g.inner.Translate(ctx, text, from, to)
		return err
	})
	return out, err
}

// State exposes the breaker's mode for health reporting.
func (g *GuardedBackend) State() State {
	return g.breaker.State()
}
