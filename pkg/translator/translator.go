// Package translator defines the Backend interface for text translation engines.
//
// A translation backend wraps a remote or local translation service (e.g., a
// cloud machine-translation API, an on-device model, or a static phrasebook)
// and exposes a uniform interface so the Mandika assistant can translate
// vendor and customer phrases without coupling to any specific engine.
//
// Implementors must be safe for concurrent use. Backends translate raw text
// only; domain concerns such as caching, price preservation, and confidence
// scoring live in the calling layer, which may substitute placeholder tokens
// into the text before calling Translate. Backends must pass tokens they do
// not understand through unchanged rather than dropping them.
package translator

import (
	"context"

	"github.com/mandika-app/mandika/pkg/lang"
)

// Backend is the abstraction over any translation engine.
//
// Implementations must be safe for concurrent use from multiple goroutines
// and should propagate context cancellation promptly: when ctx is cancelled
// the method must return as quickly as possible.
type Backend interface {
	// Translate renders text from the source language into the target
	// language and returns the translated string. The input text may contain
	// opaque placeholder tokens that must survive translation verbatim.
	//
	// Returns an error if the engine is unreachable, rejects the request, or
	// if ctx is cancelled before the translation arrives. Transient failures
	// should be reported as plain errors; the caller decides whether to retry.
	Translate(ctx context.Context, text string, from, to lang.Code) (string, error)
}
