// Package translate implements term-preserving translation with a bounded,
// persisted LRU cache.
//
// A translation request moves through up to seven stages:
//
//  1. Cache lookup by (from, to, normalised text). A hit refreshes the
//     entry's usage bookkeeping and returns immediately.
//  2. Identity: when source and target language match, the text is returned
//     as-is with full confidence, touching neither cache nor backend.
//  3. Term extraction: currency amounts and fixed market vocabulary are
//     swapped for opaque placeholder tokens so the backend cannot mangle
//     them.
//  4. Backend call through [translator.Backend], wrapped in bounded retries.
//  5. Placeholder restoration in extraction order.
//  6. Confidence scoring with penalties for very short or very long inputs
//     and for apparent no-op translations.
//  7. Cache insert (evicting the least recently used entry at capacity) and
//     full persistence of the cache to its store slot.
//
// A backend that keeps failing degrades the call to the original text with
// zero confidence rather than surfacing an error; callers always get a
// renderable [Result].
package translate

import (
	"time"

	"github.com/mandika-app/mandika/pkg/lang"
)

// Result is the outcome of one translation request. It is always well-formed:
// degraded translations carry the original text and a confidence of zero
// instead of an error.
type Result struct {
	// Original is the input text exactly as the caller supplied it.
	Original string `json:"original"`

	// Translated is the output text with all preserved terms restored. Equal
	// to Original for identity and degraded translations.
	Translated string `json:"translated"`

	// From is the normalised source language.
	From lang.Code `json:"from"`

	// To is the normalised target language.
	To lang.Code `json:"to"`

	// Confidence estimates translation quality in [0, 1]. Identity
	// translations score 1, degraded ones 0.
	Confidence float64 `json:"confidence"`

	// PreservedTerms lists the currency amounts and market vocabulary that
	// were shielded from the backend, in extraction order. Each occurrence is
	// listed separately.
	PreservedTerms []string `json:"preserved_terms,omitempty"`

	// CreatedAt is when the translation was produced. Cache hits keep the
	// original production time.
	CreatedAt time.Time `json:"created_at"`
}

// reviewThreshold is the confidence below which a translation deserves a
// human look before being relied on.
const reviewThreshold = 0.85

// ShouldFlagForReview reports whether r's confidence is too low to trust
// unreviewed. Cache hits inherit the flag of the stored result.
func ShouldFlagForReview(r Result) bool {
	return r.Confidence < reviewThreshold
}
