// Package mock provides a test double for the translator.Backend interface.
//
// Use Backend in unit tests to verify that the translation service sends
// correct requests and to feed controlled responses without a live engine.
// All fields are safe to set before calling any method; mutating them during
// a concurrent call is the caller's responsibility.
//
// Example:
//
//	b := &mock.Backend{Response: "प्याज़ का भाव"}
//	out, err := b.Translate(ctx, "onion price", lang.English, lang.Hindi)
package mock

import (
	"context"
	"sync"

	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
)

// Call records a single invocation of Translate.
type Call struct {
	// Ctx is the context passed to Translate.
	Ctx context.Context
	// Text is the input text passed to Translate.
	Text string
	// From is the source language passed to Translate.
	From lang.Code
	// To is the target language passed to Translate.
	To lang.Code
}

// Backend is a mock implementation of translator.Backend.
// Zero values for response fields cause Translate to echo its input with a
// nil error. Set Err to inject errors.
type Backend struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Response is returned by Translate when non-empty. When empty (and
	// TranslateFunc is nil) Translate echoes the input text, which keeps
	// placeholder tokens intact for round-trip tests.
	Response string

	// Err, if non-nil, is returned as the error from Translate.
	Err error

	// TranslateFunc, if non-nil, overrides Response and Err entirely. Use it
	// to vary output per call or to simulate slow or flaky engines.
	TranslateFunc func(ctx context.Context, text string, from, to lang.Code) (string, error)

	// --- Call records (read after test) ---

	// Calls records every invocation of Translate in order.
	Calls []Call
}

// Translate records the call and returns the configured response.
func (b *Backend) Translate(ctx context.Context, text string, from, to lang.Code) (string, error) {
	b.mu.Lock()
	b.Calls = append(b.Calls, Call{Ctx: ctx, Text: text, From: from, To: to})
	fn := b.TranslateFunc
	resp, err := b.Response, b.Err
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, from, to)
	}
	if err != nil {
		return "", err
	}
	if resp == "" {
		return text, nil
	}
	return resp, nil
}

// CallCount returns the number of recorded Translate invocations. Thread-safe.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = nil
}

// Ensure Backend implements translator.Backend at compile time.
var _ translator.Backend = (*Backend)(nil)
