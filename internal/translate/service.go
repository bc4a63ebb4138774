package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go"

	"github.com/mandika-app/mandika/internal/kv"
	"github.com/mandika-app/mandika/internal/observe"
	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
)

// CacheSlot is the store slot the translation cache persists itself under.
const CacheSlot = "translation_cache"

// backendAttempts is the total number of tries against the backend before a
// call degrades.
const backendAttempts = 3

// defaultSlowBudget is the soft latency budget. Translations are never cut
// short; crossing the budget only logs a warning and bumps a counter.
const defaultSlowBudget = 2 * time.Second

// confidence scoring constants. Scores start at base, take length penalties,
// and collapse to noop when the backend apparently did nothing.
const (
	baseConfidence   = 0.9
	shortTextRunes   = 10
	shortTextPenalty = 0.1
	longTextRunes    = 500
	longTextPenalty  = 0.05
	noopConfidence   = 0.5
)

// Option configures a [Service].
type Option func(*Service)

// WithStore sets the slot store the cache is loaded from and persisted to.
// Without a store the cache lives only in memory.
func WithStore(store kv.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithCapacity bounds the cache to n entries. Defaults to [DefaultCapacity].
func WithCapacity(n int) Option {
	return func(s *Service) { s.capacity = n }
}

// WithMetrics sets the metrics instance to record against. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock sets the time source used for cache bookkeeping, result
// timestamps, and the slow-translation budget. Defaults to [time.Now].
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSlowBudget sets the soft latency budget. Defaults to two seconds.
func WithSlowBudget(d time.Duration) Option {
	return func(s *Service) { s.budget = d }
}

// Service translates text through a pluggable backend, shielding commercial
// terms and caching results. All methods are safe for concurrent use.
type Service struct {
	backend  translator.Backend
	store    kv.Store
	metrics  *observe.Metrics
	log      *slog.Logger
	now      func() time.Time
	budget   time.Duration
	capacity int

	mu    sync.Mutex
	cache *Cache
}

// New builds a Service around backend and eagerly loads any persisted cache.
// Construction never fails: a missing slot starts an empty cache and a
// corrupt one is logged and discarded.
func New(ctx context.Context, backend translator.Backend, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		metrics:  observe.DefaultMetrics(),
		log:      slog.Default(),
		now:      time.Now,
		budget:   defaultSlowBudget,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewCache(s.capacity)
	s.loadCache(ctx)
	return s
}

// Translate renders text from one language into another. It never returns an
// error: backend failures degrade to the original text with zero confidence
// so the caller always has something to show.
func (s *Service) Translate(ctx context.Context, text string, from, to lang.Code) Result {
	start := s.now()
	from, to = lang.Normalize(from), lang.Normalize(to)
	key := cacheKey(text, from, to)

	s.mu.Lock()
	if r, ok := s.cache.Get(key, s.now()); ok {
		s.mu.Unlock()
		s.metrics.RecordTranslation(ctx, "cache", "ok")
		s.observeDuration(ctx, start)
		return r
	}
	s.mu.Unlock()

	if from == to {
		r := Result{
			Original:   text,
			Translated: text,
			From:       from,
			To:         to,
			Confidence: 1,
			CreatedAt:  s.now(),
		}
		s.metrics.RecordTranslation(ctx, "identity", "ok")
		s.observeDuration(ctx, start)
		return r
	}

	ex := extractTerms(text)

	translated, err := s.callBackend(ctx, ex.working, from, to)
	if err != nil {
		s.log.Warn("translation backend failed, returning original text",
			"from", from, "to", to, "error", err)
		s.metrics.BackendErrors.Add(ctx, 1)
		s.metrics.RecordTranslation(ctx, "backend", "degraded")
		s.observeDuration(ctx, start)
		// Not cached: the next identical request gets a fresh shot at the
		// backend instead of a stored failure.
		return Result{
			Original:       text,
			Translated:     text,
			From:           from,
			To:             to,
			Confidence:     0,
			PreservedTerms: ex.originals(),
			CreatedAt:      s.now(),
		}
	}

	r := Result{
		Original:       text,
		Translated:     ex.restore(translated),
		From:           from,
		To:             to,
		PreservedTerms: ex.originals(),
		CreatedAt:      s.now(),
	}
	r.Confidence = confidence(r)

	s.mu.Lock()
	before := s.cache.Len()
	evicted := s.cache.Put(key, r, s.now())
	grown := s.cache.Len() - before
	snapshot := s.cache.Snapshot()
	s.mu.Unlock()

	if evicted {
		s.metrics.CacheEvictions.Add(ctx, 1)
	}
	if grown != 0 {
		s.metrics.CacheEntries.Add(ctx, int64(grown))
	}
	s.persist(ctx, snapshot)

	s.metrics.RecordTranslation(ctx, "backend", "ok")
	if ShouldFlagForReview(r) {
		s.metrics.ReviewFlags.Add(ctx, 1)
	}
	s.observeDuration(ctx, start)
	return r
}

// CacheLen returns the number of live cache entries.
func (s *Service) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Close persists the cache one final time so usage counters accumulated by
// cache hits survive a restart. It does not close the underlying store.
func (s *Service) Close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	snapshot := s.cache.Snapshot()
	s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("translate: encoding cache: %w", err)
	}
	if err := s.store.Save(ctx, CacheSlot, data); err != nil {
		return fmt.Errorf("translate: persisting cache: %w", err)
	}
	return nil
}

// callBackend delegates to the backend with bounded backoff retries. Context
// errors abort immediately instead of burning the remaining attempts.
func (s *Service) callBackend(ctx context.Context, text string, from, to lang.Code) (string, error) {
	var out string
	err := retry.Do(
		func() error {
			translated, err := s.backend.Translate(ctx, text, from, to)
			if err != nil {
				if ctx.Err() != nil {
					return retry.Unrecoverable(err)
				}
				return err
			}
			out = translated
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(backendAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// loadCache restores the persisted cache. Any failure leaves the cache empty
// rather than failing construction.
func (s *Service) loadCache(ctx context.Context) {
	if s.store == nil {
		return
	}
	data, err := s.store.Load(ctx, CacheSlot)
	if err != nil {
		if !errors.Is(err, kv.ErrSlotNotFound) {
			s.log.Warn("loading translation cache, starting empty", "error", err)
		}
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn("translation cache slot is corrupt, starting empty", "error", err)
		return
	}
	s.mu.Lock()
	s.cache.Restore(entries)
	n := s.cache.Len()
	s.mu.Unlock()
	if n > 0 {
		s.metrics.CacheEntries.Add(ctx, int64(n))
	}
}

// persist writes the whole cache to its slot. Persistence failures are
// logged, never surfaced: translation stays usable on a read-only disk.
func (s *Service) persist(ctx context.Context, snapshot []Entry) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Warn("encoding translation cache", "error", err)
		return
	}
	if err := s.store.Save(ctx, CacheSlot, data); err != nil {
		s.log.Warn("persisting translation cache", "error", err)
	}
}

// observeDuration records the call latency and flags budget overruns.
func (s *Service) observeDuration(ctx context.Context, start time.Time) {
	elapsed := s.now().Sub(start)
	s.metrics.TranslateDuration.Record(ctx, elapsed.Seconds())
	if elapsed > s.budget {
		s.log.Warn("translation exceeded soft budget", "elapsed", elapsed, "budget", s.budget)
		s.metrics.SlowTranslations.Add(ctx, 1)
	}
}

// cacheKey builds the lookup key. Text is lowercased and trimmed so casing
// and stray whitespace do not fragment the cache.
func cacheKey(text string, from, to lang.Code) string {
	return string(from) + "|" + string(to) + "|" + strings.ToLower(strings.TrimSpace(text))
}

// confidence scores a completed translation. The no-op collapse fires when
// the backend returned the input unchanged for differing languages, which
// usually means it did not understand the text at all.
func confidence(r Result) float64 {
	conf := baseConfidence
	runes := utf8.RuneCountInString(r.Original)
	if runes < shortTextRunes {
		conf -= shortTextPenalty
	}
	if runes > longTextRunes {
		conf -= longTextPenalty
	}
	if r.Translated == r.Original && r.From != r.To {
		conf = noopConfidence
	}
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
