// Package assistant wires the market-vendor subsystems into one facade.
//
// An [Assistant] owns the commodity catalog, the fuzzy resolver, the haggling
// advisor, the term-preserving translation service and the sale journal. New
// creates and connects everything from a config; Close persists what must
// survive and tears the rest down.
//
// For testing, inject doubles via functional options (WithStore,
// WithBackend, WithClock, etc.). When an option is not provided, New creates
// real implementations from the config.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/mandika-app/mandika/internal/advisor"
	"github.com/mandika-app/mandika/internal/catalog"
	"github.com/mandika-app/mandika/internal/config"
	"github.com/mandika-app/mandika/internal/journal"
	"github.com/mandika-app/mandika/internal/kv"
	"github.com/mandika-app/mandika/internal/observe"
	"github.com/mandika-app/mandika/internal/resolver"
	"github.com/mandika-app/mandika/internal/translate"
	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
	"github.com/mandika-app/mandika/pkg/translator/phrasebook"
)

// Assistant owns all subsystem lifetimes and answers the vendor-facing
// operations: price lookup, negotiation advice, translation, bookkeeping.
type Assistant struct {
	cfg *config.Config

	// mu guards the catalog-derived trio, which is swapped wholesale when a
	// watched price sheet reloads.
	mu  sync.RWMutex
	cat *catalog.Catalog
	res *resolver.Resolver
	adv *advisor.Advisor

	translations *translate.Service
	sales        *journal.Book
	store        kv.Store
	backend      translator.Backend
	watcher      *catalog.Watcher
	metrics      *observe.Metrics
	log          *slog.Logger
	now          func() time.Time
	rng          *rand.Rand

	// closers are called in order during Close.
	closers []func() error

	// stopOnce guards the Close path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*Assistant)

// WithStore injects a slot store instead of creating one from config. The
// caller keeps ownership: Close will not close an injected store.
func WithStore(s kv.Store) Option {
	return func(a *Assistant) { a.store = s }
}

// WithBackend injects a translation backend instead of the bundled
// phrasebook.
func WithBackend(b translator.Backend) Option {
	return func(a *Assistant) { a.backend = b }
}

// WithCatalog injects a prebuilt catalog; config catalog paths are ignored.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *Assistant) { a.cat = c }
}

// WithClock overrides the time source used for journal entries and cache
// bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithRand seeds the advisor's phrasing picks so output is deterministic.
func WithRand(r *rand.Rand) Option {
	return func(a *Assistant) { a.rng = r }
}

// WithMetrics overrides the process-wide metrics instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

// WithLogger routes the assistant's logs.
func WithLogger(log *slog.Logger) Option {
	return func(a *Assistant) { a.log = log }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an Assistant by wiring all subsystems together. Use Option
// functions to inject test doubles for any of them.
//
// New performs all initialisation synchronously: store construction, catalog
// loading (plus the price sheet watcher when configured), translation cache
// restore and journal restore.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Assistant, error) {
	a := &Assistant{
		cfg: cfg,
		log: slog.Default(),
		now: time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Slot store ────────────────────────────────────────────────────
	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("assistant: init store: %w", err)
	}

	// ── 2. Catalog + resolver + advisor ──────────────────────────────────
	if err := a.initCatalog(); err != nil {
		return nil, fmt.Errorf("assistant: init catalog: %w", err)
	}

	// ── 3. Translation service ───────────────────────────────────────────
	a.initTranslations(ctx)

	// ── 4. Sale journal ──────────────────────────────────────────────────
	a.sales = journal.New(ctx, a.store,
		journal.WithClock(a.now),
		journal.WithLogger(a.log),
		journal.WithMetrics(a.metrics),
	)

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore builds the slot store named by the config unless one was
// injected.
func (a *Assistant) initStore() error {
	if a.store != nil {
		return nil
	}

	switch a.cfg.Store.Kind {
	case config.StoreMemory:
		a.store = kv.NewMemStore()
	case config.StoreFile:
		s, err := kv.NewFileStore(a.cfg.Store.Dir)
		if err != nil {
			return err
		}
		a.store = s
	case config.StoreSQLite:
		s, err := kv.OpenSQLite(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		a.store = s
	default:
		return fmt.Errorf("unknown store kind %q", a.cfg.Store.Kind)
	}

	a.closers = append(a.closers, a.store.Close)
	return nil
}

// initCatalog loads the price sheet and builds the resolver and advisor over
// it. With catalog.watch enabled the watcher owns the initial load and keeps
// reloading behind the scenes.
func (a *Assistant) initCatalog() error {
	switch {
	case a.cat != nil:
		// Injected; config paths are ignored.
	case a.cfg.Catalog.Watch && a.cfg.Catalog.Path != "":
		w, err := catalog.NewWatcher(a.cfg.Catalog.Path, a.onSheetChange)
		if err != nil {
			return err
		}
		a.watcher = w
		a.cat = w.Current()
		a.closers = append(a.closers, func() error {
			w.Stop()
			return nil
		})
	case a.cfg.Catalog.Path != "":
		cat, err := catalog.LoadFile(a.cfg.Catalog.Path)
		if err != nil {
			return err
		}
		a.cat = cat
	default:
		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		a.cat = cat
	}

	a.setCatalog(a.cat)
	a.log.Info("catalog ready", "commodities", a.cat.Len(), "watching", a.watcher != nil)
	return nil
}

// initTranslations builds the translation service over the slot store,
// defaulting the backend to the bundled phrasebook.
func (a *Assistant) initTranslations(ctx context.Context) {
	if a.backend == nil {
		a.backend = phrasebook.New()
	}

	opts := []translate.Option{
		translate.WithStore(a.store),
		translate.WithMetrics(a.metrics),
		translate.WithLogger(a.log),
		translate.WithClock(a.now),
	}
	if n := a.cfg.Translation.CacheCapacity; n > 0 {
		opts = append(opts, translate.WithCapacity(n))
	}
	a.translations = translate.New(ctx, a.backend, opts...)
}

// setCatalog swaps in cat and rebuilds the resolver and advisor indices over
// it.
func (a *Assistant) setCatalog(cat *catalog.Catalog) {
	res := resolver.New(cat)

	advOpts := []advisor.Option{
		advisor.WithResolver(res),
		advisor.WithDefaultLanguage(a.cfg.Languages.Customer),
	}
	if a.rng != nil {
		advOpts = append(advOpts, advisor.WithRand(a.rng))
	}
	adv := advisor.New(cat, advOpts...)

	a.mu.Lock()
	a.cat, a.res, a.adv = cat, res, adv
	a.mu.Unlock()
}

// onSheetChange logs what a price sheet reload changed, then swaps the
// catalog in.
func (a *Assistant) onSheetChange(old, new *catalog.Catalog) {
	for _, cd := range catalog.Diff(old, new).Changes {
		switch {
		case cd.Added:
			a.log.Info("price sheet: commodity added", "id", cd.ID)
		case cd.Removed:
			a.log.Info("price sheet: commodity removed", "id", cd.ID)
		default:
			a.log.Info("price sheet: commodity updated", "id", cd.ID,
				"price", cd.PriceChanged, "trend", cd.TrendChanged, "unit", cd.UnitChanged)
		}
	}
	a.setCatalog(new)
}

// ─── Operations ──────────────────────────────────────────────────────────────

// Resolve maps free-text produce talk to a catalog commodity. The boolean is
// false when nothing clears the resolver's similarity bar.
func (a *Assistant) Resolve(query string) (catalog.Commodity, bool) {
	start := time.Now()
	m, ok := a.resolverNow().Resolve(query)

	mctx := context.Background()
	a.metrics.ResolveDuration.Record(mctx, time.Since(start).Seconds())
	if !ok {
		a.metrics.RecordResolution(mctx, "no_match")
		return catalog.Commodity{}, false
	}
	a.metrics.RecordResolution(mctx, "match")
	return m.Commodity, true
}

// Lookup resolves query and renders a one-line price answer for display,
// e.g. "Onion (प्याज़): ₹20-35 per kg at Lasalgaon Mandi, falling". The
// boolean reports whether the query matched; when it did not, the text
// carries did-you-mean candidates if any names come close.
func (a *Assistant) Lookup(query string) (string, bool) {
	start := time.Now()
	res := a.resolverNow()
	m, ok := res.Resolve(query)

	mctx := context.Background()
	a.metrics.ResolveDuration.Record(mctx, time.Since(start).Seconds())
	if ok {
		a.metrics.RecordResolution(mctx, "match")
		return a.renderPrice(m.Commodity), true
	}
	a.metrics.RecordResolution(mctx, "no_match")

	msg := fmt.Sprintf("no price on the sheet for %q", query)
	if sugg := res.Suggest(query, 0); len(sugg) > 0 {
		names := make([]string, len(sugg))
		for i, s := range sugg {
			names[i] = s.Name
		}
		msg += "; did you mean " + strings.Join(names, ", ") + "?"
	}
	return msg, false
}

// renderPrice formats one commodity's price line, naming it in the vendor's
// language alongside the canonical name when the two differ.
func (a *Assistant) renderPrice(rec catalog.Commodity) string {
	name := rec.Name
	if local := catalog.DisplayName(rec, a.cfg.Languages.Vendor); local != rec.Name {
		name = fmt.Sprintf("%s (%s)", rec.Name, local)
	}
	return fmt.Sprintf("%s: %s, %s", name, catalog.FormatRange(rec), rec.Trend)
}

// Advise returns a haggling suggestion for the round described by haggle.
// Languages left empty are filled from the config before the advisor sees
// them.
func (a *Assistant) Advise(haggle advisor.Context) advisor.Suggestion {
	if haggle.BuyerLang == "" {
		haggle.BuyerLang = a.cfg.Languages.Customer
	}
	if haggle.CounterpartLang == "" {
		haggle.CounterpartLang = a.cfg.Languages.Vendor
	}

	start := time.Now()
	s := a.advisorNow().Advise(haggle)

	mctx := context.Background()
	a.metrics.AdviseDuration.Record(mctx, time.Since(start).Seconds())
	a.metrics.RecordSuggestion(mctx, string(s.Kind))
	return s
}

// IsStalled reports whether a run of offers has stopped moving.
func (a *Assistant) IsStalled(offers []float64) bool {
	return advisor.IsStalled(offers)
}

// SuggestCompromise proposes the midpoint between two stuck positions.
func (a *Assistant) SuggestCompromise(vendor, buyer float64) advisor.Suggestion {
	s := a.advisorNow().SuggestCompromise(vendor, buyer)
	a.metrics.RecordSuggestion(context.Background(), string(s.Kind))
	return s
}

// Translate converts text between languages, shielding prices and commercial
// terms from the backend. Caching, retries and metrics happen inside the
// translation service.
func (a *Assistant) Translate(ctx context.Context, text string, from, to lang.Code) translate.Result {
	return a.translations.Translate(ctx, text, from, to)
}

// ShouldFlagForReview reports whether a translation is too uncertain to
// trust unreviewed.
func (a *Assistant) ShouldFlagForReview(r translate.Result) bool {
	return translate.ShouldFlagForReview(r)
}

// RecordSale validates and journals a completed sale.
func (a *Assistant) RecordSale(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	return a.sales.Add(ctx, e)
}

// History returns journaled sales, newest first.
func (a *Assistant) History(ctx context.Context) []journal.Entry {
	return a.sales.List(ctx)
}

// SalesSummary aggregates the journal into totals for display.
func (a *Assistant) SalesSummary(ctx context.Context) journal.Summary {
	return a.sales.Summary(ctx)
}

// Catalog returns the live catalog. With a watched price sheet the returned
// value goes stale after a reload; call again rather than holding on to it.
func (a *Assistant) Catalog() *catalog.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cat
}

// Backend returns the translation backend in use, for health probes.
func (a *Assistant) Backend() translator.Backend {
	return a.backend
}

// ─── Close ───────────────────────────────────────────────────────────────────

// Close persists the translation cache, then tears down the remaining
// subsystems in order. It respects the context deadline: if ctx expires
// before all closers finish, the rest are skipped and the context error is
// returned.
func (a *Assistant) Close(ctx context.Context) error {
	var closeErr error
	a.stopOnce.Do(func() {
		if err := a.translations.Close(ctx); err != nil {
			a.log.Warn("persisting translation cache on close", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.log.Warn("close deadline exceeded", "remaining", len(a.closers)-i)
				closeErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.log.Warn("closer error", "index", i, "err", err)
			}
		}
	})
	return closeErr
}

// ─── Internal accessors ──────────────────────────────────────────────────────

// resolverNow returns the current resolver under the swap lock.
func (a *Assistant) resolverNow() *resolver.Resolver {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.res
}

// advisorNow returns the current advisor under the swap lock.
func (a *Assistant) advisorNow() *advisor.Advisor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.adv
}
