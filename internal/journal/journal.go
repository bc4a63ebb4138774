// Package journal keeps the vendor's sales record: what was sold, to whom,
// for how much, and how the deal felt.
//
// The journal is the one place in the core where caller mistakes surface as
// errors instead of degraded results: a sale with an impossible rating or a
// non-positive price is refused so the record stays trustworthy. Entries are
// held in memory and rewritten in full to a single store slot on every
// successful append, the same last-writer-wins model the translation cache
// uses.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mandika-app/mandika/internal/catalog"
	"github.com/mandika-app/mandika/internal/kv"
	"github.com/mandika-app/mandika/internal/observe"
)

// Slot is the store slot the journal persists itself under.
const Slot = "journal"

// ErrInvalidRating is returned by Add when a sale's rating falls outside
// the 1 to 5 scale.
var ErrInvalidRating = errors.New("journal: rating must be between 1 and 5")

// Entry is one completed sale.
type Entry struct {
	// ID is assigned by Add.
	ID string `json:"id"`

	// CommodityID names the catalog record that was sold.
	CommodityID string `json:"commodity_id"`

	// Price is the agreed per-unit price. Must be positive.
	Price float64 `json:"price"`

	// Quantity is how much changed hands, in Unit. Must be positive.
	Quantity float64 `json:"quantity"`

	// Unit qualifies Quantity. Optional; when set it must be a known
	// catalog unit.
	Unit catalog.Unit `json:"unit,omitempty"`

	// Counterparty is who bought. Optional free text.
	Counterparty string `json:"counterparty,omitempty"`

	// Rating is the vendor's 1 (poor) to 5 (great) read on the deal.
	Rating int `json:"rating"`

	// Note is optional free text.
	Note string `json:"note,omitempty"`

	// CreatedAt is assigned by Add.
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates the whole journal.
type Summary struct {
	// Count is the number of recorded sales.
	Count int

	// TotalValue is the sum of price times quantity over all sales.
	TotalValue float64

	// AverageRating is the mean deal rating, 0 when the journal is empty.
	AverageRating float64
}

// Option configures a [Book].
type Option func(*Book)

// WithClock sets the time source for entry timestamps. Defaults to
// [time.Now].
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(b *Book) { b.log = log }
}

// WithMetrics sets the metrics instance to record against. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(b *Book) { b.metrics = m }
}

// Book is the sales journal. Safe for concurrent use.
type Book struct {
	store   kv.Store
	metrics *observe.Metrics
	log     *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries []Entry
}

// New builds a Book over store and eagerly loads any persisted entries.
// Construction never fails: a missing slot starts an empty journal and a
// corrupt one is logged and discarded. A nil store keeps the journal in
// memory only.
func New(ctx context.Context, store kv.Store, opts ...Option) *Book {
	b := &Book{
		store:   store,
		metrics: observe.DefaultMetrics(),
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.load(ctx)
	return b
}

// Add validates e, assigns its ID and timestamp, appends it, and persists
// the journal. The returned Entry carries the assigned fields.
//
// Validation failures leave the journal untouched. A persistence failure
// keeps the entry in memory and returns an error; the next successful Add
// rewrites the whole journal, healing the slot.
func (b *Book) Add(ctx context.Context, e Entry) (Entry, error) {
	var errs []error
	if strings.TrimSpace(e.CommodityID) == "" {
		errs = append(errs, errors.New("commodity id is required"))
	}
	if e.Price <= 0 {
		errs = append(errs, fmt.Errorf("price must be positive, got %v", e.Price))
	}
	if e.Quantity <= 0 {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %v", e.Quantity))
	}
	if e.Rating < 1 || e.Rating > 5 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrInvalidRating, e.Rating))
	}
	if e.Unit != "" && !e.Unit.IsValid() {
		errs = append(errs, fmt.Errorf("unknown unit %q", e.Unit))
	}
	if len(errs) > 0 {
		return Entry{}, fmt.Errorf("journal: invalid sale: %w", errors.Join(errs...))
	}

	e.ID = uuid.NewString()
	e.CreatedAt = b.now()

	b.mu.Lock()
	b.entries = append(b.entries, e)
	snapshot := make([]Entry, len(b.entries))
	copy(snapshot, b.entries)
	b.mu.Unlock()

	b.metrics.RecordJournalEntry(ctx, e.CommodityID)

	if err := b.persist(ctx, snapshot); err != nil {
		return e, fmt.Errorf("journal: sale recorded but not persisted: %w", err)
	}
	return e, nil
}

// List returns a copy of all entries, newest first.
func (b *Book) List(ctx context.Context) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		out[len(b.entries)-1-i] = e
	}
	return out
}

// Summary aggregates the journal.
func (b *Book) Summary(ctx context.Context) Summary {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Summary{Count: len(b.entries)}
	if s.Count == 0 {
		return s
	}
	var ratings int
	for _, e := range b.entries {
		s.TotalValue += e.Price * e.Quantity
		ratings += e.Rating
	}
	s.AverageRating = float64(ratings) / float64(s.Count)
	return s
}

// load restores persisted entries. Any failure leaves the journal empty.
func (b *Book) load(ctx context.Context) {
	if b.store == nil {
		return
	}
	data, err := b.store.Load(ctx, Slot)
	if err != nil {
		if !errors.Is(err, kv.ErrSlotNotFound) {
			b.log.Warn("loading journal, starting empty", "error", err)
		}
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		b.log.Warn("journal slot is corrupt, starting empty", "error", err)
		return
	}
	b.mu.Lock()
	b.entries = entries
	b.mu.Unlock()
}

func (b *Book) persist(ctx context.Context, entries []Entry) error {
	if b.store == nil {
		return nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return b.store.Save(ctx, Slot, data)
}
