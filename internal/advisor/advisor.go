// Package advisor turns a price offer into a typed negotiation suggestion.
//
// The rules mirror how seasoned mandi vendors actually haggle. With a
// reference price in hand, the offer's deviation decides the move:
//
//   - more than 15% above: counter slightly over market, politely
//   - more than 15% below: reject the first lowball politely, counter
//     repeated lowballs at the same price but firmly
//   - within 5%: accept when the haggling already has history, otherwise
//     answer a fair first offer with a token counter
//   - anything between: counter at the market rate, politely
//
// The reference price comes from the caller, or failing that from the
// catalog record, or failing that from resolving the commodity text. When
// none of those yields a price the advisor still answers, with neutral
// informational advice. Advise never returns an error or a half-filled
// suggestion.
//
// Counter prices are whole currency units ([math.Round]); messages are
// phrased per the buyer's language by templates.go with an injectable
// random source so tests stay deterministic.
package advisor

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/mandika-app/mandika/internal/catalog"
	"github.com/mandika-app/mandika/internal/resolver"
	"github.com/mandika-app/mandika/pkg/lang"
)

// Kind classifies a suggestion.
type Kind string

const (
	// KindCounter proposes a different price.
	KindCounter Kind = "counter"

	// KindAccept takes the offer as it stands.
	KindAccept Kind = "accept"

	// KindReject turns the offer down, naming a floor price.
	KindReject Kind = "reject"

	// KindInfo gives general advice when no reference price is known.
	KindInfo Kind = "info"
)

// IsValid reports whether k is a recognised suggestion kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindCounter, KindAccept, KindReject, KindInfo:
		return true
	}
	return false
}

// Tone is the register the suggestion should be delivered in.
type Tone string

const (
	TonePolite  Tone = "polite"
	ToneNeutral Tone = "neutral"
	ToneFirm    Tone = "firm"
)

// IsValid reports whether t is a recognised tone.
func (t Tone) IsValid() bool {
	return t == TonePolite || t == ToneNeutral || t == ToneFirm
}

// Context describes one round of haggling.
type Context struct {
	// CommodityID names what is being haggled over. Used to look up a
	// reference price when ReferencePrice is zero; free text is tolerated
	// and resolved fuzzily.
	CommodityID string

	// ReferencePrice is the going market rate. Zero means unknown.
	ReferencePrice float64

	// CurrentOffer is the offer on the table.
	CurrentOffer float64

	// PreviousOffers are the earlier offers of this haggle, oldest first.
	PreviousOffers []float64

	// BuyerLang selects the phrasing language for Message. Unsupported or
	// empty codes fall back to English.
	BuyerLang lang.Code

	// CounterpartLang is the other side's language, recorded for callers
	// that route Message through translation. The advisor itself only
	// phrases for the buyer.
	CounterpartLang lang.Code
}

// Suggestion is the advisor's answer. Price is zero for accept and info
// suggestions and strictly positive otherwise.
type Suggestion struct {
	Kind      Kind
	Message   string
	Price     float64
	Rationale string
	Tone      Tone
}

// Option is a functional option for configuring an [Advisor].
type Option func(*Advisor)

// WithRand sets the random source used to vary message phrasing. Default: a
// process-seeded PCG source.
func WithRand(r *rand.Rand) Option {
	return func(ad *Advisor) {
		ad.rng = r
	}
}

// WithResolver lets reference price lookup fall back to fuzzy resolution
// when the commodity id is not an exact catalog id.
func WithResolver(r *resolver.Resolver) Option {
	return func(ad *Advisor) {
		ad.res = r
	}
}

// WithDefaultLanguage sets the phrasing language used by
// [Advisor.SuggestCompromise], which has no per-call language. Default:
// [lang.Default].
func WithDefaultLanguage(code lang.Code) Option {
	return func(ad *Advisor) {
		ad.defaultLang = lang.Normalize(code)
	}
}

// Advisor evaluates offers against reference prices. Safe for concurrent
// use; the only mutable state is the phrasing random source, which is
// mutex-guarded.
type Advisor struct {
	cat         *catalog.Catalog
	res         *resolver.Resolver
	defaultLang lang.Code

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns an [Advisor] drawing reference prices from cat. cat may be nil
// when every caller supplies its own reference price.
func New(cat *catalog.Catalog, opts ...Option) *Advisor {
	ad := &Advisor{
		cat:         cat,
		defaultLang: lang.Default,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(ad)
	}
	return ad
}

// Advise classifies the offer in ctx and returns a complete suggestion.
// Every path yields a well-formed suggestion; Advise never errors.
func (ad *Advisor) Advise(ctx Context) Suggestion {
	ref := ad.lookupReference(ctx)
	if ref <= 0 {
		return ad.suggest(KindInfo, ToneNeutral, 0, ctx.BuyerLang,
			"no reference price available")
	}

	offer := ctx.CurrentOffer
	diff := (offer - ref) / ref * 100

	switch {
	case diff > 15:
		return ad.suggest(KindCounter, TonePolite, roundPrice(ref*1.05), ctx.BuyerLang,
			fmt.Sprintf("offer %.2f is %.1f%% above reference %.2f", offer, diff, ref))

	case diff < -15:
		price := roundPrice(ref * 0.95)
		if len(ctx.PreviousOffers) == 0 {
			return ad.suggest(KindReject, TonePolite, price, ctx.BuyerLang,
				fmt.Sprintf("first offer %.2f is %.1f%% below reference %.2f", offer, -diff, ref))
		}
		return ad.suggest(KindCounter, ToneFirm, price, ctx.BuyerLang,
			fmt.Sprintf("offer %.2f still %.1f%% below reference %.2f after %d earlier offers",
				offer, -diff, ref, len(ctx.PreviousOffers)))

	case math.Abs(diff) <= 5:
		if len(ctx.PreviousOffers) > 0 {
			return ad.suggest(KindAccept, TonePolite, 0, ctx.BuyerLang,
				fmt.Sprintf("offer %.2f within 5%% of reference %.2f after earlier offers", offer, ref))
		}
		return ad.suggest(KindCounter, TonePolite, roundPrice(offer*0.98), ctx.BuyerLang,
			fmt.Sprintf("fair first offer %.2f, token counter below it", offer))

	default:
		return ad.suggest(KindCounter, TonePolite, roundPrice(ref), ctx.BuyerLang,
			fmt.Sprintf("offer %.2f is %.1f%% from reference %.2f, counter at market", offer, diff, ref))
	}
}

// SuggestCompromise proposes meeting in the middle of two positions. Used by
// callers once [IsStalled] reports a plateau.
func (ad *Advisor) SuggestCompromise(a, b float64) Suggestion {
	return ad.suggest(KindCounter, TonePolite, roundPrice((a+b)/2), ad.defaultLang,
		fmt.Sprintf("midpoint between %.2f and %.2f", a, b))
}

// stallWindow and stallTolerance define a plateau: the last stallWindow
// offers all within stallTolerance of their mean.
const (
	stallWindow    = 3
	stallTolerance = 0.02
)

// IsStalled reports whether a negotiation has plateaued. Fewer than three
// offers never count as stalled.
func IsStalled(offers []float64) bool {
	if len(offers) < stallWindow {
		return false
	}
	last := offers[len(offers)-stallWindow:]
	var mean float64
	for _, o := range last {
		mean += o
	}
	mean /= float64(len(last))
	for _, o := range last {
		if math.Abs(o-mean) > stallTolerance*math.Abs(mean) {
			return false
		}
	}
	return true
}

// lookupReference finds a reference price for ctx: the caller's own value
// first, then the catalog record, then fuzzy resolution of the commodity
// text. Zero means nothing usable was found.
func (ad *Advisor) lookupReference(ctx Context) float64 {
	if ctx.ReferencePrice > 0 {
		return ctx.ReferencePrice
	}
	if ctx.CommodityID == "" {
		return 0
	}
	if ad.cat != nil {
		if rec, ok := ad.cat.ByID(ctx.CommodityID); ok {
			return rec.ReferencePrice()
		}
	}
	if ad.res != nil {
		if m, ok := ad.res.Resolve(ctx.CommodityID); ok {
			return m.Commodity.ReferencePrice()
		}
	}
	return 0
}

// suggest assembles a suggestion with a phrased message.
func (ad *Advisor) suggest(kind Kind, tone Tone, price float64, code lang.Code, rationale string) Suggestion {
	return Suggestion{
		Kind:      kind,
		Message:   ad.phrase(kind, code, price),
		Price:     price,
		Rationale: rationale,
		Tone:      tone,
	}
}

// pick draws a phrasing index; the random source is not concurrency-safe on
// its own.
func (ad *Advisor) pick(n int) int {
	ad.mu.Lock()
	defer ad.mu.Unlock()
	return ad.rng.IntN(n)
}

// roundPrice rounds to whole currency units, never below one unit.
func roundPrice(v float64) float64 {
	p := math.Round(v)
	if p < 1 {
		p = 1
	}
	return p
}
