// Package catalog holds the static commodity price table the assistant works
// from.
//
// A [Catalog] is built once at startup, either from the embedded starter data
// ([Default]) or from a vendor-supplied YAML file ([LoadFile]), and is
// read-only afterwards. The resolver scores queries against it and the
// advisor derives reference prices from it; neither ever mutates it.
package catalog

import "github.com/mandika-app/mandika/pkg/lang"

// Unit is the quantity basis a commodity is priced in.
type Unit string

const (
	// UnitKilogram prices per kilogram.
	UnitKilogram Unit = "kg"

	// UnitQuintal prices per quintal (100 kg), common for grain lots.
	UnitQuintal Unit = "quintal"

	// UnitDozen prices per twelve pieces.
	UnitDozen Unit = "dozen"

	// UnitPiece prices per single piece.
	UnitPiece Unit = "piece"

	// UnitLitre prices per litre.
	UnitLitre Unit = "litre"
)

// IsValid reports whether u is a recognised unit.
func (u Unit) IsValid() bool {
	switch u {
	case UnitKilogram, UnitQuintal, UnitDozen, UnitPiece, UnitLitre:
		return true
	}
	return false
}

// ByWeight reports whether u measures weight rather than count or volume.
func (u Unit) ByWeight() bool {
	return u == UnitKilogram || u == UnitQuintal
}

// Trend is the short-term price direction recorded for a commodity.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// IsValid reports whether t is a recognised trend.
func (t Trend) IsValid() bool {
	return t == TrendRising || t == TrendFalling || t == TrendStable
}

// Category tags a commodity for filtering and display.
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
	CategoryGrain     Category = "grain"
	CategorySpice     Category = "spice"
	CategoryPulse     Category = "pulse"
	CategoryOil       Category = "oil"
)

// IsValid reports whether c is a recognised category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryVegetable, CategoryFruit, CategoryGrain, CategorySpice, CategoryPulse, CategoryOil:
		return true
	}
	return false
}

// Commodity is one immutable price record. Records are loaded once and never
// mutated at runtime; callers receive copies by value.
type Commodity struct {
	// ID is the unique lowercase slug identifying this record ("onion").
	ID string `yaml:"id"`

	// Name is the canonical English display name ("Onion").
	Name string `yaml:"name"`

	// LocalNames maps language codes to native-script names
	// (hi: "प्याज़", mr: "कांदा").
	LocalNames map[lang.Code]string `yaml:"local_names,omitempty"`

	// Aliases are alternative spellings and transliterations the resolver
	// should also match ("pyaaz", "kanda", "onions").
	Aliases []string `yaml:"aliases,omitempty"`

	// PriceMin and PriceMax bound the going rate per Unit.
	// 0 < PriceMin <= PriceMax.
	PriceMin float64 `yaml:"price_min"`
	PriceMax float64 `yaml:"price_max"`

	// Unit is the quantity basis for the price range.
	Unit Unit `yaml:"unit"`

	// Market labels where the range was observed ("Lasalgaon Mandi").
	Market string `yaml:"market,omitempty"`

	// Trend is the short-term direction of the range.
	Trend Trend `yaml:"trend"`

	// Category groups the commodity for filtering.
	Category Category `yaml:"category"`
}

// ReferencePrice returns the midpoint of the price range. The advisor uses
// it whenever a caller has no fresher reference to offer.
func (c Commodity) ReferencePrice() float64 {
	return (c.PriceMin + c.PriceMax) / 2
}

// MatchStrings returns every string the resolver may score this record
// against: the canonical name, then aliases, then local names. The order is
// stable so ties break the same way on every run.
func (c Commodity) MatchStrings() []string {
	out := make([]string, 0, 1+len(c.Aliases)+len(c.LocalNames))
	out = append(out, c.Name)
	out = append(out, c.Aliases...)
	for _, code := range lang.Known {
		if n, ok := c.LocalNames[code]; ok && n != "" {
			out = append(out, n)
		}
	}
	return out
}
