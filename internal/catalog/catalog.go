package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mandika-app/mandika/pkg/lang"
)

// ErrEmpty is returned by [New] when no commodities are given.
var ErrEmpty = errors.New("catalog: no commodities")

// Catalog is an immutable, ordered collection of [Commodity] records.
// The zero value is empty but usable; build real catalogs with [New],
// [Default] or [LoadFile].
type Catalog struct {
	records []Commodity
	byID    map[string]int
}

// New validates the given records and builds a catalog preserving their
// order. All validation failures are reported together.
func New(records []Commodity) (*Catalog, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	byID := make(map[string]int, len(records))
	var errs []error
	for i, rec := range records {
		label := rec.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if rec.ID == "" {
			errs = append(errs, fmt.Errorf("commodity %s: missing id", label))
		} else if prev, dup := byID[rec.ID]; dup {
			errs = append(errs, fmt.Errorf("commodity %s: duplicate id (first at index %d)", label, prev))
		} else {
			byID[rec.ID] = i
		}
		if rec.Name == "" {
			errs = append(errs, fmt.Errorf("commodity %s: missing name", label))
		}
		if rec.PriceMin <= 0 {
			errs = append(errs, fmt.Errorf("commodity %s: price_min must be positive, got %v", label, rec.PriceMin))
		}
		if rec.PriceMax < rec.PriceMin {
			errs = append(errs, fmt.Errorf("commodity %s: price_max %v below price_min %v", label, rec.PriceMax, rec.PriceMin))
		}
		if !rec.Unit.IsValid() {
			errs = append(errs, fmt.Errorf("commodity %s: unknown unit %q", label, rec.Unit))
		}
		if !rec.Trend.IsValid() {
			errs = append(errs, fmt.Errorf("commodity %s: unknown trend %q", label, rec.Trend))
		}
		if !rec.Category.IsValid() {
			errs = append(errs, fmt.Errorf("commodity %s: unknown category %q", label, rec.Category))
		}
		for code := range rec.LocalNames {
			if !code.IsKnown() {
				errs = append(errs, fmt.Errorf("commodity %s: unknown language %q in local_names", label, code))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog: invalid records: %w", errors.Join(errs...))
	}

	recs := make([]Commodity, len(records))
	copy(recs, records)
	return &Catalog{records: recs, byID: byID}, nil
}

// ByID returns the commodity with the given id and whether it exists.
func (c *Catalog) ByID(id string) (Commodity, bool) {
	if c == nil || c.byID == nil {
		return Commodity{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Commodity{}, false
	}
	return c.records[i], true
}

// All returns the records in catalog order. The slice is a copy; mutating it
// does not affect the catalog.
func (c *Catalog) All() []Commodity {
	if c == nil {
		return nil
	}
	out := make([]Commodity, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// ByCategory returns the records of the given category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Commodity {
	if c == nil {
		return nil
	}
	var out []Commodity
	for _, rec := range c.records {
		if rec.Category == cat {
			out = append(out, rec)
		}
	}
	return out
}

// Names returns every canonical name, sorted, for display and suggestion
// lists.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec.Name)
	}
	sort.Strings(out)
	return out
}

// DisplayName returns the record's name in the requested language, falling
// back to the canonical English name when no local name is recorded.
func DisplayName(rec Commodity, code lang.Code) string {
	if n, ok := rec.LocalNames[lang.Normalize(code)]; ok && n != "" {
		return n
	}
	return rec.Name
}

// FormatRange renders the price range for display, e.g. "₹20-35 per kg at
// Lasalgaon Mandi".
func FormatRange(rec Commodity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "₹%s-%s per %s", trimFloat(rec.PriceMin), trimFloat(rec.PriceMax), rec.Unit)
	if rec.Market != "" {
		fmt.Fprintf(&b, " at %s", rec.Market)
	}
	return b.String()
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
