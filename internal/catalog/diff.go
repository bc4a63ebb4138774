package catalog

// SheetDiff describes what changed between two loaded price sheets.
// It is informational: a reload always swaps the whole catalog, and the
// diff feeds the reload log so vendors can see which prices moved.
type SheetDiff struct {
	Changed bool            // true if any commodity was added, removed, or altered
	Changes []CommodityDiff // per-commodity diffs
}

// CommodityDiff describes what changed for a single commodity between two
// sheets. Name and alias edits alone do not surface here; only the
// commercially meaningful fields are tracked.
type CommodityDiff struct {
	ID           string
	PriceChanged bool
	TrendChanged bool
	UnitChanged  bool
	Added        bool
	Removed      bool
}

// Diff compares old and new price sheets and returns what changed.
// Removed and altered records appear in old sheet order, additions in new
// sheet order, so repeated diffs of the same pair are identical.
func Diff(old, new *Catalog) SheetDiff {
	d := SheetDiff{}

	// Detect altered and removed commodities.
	for _, prev := range old.All() {
		next, exists := new.ByID(prev.ID)
		if !exists {
			d.Changes = append(d.Changes, CommodityDiff{
				ID:      prev.ID,
				Removed: true,
			})
			d.Changed = true
			continue
		}
		cd := diffCommodity(prev, next)
		if cd.PriceChanged || cd.TrendChanged || cd.UnitChanged {
			d.Changes = append(d.Changes, cd)
			d.Changed = true
		}
	}

	// Detect added commodities.
	for _, next := range new.All() {
		if _, exists := old.ByID(next.ID); !exists {
			d.Changes = append(d.Changes, CommodityDiff{
				ID:    next.ID,
				Added: true,
			})
			d.Changed = true
		}
	}

	return d
}

// diffCommodity compares two records with the same id.
func diffCommodity(old, new Commodity) CommodityDiff {
	cd := CommodityDiff{ID: old.ID}

	if old.PriceMin != new.PriceMin || old.PriceMax != new.PriceMax {
		cd.PriceChanged = true
	}

	if old.Trend != new.Trend {
		cd.TrendChanged = true
	}

	if old.Unit != new.Unit {
		cd.UnitChanged = true
	}

	return cd
}
