package assistant

import (
	"context"
	"io"
	"log/slog"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/mandika-app/mandika/internal/advisor"
	"github.com/mandika-app/mandika/internal/catalog"
	"github.com/mandika-app/mandika/internal/config"
	"github.com/mandika-app/mandika/internal/kv"
	"github.com/mandika-app/mandika/internal/observe"
)

func reloadSheet(t *testing.T, recs ...catalog.Commodity) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(recs)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return cat
}

func TestSheetSwapRebuildsIndices(t *testing.T) {
	t.Parallel()

	onionOnly := reloadSheet(t, catalog.Commodity{
		ID: "onion", Name: "Onion", PriceMin: 20, PriceMax: 35,
		Unit: catalog.UnitKilogram, Trend: catalog.TrendStable, Category: catalog.CategoryVegetable,
	})
	tomatoOnly := reloadSheet(t, catalog.Commodity{
		ID: "tomato", Name: "Tomato", PriceMin: 15, PriceMax: 25,
		Unit: catalog.UnitKilogram, Trend: catalog.TrendRising, Category: catalog.CategoryVegetable,
	})

	cfg := config.Default()
	cfg.Store.Kind = config.StoreMemory

	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	a, err := New(context.Background(), cfg,
		WithStore(kv.NewMemStore()),
		WithCatalog(onionOnly),
		WithMetrics(m),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close(context.Background())

	if _, ok := a.Resolve("tomato"); ok {
		t.Fatal("tomato resolved before the sheet carried it")
	}
	if s := a.Advise(advisor.Context{CommodityID: "tomato", CurrentOffer: 18}); s.Kind != advisor.KindInfo {
		t.Fatalf("Advise kind = %q before reload, want info with no reference", s.Kind)
	}

	// Simulate what the watcher does on a sheet change.
	a.onSheetChange(onionOnly, tomatoOnly)

	if _, ok := a.Resolve("tomato"); !ok {
		t.Error("tomato does not resolve after the swap")
	}
	if _, ok := a.Resolve("onion"); ok {
		t.Error("onion still resolves after its sheet dropped it")
	}
	if got := a.Catalog().Len(); got != 1 {
		t.Errorf("Catalog().Len() = %d, want 1", got)
	}
	if s := a.Advise(advisor.Context{CommodityID: "tomato", CurrentOffer: 18}); s.Kind == advisor.KindInfo {
		t.Errorf("Advise kind = %q after reload, want a priced suggestion", s.Kind)
	}
}
