package health

import (
	"context"
	"errors"

	"github.com/mandika-app/mandika/internal/catalog"
	"github.com/mandika-app/mandika/internal/kv"
	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
)

// probeSlot is read on every store check. It is never written; reaching the
// store and getting a clean not-found back is the healthy signal.
const probeSlot = "healthz_probe"

// StoreChecker reports whether the slot store answers reads.
func StoreChecker(store kv.Store) Checker {
	return Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			_, err := store.Load(ctx, probeSlot)
			if err != nil && !errors.Is(err, kv.ErrSlotNotFound) {
				return err
			}
			return nil
		},
	}
}

// CatalogChecker reports whether a non-empty price catalog is loaded. The
// current func is called on every check so a hot-reloaded catalog is probed,
// not the one present at startup.
func CatalogChecker(current func() *catalog.Catalog) Checker {
	return Checker{
		Name: "catalog",
		Check: func(_ context.Context) error {
			if current().Len() == 0 {
				return errors.New("no commodities loaded")
			}
			return nil
		},
	}
}

// BackendChecker reports whether the translation backend answers requests.
// The probe asks for an identity translation, which every backend must
// accept.
func BackendChecker(backend translator.Backend) Checker {
	return Checker{
		Name: "translation_backend",
		Check: func(ctx context.Context) error {
			_, err := backend.Translate(ctx, "namaste", lang.English, lang.English)
			return err
		},
	}
}
