package catalog

import (
	"bytes"
	_ "embed"
	"sync"
)

// defaultsYAML is the starter price sheet shipped with the binary. Vendors
// override it with their own sheet via [LoadFile].
//
//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded starter catalog. The sheet is parsed once and
// shared; it is safe for concurrent use because catalogs are immutable.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadFromReader(bytes.NewReader(defaultsYAML))
	})
	return defaultCatalog, defaultErr
}
