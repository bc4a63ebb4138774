package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML document a vendor catalog is loaded from.
//
//	catalog:
//	  name: Sitaphal Mandi price sheet
//	  market: Azadpur Mandi
//	commodities:
//	  - id: onion
//	    name: Onion
//	    ...
type File struct {
	Meta        Meta        `yaml:"catalog"`
	Commodities []Commodity `yaml:"commodities"`
}

// Meta describes the sheet as a whole.
type Meta struct {
	// Name labels the sheet in logs.
	Name string `yaml:"name,omitempty"`

	// Market is applied to every commodity that does not set its own.
	Market string `yaml:"market,omitempty"`
}

// LoadFile reads a catalog from the YAML file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	defer f.Close()

	cat, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cat, nil
}

// LoadFromReader decodes a catalog document from r. Unknown YAML fields are
// rejected so typos in hand-edited sheets surface at startup instead of
// silently dropping data.
func LoadFromReader(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("catalog: decoding yaml: %w", err)
	}
	for i := range file.Commodities {
		if file.Commodities[i].Market == "" {
			file.Commodities[i].Market = file.Meta.Market
		}
	}
	return New(file.Commodities)
}
