package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mandika-app/mandika/pkg/lang"
)

// ValidBackendNames lists the translation backends that ship with the
// assistant. Used by [Validate] to warn about unrecognised backend names,
// which may still be fine when the name was registered by an embedder.
var ValidBackendNames = []string{"phrasebook", "mock"}

// Defaults applied by [applyDefaults] for fields left empty in the file.
const (
	DefaultDataDir    = "mandika-data"
	DefaultSQLitePath = "mandika.db"
	DefaultBackend    = "phrasebook"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals. An empty reader yields the all-defaults config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills empty fields so the rest of the program never has to
// re-check for zero values.
func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = StoreFile
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = DefaultDataDir
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultSQLitePath
	}
	if cfg.Translation.Backend.Name == "" {
		cfg.Translation.Backend.Name = DefaultBackend
	}
	if cfg.Languages.Vendor == "" {
		cfg.Languages.Vendor = lang.Hindi
	}
	if cfg.Languages.Customer == "" {
		cfg.Languages.Customer = lang.English
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if !cfg.Store.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("store.kind %q is invalid; valid values: memory, file, sqlite", cfg.Store.Kind))
	}
	if cfg.Translation.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("translation.cache_capacity %d is negative; use 0 for the default", cfg.Translation.CacheCapacity))
	}
	if cfg.Catalog.Watch && cfg.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.watch requires catalog.path; the embedded sheet cannot be watched"))
	}

	validateBackendName(cfg.Translation.Backend.Name)
	validateLanguage("languages.vendor", cfg.Languages.Vendor)
	validateLanguage("languages.customer", cfg.Languages.Customer)

	return errors.Join(errs...)
}

// validateBackendName logs a warning if name is not one of the bundled
// backends. Embedders may register additional names, so this is not an error.
func validateBackendName(name string) {
	if name == "" || slices.Contains(ValidBackendNames, name) {
		return
	}
	slog.Warn("unknown translation backend name; it must be registered before start",
		"name", name,
		"bundled", ValidBackendNames,
	)
}

// validateLanguage logs a warning for languages the assistant ships no
// localised content for. They still work; phrasing falls back to English.
func validateLanguage(field string, code lang.Code) {
	if code.IsKnown() {
		return
	}
	slog.Warn("language has no bundled content; phrasing will fall back to English",
		"field", field,
		"code", code,
	)
}
