// Package config provides the configuration schema, loader, and backend
// registry for the Mandika market assistant.
package config

import (
	"log/slog"

	"github.com/mandika-app/mandika/pkg/lang"
)

// LogLevel controls log verbosity for the assistant.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to the corresponding [slog.Level]. Unrecognised levels map to
// Info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StoreKind selects the persistence substrate for the cache and journal
// slots.
type StoreKind string

const (
	// StoreMemory keeps all slots in memory. Nothing survives a restart.
	StoreMemory StoreKind = "memory"

	// StoreFile keeps each slot as a JSON file in a directory. The default.
	StoreFile StoreKind = "file"

	// StoreSQLite keeps all slots in a single SQLite database file.
	StoreSQLite StoreKind = "sqlite"
)

// IsValid reports whether k is a recognised store kind.
func (k StoreKind) IsValid() bool {
	switch k {
	case StoreMemory, StoreFile, StoreSQLite:
		return true
	}
	return false
}

// Config is the root configuration structure for Mandika.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Translation TranslationConfig `yaml:"translation"`
	Languages   LanguagesConfig   `yaml:"languages"`
}

// ServerConfig holds the observability endpoint and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the health and metrics endpoints listen
	// on (e.g., ":9090"). Empty disables the HTTP surface entirely.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Defaults to info.
	LogLevel LogLevel `yaml:"log_level"`
}

// StoreConfig selects and locates the slot store.
type StoreConfig struct {
	// Kind selects the persistence substrate. Defaults to file.
	Kind StoreKind `yaml:"kind"`

	// Dir is the directory holding slot files when Kind is file.
	// Defaults to "mandika-data".
	Dir string `yaml:"dir"`

	// Path is the database file when Kind is sqlite.
	// Defaults to "mandika.db".
	Path string `yaml:"path"`
}

// CatalogConfig locates the commodity price sheet.
type CatalogConfig struct {
	// Path is the YAML price sheet to load. Empty uses the embedded starter
	// sheet.
	Path string `yaml:"path"`

	// Watch reloads the price sheet when the file changes, so a freshly
	// written sheet takes effect without a restart. Ignored when Path is
	// empty.
	Watch bool `yaml:"watch"`
}

// TranslationConfig tunes the translation service.
type TranslationConfig struct {
	// Backend selects the registered translation engine. Defaults to the
	// offline phrasebook.
	Backend BackendEntry `yaml:"backend"`

	// CacheCapacity bounds the translation cache. Zero means the service
	// default.
	CacheCapacity int `yaml:"cache_capacity"`
}

// BackendEntry is the configuration block for a translation backend. The
// Name field is used to look up the constructor in the [Registry].
type BackendEntry struct {
	// Name selects the registered backend implementation (e.g.,
	// "phrasebook").
	Name string `yaml:"name"`

	// Options holds backend-specific configuration values. Values may be
	// strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// LanguagesConfig sets the default conversation languages.
type LanguagesConfig struct {
	// Vendor is the language the vendor speaks and reads advice in.
	// Defaults to hi.
	Vendor lang.Code `yaml:"vendor"`

	// Customer is the language customers are assumed to speak.
	// Defaults to en.
	Customer lang.Code `yaml:"customer"`
}
