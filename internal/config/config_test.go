package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mandika-app/mandika/internal/config"
	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
	"github.com/mandika-app/mandika/pkg/translator/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug

store:
  kind: sqlite
  path: /var/lib/mandika/slots.db

catalog:
  path: prices/lasalgaon.yaml
  watch: true

translation:
  backend:
    name: phrasebook
  cache_capacity: 250

languages:
  vendor: mr
  customer: en
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":9090")
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogDebug)
	}
	if cfg.Store.Kind != config.StoreSQLite {
		t.Errorf("store.kind: got %q, want %q", cfg.Store.Kind, config.StoreSQLite)
	}
	if cfg.Store.Path != "/var/lib/mandika/slots.db" {
		t.Errorf("store.path: got %q", cfg.Store.Path)
	}
	if cfg.Catalog.Path != "prices/lasalgaon.yaml" || !cfg.Catalog.Watch {
		t.Errorf("catalog: got %+v", cfg.Catalog)
	}
	if cfg.Translation.Backend.Name != "phrasebook" {
		t.Errorf("translation.backend.name: got %q", cfg.Translation.Backend.Name)
	}
	if cfg.Translation.CacheCapacity != 250 {
		t.Errorf("translation.cache_capacity: got %d, want 250", cfg.Translation.CacheCapacity)
	}
	if cfg.Languages.Vendor != lang.Marathi {
		t.Errorf("languages.vendor: got %q, want %q", cfg.Languages.Vendor, lang.Marathi)
	}
}

func TestLoadFromReader_EmptyGetsDefaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	assertDefaults(t, cfg)
}

func TestDefault(t *testing.T) {
	assertDefaults(t, config.Default())
}

func assertDefaults(t *testing.T, cfg *config.Config) {
	t.Helper()
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default log_level: got %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Store.Kind != config.StoreFile {
		t.Errorf("default store.kind: got %q, want file", cfg.Store.Kind)
	}
	if cfg.Store.Dir != config.DefaultDataDir {
		t.Errorf("default store.dir: got %q, want %q", cfg.Store.Dir, config.DefaultDataDir)
	}
	if cfg.Translation.Backend.Name != config.DefaultBackend {
		t.Errorf("default backend: got %q, want %q", cfg.Translation.Backend.Name, config.DefaultBackend)
	}
	if cfg.Languages.Vendor != lang.Hindi || cfg.Languages.Customer != lang.English {
		t.Errorf("default languages: got %+v, want vendor hi, customer en", cfg.Languages)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mandika.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Kind != config.StoreSQLite {
		t.Errorf("store.kind: got %q, want sqlite", cfg.Store.Kind)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	// main shows a friendlier hint for a missing file, so the sentinel must
	// survive wrapping.
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	yaml := `
translation:
  cache_size: 10
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field cache_size, got nil")
	}
}

// ── Log levels ────────────────────────────────────────────────────────────────

func TestLogLevelSlog(t *testing.T) {
	levels := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	seen := make(map[string]bool)
	for _, l := range levels {
		if !l.IsValid() {
			t.Errorf("LogLevel %q should be valid", l)
		}
		seen[l.Slog().String()] = true
	}
	if len(seen) != 4 {
		t.Errorf("Slog() mapped %d distinct levels, want 4", len(seen))
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error(`LogLevel "verbose" should be invalid`)
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownBackend(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateBackend(config.BackendEntry{Name: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !errors.Is(err, config.ErrBackendNotRegistered) {
		t.Errorf("expected ErrBackendNotRegistered, got: %v", err)
	}
}

func TestRegistry_RegisteredBackend(t *testing.T) {
	reg := config.NewRegistry()
	want := &mock.Backend{}
	reg.RegisterBackend("stub", func(e config.BackendEntry) (translator.Backend, error) {
		return want, nil
	})

	got, err := reg.CreateBackend(config.BackendEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned backend is not the expected instance")
	}
	if names := reg.BackendNames(); len(names) != 1 || names[0] != "stub" {
		t.Errorf("BackendNames() = %v, want [stub]", names)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterBackend("broken", func(e config.BackendEntry) (translator.Backend, error) {
		return nil, wantErr
	})
	_, err := reg.CreateBackend(config.BackendEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}
