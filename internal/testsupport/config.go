package testsupport

import (
	"path/filepath"
	"testing"

	"reelsync/internal/config"
	"reelsync/internal/library"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.TMDB.APIKey = "test"
	cfg.Simkl.ClientID = "test-client"
	cfg.Simkl.TokenFile = filepath.Join(base, "token.json")
	cfg.Paths.OutputDir = filepath.Join(base, "exports")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSource sets the primary watch history source.
func WithSource(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sources.Primary = name
	}
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TMDB.APIKey = key
	}
}

// MustOpenStore opens the library store for the config and closes it with the test.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()
	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("open library store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
