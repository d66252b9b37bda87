package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStorage points the test config at a storage endpoint, usually an
// httptest server URL.
func WithStorage(baseURL, token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.BaseURL = baseURL
		cfg.Storage.Token = token
	}
}

// WithEbookCache toggles the archive cache on the test config.
func WithEbookCache(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ebooks.CacheEnabled = enabled
	}
}
