package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
)

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config to report exists=false for %s", path)
	}
	if cfg.Library.PageSizeDefault != 50 || cfg.Library.PageSizeMax != 200 {
		t.Fatalf("unexpected pagination defaults: %+v", cfg.Library)
	}
	if !cfg.Ebooks.CacheEnabled || cfg.Ebooks.FetchTimeout != 30 {
		t.Fatalf("unexpected ebook defaults: %+v", cfg.Ebooks)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadOverlaysFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
api_bind = "127.0.0.1:9000"

[storage]
base_url = "https://store.example/media/"
token = " secret "

[ebooks]
cache_ttl_seconds = 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Storage.BaseURL != "https://store.example/media" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Storage.BaseURL)
	}
	if cfg.Storage.Token != "secret" {
		t.Fatalf("expected token trimmed, got %q", cfg.Storage.Token)
	}
	if cfg.Ebooks.CacheTTLSeconds != 60 {
		t.Fatalf("unexpected cache ttl: %d", cfg.Ebooks.CacheTTLSeconds)
	}
	// Defaults fill sections the file omits.
	if cfg.Library.PageSizeDefault != 50 {
		t.Fatalf("expected default page size, got %d", cfg.Library.PageSizeDefault)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad scheme",
			content: "[storage]\nbase_url = \"ftp://store.example\"\n",
			want:    "storage.base_url",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"yaml\"\n",
			want:    "logging.format",
		},
		{
			name:    "bad log level",
			content: "[logging]\nlevel = \"loud\"\n",
			want:    "logging.level",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	// The sample must parse and validate as-is.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
