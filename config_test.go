package tagloader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*Config){
		"missing tag id":        func(c *Config) { c.TagID = "" },
		"missing container id":  func(c *Config) { c.ContainerID = "" },
		"relative first party":  func(c *Config) { c.FirstPartyCDNURL = "/metrics" },
		"missing server url":    func(c *Config) { c.ServerContainerURL = "" },
		"bad data layer name":   func(c *Config) { c.DataLayerName = "data-layer" },
		"non http server url":   func(c *Config) { c.ServerContainerURL = "ftp://sgtm.example.com" },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.CookieName != DefaultCookieName || cfg.DataLayerName != DefaultDataLayerName {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigLayersEnvOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagloader.yaml")
	yaml := strings.Join([]string{
		"tag_id: G-FILE",
		"container_id: GTM-FILE",
		"server_container_url: https://sgtm.example.com",
		"first_party_server_url: https://metrics.example.com",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TAGLOADER_TAG_ID", "G-ENV")

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Config.TagID != "G-ENV" || loaded.Config.ContainerID != "GTM-FILE" {
		t.Fatalf("unexpected merge: %+v", loaded.Config)
	}
	if loaded.Config.CookieName != DefaultCookieName {
		t.Fatalf("expected default cookie name, got %q", loaded.Config.CookieName)
	}
	wantSources := map[string]string{
		"TagID":               "env",
		"ContainerID":         "file",
		"FirstPartyServerURL": "file",
		"CookieName":          "defaults",
	}
	for field, want := range wantSources {
		if got := loaded.Source[field]; got != want {
			t.Fatalf("source of %s = %q, want %q", field, got, want)
		}
	}
}

func TestLoadConfigJSONAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagloader.json")
	if err := os.WriteFile(path, []byte(`{"tag_id":"G-1","container_id":"GTM-1"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Config.TagID != "G-1" {
		t.Fatalf("unexpected config %+v", loaded.Config)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	toml := filepath.Join(dir, "tagloader.toml")
	if err := os.WriteFile(toml, []byte(""), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(toml); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := LoadConfig(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected validation error without identifiers, got %v", err)
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nTAGLOADER_TEST_A=\"from-file\"\nexport TAGLOADER_TEST_B='kept'\nnot a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("TAGLOADER_TEST_A", "from-env")
	t.Setenv("TAGLOADER_TEST_B", "")
	os.Unsetenv("TAGLOADER_TEST_B")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("TAGLOADER_TEST_A"); got != "from-env" {
		t.Fatalf("existing variable overridden: %q", got)
	}
	if got := os.Getenv("TAGLOADER_TEST_B"); got != "kept" {
		t.Fatalf("expected dotenv value, got %q", got)
	}
	if err := LoadDotenv(filepath.Join(dir, "absent")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}
