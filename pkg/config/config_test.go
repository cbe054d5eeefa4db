package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFileCreatesDefaults(t *testing.T) {
	t.Setenv("CONTACT_SCRAPE_BASE_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Scrape.Concurrency != 5 || cfg.Scraper.BasePath != "/api/scraping" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestLoadFileMergesAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[scraper]\nbase_url = \"http://scraper:3000\"\n\n[scrape]\nconcurrency = 8\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CONTACT_SCRAPE_API_KEY", "from-env")
	t.Setenv("CONTACT_SCRAPE_BASE_URL", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Scraper.BaseURL != "http://scraper:3000" || cfg.Scrape.Concurrency != 8 {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Scrape.BatchLimitSlack != 10 || cfg.Logging.Level != "info" {
		t.Fatalf("missing values not merged: %+v", cfg)
	}
	if cfg.Scraper.APIKey != "from-env" {
		t.Fatalf("env override not applied: %q", cfg.Scraper.APIKey)
	}
}

func TestSetAndSave(t *testing.T) {
	t.Setenv("CONTACT_SCRAPE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	if err := cfg.Set("scrape.settle_delay_ms", "1200"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Set("scraper.api_key", " abc "); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Set("scrape.concurrency", "many"); err == nil {
		t.Fatalf("Set(non-number) expected error")
	}
	if err := cfg.Set("nope.key", "1"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("Set(unknown) error = %v", err)
	}
	if err := SaveFile(cfg, path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.SettleDelay().Milliseconds() != 1200 || loaded.Scraper.APIKey != "abc" {
		t.Fatalf("round trip = %+v", loaded)
	}
}
