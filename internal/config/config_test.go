package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MirrorURL != "http://localhost:8918" {
		t.Errorf("default mirror_url = %q, want http://localhost:8918", cfg.MirrorURL)
	}
	if cfg.MarkerID != "divPlayerSelect" {
		t.Errorf("default marker_id = %q, want divPlayerSelect", cfg.MarkerID)
	}
	if len(cfg.SiteHosts) != 2 || cfg.SiteHosts[0] != "soap2day" || cfg.SiteHosts[1] != "s2dfree" {
		t.Errorf("default site_hosts = %v", cfg.SiteHosts)
	}
	if cfg.NotifyDelay() != time.Second {
		t.Errorf("default notify delay = %v, want 1s", cfg.NotifyDelay())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty listen", func(c *Config) { c.Listen = "" }, true},
		{"relative mirror url", func(c *Config) { c.MirrorURL = "localhost:8918" }, true},
		{"ftp site base", func(c *Config) { c.SiteBase = "ftp://soap2day.mx" }, true},
		{"no site hosts", func(c *Config) { c.SiteHosts = nil }, true},
		{"blank site host", func(c *Config) { c.SiteHosts = []string{"soap2day", " "} }, true},
		{"empty marker", func(c *Config) { c.MarkerID = "" }, true},
		{"negative delay", func(c *Config) { c.NotifyDelayMS = -1 }, true},
		{"zero extract timeout", func(c *Config) { c.ExtractTimeoutSeconds = 0 }, true},
		{"bad prune schedule", func(c *Config) { c.PruneSchedule = "every now and then" }, true},
		{"prune disabled", func(c *Config) { c.PruneSchedule = "" }, false},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"valid vlc", func(c *Config) { c.Player = "vlc" }, false},
		{"zero delay", func(c *Config) { c.NotifyDelayMS = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesPlayer(t *testing.T) {
	cfg := Default()
	cfg.Player = " VLC "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want vlc", cfg.Player)
	}
}

func TestValidateReportsFirstBadURL(t *testing.T) {
	for i := 0; i < 20; i++ {
		cfg := Default()
		cfg.MirrorURL = "localhost:8918"
		cfg.SiteBase = "ftp://soap2day.mx"
		err := cfg.Validate()
		if err == nil || !strings.HasPrefix(err.Error(), "mirror_url") {
			t.Fatalf("Validate() error = %v, want mirror_url first", err)
		}
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "soapmirror")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
mirror_url = "http://127.0.0.1:9000"
site_hosts = ["example"]
marker_id = "player"
notify_delay_ms = 250
headless = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MirrorURL != "http://127.0.0.1:9000" {
		t.Errorf("mirror_url = %q", cfg.MirrorURL)
	}
	if len(cfg.SiteHosts) != 1 || cfg.SiteHosts[0] != "example" {
		t.Errorf("site_hosts = %v", cfg.SiteHosts)
	}
	if cfg.MarkerID != "player" {
		t.Errorf("marker_id = %q", cfg.MarkerID)
	}
	if cfg.NotifyDelay() != 250*time.Millisecond {
		t.Errorf("notify delay = %v", cfg.NotifyDelay())
	}
	if cfg.Headless {
		t.Error("headless should be false")
	}
	// untouched keys keep their defaults
	if cfg.SiteBase != "https://soap2day.mx" {
		t.Errorf("site_base = %q", cfg.SiteBase)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	dir := filepath.Join(tmpDir, "soapmirror")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`marker_id = ""`), 0644)

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for empty marker_id")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Listen != ":8918" {
		t.Errorf("missing file should return defaults, got listen = %q", cfg.Listen)
	}
}

func TestExpandMediaDir(t *testing.T) {
	cfg := Default()
	cfg.MediaDir = "/tmp/test-media"

	dir, err := cfg.ExpandMediaDir()
	if err != nil {
		t.Fatalf("ExpandMediaDir() error: %v", err)
	}
	if dir != "/tmp/test-media" {
		t.Errorf("got %q, want /tmp/test-media", dir)
	}
}

func TestDataDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(tmp, "soapmirror") {
		t.Errorf("DataDir() = %q", dir)
	}
}
