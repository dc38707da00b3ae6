// Package config handles TOML-based configuration loading and validation.
// The site identifiers and the companion service address live here instead of
// being baked into the redirector, so a site moving domains is a config edit.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
type Config struct {
	Listen                string   `toml:"listen"`
	MirrorURL             string   `toml:"mirror_url"`
	SiteBase              string   `toml:"site_base"`
	SiteHosts             []string `toml:"site_hosts"`
	MarkerID              string   `toml:"marker_id"`
	MediaDir              string   `toml:"media_dir"`
	NotifyDelayMS         int      `toml:"notify_delay_ms"`
	ExtractTimeoutSeconds int      `toml:"extract_timeout_seconds"`
	PruneSchedule         string   `toml:"prune_schedule"`
	Headless              bool     `toml:"headless"`
	CDPURL                string   `toml:"cdp_url"`
	Player                string   `toml:"player"`
	NtfyTopic             string   `toml:"ntfy_topic"`
	Debug                 bool     `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:                ":8918",
		MirrorURL:             "http://localhost:8918",
		SiteBase:              "https://soap2day.mx",
		SiteHosts:             []string{"soap2day", "s2dfree"},
		MarkerID:              "divPlayerSelect",
		MediaDir:              "~/Videos/soapmirror",
		NotifyDelayMS:         1000,
		ExtractTimeoutSeconds: 60,
		PruneSchedule:         "@every 1h",
		Headless:              true,
		Player:                "mpv",
		Debug:                 false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "soapmirror"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "soapmirror"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	for _, f := range []struct{ name, raw string }{
		{"mirror_url", c.MirrorURL},
		{"site_base", c.SiteBase},
	} {
		u, err := url.Parse(f.raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", f.name, f.raw)
		}
	}

	if len(c.SiteHosts) == 0 {
		return fmt.Errorf("site_hosts cannot be empty")
	}
	for _, h := range c.SiteHosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("site_hosts contains an empty entry")
		}
	}

	if strings.TrimSpace(c.MarkerID) == "" {
		return fmt.Errorf("marker_id cannot be empty")
	}

	if c.MediaDir == "" {
		return fmt.Errorf("media_dir cannot be empty")
	}

	if c.NotifyDelayMS < 0 {
		return fmt.Errorf("notify_delay_ms cannot be negative")
	}
	if c.ExtractTimeoutSeconds <= 0 {
		return fmt.Errorf("extract_timeout_seconds must be positive")
	}

	if c.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.PruneSchedule); err != nil {
			return fmt.Errorf("invalid prune_schedule %q: %w", c.PruneSchedule, err)
		}
	}

	c.Player = strings.ToLower(strings.TrimSpace(c.Player))
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[c.Player] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	return nil
}

// NotifyDelay is the wait applied to the first toast of a page lifetime.
func (c *Config) NotifyDelay() time.Duration {
	return time.Duration(c.NotifyDelayMS) * time.Millisecond
}

// ExtractTimeout bounds one headless player extraction.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSeconds) * time.Second
}

// ExpandMediaDir resolves ~ in the media directory path.
func (c *Config) ExpandMediaDir() (string, error) {
	dir := c.MediaDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// DataDir returns the directory holding the index database and lock file.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "soapmirror"), nil
}
